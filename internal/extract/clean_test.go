package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", CleanText("  a\n\t b  \tc  "))
	require.Equal(t, "", CleanText(" \n\t "))
}

func TestUniqueStrings(t *testing.T) {
	t.Parallel()

	got := uniqueStrings([]string{" one ", "two", "one", "", "two "})
	require.Equal(t, []string{"one", "two"}, got)
}

func TestPruneEmpty(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"name":  "Globe Herald",
		"logo":  "",
		"links": []any{"", nil, "https://site.test"},
		"nested": map[string]any{
			"empty": map[string]any{},
			"blank": "  ",
		},
		"zero": 0,
	}
	pruned := pruneEmpty(in)
	require.Equal(t, map[string]any{
		"name":  "Globe Herald",
		"links": []any{"https://site.test"},
		"zero":  0,
	}, pruned)

	// Idempotent.
	require.Equal(t, pruned, pruneEmpty(pruned))
	require.Nil(t, pruneEmpty(map[string]any{"a": "", "b": []any{}}))
}

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	got := splitKeywords([]string{"economy, inflation , ,rates"})
	require.Equal(t, []string{"economy", "inflation", "rates"}, got)
}
