package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitLocale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		lang    string
		country string
	}{
		{"en-US", "en", "US"},
		{"en_GB", "en", "GB"},
		{"ES", "es", ""},
		{" de-DE ", "de", "DE"},
		{"", "", ""},
	}
	for _, tc := range cases {
		lang, country := splitLocale(tc.raw)
		require.Equal(t, tc.lang, lang, "raw %q", tc.raw)
		require.Equal(t, tc.country, country, "raw %q", tc.raw)
	}
}

func TestLanguageAndCountryNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "English", languageName("EN"))
	require.Equal(t, "United States", countryName("us"))
	require.Equal(t, "", languageName("xx"))
	require.Equal(t, "", countryName("XX"))
}
