package sites

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/discovery"
	"github.com/mediawatch/newscrawler/internal/extract"
)

func TestBuiltin_AllAdaptersResolve(t *testing.T) {
	t.Parallel()

	registry := Builtin()
	want := []string{"civicpress", "courierwire", "globeherald", "harborpost", "metrodespatch", "pacificledger"}
	require.Equal(t, want, registry.IDs())

	for _, id := range registry.IDs() {
		adapter, err := registry.Lookup(id)
		require.NoError(t, err)
		require.Equal(t, id, adapter.ID())
		require.NotNil(t, adapter.Descriptor())
	}
}

func TestLookup_UnknownSite(t *testing.T) {
	t.Parallel()

	_, err := Builtin().Lookup("dailybugle")
	require.Error(t, err)
	require.Equal(t, crawl.KindArgument, crawl.KindOf(err))
	require.Contains(t, err.Error(), "dailybugle")
}

func TestNewRegistry_RejectsDuplicatesAndEmptyIDs(t *testing.T) {
	t.Parallel()

	a := BaseAdapter{SiteID: "alpha", Source: discovery.RSSFeed{URL: "https://a.test/feed"}, Extraction: extract.DefaultRules()}
	b := BaseAdapter{SiteID: "alpha", Source: discovery.RSSFeed{URL: "https://b.test/feed"}, Extraction: extract.DefaultRules()}

	_, err := NewRegistry(a, b)
	require.Error(t, err)
	require.Equal(t, crawl.KindArgument, crawl.KindOf(err))

	_, err = NewRegistry(BaseAdapter{})
	require.Error(t, err)
}

func TestGlobeHerald_EscalatesOnlyVideoPages(t *testing.T) {
	t.Parallel()

	adapter, err := Builtin().Lookup("globeherald")
	require.NoError(t, err)

	esc := adapter.EscalationFor("https://www.globeherald.com/video/launch-day")
	require.NotNil(t, esc)
	require.Equal(t, "div.video-player", esc.WaitSelector)
	require.NotEmpty(t, esc.VideoReads)

	require.Nil(t, adapter.EscalationFor("https://www.globeherald.com/a/plain-story"))
}

func TestHarborPostStop(t *testing.T) {
	t.Parallel()

	window, err := crawl.NewWindow(
		time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	require.False(t, harborPostStop(map[string]any{"published_at": "2023-04-10T00:30:00Z"}, window))
	require.True(t, harborPostStop(map[string]any{"published_at": "2023-04-09T23:30:00Z"}, window))
	require.False(t, harborPostStop(map[string]any{"title": "undated"}, window))
}

func TestHarborPostRecord(t *testing.T) {
	t.Parallel()

	link, ok := harborPostRecord(map[string]any{
		"url":          "https://www.harborpost.ca/a/one",
		"title":        "Harbour report",
		"published_at": "2023-04-11T12:00:00Z",
	})
	require.True(t, ok)
	require.Equal(t, "https://www.harborpost.ca/a/one", link.URL)
	require.Equal(t, "Harbour report", link.Title)
	require.NotNil(t, link.PublishedAt)

	_, ok = harborPostRecord(map[string]any{"title": "no url"})
	require.False(t, ok)
}
