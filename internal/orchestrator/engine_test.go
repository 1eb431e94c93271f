package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/discovery"
	"github.com/mediawatch/newscrawler/internal/extract"
	"github.com/mediawatch/newscrawler/internal/sites"
)

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string][]byte),
		failures:  make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawl.FetchRequest) (crawl.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[req.URL]; ok {
		return crawl.Response{}, err
	}
	body, ok := f.responses[req.URL]
	if !ok {
		return crawl.Response{}, crawl.NewError(crawl.KindNetworkPermanent, "no fixture for %s", req.URL)
	}
	return crawl.Response{URL: req.URL, StatusCode: 200, ContentType: "text/html", Body: body}, nil
}

func articleHTML(headline, published string) []byte {
	return []byte(fmt.Sprintf(`<html lang="en"><head>
<script type="application/ld+json">{"@type":"NewsArticle","headline":"%s","datePublished":"%s"}</script>
</head><body><article><p>Body of %s.</p></article></body></html>`, headline, published, headline))
}

func feedXML(items string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>%s</channel></rss>`, items))
}

func feedItem(link, pubDate string) string {
	if pubDate == "" {
		return fmt.Sprintf(`<item><title>story</title><link>%s</link></item>`, link)
	}
	return fmt.Sprintf(`<item><title>story</title><link>%s</link><pubDate>%s</pubDate></item>`, link, pubDate)
}

func testRegistry(t *testing.T) *sites.Registry {
	t.Helper()
	registry, err := sites.NewRegistry(sites.BaseAdapter{
		SiteID:     "testsite",
		Source:     discovery.RSSFeed{URL: "https://testsite.test/feed.xml"},
		Extraction: extract.DefaultRules(),
	})
	require.NoError(t, err)
	return registry
}

func runEngine(t *testing.T, fetcher crawl.Fetcher, req crawl.Request) []crawl.Event {
	t.Helper()
	engine := New(testRegistry(t), fetcher, nil, extract.New(nil, zap.NewNop()), zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var events []crawl.Event
	for event := range engine.Run(ctx, req) {
		events = append(events, event)
	}
	return events
}

func eventsOfType(events []crawl.Event, typ crawl.EventType) []crawl.Event {
	var out []crawl.Event
	for _, event := range events {
		if event.Type == typ {
			out = append(out, event)
		}
	}
	return out
}

func discoverRequest(t *testing.T) crawl.Request {
	t.Helper()
	window, err := crawl.NewWindow(
		time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return crawl.Request{Mode: crawl.ModeDiscover, Site: "testsite", Window: window, Concurrency: 2}
}

func TestRun_DiscoverAndExtract(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.responses["https://testsite.test/feed.xml"] = feedXML(
		feedItem("https://testsite.test/a/one", "Mon, 10 Apr 2023 09:00:00 GMT") +
			feedItem("https://testsite.test/a/two", "Tue, 11 Apr 2023 09:00:00 GMT"))
	fetcher.responses["https://testsite.test/a/one"] = articleHTML("One", "2023-04-10T09:00:00Z")
	fetcher.responses["https://testsite.test/a/two"] = articleHTML("Two", "2023-04-11T09:00:00Z")

	events := runEngine(t, fetcher, discoverRequest(t))

	require.Len(t, eventsOfType(events, crawl.EventDiscovered), 2)
	require.Len(t, eventsOfType(events, crawl.EventArticle), 2)
	require.Empty(t, eventsOfType(events, crawl.EventCrawlError))

	// Done is the final event and carries the run stats.
	last := events[len(events)-1]
	require.Equal(t, crawl.EventDone, last.Type)
	require.Equal(t, 2, last.Stats.Discovered)
	require.Equal(t, 2, last.Stats.Emitted)
	require.Nil(t, last.Stats.Errors)
}

func TestRun_LinksOnly(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.responses["https://testsite.test/feed.xml"] = feedXML(
		feedItem("https://testsite.test/a/one", "Mon, 10 Apr 2023 09:00:00 GMT"))

	req := discoverRequest(t)
	req.LinksOnly = true
	events := runEngine(t, fetcher, req)

	require.Len(t, eventsOfType(events, crawl.EventDiscovered), 1)
	require.Empty(t, eventsOfType(events, crawl.EventArticle))

	last := events[len(events)-1]
	require.Equal(t, crawl.EventDone, last.Type)
	require.Equal(t, 1, last.Stats.Discovered)
	require.Equal(t, 0, last.Stats.Emitted)
}

func TestRun_ArticleFailureDoesNotAbortCrawl(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.responses["https://testsite.test/feed.xml"] = feedXML(
		feedItem("https://testsite.test/a/ok", "Mon, 10 Apr 2023 09:00:00 GMT") +
			feedItem("https://testsite.test/a/gone", "Tue, 11 Apr 2023 09:00:00 GMT"))
	fetcher.responses["https://testsite.test/a/ok"] = articleHTML("OK", "2023-04-10T09:00:00Z")
	fetcher.failures["https://testsite.test/a/gone"] = crawl.NewError(crawl.KindNetworkPermanent, "404")

	events := runEngine(t, fetcher, discoverRequest(t))

	require.Len(t, eventsOfType(events, crawl.EventArticle), 1)
	failures := eventsOfType(events, crawl.EventArticleError)
	require.Len(t, failures, 1)
	require.Equal(t, "https://testsite.test/a/gone", failures[0].ArticleErr.URL)
	require.Equal(t, crawl.KindNetworkPermanent, failures[0].ArticleErr.Kind)
	require.Empty(t, eventsOfType(events, crawl.EventCrawlError))

	last := events[len(events)-1]
	require.Equal(t, 1, last.Stats.Emitted)
	require.Equal(t, 1, last.Stats.Errors[crawl.KindNetworkPermanent])
}

func TestRun_UndatedLinkFilteredByExtractedDate(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.responses["https://testsite.test/feed.xml"] = feedXML(
		feedItem("https://testsite.test/a/recent", "") +
			feedItem("https://testsite.test/a/ancient", ""))
	fetcher.responses["https://testsite.test/a/recent"] = articleHTML("Recent", "2023-04-11T09:00:00Z")
	fetcher.responses["https://testsite.test/a/ancient"] = articleHTML("Ancient", "2021-01-01T09:00:00Z")

	events := runEngine(t, fetcher, discoverRequest(t))

	articles := eventsOfType(events, crawl.EventArticle)
	require.Len(t, articles, 1)
	require.Equal(t, []string{"Recent"}, articles[0].Article.ParsedData.Title)
	require.Empty(t, eventsOfType(events, crawl.EventArticleError))

	last := events[len(events)-1]
	require.Equal(t, 2, last.Stats.Discovered)
	require.Equal(t, 1, last.Stats.Emitted)
}

func TestRun_DiscoveryRootFailureIsCrawlError(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.failures["https://testsite.test/feed.xml"] = crawl.NewError(crawl.KindNetworkTransient, "503")

	events := runEngine(t, fetcher, discoverRequest(t))

	failures := eventsOfType(events, crawl.EventCrawlError)
	require.Len(t, failures, 1)
	require.Equal(t, crawl.KindNetworkTransient, failures[0].CrawlErr.Kind)
	require.Equal(t, crawl.EventDone, events[len(events)-1].Type)
}

func TestRun_UnknownSite(t *testing.T) {
	t.Parallel()

	req := discoverRequest(t)
	req.Site = "nosuchsite"
	events := runEngine(t, newFakeFetcher(), req)

	failures := eventsOfType(events, crawl.EventCrawlError)
	require.Len(t, failures, 1)
	require.Equal(t, crawl.KindArgument, failures[0].CrawlErr.Kind)
}

func TestRun_ConcurrencyDoesNotChangeResults(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	var items string
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://testsite.test/a/story-%d", i)
		items += feedItem(url, "Mon, 10 Apr 2023 09:00:00 GMT")
		fetcher.responses[url] = articleHTML(fmt.Sprintf("Story %d", i), "2023-04-10T09:00:00Z")
	}
	fetcher.responses["https://testsite.test/feed.xml"] = feedXML(items)

	collect := func(workers int) (links, titles []string) {
		req := discoverRequest(t)
		req.Concurrency = workers
		for _, event := range runEngine(t, fetcher, req) {
			switch event.Type {
			case crawl.EventDiscovered:
				links = append(links, event.Link.URL)
			case crawl.EventArticle:
				titles = append(titles, event.Article.ParsedData.Title...)
			}
		}
		sort.Strings(links)
		sort.Strings(titles)
		return links, titles
	}

	serialLinks, serialTitles := collect(1)
	parallelLinks, parallelTitles := collect(4)
	require.Len(t, serialTitles, 8)
	require.Equal(t, serialLinks, parallelLinks)
	require.Equal(t, serialTitles, parallelTitles)
}

func TestRun_CancelledContextClosesStream(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.responses["https://testsite.test/feed.xml"] = feedXML(
		feedItem("https://testsite.test/a/one", "Mon, 10 Apr 2023 09:00:00 GMT"))

	engine := New(testRegistry(t), fetcher, nil, extract.New(nil, zap.NewNop()), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody drains the stream. Terminal events are dropped under
	// cancellation and the channel still closes.
	events := engine.Run(ctx, discoverRequest(t))
	select {
	case event, ok := <-events:
		require.False(t, ok, "expected closed stream, got event %v", event)
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not close after cancellation")
	}
}

func TestRun_ExtractOne(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.responses["https://testsite.test/a/single"] = articleHTML("Single", "2023-04-11T09:00:00Z")

	req := discoverRequest(t)
	req.Mode = crawl.ModeExtractOne
	req.ArticleURL = "https://testsite.test/a/single"
	events := runEngine(t, fetcher, req)

	articles := eventsOfType(events, crawl.EventArticle)
	require.Len(t, articles, 1)
	require.Equal(t, []string{"Single"}, articles[0].Article.ParsedData.Title)
	require.Empty(t, eventsOfType(events, crawl.EventCrawlError))
}

func TestRun_ExtractOneWithoutURL(t *testing.T) {
	t.Parallel()

	req := discoverRequest(t)
	req.Mode = crawl.ModeExtractOne
	events := runEngine(t, newFakeFetcher(), req)

	failures := eventsOfType(events, crawl.EventCrawlError)
	require.Len(t, failures, 1)
	require.Equal(t, crawl.KindArgument, failures[0].CrawlErr.Kind)
}
