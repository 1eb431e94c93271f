package discovery

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// Engine runs one discovery descriptor to completion, sending deduplicated,
// window-filtered links to an output channel.
type Engine struct {
	fetcher crawl.Fetcher
	logger  *zap.Logger
}

// New constructs an Engine.
func New(fetcher crawl.Fetcher, logger *zap.Logger) *Engine {
	return &Engine{fetcher: fetcher, logger: logger}
}

// Run walks the descriptor and emits links on out. It does not close out.
// Per-resource failures are logged and skipped; a failure at the descriptor
// root is returned.
func (e *Engine) Run(ctx context.Context, desc Descriptor, window crawl.Window, out chan<- crawl.DiscoveredLink) error {
	em := &emitter{
		ctx:    ctx,
		out:    out,
		window: window,
		seen:   make(map[string]struct{}),
	}
	switch d := desc.(type) {
	case XMLSitemapIndex:
		return e.runSitemapIndex(ctx, d, em)
	case XMLNewsSitemap:
		return e.runSingleSitemap(ctx, d.URL, em)
	case GzippedSitemap:
		return e.runSingleSitemap(ctx, d.URL, em)
	case DatedArchive:
		return e.runDatedArchive(ctx, d, em)
	case PaginatedJSON:
		return e.runPaginatedJSON(ctx, d, em)
	case RSSFeed:
		return e.runRSSFeed(ctx, d, em)
	default:
		return crawl.NewError(crawl.KindArgument, "unsupported discovery descriptor %T", desc)
	}
}

// emitter applies dedup and window filtering before forwarding a link.
// Links with no known publication date pass through; the orchestrator
// re-checks the window against the extracted article date.
type emitter struct {
	ctx    context.Context
	out    chan<- crawl.DiscoveredLink
	window crawl.Window
	seen   map[string]struct{}
}

func (em *emitter) emit(link crawl.DiscoveredLink) error {
	link.URL = normalizeURL(link.URL)
	if link.URL == "" {
		return nil
	}
	if _, dup := em.seen[link.URL]; dup {
		return nil
	}
	em.seen[link.URL] = struct{}{}
	if link.PublishedAt != nil && !em.window.Contains(*link.PublishedAt) {
		return nil
	}
	select {
	case <-em.ctx.Done():
		return crawl.WrapError(crawl.KindCancelled, em.ctx.Err(), "discovery canceled")
	case em.out <- link:
		crawl.LinksDiscovered.Inc()
		return nil
	}
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}

func (e *Engine) fetchResource(ctx context.Context, rawURL string, decompress bool) (crawl.Response, error) {
	resp, err := e.fetcher.Fetch(ctx, crawl.FetchRequest{
		URL:        rawURL,
		Decompress: decompress,
	})
	if err != nil {
		return crawl.Response{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return resp, nil
}

func (e *Engine) skipResource(rawURL string, err error) {
	e.logger.Warn("discovery resource skipped",
		zap.String("url", rawURL),
		zap.Error(err),
	)
}
