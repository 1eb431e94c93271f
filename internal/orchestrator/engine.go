// Package orchestrator wires discovery, fetching, and extraction into one
// crawl run and streams the results as events.
package orchestrator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/discovery"
	"github.com/mediawatch/newscrawler/internal/extract"
	"github.com/mediawatch/newscrawler/internal/fetch"
	"github.com/mediawatch/newscrawler/internal/sites"
)

const defaultConcurrency = 4

// Engine executes crawl requests. One Engine serves many runs.
type Engine struct {
	registry  *sites.Registry
	fetcher   crawl.Fetcher
	pool      *fetch.Pool
	discovery *discovery.Engine
	extractor *extract.Extractor
	logger    *zap.Logger
}

// New constructs an Engine. pool may be nil when fetching runs direct.
func New(
	registry *sites.Registry,
	fetcher crawl.Fetcher,
	pool *fetch.Pool,
	extractor *extract.Extractor,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		registry:  registry,
		fetcher:   fetcher,
		pool:      pool,
		discovery: discovery.New(fetcher, logger),
		extractor: extractor,
		logger:    logger,
	}
}

// Run executes one crawl request and streams events on the returned channel.
// The channel carries per-link and per-article events, then exactly one Done
// event, and is closed. A crawl-level failure surfaces as a CrawlError event
// immediately before Done.
func (e *Engine) Run(ctx context.Context, req crawl.Request) <-chan crawl.Event {
	events := make(chan crawl.Event, 64)
	go func() {
		defer close(events)
		r := &run{
			engine: e,
			req:    req,
			events: events,
			stats:  crawl.Stats{Errors: make(map[crawl.ErrorKind]int)},
		}
		if err := r.execute(ctx); err != nil {
			r.crawlError(ctx, err)
		}
		r.done(ctx)
	}()
	return events
}

// run carries the mutable state of one crawl.
type run struct {
	engine *Engine
	req    crawl.Request
	events chan<- crawl.Event

	mu    sync.Mutex
	stats crawl.Stats
}

func (r *run) execute(ctx context.Context) error {
	adapter, err := r.engine.registry.Lookup(r.req.Site)
	if err != nil {
		return err
	}
	switch r.req.Mode {
	case crawl.ModeExtractOne:
		return r.extractOne(ctx, adapter)
	case crawl.ModeDiscover:
		return r.discover(ctx, adapter)
	default:
		return crawl.NewError(crawl.KindArgument, "unsupported mode %q", r.req.Mode)
	}
}

// extractOne fetches and extracts a single known article URL. Any failure is
// a crawl-level failure since there is nothing else to do.
func (r *run) extractOne(ctx context.Context, adapter sites.Adapter) error {
	if r.req.ArticleURL == "" {
		return crawl.NewError(crawl.KindArgument, "article mode requires a URL")
	}
	article, err := r.extractArticle(ctx, adapter, r.req.ArticleURL)
	if err != nil {
		return err
	}
	r.emitArticle(ctx, article)
	return nil
}

// discover runs the site's descriptor and feeds the resulting links to a
// worker pool. Per-article failures are reported and skipped; only a failure
// at the descriptor root aborts the crawl.
func (r *run) discover(ctx context.Context, adapter sites.Adapter) error {
	links := make(chan crawl.DiscoveredLink, 64)
	discErr := make(chan error, 1)
	go func() {
		discErr <- r.engine.discovery.Run(ctx, adapter.Descriptor(), r.req.Window, links)
		close(links)
	}()

	workers := r.req.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range links {
				r.handleLink(ctx, adapter, link)
			}
		}()
	}
	wg.Wait()
	return <-discErr
}

func (r *run) handleLink(ctx context.Context, adapter sites.Adapter, link crawl.DiscoveredLink) {
	r.mu.Lock()
	r.stats.Discovered++
	r.mu.Unlock()
	r.send(ctx, crawl.Event{Type: crawl.EventDiscovered, Link: &link})
	if r.req.LinksOnly {
		return
	}

	article, err := r.extractArticle(ctx, adapter, link.URL)
	if err != nil {
		r.articleError(ctx, link.URL, err)
		return
	}
	// Discovery lets links with no known date through; the extracted
	// publication date settles whether the article belongs to the window.
	if link.PublishedAt == nil && !r.articleInWindow(article) {
		r.engine.logger.Debug("article outside window, dropped",
			zap.String("url", link.URL))
		return
	}
	r.emitArticle(ctx, article)
}

func (r *run) extractArticle(ctx context.Context, adapter sites.Adapter, url string) (crawl.NormalizedArticle, error) {
	resp, err := r.engine.fetcher.Fetch(ctx, crawl.FetchRequest{URL: url})
	if err != nil {
		return crawl.NormalizedArticle{}, err
	}
	return r.engine.extractor.Extract(ctx, resp, adapter.Rules(), adapter.EscalationFor(url))
}

// articleInWindow checks the extracted publication date against the request
// window. Articles with no parseable date stay in.
func (r *run) articleInWindow(article crawl.NormalizedArticle) bool {
	for _, raw := range article.ParsedData.PublishedAt {
		if t, ok := crawl.ParseTime(raw); ok {
			return r.req.Window.Contains(t)
		}
	}
	return true
}

func (r *run) emitArticle(ctx context.Context, article crawl.NormalizedArticle) {
	r.mu.Lock()
	r.stats.Emitted++
	r.mu.Unlock()
	crawl.ArticlesEmitted.Inc()
	r.send(ctx, crawl.Event{Type: crawl.EventArticle, Article: &article})
}

func (r *run) articleError(ctx context.Context, url string, err error) {
	kind := crawl.KindOf(err)
	if kind == crawl.KindCancelled {
		return
	}
	r.mu.Lock()
	r.stats.Errors[kind]++
	r.mu.Unlock()
	crawl.ArticleErrors.WithLabelValues(string(kind)).Inc()
	r.engine.logger.Warn("article failed",
		zap.String("url", url),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	r.send(ctx, crawl.Event{Type: crawl.EventArticleError, ArticleErr: &crawl.ArticleError{
		URL:     url,
		Kind:    kind,
		Message: err.Error(),
	}})
}

func (r *run) crawlError(ctx context.Context, err error) {
	var ce *crawl.Error
	if !errors.As(err, &ce) {
		ce = crawl.WrapError(crawl.KindInternal, err, "crawl failed")
	}
	r.send(ctx, crawl.Event{Type: crawl.EventCrawlError, CrawlErr: ce})
}

// done reports final stats. Delivery is best effort: after cancellation the
// consumer may have walked away, and the run must still terminate.
func (r *run) done(ctx context.Context) {
	r.mu.Lock()
	stats := r.stats
	if len(stats.Errors) == 0 {
		stats.Errors = nil
	}
	r.mu.Unlock()
	if r.engine.pool != nil {
		stats.ProxiesQuarantined = r.engine.pool.QuarantinedCount()
	}
	r.send(ctx, crawl.Event{Type: crawl.EventDone, Stats: &stats})
}

// send delivers worker events without blocking past cancellation.
func (r *run) send(ctx context.Context, event crawl.Event) {
	select {
	case <-ctx.Done():
	case r.events <- event:
	}
}
