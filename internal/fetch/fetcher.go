package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent      string
	AttemptTimeout time.Duration
	TotalBudget    time.Duration
	MaxBodyBytes   int
}

// Fetcher implements crawl.Fetcher using a cloned Colly collector per
// attempt, with retry, backoff, and proxy rotation wrapped around it.
type Fetcher struct {
	cfg    Config
	pool   *Pool
	policy *RetryPolicy
	pacer  *crawl.HostPacer
	logger *zap.Logger
	base   *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config, pool *Pool, pacer *crawl.HostPacer, logger *zap.Logger) *Fetcher {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if cfg.TotalBudget <= 0 {
		cfg.TotalBudget = 2 * time.Minute
	}
	if pool == nil {
		pool = NewPool(nil)
	}
	base := colly.NewCollector(colly.Async(false))
	base.IgnoreRobotsTxt = true
	if cfg.MaxBodyBytes > 0 {
		base.MaxBodySize = cfg.MaxBodyBytes
	}
	return &Fetcher{
		cfg:    cfg,
		pool:   pool,
		policy: NewRetryPolicy(),
		pacer:  pacer,
		logger: logger,
		base:   base,
	}
}

// Pool exposes the proxy pool for stats reporting.
func (f *Fetcher) Pool() *Pool {
	return f.pool
}

// Fetch executes one logical fetch: up to maxAttempts HTTP attempts with
// exponential backoff, one proxy per attempt.
func (f *Fetcher) Fetch(ctx context.Context, request crawl.FetchRequest) (crawl.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.TotalBudget)
	defer cancel()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			crawl.FetchRetries.Inc()
			if err := f.pause(ctx, f.policy.Backoff(attempt-1)); err != nil {
				return crawl.Response{}, err
			}
		}
		if f.pacer != nil {
			if err := f.pacer.Wait(ctx, request.URL); err != nil {
				return crawl.Response{}, err
			}
		}
		proxy, err := f.pool.Acquire()
		if err != nil {
			return crawl.Response{}, err
		}

		resp, attemptErr := f.attempt(ctx, request, proxy)
		if attemptErr == nil {
			if proxy != nil {
				proxy.ReportSuccess()
			}
			return resp, nil
		}
		if proxy != nil && proxyShouldBeBlamed(attemptErr) {
			proxy.ReportFailure()
		}
		lastErr = attemptErr
		if !f.policy.ShouldRetry(attemptErr, attempt+1) {
			break
		}
		f.logger.Debug("fetch attempt failed, retrying",
			zap.String("url", request.URL),
			zap.Int("attempt", attempt+1),
			zap.Error(attemptErr),
		)
	}
	if ctx.Err() != nil {
		return crawl.Response{}, crawl.WrapError(crawl.KindCancelled, ctx.Err(), "fetch canceled")
	}
	return crawl.Response{}, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, request crawl.FetchRequest, proxy *Proxy) (crawl.Response, error) {
	crawl.FetchRequests.Inc()
	start := time.Now()

	var (
		result    crawl.Response
		gotResult bool
		status    int
		rawErr    error
	)

	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = f.cfg.AttemptTimeout
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(f.transport(proxy))

	collector.OnResponse(func(r *colly.Response) {
		result = crawl.Response{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Headers:     r.Headers.Clone(),
			Body:        append([]byte(nil), r.Body...),
			Duration:    time.Since(start),
		}
		gotResult = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		rawErr = err
	})

	if err := f.run(ctx, collector, request); err != nil {
		return crawl.Response{}, err
	}
	if !gotResult {
		return crawl.Response{}, classify(request.URL, status, rawErr, proxy != nil)
	}

	body, err := f.maybeGunzip(request, result)
	if err != nil {
		return crawl.Response{}, crawl.WrapError(crawl.KindParse, err, "decompress body")
	}
	result.Body = body
	return result, nil
}

func (f *Fetcher) run(ctx context.Context, collector *colly.Collector, request crawl.FetchRequest) error {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}

	done := make(chan error, 1)
	go func() {
		done <- collector.Request(method, request.URL, body, nil, request.Headers)
	}()
	select {
	case <-ctx.Done():
		return crawl.WrapError(crawl.KindCancelled, ctx.Err(), "fetch canceled")
	case err := <-done:
		if err != nil {
			return classify(request.URL, 0, fmt.Errorf("dispatch request: %w", err), false)
		}
		return nil
	}
}

// maybeGunzip transparently decodes bodies served as raw gzip objects.
// Content-Encoding gzip is already handled by the transport; this covers
// sitemap files whose URL ends in .gz.
func (f *Fetcher) maybeGunzip(request crawl.FetchRequest, resp crawl.Response) ([]byte, error) {
	wantsDecode := request.Decompress ||
		strings.HasSuffix(strings.ToLower(urlPath(resp.URL)), ".gz") ||
		strings.Contains(resp.ContentType, "gzip")
	if !wantsDecode || !isGzip(resp.Body) {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip body: %w", err)
	}
	return decoded, nil
}

func (f *Fetcher) transport(proxy *Proxy) *http.Transport {
	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy.URL())
	}
	return t
}

func (f *Fetcher) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return crawl.WrapError(crawl.KindCancelled, ctx.Err(), "backoff wait canceled")
	case <-timer.C:
		return nil
	}
}

// proxyShouldBeBlamed reports whether the attempt failure counts against the
// proxy that carried it.
func proxyShouldBeBlamed(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Class {
	case ClassProxyFailure, ClassForbidden, ClassUpstream5xx, ClassTransientNetwork:
		return true
	default:
		return false
	}
}

func isGzip(body []byte) bool {
	return len(body) > 2 && body[0] == 0x1f && body[1] == 0x8b
}

func urlPath(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
