package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// Config controls the chromedp-backed browser.
type Config struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Chromedp implements Browser with a headless Chrome allocator and a
// bounded session pool.
type Chromedp struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromedp creates a browser backed by chromedp.
func NewChromedp(cfg Config) (*Chromedp, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Chromedp{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (b *Chromedp) Close() {
	b.allocCancel()
}

// Render navigates with a headless browser, runs the escalation script, and
// returns the rendered DOM plus any gated video URLs.
func (b *Chromedp) Render(ctx context.Context, url string, esc Escalation) (RenderResult, error) {
	if err := b.acquire(ctx); err != nil {
		return RenderResult{}, err
	}
	defer b.release()

	taskCtx, taskCancel := chromedp.NewContext(b.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, b.cfg.NavigationTimeout)
	defer cancel()

	wait := esc.WaitSelector
	if wait == "" {
		wait = "body"
	}

	actions := []chromedp.Action{
		b.sessionSetupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady(wait, chromedp.ByQuery),
	}
	if esc.ScrollToBottom {
		actions = append(actions,
			chromedp.Evaluate(scrollToLastParagraphJS, nil),
			chromedp.Sleep(500*time.Millisecond),
		)
	}
	if esc.ClickSelector != "" {
		actions = append(actions,
			chromedp.Click(esc.ClickSelector, chromedp.ByQuery, chromedp.NodeVisible),
			chromedp.Sleep(500*time.Millisecond),
		)
	}

	videos := make([]string, len(esc.VideoReads))
	oks := make([]bool, len(esc.VideoReads))
	for i, read := range esc.VideoReads {
		actions = append(actions,
			chromedp.AttributeValue(read.Selector, read.Attr, &videos[i], &oks[i], chromedp.ByQuery),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return RenderResult{}, fmt.Errorf("chromedp run: %w", err)
	}

	result := RenderResult{HTML: html}
	for i, ok := range oks {
		if ok && videos[i] != "" {
			result.Videos = append(result.Videos, videos[i])
		}
	}
	return result, nil
}

const scrollToLastParagraphJS = `(() => {
	const ps = document.querySelectorAll('p');
	if (ps.length > 0) { ps[ps.length - 1].scrollIntoView(); }
})()`

func (b *Chromedp) sessionSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if b.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(b.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

func (b *Chromedp) acquire(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	select {
	case b.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (b *Chromedp) release() {
	if b.limiter == nil {
		return
	}
	select {
	case <-b.limiter:
	default:
	}
}
