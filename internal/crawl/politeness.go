package crawl

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostPacer enforces per-host politeness: a token bucket capping request
// rate plus a hard spacing floor between consecutive requests to the same
// host, independent of worker count.
type HostPacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSent map[string]time.Time
	qps      rate.Limit
	burst    int
	spacing  time.Duration
}

// PacerConfig holds host pacing knobs.
type PacerConfig struct {
	RequestsPerSecond float64
	Burst             int
	MinSpacing        time.Duration
}

// NewHostPacer creates a HostPacer with sane defaults filled in.
func NewHostPacer(cfg PacerConfig) *HostPacer {
	qps := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		qps = rate.Limit(4)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	spacing := cfg.MinSpacing
	if spacing < 0 {
		spacing = 0
	}
	return &HostPacer{
		limiters: make(map[string]*rate.Limiter),
		lastSent: make(map[string]time.Time),
		qps:      qps,
		burst:    burst,
		spacing:  spacing,
	}
}

// Wait blocks until a request to rawURL's host is allowed, honoring ctx.
func (p *HostPacer) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)

	p.mu.Lock()
	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(p.qps, p.burst)
		p.limiters[host] = limiter
	}
	var pause time.Duration
	if p.spacing > 0 {
		now := time.Now()
		if last, seen := p.lastSent[host]; seen {
			if gap := p.spacing - now.Sub(last); gap > 0 {
				pause = gap
			}
		}
		p.lastSent[host] = now.Add(pause)
	}
	p.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return WrapError(KindCancelled, ctx.Err(), "pacing wait canceled")
		case <-timer.C:
		}
	}
	if err := limiter.Wait(ctx); err != nil {
		return WrapError(KindCancelled, err, "rate limit wait canceled")
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
