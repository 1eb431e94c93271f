package fetch

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// quarantineThreshold is how many consecutive failures remove a proxy from
// rotation.
const quarantineThreshold = 3

// Proxy is one pool member handed out per fetch attempt.
type Proxy struct {
	cfg  crawl.ProxyConfig
	pool *Pool
	idx  int
}

// URL renders the proxy as an http(s) proxy URL.
func (p *Proxy) URL() *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port),
	}
	if p.cfg.Username != "" {
		u.User = url.UserPassword(p.cfg.Username, p.cfg.Password)
	}
	return u
}

// ReportSuccess resets the consecutive-failure counter.
func (p *Proxy) ReportSuccess() {
	p.pool.report(p.idx, true)
}

// ReportFailure counts a failure and quarantines the proxy once the
// threshold is reached.
func (p *Proxy) ReportFailure() {
	p.pool.report(p.idx, false)
}

type proxyState struct {
	cfg         crawl.ProxyConfig
	fails       int
	quarantined bool
}

// Pool rotates proxies round-robin and quarantines misbehaving members.
// A pool built from zero configs hands out nil proxies, meaning direct
// connections.
type Pool struct {
	mu      sync.Mutex
	entries []*proxyState
	next    int
}

// NewPool builds a Pool from the configured proxies.
func NewPool(cfgs []crawl.ProxyConfig) *Pool {
	entries := make([]*proxyState, 0, len(cfgs))
	for _, cfg := range cfgs {
		entries = append(entries, &proxyState{cfg: cfg})
	}
	return &Pool{entries: entries}
}

// Acquire returns the next healthy proxy. It returns (nil, nil) when the
// pool has no proxies configured, and a KindProxyExhausted error when every
// configured proxy is quarantined.
func (p *Pool) Acquire() (*Proxy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return nil, nil
	}
	for i := 0; i < len(p.entries); i++ {
		idx := (p.next + i) % len(p.entries)
		if p.entries[idx].quarantined {
			continue
		}
		p.next = idx + 1
		return &Proxy{cfg: p.entries[idx].cfg, pool: p, idx: idx}, nil
	}
	return nil, crawl.NewError(crawl.KindProxyExhausted, "all %d proxies quarantined", len(p.entries))
}

// QuarantinedCount reports how many proxies are out of rotation.
func (p *Pool) QuarantinedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.entries {
		if e.quarantined {
			n++
		}
	}
	return n
}

func (p *Pool) report(idx int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entries[idx]
	if ok {
		e.fails = 0
		return
	}
	if e.quarantined {
		return
	}
	e.fails++
	if e.fails >= quarantineThreshold {
		e.quarantined = true
		crawl.ProxiesQuarantined.Inc()
	}
}
