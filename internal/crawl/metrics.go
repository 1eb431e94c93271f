package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinksDiscovered tracks the number of candidate links emitted by discovery.
	LinksDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscrawler_links_discovered_total",
		Help: "The total number of candidate article links discovered.",
	})
	// ArticlesEmitted tracks the number of normalized articles emitted.
	ArticlesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscrawler_articles_emitted_total",
		Help: "The total number of normalized articles emitted.",
	})
	// ArticleErrors tracks per-article failures by kind.
	ArticleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscrawler_article_errors_total",
		Help: "The total number of per-article failures, by error kind.",
	}, []string{"kind"})
	// FetchRequests tracks the number of HTTP attempts dispatched.
	FetchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscrawler_fetch_requests_total",
		Help: "The total number of HTTP fetch attempts sent.",
	})
	// FetchRetries tracks the number of retried fetch attempts.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscrawler_fetch_retries_total",
		Help: "The total number of fetch attempts that were retries.",
	})
	// ProxiesQuarantined tracks proxies removed from rotation.
	ProxiesQuarantined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscrawler_proxies_quarantined_total",
		Help: "The total number of proxies quarantined after repeated failures.",
	})
)
