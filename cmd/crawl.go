package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/api"
	systemclock "github.com/mediawatch/newscrawler/internal/clock/system"
	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/extract"
	"github.com/mediawatch/newscrawler/internal/fetch"
	"github.com/mediawatch/newscrawler/internal/headless"
	"github.com/mediawatch/newscrawler/internal/logging"
	"github.com/mediawatch/newscrawler/internal/orchestrator"
	"github.com/mediawatch/newscrawler/internal/sink"
	"github.com/mediawatch/newscrawler/internal/sites"
	"github.com/mediawatch/newscrawler/pkg/config"
)

// CLI crawl modes. sitemap emits the discovered link list, link_feed runs
// the full discover-and-extract pipeline, article extracts one URL.
const (
	modeSitemap  = "sitemap"
	modeArticle  = "article"
	modeLinkFeed = "link_feed"
)

type crawlFlags struct {
	mode         string
	site         string
	articleURL   string
	startDate    string
	endDate      string
	proxyHost    string
	proxyPort    int
	proxyUser    string
	proxyPass    string
	proxyTimeout int
	concurrency  int
	out          string
}

func newCrawlCmd() *cobra.Command {
	flags := &crawlFlags{}
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl against a configured site.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.mode, "mode", modeSitemap,
		fmt.Sprintf("crawl mode: %s, %s, or %s", modeSitemap, modeLinkFeed, modeArticle))
	cmd.Flags().StringVar(&flags.site, "site", "", "site id (see the sites command)")
	cmd.Flags().StringVar(&flags.articleURL, "url", "", "article URL for article mode")
	cmd.Flags().StringVar(&flags.startDate, "start-date", "", "window start, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.endDate, "end-date", "", "window end, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.proxyHost, "proxy-host", "", "proxy host")
	cmd.Flags().IntVar(&flags.proxyPort, "proxy-port", 0, "proxy port")
	cmd.Flags().StringVar(&flags.proxyUser, "proxy-user", "", "proxy username")
	cmd.Flags().StringVar(&flags.proxyPass, "proxy-pass", "", "proxy password")
	cmd.Flags().IntVar(&flags.proxyTimeout, "proxy-timeout", 0, "proxy timeout in seconds")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "worker count (default from config)")
	cmd.Flags().StringVar(&flags.out, "out", "-", "output: - for NDJSON on stdout, or a directory for JSON files")

	return cmd
}

func runCrawl(ctx context.Context, flags *crawlFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return crawl.WrapError(crawl.KindArgument, err, "load config")
	}
	logging.InitLogger(cfg.Logging.Development)
	logger := logging.L

	clock := systemclock.Clock{}
	req, err := buildRequest(flags, cfg, clock)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID), zap.String("site", req.Site))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := fetch.NewPool(req.Proxies)
	pacer := crawl.NewHostPacer(crawl.PacerConfig{
		RequestsPerSecond: cfg.Crawler.HostRatePerSecond,
		Burst:             cfg.Crawler.HostBurst,
		MinSpacing:        time.Duration(cfg.Crawler.MinSpacingMs) * time.Millisecond,
	})
	fetcher := fetch.New(fetch.Config{
		UserAgent:      cfg.Crawler.UserAgent,
		AttemptTimeout: cfg.AttemptTimeout(),
		TotalBudget:    cfg.TotalBudget(),
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, pool, pacer, logger)

	browser, err := buildBrowser(cfg, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	engine := orchestrator.New(
		sites.Builtin(),
		fetcher,
		pool,
		extract.New(browser, logger),
		logger,
	)

	out, err := buildSink(flags, req.Site, clock, logger)
	if err != nil {
		return err
	}

	if cfg.Server.Enabled {
		srv := api.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("crawl starting",
		zap.String("mode", flags.mode),
		zap.String("window_start", req.Window.Start.Format(time.DateOnly)),
		zap.String("window_end", req.Window.End.Format(time.DateOnly)),
	)
	crawlErr := consume(engine.Run(ctx, req), out, logger)
	if err := out.Close(); err != nil {
		logger.Error("close output", zap.Error(err))
		if crawlErr == nil {
			crawlErr = crawl.WrapError(crawl.KindInternal, err, "close output")
		}
	}
	return crawlErr
}

// consume drains the event stream into the sink and returns the terminal
// crawl error, if any.
func consume(events <-chan crawl.Event, out crawl.Sink, logger *zap.Logger) error {
	var crawlErr error
	for event := range events {
		if err := out.Write(event); err != nil {
			logger.Error("write event", zap.Error(err))
		}
		switch event.Type {
		case crawl.EventCrawlError:
			crawlErr = event.CrawlErr
		case crawl.EventDone:
			logger.Info("crawl finished",
				zap.Int("discovered", event.Stats.Discovered),
				zap.Int("emitted", event.Stats.Emitted),
				zap.Int("proxies_quarantined", event.Stats.ProxiesQuarantined),
				zap.Any("errors", event.Stats.Errors),
			)
		}
	}
	return crawlErr
}

func buildRequest(flags *crawlFlags, cfg config.Config, clock crawl.Clock) (crawl.Request, error) {
	req := crawl.Request{
		Site:        flags.site,
		ArticleURL:  flags.articleURL,
		Concurrency: flags.concurrency,
	}
	if req.Concurrency <= 0 {
		req.Concurrency = cfg.Crawler.Concurrency
	}

	switch flags.mode {
	case modeSitemap:
		req.Mode = crawl.ModeDiscover
		req.LinksOnly = true
	case modeLinkFeed:
		req.Mode = crawl.ModeDiscover
	case modeArticle:
		req.Mode = crawl.ModeExtractOne
		if req.ArticleURL == "" {
			return crawl.Request{}, crawl.NewError(crawl.KindArgument, "article mode requires --url")
		}
	default:
		return crawl.Request{}, crawl.NewError(crawl.KindArgument, "invalid mode %q", flags.mode)
	}
	if req.Site == "" {
		return crawl.Request{}, crawl.NewError(crawl.KindArgument, "--site is required")
	}

	window, err := crawl.ParseWindow(flags.startDate, flags.endDate, clock.Now())
	if err != nil {
		return crawl.Request{}, err
	}
	req.Window = window

	if flags.proxyHost != "" {
		if flags.proxyPort <= 0 {
			return crawl.Request{}, crawl.NewError(crawl.KindArgument, "--proxy-port is required with --proxy-host")
		}
		req.Proxies = []crawl.ProxyConfig{{
			Host:     flags.proxyHost,
			Port:     flags.proxyPort,
			Username: flags.proxyUser,
			Password: flags.proxyPass,
			Timeout:  time.Duration(flags.proxyTimeout) * time.Second,
		}}
	}
	return req, nil
}

func buildBrowser(cfg config.Config, logger *zap.Logger) (headless.Browser, error) {
	if !cfg.Headless.Enabled {
		return headless.Noop{}, nil
	}
	browser, err := headless.NewChromedp(headless.Config{
		MaxParallel:       cfg.Headless.MaxParallel,
		UserAgent:         cfg.Crawler.UserAgent,
		NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, crawl.WrapError(crawl.KindHeadlessUnavailable, err, "start headless browser")
	}
	logger.Info("headless browser ready", zap.Int("max_parallel", cfg.Headless.MaxParallel))
	return browser, nil
}

func buildSink(flags *crawlFlags, site string, clock crawl.Clock, logger *zap.Logger) (crawl.Sink, error) {
	if flags.out == "" || flags.out == "-" {
		return sink.NewStreamSink(os.Stdout), nil
	}
	return sink.NewFileSink(flags.out, site, clock, logger), nil
}
