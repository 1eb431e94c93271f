// Package cmd wires the command-line interface.
package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/logging"
)

var cfgFile string

// Exit codes of the crawl commands.
const (
	exitOK             = 0
	exitArgument       = 2
	exitProxyExhausted = 3
	exitFetchFailed    = 4
	exitInternalError  = 5
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newscrawler",
		Short: "A polite, date-bounded news article crawler.",
		Long: `newscrawler discovers article links on configured news sites within a
date window and normalizes each article into a structured record. Sites
plug in through adapters; discovery understands sitemap indexes, news
sitemaps, gzipped sitemaps, dated archives, paginated JSON APIs, and RSS
feeds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newSitesCmd())

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := newRootCmd().Execute()
	if err == nil {
		return exitOK
	}
	logging.L.Error("command failed", zap.Error(err))
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	var ce *crawl.Error
	if !errors.As(err, &ce) {
		// Flag parse and usage failures land here.
		return exitArgument
	}
	switch ce.Kind {
	case crawl.KindArgument:
		return exitArgument
	case crawl.KindProxyExhausted:
		return exitProxyExhausted
	case crawl.KindNetworkTransient, crawl.KindNetworkPermanent:
		return exitFetchFailed
	default:
		return exitInternalError
	}
}
