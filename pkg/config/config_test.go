package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.False(t, cfg.Server.Enabled)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 4, cfg.Crawler.Concurrency)
	require.Contains(t, cfg.Crawler.UserAgent, "newscrawler")
	require.Equal(t, 4.0, cfg.Crawler.HostRatePerSecond)
	require.Equal(t, 250, cfg.Crawler.MinSpacingMs)
	require.Equal(t, 30*time.Second, cfg.AttemptTimeout())
	require.Equal(t, 120*time.Second, cfg.TotalBudget())
	require.Equal(t, 10*1024*1024, cfg.HTTP.MaxBodyBytes)
	require.False(t, cfg.Headless.Enabled)
	require.Equal(t, "data/crawl", cfg.Output.Dir)
	require.True(t, cfg.Logging.Development)
}

func TestLoad_FileOverrides(t *testing.T) {
	content := `
server:
  enabled: true
  port: 9090
crawler:
  concurrency: 8
  host_rate_per_second: 1.5
http:
  attempt_timeout_seconds: 10
output:
  dir: /tmp/crawl-out
logging:
  development: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.True(t, cfg.Server.Enabled)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 8, cfg.Crawler.Concurrency)
	require.Equal(t, 1.5, cfg.Crawler.HostRatePerSecond)
	require.Equal(t, 10*time.Second, cfg.AttemptTimeout())
	require.Equal(t, "/tmp/crawl-out", cfg.Output.Dir)
	require.False(t, cfg.Logging.Development)

	// Unset keys keep their defaults.
	require.Equal(t, 120*time.Second, cfg.TotalBudget())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Crawler.Concurrency = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Server.Enabled = true
	bad.Server.Port = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Crawler.HostRatePerSecond = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Headless.Enabled = true
	bad.Headless.MaxParallel = 0
	require.Error(t, bad.Validate())
}
