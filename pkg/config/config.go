// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the observability HTTP listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CrawlerConfig governs worker-pool and politeness behavior.
type CrawlerConfig struct {
	Concurrency       int     `mapstructure:"concurrency"`
	UserAgent         string  `mapstructure:"user_agent"`
	HostRatePerSecond float64 `mapstructure:"host_rate_per_second"`
	HostBurst         int     `mapstructure:"host_burst"`
	MinSpacingMs      int     `mapstructure:"min_spacing_ms"`
}

// HTTPConfig configures fetch timeouts and body limits.
type HTTPConfig struct {
	AttemptTimeoutSeconds int `mapstructure:"attempt_timeout_seconds"`
	TotalBudgetSeconds    int `mapstructure:"total_budget_seconds"`
	MaxBodyBytes          int `mapstructure:"max_body_bytes"`
}

// HeadlessConfig configures the browser escalation subsystem.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// OutputConfig sets the file sink root.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file plus environment variables
// with the CRAWLER_ prefix.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.user_agent", "newscrawler/1.0 (+https://github.com/mediawatch/newscrawler)")
	v.SetDefault("crawler.host_rate_per_second", 4.0)
	v.SetDefault("crawler.host_burst", 4)
	v.SetDefault("crawler.min_spacing_ms", 250)
	v.SetDefault("http.attempt_timeout_seconds", 30)
	v.SetDefault("http.total_budget_seconds", 120)
	v.SetDefault("http.max_body_bytes", 10*1024*1024)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("output.dir", "data/crawl")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.HostRatePerSecond <= 0 {
		return fmt.Errorf("crawler.host_rate_per_second must be > 0")
	}
	if c.HTTP.AttemptTimeoutSeconds <= 0 {
		return fmt.Errorf("http.attempt_timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	return nil
}

// AttemptTimeout converts the configured attempt timeout into a duration.
func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.HTTP.AttemptTimeoutSeconds) * time.Second
}

// TotalBudget converts the configured fetch budget into a duration.
func (c Config) TotalBudget() time.Duration {
	return time.Duration(c.HTTP.TotalBudgetSeconds) * time.Second
}
