// Package config loads and validates digest configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Feeds    FeedsConfig    `mapstructure:"feeds"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Output   OutputConfig   `mapstructure:"output"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FeedsConfig locates the OPML source list.
type FeedsConfig struct {
	OPMLPath string `mapstructure:"opml_path"`
}

// FetchConfig governs the feed fetch stage.
type FetchConfig struct {
	Concurrency    int    `mapstructure:"concurrency"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	LookbackDays   int    `mapstructure:"lookback_days"`
	MaxDateless    int    `mapstructure:"max_dateless"`
}

// EnrichConfig governs full-page content retrieval.
type EnrichConfig struct {
	Concurrency    int    `mapstructure:"concurrency"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	MinContentLen  int    `mapstructure:"min_content_len"`
}

// ClassifyConfig configures the chat-completions classifier.
type ClassifyConfig struct {
	Endpoint       string  `mapstructure:"endpoint"`
	Model          string  `mapstructure:"model"`
	APIKey         string  `mapstructure:"api_key"`
	BatchSize      int     `mapstructure:"batch_size"`
	MaxContentLen  int     `mapstructure:"max_content_len"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	FilterEnabled  bool    `mapstructure:"filter_enabled"`
}

// OutputConfig sets where rendered digests land.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	DocsDir   string `mapstructure:"docs_dir"`
	PagesURL  string `mapstructure:"pages_url"`
	SentDB    string `mapstructure:"sent_db"`
	IndexDays int    `mapstructure:"index_days"`
}

// NotifyConfig configures the WeCom webhook.
type NotifyConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	TopN           int    `mapstructure:"top_n"`
}

// WatchConfig controls the polling loop.
type WatchConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// ServerConfig controls the digest page server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RSSDIGEST")
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
	v.SetDefault("feeds.opml_path", "feeds.opml")

	v.SetDefault("fetch.concurrency", 20)
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.user_agent", "KarpathyRSS-DailyDigest/1.0")
	v.SetDefault("fetch.lookback_days", 1)
	v.SetDefault("fetch.max_dateless", 3)

	v.SetDefault("enrich.concurrency", 10)
	v.SetDefault("enrich.timeout_seconds", 20)
	v.SetDefault("enrich.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	v.SetDefault("enrich.min_content_len", 200)

	v.SetDefault("classify.endpoint", "https://api.deepseek.com/chat/completions")
	v.SetDefault("classify.model", "deepseek-chat")
	v.SetDefault("classify.batch_size", 5)
	v.SetDefault("classify.max_content_len", 2000)
	v.SetDefault("classify.timeout_seconds", 60)
	v.SetDefault("classify.requests_per_sec", 0)
	v.SetDefault("classify.filter_enabled", true)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.docs_dir", "docs")
	v.SetDefault("output.sent_db", "output/.sent_articles.json")
	v.SetDefault("output.index_days", 30)

	v.SetDefault("notify.timeout_seconds", 15)
	v.SetDefault("notify.top_n", 5)

	v.SetDefault("watch.interval_minutes", 30)

	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.LookbackDays <= 0 {
		return fmt.Errorf("fetch.lookback_days must be > 0")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	if c.Classify.BatchSize <= 0 {
		return fmt.Errorf("classify.batch_size must be > 0")
	}
	if c.Watch.IntervalMinutes <= 0 {
		return fmt.Errorf("watch.interval_minutes must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// FetchTimeout converts the feed fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// EnrichTimeout converts the page fetch timeout into a duration.
func (c Config) EnrichTimeout() time.Duration {
	return time.Duration(c.Enrich.TimeoutSeconds) * time.Second
}

// WatchInterval converts the poll interval into a duration.
func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.Watch.IntervalMinutes) * time.Minute
}
