// Package app assembles the digest service from configuration.
package app

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/classify"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/config"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/enricher"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/fetcher"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/logging"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/metrics"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/notify"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/opml"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/pipeline"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/render"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/store"
)

// App bundles the configured service dependencies used by the CLI commands.
type App struct {
	Cfg     config.Config
	Logger  *zap.Logger
	Sources []digest.Source
}

// New loads configuration, the source list, and the logger, and registers
// the Prometheus collectors.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	sources, err := opml.ParseFile(cfg.Feeds.OPMLPath)
	if err != nil {
		logger.Sync() //nolint:errcheck
		return nil, fmt.Errorf("load feed list: %w", err)
	}
	if len(sources) == 0 {
		logger.Sync() //nolint:errcheck
		return nil, fmt.Errorf("feed list %s contains no feeds", cfg.Feeds.OPMLPath)
	}

	metrics.Init()

	logger.Info("application initialized",
		zap.Int("sources", len(sources)),
		zap.String("opml", cfg.Feeds.OPMLPath))

	return &App{Cfg: cfg, Logger: logger, Sources: sources}, nil
}

// Close flushes buffered log entries.
func (a *App) Close() {
	_ = a.Logger.Sync()
}

// BuildPipeline wires all digest stages from the loaded configuration.
func (a *App) BuildPipeline() *pipeline.Pipeline {
	cfg := a.Cfg

	feedFetcher := fetcher.New(fetcher.Config{
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.FetchTimeout(),
		UserAgent:   cfg.Fetch.UserAgent,
		MaxDateless: cfg.Fetch.MaxDateless,
	}, &http.Client{Timeout: cfg.FetchTimeout()}, a.Logger)

	pageFetcher := enricher.NewCollyFetcher(cfg.Enrich.UserAgent, cfg.EnrichTimeout())
	enrich := enricher.New(enricher.Config{
		Concurrency:   cfg.Enrich.Concurrency,
		Timeout:       cfg.EnrichTimeout(),
		MinContentLen: cfg.Enrich.MinContentLen,
	}, pageFetcher, a.Logger)

	classifier := classify.NewClient(classify.ClientConfig{
		Endpoint:       cfg.Classify.Endpoint,
		Model:          cfg.Classify.Model,
		APIKey:         cfg.Classify.APIKey,
		Timeout:        time.Duration(cfg.Classify.TimeoutSeconds) * time.Second,
		RequestsPerSec: cfg.Classify.RequestsPerSec,
	})
	transformer := classify.New(classify.Config{
		BatchSize:     cfg.Classify.BatchSize,
		MaxContentLen: cfg.Classify.MaxContentLen,
	}, classifier, a.Logger)

	renderer := render.New(render.Config{
		DocsDir:   cfg.Output.DocsDir,
		OutputDir: cfg.Output.Dir,
		PagesURL:  cfg.Output.PagesURL,
		IndexDays: cfg.Output.IndexDays,
	}, a.Logger)

	notifier := a.BuildNotifier()
	sentStore := store.New(cfg.Output.SentDB, a.Logger)

	return pipeline.New(pipeline.Config{
		Sources:       a.Sources,
		Lookback:      time.Duration(cfg.Fetch.LookbackDays) * 24 * time.Hour,
		FilterEnabled: cfg.Classify.FilterEnabled,
	}, feedFetcher, enrich, transformer, renderer, notifier, sentStore, a.Logger)
}

// BuildNotifier wires the WeCom webhook client.
func (a *App) BuildNotifier() *notify.Notifier {
	return notify.New(notify.Config{
		WebhookURL: a.Cfg.Notify.WebhookURL,
		TopN:       a.Cfg.Notify.TopN,
		Timeout:    time.Duration(a.Cfg.Notify.TimeoutSeconds) * time.Second,
	}, a.Logger)
}
