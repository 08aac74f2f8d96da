// Package pipeline runs one end-to-end digest pass: fetch, dedup, enrich,
// classify, render, notify, persist.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/metrics"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/store"
)

// Fetcher pulls fresh items from every configured source.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []digest.Source, since time.Time) []digest.Item
}

// Enricher upgrades item content in place.
type Enricher interface {
	Enrich(ctx context.Context, items []digest.Item)
}

// Transformer classifies and summarizes items, returning the retained set.
type Transformer interface {
	Transform(ctx context.Context, items []digest.Item, filterEnabled bool) []digest.Item
}

// Renderer persists digest documents and returns the public page URL.
type Renderer interface {
	WriteDigest(items []digest.Item) (string, error)
}

// Notifier announces a finished digest. Enabled reports whether deliveries
// actually leave the process; the dedup history tracks deliveries, so both
// it and the history are skipped when Enabled is false.
type Notifier interface {
	Enabled() bool
	PushDigest(ctx context.Context, items []digest.Item, pageURL string) error
}

// SentStore persists the dedup history.
type SentStore interface {
	Load() store.History
	Save(db store.History) error
}

// Config carries the per-pass knobs the stages do not own themselves.
type Config struct {
	Sources       []digest.Source
	Lookback      time.Duration
	FilterEnabled bool
}

// Pipeline wires the digest stages together.
type Pipeline struct {
	cfg         Config
	fetcher     Fetcher
	enricher    Enricher
	transformer Transformer
	renderer    Renderer
	notifier    Notifier
	sent        SentStore
	logger      *zap.Logger
	now         func() time.Time
}

// New builds a Pipeline. Renderer and Notifier may be nil when their stage
// is not wanted (a fetch-only dry run).
func New(cfg Config, f Fetcher, e Enricher, t Transformer, r Renderer, n Notifier, s SentStore, logger *zap.Logger) *Pipeline {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		fetcher:     f,
		enricher:    e,
		transformer: t,
		renderer:    r,
		notifier:    n,
		sent:        s,
		logger:      logger,
		now:         time.Now,
	}
}

// RunOnce executes one digest pass. The dedup history records deliveries,
// so it is consulted and updated only when the notifier is enabled, and the
// update happens only after every downstream stage succeeded: a pass that
// fails, or one that never delivers, leaves every item eligible for the
// next delivering round. It returns the number of items published.
func (p *Pipeline) RunOnce(ctx context.Context) (int, error) {
	start := p.now()
	since := start.Add(-p.cfg.Lookback)
	delivering := p.notifier != nil && p.notifier.Enabled()

	p.logger.Info("digest pass starting",
		zap.Int("sources", len(p.cfg.Sources)),
		zap.Time("since", since),
		zap.Bool("delivering", delivering))

	fetched := p.fetcher.FetchAll(ctx, p.cfg.Sources, since)
	if len(fetched) == 0 {
		p.logger.Info("no new entries from any source")
		p.finish(start, "empty")
		return 0, nil
	}

	var db store.History
	fresh := fetched
	if delivering {
		db = p.sent.Load()
		fresh = store.FilterNew(fetched, db)
		p.logger.Info("dedup complete",
			zap.Int("fetched", len(fetched)),
			zap.Int("fresh", len(fresh)))
	}
	if len(fresh) == 0 {
		p.finish(start, "empty")
		return 0, nil
	}

	if err := ctx.Err(); err != nil {
		p.finish(start, "error")
		return 0, err
	}

	p.enricher.Enrich(ctx, fresh)

	retained := p.transformer.Transform(ctx, fresh, p.cfg.FilterEnabled)
	p.logger.Info("transform complete",
		zap.Int("in", len(fresh)),
		zap.Int("retained", len(retained)))
	if len(retained) == 0 {
		p.finish(start, "empty")
		return 0, nil
	}

	var pageURL string
	if p.renderer != nil {
		url, err := p.renderer.WriteDigest(retained)
		if err != nil {
			p.finish(start, "error")
			return 0, fmt.Errorf("write digest: %w", err)
		}
		pageURL = url
	}

	if delivering {
		if err := p.notifier.PushDigest(ctx, retained, pageURL); err != nil {
			p.finish(start, "error")
			return 0, fmt.Errorf("push digest: %w", err)
		}

		// The digest is already delivered at this point. A failed save
		// means the next round may repeat items, which beats failing a
		// pass that visibly succeeded.
		db = store.MarkSent(retained, db, p.now())
		if err := p.sent.Save(db); err != nil {
			p.logger.Warn("save sent history failed", zap.Error(err))
		}
	}

	p.finish(start, "ok")
	p.logger.Info("digest pass finished",
		zap.Int("published", len(retained)),
		zap.Duration("elapsed", p.now().Sub(start)))
	return len(retained), nil
}

func (p *Pipeline) finish(start time.Time, outcome string) {
	metrics.IncRound(outcome)
	metrics.ObservePass(p.now().Sub(start))
}
