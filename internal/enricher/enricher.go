// Package enricher replaces feed summaries with extracted full page text.
package enricher

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/metrics"
)

// Config controls enrichment behavior.
type Config struct {
	Concurrency   int
	Timeout       time.Duration
	MinContentLen int
}

// Enricher fetches each item's page and, when extraction yields enough
// text, replaces the item's full content in place. Page fetches are heavier
// than feed fetches, so the pool here is sized independently and smaller.
type Enricher struct {
	cfg     Config
	fetcher PageFetcher
	logger  *zap.Logger
}

// New builds an Enricher around the given page fetcher.
func New(cfg Config, fetcher PageFetcher, logger *zap.Logger) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MinContentLen <= 0 {
		cfg.MinContentLen = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Enrich mutates the items in place. Workers operate on disjoint elements,
// so no locking is needed around the items themselves. Enrichment is best
// effort: any failure leaves the feed-derived content untouched.
func (e *Enricher) Enrich(ctx context.Context, items []digest.Item) {
	sem := semaphore.NewWeighted(int64(e.cfg.Concurrency))
	var wg sync.WaitGroup

	for i := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(it *digest.Item) {
			defer wg.Done()
			defer sem.Release(1)
			e.enrichOne(ctx, it)
		}(&items[i])
	}
	wg.Wait()

	enriched := 0
	for i := range items {
		if utf8.RuneCountInString(items[i].FullContent) > e.cfg.MinContentLen {
			enriched++
		}
	}
	e.logger.Info("content enrichment done",
		zap.Int("items", len(items)),
		zap.Int("with_full_content", enriched),
	)
}

func (e *Enricher) enrichOne(ctx context.Context, it *digest.Item) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := e.fetcher.FetchPage(fetchCtx, it.Link)
	if err != nil {
		metrics.IncEnriched("fetch_error")
		e.logger.Debug("page fetch failed", zap.String("url", it.Link), zap.Error(err))
		return
	}

	text, err := ExtractText(raw, e.cfg.MinContentLen)
	if err != nil {
		metrics.IncEnriched("parse_error")
		e.logger.Debug("page parse failed", zap.String("url", it.Link), zap.Error(err))
		return
	}

	if utf8.RuneCountInString(text) <= e.cfg.MinContentLen {
		metrics.IncEnriched("too_short")
		return
	}

	it.FullContent = text
	metrics.IncEnriched("ok")
}
