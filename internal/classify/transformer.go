package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/metrics"
)

// Config controls batch size and the per-call content limit.
type Config struct {
	BatchSize     int
	MaxContentLen int
}

// Transformer runs items through the classifier in fixed-size batches. The
// classifier's upstream applies its own rate limits, so batches run
// sequentially with one call per item.
type Transformer struct {
	cfg        Config
	classifier Classifier
	logger     *zap.Logger
}

// New builds a Transformer.
func New(cfg Config, classifier Classifier, logger *zap.Logger) *Transformer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxContentLen <= 0 {
		cfg.MaxContentLen = 2000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{cfg: cfg, classifier: classifier, logger: logger}
}

// Transform classifies every item, then returns the retained list. With
// filterEnabled, only relevant items survive; with it disabled all items are
// kept, including "other"-category ones. A second sequential pass fills in
// the long-form detail for the retained items only.
func (t *Transformer) Transform(ctx context.Context, items []digest.Item, filterEnabled bool) []digest.Item {
	if len(items) == 0 {
		return items
	}

	total := len(items)
	batches := (total + t.cfg.BatchSize - 1) / t.cfg.BatchSize
	t.logger.Info("classifying items", zap.Int("items", total), zap.Int("batches", batches))

	for start := 0; start < total; start += t.cfg.BatchSize {
		end := start + t.cfg.BatchSize
		if end > total {
			end = total
		}
		t.classifyBatch(ctx, items[start:end])
	}

	retained := items
	if filterEnabled {
		retained = make([]digest.Item, 0, len(items))
		for _, it := range items {
			if it.Relevant {
				retained = append(retained, it)
			}
		}
		t.logger.Info("relevance filter applied",
			zap.Int("kept", len(retained)),
			zap.Int("dropped", len(items)-len(retained)),
		)
	}

	for i := range retained {
		t.enrichDetail(ctx, &retained[i])
	}
	return retained
}

// classifyBatch annotates each item of one batch. A failed call degrades
// only its own item to the fallback annotation; siblings are untouched.
func (t *Transformer) classifyBatch(ctx context.Context, batch []digest.Item) {
	for i := range batch {
		it := &batch[i]

		content := it.FullContent
		if content == "" {
			content = it.Summary
		}
		if content == "" {
			applyFallback(it)
			metrics.IncClassified("empty")
			continue
		}

		result, err := t.classifier.Classify(ctx, Request{
			Title:   it.Title,
			Source:  it.Source,
			Content: truncate(content, t.cfg.MaxContentLen),
		})
		if err != nil {
			metrics.IncClassified("error")
			t.logger.Warn("classify failed", zap.String("title", it.Title), zap.Error(err))
			applyFallback(it)
			continue
		}
		metrics.IncClassified("ok")

		// The "other" bucket is irrelevant regardless of what the
		// model claims about it.
		if result.Category == digest.CategoryOther {
			result.Relevant = false
		}

		it.Category = result.Category
		it.Relevant = result.Relevant
		if result.Relevant {
			it.AITitle = orDefault(result.Title, it.Title)
			it.AISummary = result.Summary
		} else {
			it.AITitle = it.Title
			it.AISummary = ""
		}
	}
}

// enrichDetail fills the long-form reading for one retained item, falling
// back to the short summary when the call fails.
func (t *Transformer) enrichDetail(ctx context.Context, it *digest.Item) {
	content := it.FullContent
	if content == "" {
		content = it.Summary
	}
	if content == "" {
		it.AIDetail = it.AISummary
		return
	}

	detail, err := t.classifier.Detail(ctx, Request{
		Title:   orDefault(it.AITitle, it.Title),
		Source:  it.Source,
		Content: truncate(content, t.cfg.MaxContentLen),
	})
	if err != nil {
		t.logger.Warn("detail generation failed", zap.String("title", it.Title), zap.Error(err))
		it.AIDetail = it.AISummary
		return
	}
	it.AIDetail = detail
}

func applyFallback(it *digest.Item) {
	it.Category = digest.CategoryOther
	it.Relevant = false
	it.AITitle = it.Title
	it.AISummary = ""
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
