package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

type fakeClassifier struct {
	results   map[string]Result
	errTitles map[string]bool
	detail    string
	detailErr error
	calls     int
}

func (f *fakeClassifier) Classify(_ context.Context, req Request) (Result, error) {
	f.calls++
	if f.errTitles[req.Title] {
		return Result{}, errors.New("model unavailable")
	}
	if res, ok := f.results[req.Title]; ok {
		return res, nil
	}
	return Result{Category: digest.CategoryTech, Relevant: true, Summary: "摘要"}, nil
}

func (f *fakeClassifier) Detail(_ context.Context, _ Request) (string, error) {
	if f.detailErr != nil {
		return "", f.detailErr
	}
	return f.detail, nil
}

func TestTransformFailureIsolatedToItem(t *testing.T) {
	t.Parallel()

	fc := &fakeClassifier{
		results: map[string]Result{
			"good": {Category: digest.CategoryAI, Relevant: true, Title: "AI 标题", Summary: "AI 摘要"},
		},
		errTitles: map[string]bool{"bad": true},
		detail:    "详细解读",
	}

	items := []digest.Item{
		{Title: "good", FullContent: "content one"},
		{Title: "bad", FullContent: "content two"},
	}
	tr := New(Config{}, fc, zap.NewNop())
	retained := tr.Transform(context.Background(), items, false)

	require.Len(t, retained, 2)
	require.Equal(t, digest.CategoryAI, retained[0].Category)
	require.True(t, retained[0].Relevant)
	require.Equal(t, "AI 标题", retained[0].AITitle)

	// The failed item degrades to the fallback annotation.
	require.Equal(t, digest.CategoryOther, retained[1].Category)
	require.False(t, retained[1].Relevant)
	require.Equal(t, "bad", retained[1].AITitle)
	require.Empty(t, retained[1].AISummary)
}

func TestTransformFilterDropsIrrelevant(t *testing.T) {
	t.Parallel()

	fc := &fakeClassifier{
		results: map[string]Result{
			"keep": {Category: digest.CategoryAI, Relevant: true, Summary: "s"},
			"drop": {Category: digest.CategoryTech, Relevant: false},
		},
		detail: "d",
	}

	items := []digest.Item{
		{Title: "keep", FullContent: "c"},
		{Title: "drop", FullContent: "c"},
	}
	tr := New(Config{}, fc, zap.NewNop())

	retained := tr.Transform(context.Background(), items, true)
	require.Len(t, retained, 1)
	require.Equal(t, "keep", retained[0].Title)
}

func TestTransformOtherCategoryNeverRelevant(t *testing.T) {
	t.Parallel()

	fc := &fakeClassifier{
		results: map[string]Result{
			// The model claims relevance but puts it in the other bucket.
			"misc": {Category: digest.CategoryOther, Relevant: true, Summary: "s"},
		},
	}

	items := []digest.Item{{Title: "misc", FullContent: "c"}}
	tr := New(Config{}, fc, zap.NewNop())

	retained := tr.Transform(context.Background(), items, false)
	require.Len(t, retained, 1)
	require.False(t, retained[0].Relevant)

	// With the filter on, the same item is dropped.
	items = []digest.Item{{Title: "misc", FullContent: "c"}}
	require.Empty(t, tr.Transform(context.Background(), items, true))
}

func TestTransformEmptyContentFallsBack(t *testing.T) {
	t.Parallel()

	fc := &fakeClassifier{}
	items := []digest.Item{{Title: "hollow"}}
	tr := New(Config{}, fc, zap.NewNop())

	retained := tr.Transform(context.Background(), items, false)
	require.Len(t, retained, 1)
	require.Equal(t, digest.CategoryOther, retained[0].Category)
	require.False(t, retained[0].Relevant)
	require.Zero(t, fc.calls)
}

func TestTransformDetailFallsBackToSummary(t *testing.T) {
	t.Parallel()

	fc := &fakeClassifier{
		results: map[string]Result{
			"item": {Category: digest.CategoryAI, Relevant: true, Summary: "短摘要"},
		},
		detailErr: errors.New("timeout"),
	}

	items := []digest.Item{{Title: "item", FullContent: "c"}}
	tr := New(Config{}, fc, zap.NewNop())

	retained := tr.Transform(context.Background(), items, true)
	require.Len(t, retained, 1)
	require.Equal(t, "短摘要", retained[0].AIDetail)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab", truncate("abcde", 2))
	require.Equal(t, "你好", truncate("你好世界", 2))
}
