package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	require.Empty(t, s.Load())
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sent.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	s := New(path, zap.NewNop())
	require.Empty(t, s.Load())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "sent.json")
	s := New(path, zap.NewNop())

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	db := MarkSent([]digest.Item{
		{Title: "hello", Link: "https://example.com/a"},
	}, History{}, now)
	require.NoError(t, s.Save(db))

	loaded := s.Load()
	require.Len(t, loaded, 1)
	rec := loaded[digest.IdentityOf("https://example.com/a")]
	require.Equal(t, "hello", rec.Title)
	require.True(t, rec.SentAt.Equal(now))
}

func TestLoadPrunesOldRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-30 * 24 * time.Hour)

	path := filepath.Join(t.TempDir(), "sent.json")
	s := New(path, zap.NewNop())
	s.now = func() time.Time { return now }

	db := History{
		"old":      {Link: "https://example.com/old", SentAt: cutoff.Add(-time.Second)},
		"boundary": {Link: "https://example.com/boundary", SentAt: cutoff},
		"fresh":    {Link: "https://example.com/fresh", SentAt: now.Add(-time.Hour)},
	}
	require.NoError(t, s.Save(db))

	loaded := s.Load()
	require.NotContains(t, loaded, "old")
	require.Contains(t, loaded, "boundary")
	require.Contains(t, loaded, "fresh")
}

func TestFilterNewPreservesOrderAndIsIdempotent(t *testing.T) {
	t.Parallel()

	items := []digest.Item{
		{Link: "https://example.com/1"},
		{Link: "https://example.com/2"},
		{Link: "https://example.com/3"},
	}
	db := History{digest.IdentityOf("https://example.com/2"): {}}

	fresh := FilterNew(items, db)
	require.Len(t, fresh, 2)
	require.Equal(t, "https://example.com/1", fresh[0].Link)
	require.Equal(t, "https://example.com/3", fresh[1].Link)

	// Filtering the filtered set changes nothing.
	require.Equal(t, fresh, FilterNew(fresh, db))

	db = MarkSent(fresh, db, time.Now())
	require.Empty(t, FilterNew(items, db))
}
