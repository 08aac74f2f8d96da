// Package store persists the history of already-delivered items.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

// retention is how long delivered identities are remembered.
const retention = 30 * 24 * time.Hour

// Record describes one delivered item.
type Record struct {
	Title  string    `json:"title"`
	Link   string    `json:"link"`
	SentAt time.Time `json:"sent_at"`
}

// History maps item identity hashes to their delivery records.
type History map[string]Record

// SentStore reads and writes the history document at a fixed path.
type SentStore struct {
	path   string
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New builds a store rooted at path.
func New(path string, logger *zap.Logger) *SentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SentStore{path: path, logger: logger, now: time.Now}
}

// Load reads the persisted history. A missing or corrupt file yields an
// empty history rather than an error: stale or broken state must never block
// ingestion. Records older than the retention window are pruned here, on
// load, so the file shrinks lazily.
func (s *SentStore) Load() History {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read sent history failed", zap.String("path", s.path), zap.Error(err))
		}
		return History{}
	}

	var db History
	if err := json.Unmarshal(raw, &db); err != nil {
		s.logger.Warn("sent history is corrupt, starting empty", zap.String("path", s.path), zap.Error(err))
		return History{}
	}

	cutoff := s.now().UTC().Add(-retention)
	for id, rec := range db {
		if rec.SentAt.Before(cutoff) {
			delete(db, id)
		}
	}
	return db
}

// Save serializes the full history, creating the parent directory if absent.
func (s *SentStore) Save(db History) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// FilterNew returns the subsequence of items whose identity is absent from
// db, preserving input order.
func FilterNew(items []digest.Item, db History) []digest.Item {
	kept := make([]digest.Item, 0, len(items))
	for _, it := range items {
		if _, seen := db[it.Identity()]; !seen {
			kept = append(kept, it)
		}
	}
	return kept
}

// MarkSent records every item as delivered at now, overwriting any prior
// record. Pure over the map; the caller persists via Save.
func MarkSent(items []digest.Item, db History, now time.Time) History {
	for i := range items {
		db[items[i].Identity()] = Record{
			Title:  items[i].Title,
			Link:   items[i].Link,
			SentAt: now.UTC(),
		}
	}
	return db
}
