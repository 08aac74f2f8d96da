// Package digest holds the core types shared across the ingestion pipeline.
package digest

import "time"

// Source describes one configured feed. It is read-only once parsed from the
// OPML source list.
type Source struct {
	Name    string
	FeedURL string
	PageURL string
}

// Category labels produced by the classifier. The labels mirror the values
// the model is prompted to return.
const (
	CategoryAI       = "AI"
	CategoryTech     = "科技"
	CategoryBusiness = "商业"
	CategoryOther    = "其他"
)

// Item is one retrieved article plus the annotations derived downstream.
// The link is the item's identity; everything else may be refined in place
// as the item moves through the pipeline.
type Item struct {
	Title     string
	Link      string
	Source    string
	Published *time.Time
	Summary   string
	Author    string
	Tags      []string

	// FullContent starts as the feed summary and is replaced by the
	// enricher when a page fetch yields enough extracted text.
	FullContent string

	// Classifier outputs.
	AITitle   string
	AISummary string
	AIDetail  string
	Category  string
	Relevant  bool
}

// PublishedOr returns the publish time or the given fallback when the feed
// supplied none.
func (it *Item) PublishedOr(fallback time.Time) time.Time {
	if it.Published == nil {
		return fallback
	}
	return *it.Published
}
