package fetcher

import (
	"time"

	"github.com/mmcdole/gofeed"
)

// rawDateLayouts are tried, in order, for date strings gofeed could not
// parse itself.
var rawDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// resolveDate extracts a UTC publish time from an entry using an ordered
// fallback over the date fields feeds actually populate. Returns nil when no
// field parses.
func resolveDate(entry *gofeed.Item) *time.Time {
	for _, parsed := range []*time.Time{entry.PublishedParsed, entry.UpdatedParsed} {
		if parsed != nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	for _, raw := range []string{entry.Published, entry.Updated} {
		if raw == "" {
			continue
		}
		for _, layout := range rawDateLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				utc := parsed.UTC()
				return &utc
			}
		}
	}
	return nil
}
