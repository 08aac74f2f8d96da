package fetcher

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagExpr   = regexp.MustCompile(`<[^>]+>`)
	spaceExpr = regexp.MustCompile(`\s+`)
)

// CleanHTML reduces a feed-supplied HTML fragment to plain text: markup
// stripped, entities decoded, whitespace collapsed to single spaces.
func CleanHTML(raw string) string {
	text := tagExpr.ReplaceAllString(raw, "")
	text = html.UnescapeString(text)
	text = spaceExpr.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
