package enricher

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// strippedSelectors are removed from the document before any text is taken;
// they never carry article body text.
const strippedSelectors = "script, style, nav, header, footer, aside, form, iframe, noscript, svg, img"

// contentSelectors is the ordered probe list for sites without an <article>
// element. The first container whose text clears the length threshold wins.
var contentSelectors = []string{
	".post-content",
	".entry-content",
	".article-body",
	".content",
	"main",
	"#content",
	".post",
}

// ExtractText reduces raw article HTML to plain text: boilerplate elements
// removed, the best content container selected, one trimmed line per
// paragraph with blanks dropped. minLen is the threshold, in characters, a
// probed container must clear to be accepted.
func ExtractText(raw []byte, minLen int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	doc.Find(strippedSelectors).Remove()

	var text string
	if article := doc.Find("article").First(); article.Length() > 0 {
		text = article.Text()
	} else {
		for _, selector := range contentSelectors {
			container := doc.Find(selector).First()
			if container.Length() == 0 {
				continue
			}
			if candidate := container.Text(); utf8.RuneCountInString(strings.TrimSpace(candidate)) > minLen {
				text = candidate
				break
			}
		}
		if text == "" {
			text = doc.Text()
		}
	}

	return normalizeLines(text), nil
}

// normalizeLines trims each line and drops empty ones, yielding one line per
// paragraph of the source document.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
