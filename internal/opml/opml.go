// Package opml parses the OPML document that lists the configured feeds.
package opml

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

type document struct {
	Body body `xml:"body"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	HTMLURL  string    `xml:"htmlUrl,attr"`
	Outlines []outline `xml:"outline"`
}

// ParseFile reads the OPML file at path and returns one Source per outline
// carrying an xmlUrl. Grouping outlines without a feed URL are descended
// into, so nested folder structures flatten out.
func ParseFile(path string) ([]digest.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opml: %w", err)
	}
	return Parse(raw)
}

// Parse decodes raw OPML bytes into the flat source list.
func Parse(raw []byte) ([]digest.Source, error) {
	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse opml: %w", err)
	}

	var sources []digest.Source
	collect(doc.Body.Outlines, &sources)
	return sources, nil
}

func collect(outlines []outline, out *[]digest.Source) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			name := o.Text
			if name == "" {
				name = o.Title
			}
			if name == "" {
				name = "Unknown"
			}
			*out = append(*out, digest.Source{
				Name:    name,
				FeedURL: o.XMLURL,
				PageURL: o.HTMLURL,
			})
		}
		collect(o.Outlines, out)
	}
}
