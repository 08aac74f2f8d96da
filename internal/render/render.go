// Package render produces the HTML and Markdown digest documents.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

// displayNames maps classifier categories to the section headings shown on
// the page, in display order.
var displayOrder = []struct {
	category string
	display  string
}{
	{digest.CategoryAI, "🤖 AI / 机器学习"},
	{digest.CategoryTech, "💻 科技 / 技术"},
	{digest.CategoryBusiness, "📈 商业 / 行业"},
}

// Group is one category section of the digest.
type Group struct {
	Display string
	Items   []digest.Item
}

// Renderer writes digest pages under the docs dir (one page per day plus an
// index) and a Markdown copy under the output dir.
type Renderer struct {
	docsDir   string
	outputDir string
	pagesURL  string
	indexDays int
	logger    *zap.Logger
	now       func() time.Time
}

// Config locates the output directories.
type Config struct {
	DocsDir   string
	OutputDir string
	PagesURL  string
	IndexDays int
}

// New builds a Renderer.
func New(cfg Config, logger *zap.Logger) *Renderer {
	if cfg.IndexDays <= 0 {
		cfg.IndexDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		docsDir:   cfg.DocsDir,
		outputDir: cfg.OutputDir,
		pagesURL:  cfg.PagesURL,
		indexDays: cfg.IndexDays,
		logger:    logger,
		now:       time.Now,
	}
}

// Categorize buckets items into the displayed sections in display order.
// Items outside the known categories are omitted from the page.
func Categorize(items []digest.Item) []Group {
	buckets := make(map[string][]digest.Item, len(displayOrder))
	for _, it := range items {
		buckets[it.Category] = append(buckets[it.Category], it)
	}

	groups := make([]Group, 0, len(displayOrder))
	for _, entry := range displayOrder {
		if bucket := buckets[entry.category]; len(bucket) > 0 {
			groups = append(groups, Group{Display: entry.display, Items: bucket})
		}
	}
	return groups
}

// WriteDigest renders and persists both output formats for today's items
// and refreshes the index page. It returns the public URL of the HTML page
// when a pages base URL is configured.
func (r *Renderer) WriteDigest(items []digest.Item) (string, error) {
	if len(items) == 0 {
		return "", nil
	}

	day := r.now().Format("2006-01-02")

	html, err := r.renderHTML(items)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	htmlPath := filepath.Join(r.docsDir, day+".html")
	if err := writeFile(htmlPath, html); err != nil {
		return "", err
	}
	r.logger.Info("digest page saved", zap.String("path", htmlPath))

	if err := r.updateIndex(); err != nil {
		r.logger.Warn("index update failed", zap.Error(err))
	}

	md, err := r.renderMarkdown(items)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	mdPath := filepath.Join(r.outputDir, "digest-"+day+".md")
	if err := writeFile(mdPath, md); err != nil {
		return "", err
	}
	r.logger.Info("markdown digest saved", zap.String("path", mdPath))

	return r.PageURL(day), nil
}

// PageURL returns the public URL for the given day's page, or empty when no
// pages base URL is configured.
func (r *Renderer) PageURL(day string) string {
	if r.pagesURL == "" {
		return ""
	}
	return strings.TrimRight(r.pagesURL, "/") + "/" + day + ".html"
}

// updateIndex regenerates index.html listing the most recent digest pages.
func (r *Renderer) updateIndex() error {
	entries, err := filepath.Glob(filepath.Join(r.docsDir, "20*.html"))
	if err != nil {
		return fmt.Errorf("list digest pages: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	if len(entries) > r.indexDays {
		entries = entries[:r.indexDays]
	}

	type indexEntry struct {
		Filename string
		Title    string
		Date     string
	}
	list := make([]indexEntry, 0, len(entries))
	for _, path := range entries {
		name := filepath.Base(path)
		date := strings.TrimSuffix(name, ".html")
		list = append(list, indexEntry{
			Filename: name,
			Title:    "Karpathy RSS 实时精选 - " + date,
			Date:     date,
		})
	}

	var sb strings.Builder
	if err := indexTemplate.Execute(&sb, map[string]any{"Digests": list}); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return writeFile(filepath.Join(r.docsDir, "index.html"), sb.String())
}

func (r *Renderer) renderHTML(items []digest.Item) (string, error) {
	var sb strings.Builder
	err := pageTemplate.Execute(&sb, r.templateData(items))
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) renderMarkdown(items []digest.Item) (string, error) {
	var sb strings.Builder
	err := markdownTemplate.Execute(&sb, r.templateData(items))
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) templateData(items []digest.Item) map[string]any {
	sources := map[string]struct{}{}
	for _, it := range items {
		sources[it.Source] = struct{}{}
	}
	return map[string]any{
		"Date":        r.now().Format("2006年01月02日"),
		"Total":       len(items),
		"SourceCount": len(sources),
		"Groups":      Categorize(items),
	}
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
