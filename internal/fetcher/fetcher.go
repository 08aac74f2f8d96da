// Package fetcher retrieves and filters the configured feeds.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/metrics"
)

const (
	maxSummaryLen = 500
	maxTags       = 5

	untitled = "无标题"
)

// Config controls fetch behavior.
type Config struct {
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
	MaxDateless int
}

// Fetcher pulls many feeds concurrently, one worker per source, bounded by a
// counting semaphore.
type Fetcher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a Fetcher. A nil client gets a default with the configured
// timeout; redirects are followed.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxDateless <= 0 {
		cfg.MaxDateless = 3
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{cfg: cfg, client: client, logger: logger}
}

// FetchAll retrieves every source and returns the merged item list sorted by
// publish time, newest first; items without a publish time sort last. A
// failing source contributes zero items and never aborts its siblings.
func (f *Fetcher) FetchAll(ctx context.Context, sources []digest.Source, since time.Time) []digest.Item {
	sem := semaphore.NewWeighted(int64(f.cfg.Concurrency))

	var (
		mu  sync.Mutex
		all []digest.Item
		wg  sync.WaitGroup
	)

	for _, src := range sources {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(src digest.Source) {
			defer wg.Done()
			defer sem.Release(1)

			items := f.fetchFeed(ctx, src, since)
			if len(items) == 0 {
				return
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	sort.SliceStable(all, func(i, j int) bool {
		var zero time.Time
		return all[i].PublishedOr(zero).After(all[j].PublishedOr(zero))
	})

	metrics.AddItemsFetched(len(all))
	f.logger.Info("feeds fetched", zap.Int("sources", len(sources)), zap.Int("items", len(all)))
	return all
}

// fetchFeed retrieves one feed document and converts its entries. All
// failures are per-source: they are logged at warn level and yield nil.
func (f *Fetcher) fetchFeed(ctx context.Context, src digest.Source, since time.Time) []digest.Item {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	feed, err := f.downloadFeed(reqCtx, src)
	if err != nil {
		metrics.IncFeedFetch("error")
		f.logger.Warn("feed fetch failed",
			zap.String("source", src.Name),
			zap.String("url", src.FeedURL),
			zap.Error(err),
		)
		return nil
	}
	metrics.IncFeedFetch("ok")

	hasAnyDate := false
	for _, entry := range feed.Items {
		if resolveDate(entry) != nil {
			hasAnyDate = true
			break
		}
	}

	var (
		items    []digest.Item
		dateless int
	)
	for _, entry := range feed.Items {
		published := resolveDate(entry)
		switch {
		case published != nil && published.Before(since):
			continue
		case published == nil && hasAnyDate:
			// Some siblings carry dates, so an undated entry is
			// unrankable and dropped.
			continue
		case published == nil:
			dateless++
			if dateless > f.cfg.MaxDateless {
				continue
			}
		}

		items = append(items, buildItem(entry, src, published))
	}
	return items
}

func (f *Fetcher) downloadFeed(ctx context.Context, src digest.Source) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func buildItem(entry *gofeed.Item, src digest.Source, published *time.Time) digest.Item {
	raw := ""
	if entry.Content != "" {
		raw = entry.Content
	} else {
		raw = entry.Description
	}
	summary := CleanHTML(raw)

	title := entry.Title
	if title == "" {
		title = untitled
	}

	link := entry.Link
	if link == "" {
		link = src.PageURL
	}

	var author string
	if len(entry.Authors) > 0 {
		author = entry.Authors[0].Name
	}

	tags := entry.Categories
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	short := summary
	if len([]rune(short)) > maxSummaryLen {
		short = string([]rune(short)[:maxSummaryLen])
	}

	return digest.Item{
		Title:       title,
		Link:        link,
		Source:      src.Name,
		Published:   published,
		Summary:     short,
		Author:      author,
		Tags:        tags,
		FullContent: summary,
		Relevant:    true,
	}
}
