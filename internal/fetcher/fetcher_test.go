package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

type rssEntry struct {
	title   string
	link    string
	pubDate string
	desc    string
}

func rssDocument(entries ...rssEntry) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>test feed</title>`)
	for _, e := range entries {
		sb.WriteString("<item>")
		if e.title != "" {
			fmt.Fprintf(&sb, "<title>%s</title>", e.title)
		}
		if e.link != "" {
			fmt.Fprintf(&sb, "<link>%s</link>", e.link)
		}
		if e.pubDate != "" {
			fmt.Fprintf(&sb, "<pubDate>%s</pubDate>", e.pubDate)
		}
		if e.desc != "" {
			fmt.Fprintf(&sb, "<description><![CDATA[%s]]></description>", e.desc)
		}
		sb.WriteString("</item>")
	}
	sb.WriteString("</channel></rss>")
	return sb.String()
}

func feedServer(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAllMergesAndSortsNewestFirst(t *testing.T) {
	t.Parallel()

	datedSrv := feedServer(t, rssDocument(
		rssEntry{title: "older", link: "https://a.example/older", pubDate: "Wed, 03 Jan 2024 00:00:00 +0000"},
		rssEntry{title: "newer", link: "https://a.example/newer", pubDate: "Fri, 05 Jan 2024 00:00:00 +0000"},
	))
	datelessSrv := feedServer(t, rssDocument(
		rssEntry{title: "undated", link: "https://b.example/undated"},
	))

	f := New(Config{}, nil, zap.NewNop())
	items := f.FetchAll(context.Background(), []digest.Source{
		{Name: "dated", FeedURL: datedSrv.URL},
		{Name: "dateless", FeedURL: datelessSrv.URL},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, items, 3)
	require.Equal(t, "newer", items[0].Title)
	require.Equal(t, "older", items[1].Title)
	// No publish time sorts last.
	require.Equal(t, "undated", items[2].Title)
	require.Nil(t, items[2].Published)
}

func TestFetchAllDropsEntriesBeforeCutoff(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, rssDocument(
		rssEntry{title: "stale", link: "https://a.example/stale", pubDate: "Mon, 01 Jan 2024 00:00:00 +0000"},
		rssEntry{title: "recent", link: "https://a.example/recent", pubDate: "Fri, 05 Jan 2024 00:00:00 +0000"},
	))

	f := New(Config{}, nil, zap.NewNop())
	items := f.FetchAll(context.Background(), []digest.Source{{Name: "src", FeedURL: srv.URL}},
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))

	require.Len(t, items, 1)
	require.Equal(t, "recent", items[0].Title)
}

func TestFetchAllDatelessFeedCapped(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, rssDocument(
		rssEntry{title: "one", link: "https://a.example/1"},
		rssEntry{title: "two", link: "https://a.example/2"},
		rssEntry{title: "three", link: "https://a.example/3"},
		rssEntry{title: "four", link: "https://a.example/4"},
	))

	f := New(Config{MaxDateless: 3}, nil, zap.NewNop())
	items := f.FetchAll(context.Background(), []digest.Source{{Name: "src", FeedURL: srv.URL}},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, items, 3)
	require.Equal(t, "one", items[0].Title)
	require.Equal(t, "two", items[1].Title)
	require.Equal(t, "three", items[2].Title)
}

func TestFetchAllDropsUndatedWhenSiblingsDated(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, rssDocument(
		rssEntry{title: "dated", link: "https://a.example/dated", pubDate: "Fri, 05 Jan 2024 00:00:00 +0000"},
		rssEntry{title: "undated", link: "https://a.example/undated"},
	))

	f := New(Config{}, nil, zap.NewNop())
	items := f.FetchAll(context.Background(), []digest.Source{{Name: "src", FeedURL: srv.URL}},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, items, 1)
	require.Equal(t, "dated", items[0].Title)
}

func TestFetchAllFailingSourceDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	healthy := feedServer(t, rssDocument(
		rssEntry{title: "ok", link: "https://a.example/ok", pubDate: "Fri, 05 Jan 2024 00:00:00 +0000"},
	))

	f := New(Config{}, nil, zap.NewNop())
	items := f.FetchAll(context.Background(), []digest.Source{
		{Name: "broken", FeedURL: broken.URL},
		{Name: "healthy", FeedURL: healthy.URL},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, items, 1)
	require.Equal(t, "ok", items[0].Title)
}

func TestBuildItemDefaultsAndTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("字", 600)
	srv := feedServer(t, rssDocument(
		rssEntry{desc: "<p>" + long + "</p>"},
	))

	f := New(Config{}, nil, zap.NewNop())
	items := f.FetchAll(context.Background(),
		[]digest.Source{{Name: "src", FeedURL: srv.URL, PageURL: "https://src.example/"}},
		time.Time{})

	require.Len(t, items, 1)
	it := items[0]
	require.Equal(t, "无标题", it.Title)
	require.Equal(t, "https://src.example/", it.Link)
	require.Len(t, []rune(it.Summary), 500)
	require.Len(t, []rune(it.FullContent), 600)
	require.True(t, it.Relevant)
}
