package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

func ts(day int) *time.Time {
	t := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTopItemsCategoryPriorityThenRecency(t *testing.T) {
	t.Parallel()

	items := []digest.Item{
		{Title: "biz", Category: digest.CategoryBusiness, Published: ts(9)},
		{Title: "tech-old", Category: digest.CategoryTech, Published: ts(2)},
		{Title: "ai-old", Category: digest.CategoryAI, Published: ts(1)},
		{Title: "ai-new", Category: digest.CategoryAI, Published: ts(8)},
		{Title: "tech-new", Category: digest.CategoryTech, Published: ts(7)},
		{Title: "misc", Category: digest.CategoryOther, Published: ts(9)},
	}

	n := New(Config{TopN: 5}, zap.NewNop())
	top := n.TopItems(items)

	require.Len(t, top, 5)
	require.Equal(t, "ai-new", top[0].Title)
	require.Equal(t, "ai-old", top[1].Title)
	require.Equal(t, "tech-new", top[2].Title)
	require.Equal(t, "tech-old", top[3].Title)
	require.Equal(t, "biz", top[4].Title)

	// Input order untouched.
	require.Equal(t, "biz", items[0].Title)
}

func TestPushDigestSendsMarkdown(t *testing.T) {
	t.Parallel()

	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	n := New(Config{WebhookURL: srv.URL}, zap.NewNop())
	err := n.PushDigest(context.Background(), []digest.Item{
		{Title: "hello", Link: "https://example.com/a", Category: digest.CategoryAI, Source: "blog"},
	}, "https://pages.example/2024-01-05.html")
	require.NoError(t, err)

	var msgtype string
	require.NoError(t, json.Unmarshal(got["msgtype"], &msgtype))
	require.Equal(t, "markdown", msgtype)

	var md struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(got["markdown"], &md))
	require.Contains(t, md.Content, "hello")
	require.Contains(t, md.Content, "https://pages.example/2024-01-05.html")
}

func TestPushDigestWecomErrorCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
	}))
	t.Cleanup(srv.Close)

	n := New(Config{WebhookURL: srv.URL}, zap.NewNop())
	err := n.PushDigest(context.Background(), []digest.Item{{Title: "x", Link: "l"}}, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "93000")
}

func TestPushDigestRespectsMessageByteLimit(t *testing.T) {
	t.Parallel()

	var content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Markdown struct {
				Content string `json:"content"`
			} `json:"markdown"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		content = payload.Markdown.Content
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	items := make([]digest.Item, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, digest.Item{
			Title:    strings.Repeat("很长的中文标题", 40),
			Link:     "https://example.com/long",
			Category: digest.CategoryAI,
			Source:   "blog",
		})
	}

	n := New(Config{WebhookURL: srv.URL}, zap.NewNop())
	require.NoError(t, n.PushDigest(context.Background(), items, ""))

	require.LessOrEqual(t, len(content), 4096)
	require.True(t, utf8.ValidString(content))
}

func TestClampBytesKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", clampBytes("short", 100))

	s := strings.Repeat("字", 50) // 150 bytes
	cut := clampBytes(s, 100)
	require.True(t, utf8.ValidString(cut))
	require.LessOrEqual(t, len(cut), 100)
	// 33 whole runes fit in 100 bytes.
	require.Equal(t, 33, utf8.RuneCountInString(cut))
}

func TestPushDigestSkippedWithoutWebhook(t *testing.T) {
	t.Parallel()

	n := New(Config{}, zap.NewNop())
	require.False(t, n.Enabled())
	require.NoError(t, n.PushDigest(context.Background(), []digest.Item{{Title: "x"}}, ""))
}
