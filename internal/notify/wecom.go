// Package notify pushes digest announcements to a WeCom group webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/metrics"
)

const defaultTimeout = 15 * time.Second

// maxMessageBytes is WeCom's limit on markdown message content.
const maxMessageBytes = 4096

// categoryRank orders digest sections for headline selection. Lower ranks
// win; unknown categories sort last.
var categoryRank = map[string]int{
	digest.CategoryAI:       0,
	digest.CategoryTech:     1,
	digest.CategoryBusiness: 2,
}

// Config holds the webhook settings.
type Config struct {
	WebhookURL string
	TopN       int
	Timeout    time.Duration
}

// Notifier sends markdown messages to a WeCom robot webhook.
type Notifier struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// New builds a Notifier. A Notifier with an empty webhook URL is valid and
// silently skips every push.
func New(cfg Config, logger *zap.Logger) *Notifier {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool { return n.cfg.WebhookURL != "" }

// TopItems selects the headline entries for the push message: category
// priority first (AI before tech before business), newest first within a
// category, capped at TopN. The input slice is not modified.
func (n *Notifier) TopItems(items []digest.Item) []digest.Item {
	picked := make([]digest.Item, len(items))
	copy(picked, items)
	sort.SliceStable(picked, func(i, j int) bool {
		ri, iknown := categoryRank[picked[i].Category]
		rj, jknown := categoryRank[picked[j].Category]
		if !iknown {
			ri = len(categoryRank)
		}
		if !jknown {
			rj = len(categoryRank)
		}
		if ri != rj {
			return ri < rj
		}
		var zero time.Time
		return picked[i].PublishedOr(zero).After(picked[j].PublishedOr(zero))
	})
	if len(picked) > n.cfg.TopN {
		picked = picked[:n.cfg.TopN]
	}
	return picked
}

// PushDigest announces a finished digest round. pageURL may be empty when
// no public pages site is configured.
func (n *Notifier) PushDigest(ctx context.Context, items []digest.Item, pageURL string) error {
	if !n.Enabled() {
		n.logger.Debug("webhook not configured, skipping push")
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## 📰 Karpathy RSS 实时精选\n")
	fmt.Fprintf(&sb, "> %s · 新增 %d 篇文章\n\n", n.now().Format("2006-01-02 15:04"), len(items))
	for i, it := range n.TopItems(items) {
		title := it.AITitle
		if title == "" {
			title = it.Title
		}
		fmt.Fprintf(&sb, "%d. [%s](%s)（%s · %s）\n", i+1, title, it.Link, it.Category, it.Source)
	}
	if pageURL != "" {
		fmt.Fprintf(&sb, "\n[查看完整摘要](%s)", pageURL)
	}

	err := n.sendMarkdown(ctx, sb.String())
	if err != nil {
		metrics.IncNotify("error")
		return err
	}
	metrics.IncNotify("ok")
	n.logger.Info("digest pushed", zap.Int("items", len(items)))
	return nil
}

// PushStartup announces that the watch loop came up.
func (n *Notifier) PushStartup(ctx context.Context, interval time.Duration) error {
	if !n.Enabled() {
		return nil
	}
	msg := fmt.Sprintf("## 🚀 RSS 监控已启动\n> %s\n\n轮询间隔：%d 分钟",
		n.now().Format("2006-01-02 15:04"), int(interval.Minutes()))
	return n.sendMarkdown(ctx, msg)
}

// clampBytes cuts s to at most limit bytes without splitting a rune.
func clampBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type wecomResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (n *Notifier) sendMarkdown(ctx context.Context, content string) error {
	if len(content) > maxMessageBytes {
		n.logger.Warn("message over webhook limit, truncating",
			zap.Int("bytes", len(content)))
		content = clampBytes(content, maxMessageBytes)
	}
	payload := map[string]any{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode wecom payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build wecom request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("wecom request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wecom returned status %d", resp.StatusCode)
	}
	var decoded wecomResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode wecom response: %w", err)
	}
	if decoded.ErrCode != 0 {
		return fmt.Errorf("wecom error %d: %s", decoded.ErrCode, decoded.ErrMsg)
	}
	return nil
}
