package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

// jsonExpr pulls the first JSON object out of a chat response; models tend
// to wrap the payload in prose or code fences despite instructions.
var jsonExpr = regexp.MustCompile(`(?s)\{.*\}`)

// ClientConfig configures the chat-completions client.
type ClientConfig struct {
	Endpoint       string
	Model          string
	APIKey         string
	Timeout        time.Duration
	RequestsPerSec float64
}

// Client implements Classifier against an OpenAI-compatible
// chat-completions endpoint (DeepSeek in the default configuration). An
// optional client-side rate limiter makes the upstream's rate constraint
// explicit instead of relying on sequential call sites alone.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a Client from configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// classifyPayload is the strict schema expected inside the model output.
type classifyPayload struct {
	Category   string `json:"category"`
	IsRelevant *bool  `json:"is_relevant"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
}

// Classify asks the model for a category, relevance verdict, and short
// summary, decoding the response strictly: any schema mismatch is an error
// the caller turns into the documented fallback.
func (c *Client) Classify(ctx context.Context, req Request) (Result, error) {
	userMsg := fmt.Sprintf("原标题: %s\n来源: %s\n\n%s", req.Title, req.Source, req.Content)

	text, err := c.complete(ctx, summarizePrompt, userMsg, 0.3, 200)
	if err != nil {
		return Result{}, err
	}

	match := jsonExpr.FindString(text)
	if match == "" {
		return Result{}, fmt.Errorf("no JSON object in classifier response")
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		return Result{}, fmt.Errorf("decode classifier response: %w", err)
	}

	relevant := true
	if payload.IsRelevant != nil {
		relevant = *payload.IsRelevant
	}
	category := payload.Category
	if category == "" {
		category = digest.CategoryOther
	}

	return Result{
		Category: category,
		Relevant: relevant,
		Title:    payload.Title,
		Summary:  payload.Summary,
	}, nil
}

// Detail asks the model for the long-form reading; the raw text is the
// result.
func (c *Client) Detail(ctx context.Context, req Request) (string, error) {
	userMsg := fmt.Sprintf("标题: %s\n来源: %s\n\n%s", req.Title, req.Source, req.Content)

	text, err := c.complete(ctx, detailPrompt, userMsg, 0.5, 400)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" || c.cfg.Model == "" {
		return "", fmt.Errorf("classifier client misconfigured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat completion %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
