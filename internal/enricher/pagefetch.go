package enricher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// PageFetcher retrieves the raw HTML of one article page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// CollyFetcher implements PageFetcher with a Colly collector. Article pages
// are fetched with a browser-like identification string since some sites
// reject generic clients.
type CollyFetcher struct {
	userAgent     string
	timeout       time.Duration
	baseCollector *colly.Collector
}

// NewCollyFetcher builds a fetcher; each FetchPage clones the base
// collector so requests stay independent.
func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CollyFetcher{
		userAgent:     userAgent,
		timeout:       timeout,
		baseCollector: c,
	}
}

// FetchPage executes a single GET and returns the response body. Redirects
// are followed by the underlying transport; non-2xx statuses surface as
// errors through Colly's error hook.
func (f *CollyFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	if f.userAgent != "" {
		collector.UserAgent = f.userAgent
	}
	collector.SetRequestTimeout(f.timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("page fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, fetchErr)
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
	}
}
