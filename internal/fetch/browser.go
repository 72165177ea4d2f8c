package fetch

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome and returns the resulting
// DOM as HTML. It needs a Chrome or Chromium binary on PATH.
type BrowserFetcher struct {
	UserAgent string
	// Timeout bounds navigation plus DOM capture. Zero means 30s.
	Timeout time.Duration
	// ExecPath overrides the browser binary lookup when set.
	ExecPath string
}

// Get navigates to rawURL and returns the outer HTML of the document.
func (b *BrowserFetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return nil, "", err
	}
	ua := b.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(ua),
	)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	taskCtx, cancel := context.WithTimeout(taskCtx, timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(taskCtx, chromedp.Navigate(u))
	if err != nil {
		return nil, "", fmt.Errorf("browser fetch %s: %w", u, err)
	}
	if err := checkResponse(rawURL, resp); err != nil {
		return nil, "", err
	}
	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, "", fmt.Errorf("browser fetch %s: %w", u, err)
	}
	return []byte(html), "text/html; charset=utf-8", nil
}

// checkResponse applies the same non-2xx rule as Client to a navigation
// response. A nil response (no network request was made) passes.
func checkResponse(rawURL string, resp *network.Response) error {
	if resp == nil {
		return nil
	}
	if resp.Status < 200 || resp.Status > 299 {
		return &ErrStatus{URL: rawURL, Code: int(resp.Status)}
	}
	return nil
}

func parseHTTPURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, raw)
	}
	return u.String(), nil
}
