package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher loads pages in headless Chrome, for sources that refuse
// plain HTTP clients
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	headless bool
	timeout  time.Duration
}

// NewBrowserFetcher creates a new browser-based fetcher
func NewBrowserFetcher(headless bool, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &BrowserFetcher{
		headless: headless,
		timeout:  timeout,
	}
}

// Start initializes the browser allocator
func (b *BrowserFetcher) Start() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(defaultUserAgent),
	)

	b.allocCtx, b.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return nil
}

// Stop closes the browser
func (b *BrowserFetcher) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Fetch navigates to the request URL and returns the rendered document
func (b *BrowserFetcher) Fetch(ctx context.Context, pr PageRequest) (string, error) {
	if b.allocCtx == nil {
		return "", fmt.Errorf("browser not started")
	}
	target, err := pr.FullURL()
	if err != nil {
		return "", err
	}

	// Create a new browser tab for this page
	taskCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, b.timeout)
	defer cancel()

	// Tie the tab to the caller's context as well
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err = chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			headers := make(network.Headers)
			for k, v := range pr.Headers {
				if strings.EqualFold(k, "host") || strings.EqualFold(k, "cookie") {
					continue
				}
				headers[k] = v
			}
			if len(headers) == 0 {
				return nil
			}
			return network.SetExtraHTTPHeaders(headers).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(pr.Cookies) == 0 {
				return nil
			}
			cookies := make([]*network.CookieParam, 0, len(pr.Cookies))
			for name, value := range pr.Cookies {
				cookies = append(cookies, &network.CookieParam{Name: name, Value: value, URL: target})
			}
			return network.SetCookies(cookies).Do(ctx)
		}),
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	log.Printf("[browser] %s loaded, HTML length: %d", pr.Source, len(html))
	return html, nil
}
