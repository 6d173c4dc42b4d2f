package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"car-listings/internal/models"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageRequest describes the search page to fetch for one source
type PageRequest struct {
	Source  models.Source
	URL     string
	Params  map[string]string
	Headers map[string]string
	Cookies map[string]string
}

// FullURL returns URL with Params merged into its query string
func (r PageRequest) FullURL() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url %q: %w", r.URL, err)
	}
	if len(r.Params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range r.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetcher retrieves the raw page text for a request
type Fetcher interface {
	Fetch(ctx context.Context, req PageRequest) (string, error)
}

// HTTPFetcher performs plain GET requests. Outbound requests are paced by a
// shared limiter.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher with the given request timeout. A zero
// interval disables pacing.
func NewHTTPFetcher(timeout, minInterval time.Duration) *HTTPFetcher {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch performs a single attempt. Any status other than 200 is a *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pr PageRequest) (string, error) {
	target, err := pr.FullURL()
	if err != nil {
		return "", err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-CA,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	for k, v := range pr.Headers {
		// net/http derives Host from the URL
		if strings.EqualFold(k, "host") {
			continue
		}
		req.Header.Set(k, v)
	}
	for name, value := range pr.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// Handle gzip encoding
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gr.Close()
		reader = gr
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// RetryPolicy is a fixed attempt budget with a fixed pause between attempts
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy is one attempt plus three retries, a minute apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 4, Delay: 60 * time.Second}
}

type retryFetcher struct {
	next   Fetcher
	policy RetryPolicy
}

// WithRetry wraps f so that failed attempts are repeated according to policy.
// Cancellation stops the loop immediately. Once the budget is spent the last
// error is returned inside a *TransportError.
func WithRetry(f Fetcher, policy RetryPolicy) Fetcher {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &retryFetcher{next: f, policy: policy}
}

func (r *retryFetcher) Fetch(ctx context.Context, req PageRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		page, err := r.next.Fetch(ctx, req)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		log.Printf("[fetch] %s attempt %d/%d failed: %v", req.Source, attempt, r.policy.Attempts, err)

		if attempt == r.policy.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.policy.Delay):
		}
	}
	return "", &TransportError{URL: req.URL, Attempts: r.policy.Attempts, Err: lastErr}
}

// FetchConfig selects and configures the fetcher used by the scrape cycle
type FetchConfig struct {
	Retry          RetryPolicy
	RequestTimeout time.Duration
	MinInterval    time.Duration
	UseBrowser     bool
	Headless       bool
	ScrapingBeeKey string
}

// NewFetcher builds the fetcher described by cfg, wrapped in its retry policy.
// The returned stop func releases browser resources and is always safe to call.
func NewFetcher(cfg FetchConfig) (Fetcher, func(), error) {
	switch {
	case cfg.ScrapingBeeKey != "":
		log.Printf("[fetch] using ScrapingBee proxy")
		return WithRetry(NewScrapingBeeFetcher(cfg.ScrapingBeeKey), cfg.Retry), func() {}, nil
	case cfg.UseBrowser:
		b := NewBrowserFetcher(cfg.Headless, cfg.RequestTimeout)
		if err := b.Start(); err != nil {
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		log.Printf("[fetch] using headless browser (headless=%v)", cfg.Headless)
		return WithRetry(b, cfg.Retry), b.Stop, nil
	default:
		return WithRetry(NewHTTPFetcher(cfg.RequestTimeout, cfg.MinInterval), cfg.Retry), func() {}, nil
	}
}
