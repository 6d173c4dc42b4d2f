package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const scrapingBeeURL = "https://app.scrapingbee.com/api/v1/"

// ScrapingBeeFetcher routes requests through ScrapingBee's API for sources
// that block datacenter clients.
type ScrapingBeeFetcher struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	opts       ScrapingBeeOptions
}

// ScrapingBeeOptions configures the ScrapingBee request
type ScrapingBeeOptions struct {
	// RenderJS enables JavaScript rendering
	RenderJS bool
	// Premium uses residential proxies
	Premium bool
	// Country sets the proxy country (e.g., "ca")
	Country string
	// Wait adds a fixed delay in milliseconds after page load
	Wait int
}

// DefaultScrapingBeeOptions returns options suited to the listing pages. The
// embedded JSON block is server-rendered, so no JavaScript is needed.
func DefaultScrapingBeeOptions() ScrapingBeeOptions {
	return ScrapingBeeOptions{
		RenderJS: false,
		Premium:  true,
		Country:  "ca",
	}
}

// NewScrapingBeeFetcher creates a new ScrapingBee fetcher
func NewScrapingBeeFetcher(apiKey string) *ScrapingBeeFetcher {
	return &ScrapingBeeFetcher{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
		baseURL: scrapingBeeURL,
		opts:    DefaultScrapingBeeOptions(),
	}
}

// Fetch retrieves the request URL through ScrapingBee. Source headers are
// forwarded with the Spb- prefix and cookies through the cookies parameter.
func (c *ScrapingBeeFetcher) Fetch(ctx context.Context, pr PageRequest) (string, error) {
	target, err := pr.FullURL()
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("url", target)
	params.Set("render_js", fmt.Sprintf("%t", c.opts.RenderJS))
	if c.opts.Premium {
		params.Set("premium_proxy", "true")
	}
	if c.opts.Country != "" {
		params.Set("country_code", c.opts.Country)
	}
	if c.opts.Wait > 0 {
		params.Set("wait", fmt.Sprintf("%d", c.opts.Wait))
	}
	if len(pr.Headers) > 0 {
		params.Set("forward_headers", "true")
	}
	if len(pr.Cookies) > 0 {
		var parts []string
		for name, value := range pr.Cookies {
			parts = append(parts, name+"="+value)
		}
		params.Set("cookies", strings.Join(parts, ";"))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range pr.Headers {
		if strings.EqualFold(k, "host") || strings.EqualFold(k, "cookie") {
			continue
		}
		req.Header.Set("Spb-"+k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: fmt.Sprintf("ScrapingBee: %s", truncate(string(body), 200))}
	}

	if cost := resp.Header.Get("Spb-Cost"); cost != "" {
		log.Printf("[scrapingbee] %s cost %s credits", pr.Source, cost)
	}

	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
