package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ClientConfig holds the settings shared by every provider client.
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client is a throttled JSON HTTP client for one provider.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a Client. A non-positive rate disables throttling.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Get waits for the rate limiter, issues GET path with params and decodes a
// 2xx JSON body into result whatever Content-Type the provider declared.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("decode response (HTTP %d, %q): %w",
			resp.StatusCode(), resp.Header().Get("Content-Type"), err)
	}
	return nil
}

func snippet(body []byte) string {
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
