// Package gnews searches news articles through the GNews API.
package gnews

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/source"
)

// maxQueryLength is the longest q value GNews accepts.
const maxQueryLength = 200

type searchResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Client implements source.NewsSource.
type Client struct {
	client     *source.Client
	apiKey     string
	country    string
	language   string
	maxResults int
}

var _ source.NewsSource = (*Client)(nil)

// New creates a Client from cfg.
func New(cfg config.NewsConfig, timeout time.Duration) *Client {
	return &Client{
		client: source.NewClient(source.ClientConfig{
			BaseURL:           cfg.GNewsBaseURL,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		apiKey:     cfg.GNewsAPIKey,
		country:    cfg.Country,
		language:   cfg.Language,
		maxResults: cfg.MaxResults,
	}
}

func (c *Client) Name() string {
	return "gnews"
}

// Articles searches articles mentioning any of terms. category is unused;
// GNews topics do not map onto the taxonomy.
func (c *Client) Articles(ctx context.Context, category string, terms []string) ([]domain.NewsSignal, error) {
	q := Query(terms)
	if q == "" {
		return nil, nil
	}

	params := map[string]string{
		"q":      q,
		"sortby": "publishedAt",
		"apikey": c.apiKey,
	}
	if c.language != "" {
		params["lang"] = c.language
	}
	if c.country != "" {
		params["country"] = c.country
	}
	if c.maxResults > 0 {
		params["max"] = strconv.Itoa(c.maxResults)
	}

	var resp searchResponse
	if err := c.client.Get(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("gnews search: %w", err)
	}

	articles := make([]domain.NewsSignal, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		article := domain.NewsSignal{
			Title:   a.Title,
			Source:  a.Source.Name,
			URL:     a.URL,
			Snippet: a.Description,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			t = t.UTC()
			article.PublishedAt = &t
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// Query joins quoted terms with OR, dropping terms that would push it past
// the length limit.
func Query(terms []string) string {
	var b strings.Builder
	for _, term := range terms {
		term = strings.TrimSpace(strings.ReplaceAll(term, `"`, ""))
		if term == "" {
			continue
		}
		part := `"` + term + `"`
		if b.Len() > 0 {
			part = " OR " + part
		}
		if b.Len()+len(part) > maxQueryLength {
			break
		}
		b.WriteString(part)
	}
	return b.String()
}
