package serpapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/source"
)

const engineNews = "google_news"

// newsDateLayout is the format of news_results[].date.
const newsDateLayout = "01/02/2006, 03:04 PM, -0700 MST"

type newsResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Source  struct {
		Name string `json:"name"`
	} `json:"source"`
	Stories []newsResult `json:"stories"`
}

type newsResponse struct {
	NewsResults []newsResult `json:"news_results"`
	Error       string       `json:"error"`
}

// News implements source.NewsSource with the google_news engine.
type News struct {
	client     *source.Client
	apiKey     string
	country    string
	language   string
	maxResults int
}

var _ source.NewsSource = (*News)(nil)

// NewNews creates a News client from cfg.
func NewNews(cfg config.NewsConfig, timeout time.Duration) *News {
	return &News{
		client: source.NewClient(source.ClientConfig{
			BaseURL:           cfg.SerpAPIBaseURL,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		apiKey:     cfg.SerpAPIKey,
		country:    cfg.Country,
		language:   cfg.Language,
		maxResults: cfg.MaxResults,
	}
}

func (n *News) Name() string {
	return "serpapi_news"
}

// Articles searches news for terms. category is not a google_news filter and
// is ignored.
func (n *News) Articles(ctx context.Context, category string, terms []string) ([]domain.NewsSignal, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	params := map[string]string{
		"engine":  engineNews,
		"q":       strings.Join(terms, " OR "),
		"api_key": n.apiKey,
	}
	if n.country != "" {
		params["gl"] = n.country
	}
	if n.language != "" {
		params["hl"] = n.language
	}

	var resp newsResponse
	if err := n.client.Get(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("news search: %s", resp.Error)
	}

	var articles []domain.NewsSignal
	var collect func(results []newsResult)
	collect = func(results []newsResult) {
		for _, r := range results {
			if n.maxResults > 0 && len(articles) >= n.maxResults {
				return
			}
			if r.Title != "" && r.Link != "" {
				articles = append(articles, domain.NewsSignal{
					Title:       r.Title,
					Source:      r.Source.Name,
					URL:         r.Link,
					PublishedAt: parseNewsDate(r.Date),
					Snippet:     r.Snippet,
				})
			}
			collect(r.Stories)
		}
	}
	collect(resp.NewsResults)
	return articles, nil
}

func parseNewsDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(newsDateLayout, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
