// Package youtube finds popular videos through the YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/logger"
	"github.com/timmy/trendharvest/internal/source"
)

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			CategoryID   string `json:"categoryId"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Client implements source.VideoSource.
type Client struct {
	client     *source.Client
	apiKey     string
	region     string
	maxResults int
}

var _ source.VideoSource = (*Client)(nil)

// New creates a Client from cfg.
func New(cfg config.YouTubeConfig, timeout time.Duration) *Client {
	maxResults := cfg.MaxResults
	if maxResults <= 0 || maxResults > 50 {
		maxResults = 15
	}
	return &Client{
		client: source.NewClient(source.ClientConfig{
			BaseURL:           cfg.BaseURL,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		apiKey:     cfg.APIKey,
		region:     cfg.Region,
		maxResults: maxResults,
	}
}

func (c *Client) Name() string {
	return "youtube"
}

// Videos searches the most viewed videos matching any of terms in categoryID
// and returns them with their statistics.
func (c *Client) Videos(ctx context.Context, categoryID string, terms []string) ([]domain.VideoSignal, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	ids, err := c.search(ctx, categoryID, terms)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	params := map[string]string{
		"part": "snippet,statistics",
		"id":   strings.Join(ids, ","),
		"key":  c.apiKey,
	}
	var resp videosResponse
	if err := c.client.Get(ctx, "/videos", params, &resp); err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}

	videos := make([]domain.VideoSignal, 0, len(resp.Items))
	for _, item := range resp.Items {
		v := domain.VideoSignal{
			VideoID:      item.ID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			CategoryID:   item.Snippet.CategoryID,
			ViewCount:    parseCount(item.Statistics.ViewCount),
			LikeCount:    parseCount(item.Statistics.LikeCount),
			CommentCount: parseCount(item.Statistics.CommentCount),
		}
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			t = t.UTC()
			v.PublishedAt = &t
		}
		videos = append(videos, v)
	}

	logger.With(logger.Fields{
		logger.FieldSource: c.Name(),
		logger.FieldCount:  len(videos),
	}).Debug(ctx, "Fetched videos for category %s", categoryID)
	return videos, nil
}

func (c *Client) search(ctx context.Context, categoryID string, terms []string) ([]string, error) {
	params := map[string]string{
		"part":       "snippet",
		"type":       "video",
		"order":      "viewCount",
		"q":          strings.Join(terms, "|"),
		"maxResults": strconv.Itoa(c.maxResults),
		"key":        c.apiKey,
	}
	if categoryID != "" {
		params["videoCategoryId"] = categoryID
	}
	if c.region != "" {
		params["regionCode"] = c.region
	}

	var resp searchResponse
	if err := c.client.Get(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}

	seen := make(map[string]bool, len(resp.Items))
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		id := item.ID.VideoID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// parseCount reads a statistics counter; hidden counters are absent and read as 0.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
