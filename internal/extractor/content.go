// Package extractor turns a URL into analysable text, either by fetching the
// page or by synthesizing a description from the URL itself.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/timmy/trendharvest/internal/logger"
)

// Config holds page fetch settings.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	MaxChars  int
}

// removedSelectors never carry page content.
const removedSelectors = "script, style, nav, footer, aside, noscript, template"

// contentSelectors are tried in order; the first present wins.
var contentSelectors = []string{"main", "article", ".content", "#content", ".main"}

// ContentExtractor fetches pages and reduces them to their main text.
type ContentExtractor struct {
	client   *resty.Client
	maxChars int
}

// NewContentExtractor creates a ContentExtractor.
func NewContentExtractor(cfg Config) *ContentExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &ContentExtractor{client: client, maxChars: cfg.MaxChars}
}

// Extract returns the page text for url, or "" when it cannot be fetched or parsed.
func (e *ContentExtractor) Extract(ctx context.Context, url string) string {
	start := time.Now()
	text, err := e.extract(ctx, url)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldURL, url).
			Warn("Content extraction failed")
		return ""
	}
	logger.With(logger.Fields{logger.FieldSize: len(text)}).WithDuration(start).
		Debug(ctx, "Extracted page content")
	return text
}

func (e *ContentExtractor) extract(ctx context.Context, url string) (string, error) {
	resp, err := e.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetch failed: HTTP %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return "", fmt.Errorf("parse failed: %w", err)
	}
	return MainText(doc, e.maxChars), nil
}

// MainText strips non-content elements from doc and returns the text of its
// primary content region, whitespace-collapsed and capped at maxChars runes.
func MainText(doc *goquery.Document, maxChars int) string {
	doc.Find(removedSelectors).Remove()

	region := doc.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			region = found
			break
		}
	}

	var parts []string
	collectText(region, &parts)
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return truncate(text, maxChars)
}

// collectText appends the trimmed text nodes under s in document order.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			if t := strings.TrimSpace(child.Text()); t != "" {
				*parts = append(*parts, t)
			}
			return
		}
		collectText(child, parts)
	})
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
