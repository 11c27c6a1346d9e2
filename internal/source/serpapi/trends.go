// Package serpapi queries Google Trends and Google News through SerpAPI.
package serpapi

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

const (
	engineTrends = "google_trends"

	dataTypeTimeseries     = "TIMESERIES"
	dataTypeRelatedQueries = "RELATED_QUERIES"

	// maxTermsPerQuery is the comparison limit of the trends engine.
	maxTermsPerQuery = 5
)

type timeseriesResponse struct {
	InterestOverTime struct {
		TimelineData []struct {
			Timestamp string `json:"timestamp"`
			Values    []struct {
				Query          string `json:"query"`
				ExtractedValue int    `json:"extracted_value"`
			} `json:"values"`
		} `json:"timeline_data"`
	} `json:"interest_over_time"`
	Error string `json:"error"`
}

type relatedQueriesResponse struct {
	RelatedQueries struct {
		Rising []struct {
			Query          string `json:"query"`
			ExtractedValue int    `json:"extracted_value"`
		} `json:"rising"`
	} `json:"related_queries"`
	Error string `json:"error"`
}

// Trends implements source.TrendsSource.
type Trends struct {
	client      *source.Client
	apiKey      string
	geo         string
	language    string
	timeframe   string
	risingLimit int
}

var _ source.TrendsSource = (*Trends)(nil)

// NewTrends creates a Trends client from cfg.
func NewTrends(cfg config.TrendsConfig, timeout time.Duration) *Trends {
	return &Trends{
		client: source.NewClient(source.ClientConfig{
			BaseURL:           cfg.BaseURL,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		apiKey:      cfg.APIKey,
		geo:         cfg.Geo,
		language:    cfg.Language,
		timeframe:   cfg.Timeframe,
		risingLimit: cfg.RisingLimit,
	}
}

func (t *Trends) Name() string {
	return "serpapi_trends"
}

func (t *Trends) params(dataType, q string, categoryID int) map[string]string {
	p := map[string]string{
		"engine":    engineTrends,
		"data_type": dataType,
		"q":         q,
		"api_key":   t.apiKey,
	}
	if t.geo != "" {
		p["geo"] = t.geo
	}
	if t.language != "" {
		p["hl"] = t.language
	}
	if t.timeframe != "" {
		p["date"] = t.timeframe
	}
	if categoryID > 0 {
		p["cat"] = strconv.Itoa(categoryID)
	}
	return p
}

// InterestOverTime fetches the interest time series for up to five terms.
func (t *Trends) InterestOverTime(ctx context.Context, terms []string, categoryID int) ([]domain.InterestPoint, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if len(terms) > maxTermsPerQuery {
		terms = terms[:maxTermsPerQuery]
	}

	var resp timeseriesResponse
	params := t.params(dataTypeTimeseries, strings.Join(terms, ","), categoryID)
	if err := t.client.Get(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("interest over time: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("interest over time: %s", resp.Error)
	}

	var points []domain.InterestPoint
	for _, sample := range resp.InterestOverTime.TimelineData {
		sec, err := strconv.ParseInt(sample.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		date := time.Unix(sec, 0).UTC()
		for _, v := range sample.Values {
			points = append(points, domain.InterestPoint{
				Term:     v.Query,
				Date:     date,
				Interest: v.ExtractedValue,
			})
		}
	}

	logger.With(logger.Fields{
		logger.FieldSource: t.Name(),
		logger.FieldCount:  len(points),
	}).Debug(ctx, "Fetched interest over time for %d terms", len(terms))
	return points, nil
}

// RisingQueries fetches rising related queries one term at a time. A term
// that fails is skipped; the call fails only when every term does.
func (t *Trends) RisingQueries(ctx context.Context, terms []string, categoryID int) ([]domain.RelatedQuery, error) {
	var (
		queries []domain.RelatedQuery
		lastErr error
		failed  int
	)
	for _, term := range terms {
		rising, err := t.rising(ctx, term, categoryID)
		if err != nil {
			failed++
			lastErr = err
			logger.FromContext(ctx).WithError(err).WithField(logger.FieldSource, t.Name()).
				Warnf("Rising queries failed for %q", term)
			continue
		}
		queries = append(queries, rising...)
	}
	if len(terms) > 0 && failed == len(terms) {
		return nil, fmt.Errorf("rising queries: %w", lastErr)
	}
	return queries, nil
}

func (t *Trends) rising(ctx context.Context, term string, categoryID int) ([]domain.RelatedQuery, error) {
	var resp relatedQueriesResponse
	if err := t.client.Get(ctx, "", t.params(dataTypeRelatedQueries, term, categoryID), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s", resp.Error)
	}

	rising := resp.RelatedQueries.Rising
	if t.risingLimit > 0 && len(rising) > t.risingLimit {
		rising = rising[:t.risingLimit]
	}

	queries := make([]domain.RelatedQuery, 0, len(rising))
	for _, r := range rising {
		queries = append(queries, domain.RelatedQuery{
			BaseTerm: term,
			Query:    r.Query,
			Kind:     domain.RelatedQueryRising,
			Value:    r.ExtractedValue,
		})
	}
	return queries, nil
}
