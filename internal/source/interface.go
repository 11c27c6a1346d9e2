// Package source defines the external signal providers used to enrich a run.
package source

import (
	"context"

	"github.com/timmy/trendharvest/internal/domain"
)

// TrendsSource provides search-interest data for a batch of terms.
type TrendsSource interface {
	// Name identifies the provider in logs and health output.
	Name() string

	// InterestOverTime returns one point per term per sample. categoryID
	// narrows the query to a taxonomy category; 0 means all categories.
	InterestOverTime(ctx context.Context, terms []string, categoryID int) ([]domain.InterestPoint, error)

	// RisingQueries returns the rising related queries of each term.
	RisingQueries(ctx context.Context, terms []string, categoryID int) ([]domain.RelatedQuery, error)
}

// VideoSource finds videos for terms within a platform category.
type VideoSource interface {
	Name() string
	Videos(ctx context.Context, categoryID string, terms []string) ([]domain.VideoSignal, error)
}

// NewsSource finds news articles for terms.
type NewsSource interface {
	Name() string
	Articles(ctx context.Context, category string, terms []string) ([]domain.NewsSignal, error)
}
