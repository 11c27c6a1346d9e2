package repository

import (
	"context"
	"fmt"

	"github.com/timmy/trendharvest/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 100

// ArtifactRepository writes the per-stage outputs of a run. Each Save call
// commits all of its rows in one transaction or none of them.
type ArtifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository creates a new ArtifactRepository.
func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// SaveKeywords stores the keyword batch of a run.
func (r *ArtifactRepository) SaveKeywords(ctx context.Context, runID uint, keywords []domain.Keyword) (int64, error) {
	for i := range keywords {
		keywords[i].RunID = runID
	}
	return insertBatch(ctx, r.db, keywords, "keywords")
}

// SaveInterestPoints stores one interest-over-time batch.
func (r *ArtifactRepository) SaveInterestPoints(ctx context.Context, runID uint, points []domain.InterestPoint) (int64, error) {
	for i := range points {
		points[i].RunID = runID
	}
	return insertBatch(ctx, r.db, points, "interest points")
}

// SaveRelatedQueries stores one related-queries batch. Empty kinds default to rising.
func (r *ArtifactRepository) SaveRelatedQueries(ctx context.Context, runID uint, queries []domain.RelatedQuery) (int64, error) {
	for i := range queries {
		queries[i].RunID = runID
		if queries[i].Kind == "" {
			queries[i].Kind = domain.RelatedQueryRising
		}
	}
	return insertBatch(ctx, r.db, queries, "related queries")
}

// SaveVideos stores video signals. A video already stored for the run is
// skipped, so retries never duplicate rows.
// Returns the number of rows actually inserted.
func (r *ArtifactRepository) SaveVideos(ctx context.Context, runID uint, videos []domain.VideoSignal) (int64, error) {
	for i := range videos {
		videos[i].RunID = runID
	}
	return insertBatch(ctx, r.db, videos, "videos", clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "video_id"}},
		DoNothing: true,
	})
}

// SaveNews stores news signals.
func (r *ArtifactRepository) SaveNews(ctx context.Context, runID uint, articles []domain.NewsSignal) (int64, error) {
	for i := range articles {
		articles[i].RunID = runID
	}
	return insertBatch(ctx, r.db, articles, "news articles")
}

func insertBatch[T any](ctx context.Context, db *gorm.DB, rows []T, what string, clauses ...clause.Expression) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var inserted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(clauses) > 0 {
			tx = tx.Clauses(clauses...)
		}
		result := tx.CreateInBatches(rows, insertBatchSize)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", what, err)
	}
	return inserted, nil
}
