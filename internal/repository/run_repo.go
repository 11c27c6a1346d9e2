package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/trendharvest/internal/domain"
	"gorm.io/gorm"
)

var (
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("run not found")
	// ErrInvalidTransition is returned when an update would move a run
	// backwards or out of a terminal status.
	ErrInvalidTransition = errors.New("invalid run status transition")
)

// RunUpdate is a partial patch of a run. Only the fields listed here are
// mutable; nil fields are left untouched.
type RunUpdate struct {
	Status               *domain.RunStatus
	Notes                *string
	DetectedCategoryName *string
	DetectedCategoryID   *int
	ExternalCategoryID   *string
	CategoryConfidence   *float64
	ContentSource        *domain.ContentSource
	ContentArchiveKey    *string
	FinishedAt           *time.Time
}

func (u RunUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.Notes != nil {
		cols["notes"] = *u.Notes
	}
	if u.DetectedCategoryName != nil {
		cols["detected_category_name"] = *u.DetectedCategoryName
	}
	if u.DetectedCategoryID != nil {
		cols["detected_category_id"] = *u.DetectedCategoryID
	}
	if u.ExternalCategoryID != nil {
		cols["external_category_id"] = *u.ExternalCategoryID
	}
	if u.CategoryConfidence != nil {
		cols["category_confidence"] = *u.CategoryConfidence
	}
	if u.ContentSource != nil {
		cols["content_source"] = *u.ContentSource
	}
	if u.ContentArchiveKey != nil {
		cols["content_archive_key"] = *u.ContentArchiveKey
	}
	if u.FinishedAt != nil {
		cols["finished_at"] = *u.FinishedAt
	}
	return cols
}

// RunRepository persists runs and enforces their status lifecycle.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *RunRepository: repository instance bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a pending run for url.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - url: normalized URL under analysis.
//
// Returns:
//   - *domain.Run: stored run with its assigned id.
//   - error: non-nil if the insert fails.
func (r *RunRepository) Create(ctx context.Context, url string) (*domain.Run, error) {
	run := &domain.Run{
		URL:       url,
		Status:    domain.RunStatusPending,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// Update applies a partial patch to a run.
// A status change must be a legal transition from the stored status. Writing
// a terminal status stamps finished_at unless the patch supplies one, and
// finished_at is never written without a terminal status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//   - u: fields to change.
//
// Returns:
//   - error: ErrRunNotFound, ErrInvalidTransition, or a database error.
func (r *RunRepository) Update(ctx context.Context, id uint, u RunUpdate) error {
	cols := u.columns()
	if len(cols) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Run
		if err := tx.Select("id", "status").First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return fmt.Errorf("failed to load run %d: %w", id, err)
		}

		query := tx.Model(&domain.Run{}).Where("id = ?", id)

		if u.Status != nil {
			next := *u.Status
			if !next.Valid() {
				return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
			}
			if !current.Status.CanTransitionTo(next) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
			}
			if u.FinishedAt != nil && !next.IsTerminal() {
				return fmt.Errorf("%w: finished_at requires a terminal status", ErrInvalidTransition)
			}
			if next.IsTerminal() && u.FinishedAt == nil {
				cols["finished_at"] = time.Now().UTC()
			}
			query = query.Where("status IN ?", next.Predecessors())
		} else if u.FinishedAt != nil && !current.Status.IsTerminal() {
			return fmt.Errorf("%w: finished_at requires a terminal status", ErrInvalidTransition)
		}

		result := query.Updates(cols)
		if result.Error != nil {
			return fmt.Errorf("failed to update run %d: %w", id, result.Error)
		}
		if u.Status != nil && result.RowsAffected == 0 {
			return fmt.Errorf("%w: run %d changed concurrently", ErrInvalidTransition, id)
		}
		return nil
	})
}

// GetByID retrieves a run by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//
// Returns:
//   - *domain.Run: run if found.
//   - error: ErrRunNotFound if absent.
func (r *RunRepository) GetByID(ctx context.Context, id uint) (*domain.Run, error) {
	var run domain.Run
	if err := r.db.WithContext(ctx).First(&run, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return &run, nil
}

// GetStatus returns the status and notes of a run without loading the rest.
func (r *RunRepository) GetStatus(ctx context.Context, id uint) (domain.RunStatus, string, error) {
	var run domain.Run
	err := r.db.WithContext(ctx).Select("id", "status", "notes").First(&run, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrRunNotFound
		}
		return "", "", fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return run.Status, run.Notes, nil
}

// Results loads a run together with its ordered, capped artifacts.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//
// Returns:
//   - *domain.Results: run plus top keywords, interest series, rising queries, videos and news.
//   - error: ErrRunNotFound if the run is absent.
func (r *RunRepository) Results(ctx context.Context, id uint) (*domain.Results, error) {
	run, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &domain.Results{Run: *run}
	db := r.db.WithContext(ctx)

	if err := db.Where("run_id = ?", id).
		Order("score DESC").Order("keyword ASC").
		Limit(ResultKeywordLimit).
		Find(&res.Keywords).Error; err != nil {
		return nil, fmt.Errorf("failed to load keywords: %w", err)
	}
	if err := db.Where("run_id = ?", id).
		Order("date ASC").Order("keyword ASC").
		Find(&res.Interest).Error; err != nil {
		return nil, fmt.Errorf("failed to load interest series: %w", err)
	}
	if err := db.Where("run_id = ? AND type = ?", id, domain.RelatedQueryRising).
		Order("value DESC").Order("id ASC").
		Limit(ResultQueryLimit).
		Find(&res.RisingQueries).Error; err != nil {
		return nil, fmt.Errorf("failed to load related queries: %w", err)
	}
	if err := db.Where("run_id = ?", id).
		Order("view_count DESC").Order("id ASC").
		Limit(ResultVideoLimit).
		Find(&res.Videos).Error; err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}
	if err := db.Where("run_id = ?", id).
		Order("published_at IS NULL").Order("published_at DESC").Order("id ASC").
		Limit(ResultNewsLimit).
		Find(&res.News).Error; err != nil {
		return nil, fmt.Errorf("failed to load news: %w", err)
	}

	return res, nil
}

// Result caps for Results.
const (
	ResultKeywordLimit = 10
	ResultQueryLimit   = 10
	ResultVideoLimit   = 15
	ResultNewsLimit    = 25
)

// Ping checks that the run store answers.
func (r *RunRepository) Ping(ctx context.Context) error {
	return Ping(ctx, r.db)
}
