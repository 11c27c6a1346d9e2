package domain

import "time"

// RunStatus is the lifecycle state of a Run.
// Legal transitions: pending -> running -> completed | failed.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// Predecessors returns the statuses a run may be in immediately before
// moving to s. A pending run may fail before it starts running.
func (s RunStatus) Predecessors() []RunStatus {
	switch s {
	case RunStatusRunning:
		return []RunStatus{RunStatusPending}
	case RunStatusCompleted:
		return []RunStatus{RunStatusRunning}
	case RunStatusFailed:
		return []RunStatus{RunStatusPending, RunStatusRunning}
	default:
		return nil
	}
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, p := range next.Predecessors() {
		if p == s {
			return true
		}
	}
	return false
}

// ContentSource records where a run's analysed text came from.
type ContentSource string

const (
	ContentSourcePage        ContentSource = "page"
	ContentSourceSynthesized ContentSource = "synthesized"
)

// Run is one end-to-end trend analysis of a single URL.
// Category fields stay zero until the classification stage writes them, and
// FinishedAt is set exactly when Status is terminal.
type Run struct {
	ID                   uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	URL                  string        `gorm:"type:text;not null" json:"url"`
	Status               RunStatus     `gorm:"type:text;not null;default:pending;index:idx_runs_status" json:"status"`
	Notes                string        `gorm:"type:text" json:"notes,omitempty"`
	DetectedCategoryName string        `gorm:"type:text" json:"detected_category_name,omitempty"`
	DetectedCategoryID   int           `json:"detected_category_id,omitempty"`
	ExternalCategoryID   string        `gorm:"type:text" json:"external_category_id,omitempty"`
	CategoryConfidence   float64       `json:"category_confidence,omitempty"`
	ContentSource        ContentSource `gorm:"type:text" json:"content_source,omitempty"`
	ContentArchiveKey    string        `gorm:"type:text" json:"content_archive_key,omitempty"`
	StartedAt            time.Time     `gorm:"not null;index:idx_runs_started_at" json:"started_at"`
	FinishedAt           *time.Time    `json:"finished_at,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

func (Run) TableName() string {
	return "runs"
}
