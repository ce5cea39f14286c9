package database

import (
	"time"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// Run is one capture session
type Run struct {
	ID         string `db:"id"`
	TargetID   string `db:"target_id"`
	TargetName string `db:"target_name"`
	Backend    string `db:"backend"`
	OutputDir  string `db:"output_dir"`

	// Result
	Status       string  `db:"status"`
	Reason       *string `db:"reason"`
	PageCount    int     `db:"page_count"`
	ErrorMessage *string `db:"error_message"`

	// Timestamps
	StartedAt       time.Time  `db:"started_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	DurationSeconds *int       `db:"duration_seconds"`
}

// Page is a saved page of a run
type Page struct {
	ID          int64     `db:"id"`
	RunID       string    `db:"run_id"`
	Index       int       `db:"page_index"`
	Path        string    `db:"path"`
	Fingerprint string    `db:"fingerprint"`
	CapturedAt  time.Time `db:"captured_at"`
}

// RunSummary is a row of the run_summary view
type RunSummary struct {
	ID          string  `db:"id"`
	TargetID    string  `db:"target_id"`
	Status      string  `db:"status"`
	Reason      *string `db:"reason"`
	StoredPages int     `db:"stored_pages"`
}
