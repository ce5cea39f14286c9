package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StartRun records a new run as running
func (db *DB) StartRun(run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = RunStatusRunning

	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (
				id, target_id, target_name, backend, output_dir,
				status, started_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.TargetID, run.TargetName, run.Backend, run.OutputDir,
			run.Status, run.StartedAt)

		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		return nil
	})
}

// FinishRun stores the outcome of a run. status is RunStatusCompleted or
// RunStatusAborted.
func (db *DB) FinishRun(runID, status, reason string, pageCount int, runErr error) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		completedAt := time.Now()

		var startedAt time.Time
		var current string
		err := tx.QueryRow(`SELECT started_at, status FROM runs WHERE id = ?`, runID).Scan(&startedAt, &current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if err != nil {
			return fmt.Errorf("failed to get run start time: %w", err)
		}
		if current != RunStatusRunning {
			return fmt.Errorf("%w: %s", ErrRunFinished, runID)
		}

		duration := int(completedAt.Sub(startedAt).Seconds())

		var errorMessage *string
		if runErr != nil {
			msg := runErr.Error()
			errorMessage = &msg
		}

		_, err = tx.Exec(`
			UPDATE runs
			SET completed_at = ?,
				duration_seconds = ?,
				status = ?,
				reason = ?,
				page_count = ?,
				error_message = ?
			WHERE id = ?
		`, completedAt, duration, status, reason, pageCount, errorMessage, runID)

		return err
	})
}

const runColumns = `
	id, target_id, target_name, backend, output_dir,
	status, reason, page_count, error_message,
	started_at, completed_at, duration_seconds`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	run := &Run{}
	var targetName sql.NullString
	err := row.Scan(
		&run.ID, &run.TargetID, &targetName, &run.Backend, &run.OutputDir,
		&run.Status, &run.Reason, &run.PageCount, &run.ErrorMessage,
		&run.StartedAt, &run.CompletedAt, &run.DurationSeconds,
	)
	if err != nil {
		return nil, err
	}
	run.TargetName = targetName.String
	return run, nil
}

// GetRun retrieves a run by id
func (db *DB) GetRun(runID string) (*Run, error) {
	run, err := scanRun(db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRunSummary reads the run_summary view for one run
func (db *DB) GetRunSummary(runID string) (*RunSummary, error) {
	s := &RunSummary{}
	err := db.conn.QueryRow(`
		SELECT id, target_id, status, reason, stored_pages
		FROM run_summary
		WHERE id = ?
	`, runID).Scan(&s.ID, &s.TargetID, &s.Status, &s.Reason, &s.StoredPages)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
