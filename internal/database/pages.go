package database

import (
	"database/sql"
	"fmt"

	"jordanella.com/pagecapture-go/internal/pagestore"
)

// InsertPage adds a saved page to a run
func (db *DB) InsertPage(runID string, rec pagestore.PageRecord) (int64, error) {
	var pageID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO pages (run_id, page_index, path, fingerprint, captured_at)
			VALUES (?, ?, ?, ?, ?)
		`, runID, rec.Index, rec.Path, rec.Fingerprint.String(), rec.CapturedAt)

		if err != nil {
			return fmt.Errorf("failed to insert page: %w", err)
		}

		pageID, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return 0, err
	}
	return pageID, nil
}

// ListPages returns the pages of a run in index order
func (db *DB) ListPages(runID string) ([]*Page, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, page_index, path, fingerprint, captured_at
		FROM pages
		WHERE run_id = ?
		ORDER BY page_index
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []*Page{}
	for rows.Next() {
		p := &Page{}
		if err := rows.Scan(&p.ID, &p.RunID, &p.Index, &p.Path, &p.Fingerprint, &p.CapturedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// FindPagesByFingerprint returns pages of any run with the given fingerprint
func (db *DB) FindPagesByFingerprint(fingerprint string) ([]*Page, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, page_index, path, fingerprint, captured_at
		FROM pages
		WHERE fingerprint = ?
		ORDER BY captured_at
	`, fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []*Page{}
	for rows.Next() {
		p := &Page{}
		if err := rows.Scan(&p.ID, &p.RunID, &p.Index, &p.Path, &p.Fingerprint, &p.CapturedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// PageRecorder records every page a store appends under runID
type PageRecorder struct {
	db    *DB
	runID string
}

// Recorder returns a pagestore.Recorder bound to runID
func (db *DB) Recorder(runID string) *PageRecorder {
	return &PageRecorder{db: db, runID: runID}
}

// RecordPage implements pagestore.Recorder
func (r *PageRecorder) RecordPage(rec pagestore.PageRecord) error {
	_, err := r.db.InsertPage(r.runID, rec)
	return err
}
