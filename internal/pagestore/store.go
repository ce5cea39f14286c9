// Package pagestore keeps the ordered, append-only set of captured pages in
// a directory of PNG files.
package pagestore

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jordanella.com/pagecapture-go/internal/cv"
)

// filePattern sorts lexically in index order up to 99999 pages
const filePattern = "page_%05d.png"

// PageRecord is one persisted page. Records are never edited once created.
type PageRecord struct {
	Index       int
	Path        string
	Fingerprint cv.Fingerprint
	CapturedAt  time.Time
}

// Recorder is notified synchronously of every new record, e.g. to keep a
// database ledger. A recorder error rolls the append back.
type Recorder interface {
	RecordPage(rec PageRecord) error
}

// Store is the page directory
type Store struct {
	dir      string
	records  []PageRecord
	recorder Recorder
	now      func() time.Time
	mu       sync.Mutex
}

// Option customises a Store
type Option func(*Store)

// WithRecorder attaches a Recorder
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithClock overrides the capture timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates dir if needed and returns an empty store over it. Files
// already in dir are not indexed; call Clear before a run to remove them.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create page directory: %w", err)
	}

	s := &Store{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the page directory
func (s *Store) Dir() string {
	return s.dir
}

// SetRecorder replaces the recorder, typically once per run
func (s *Store) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Append writes frame as the next page and returns its record. Indices start
// at 1 and grow by exactly one per successful append.
func (s *Store) Append(frame image.Image, fp cv.Fingerprint) (PageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame == nil {
		return PageRecord{}, cv.ErrEmptyFrame
	}

	index := len(s.records) + 1
	path := filepath.Join(s.dir, fmt.Sprintf(filePattern, index))

	if err := writePNG(path, frame); err != nil {
		return PageRecord{}, err
	}

	rec := PageRecord{
		Index:       index,
		Path:        path,
		Fingerprint: fp,
		CapturedAt:  s.now(),
	}

	if s.recorder != nil {
		if err := s.recorder.RecordPage(rec); err != nil {
			_ = os.Remove(path)
			return PageRecord{}, fmt.Errorf("failed to record page %d: %w", index, err)
		}
	}

	s.records = append(s.records, rec)
	return rec, nil
}

// writePNG encodes to a temporary file and renames it into place so a
// crash never leaves a truncated page behind
func writePNG(path string, frame image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create page file: %w", err)
	}

	if err := png.Encode(f, frame); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode page: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write page file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalise page file: %w", err)
	}
	return nil
}

// List returns the records ordered by index
func (s *Store) List() []PageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PageRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Paths returns the page file paths ordered by index
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, len(s.records))
	for i, rec := range s.records {
		paths[i] = rec.Path
	}
	return paths
}

// Last returns the most recent record
func (s *Store) Last() (PageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return PageRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

// Clear deletes every file in the page directory and resets indexing to 1.
// It returns the number of files removed.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read page directory: %w", err)
	}

	var errs []error
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	s.records = nil
	if len(errs) > 0 {
		return removed, fmt.Errorf("failed to clear page directory: %w", errors.Join(errs...))
	}
	return removed, nil
}
