package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/pagestore"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenAndMigrate(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func startTestRun(t *testing.T, db *DB, id string) {
	t.Helper()

	err := db.StartRun(&Run{
		ID:         id,
		TargetID:   "com.example.reader",
		TargetName: "Reader",
		Backend:    "desktop",
		OutputDir:  "/tmp/pages",
	})
	if err != nil {
		t.Fatalf("Failed to start run: %v", err)
	}
}

func TestDatabaseInitialization(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "nested", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestRollback(t *testing.T) {
	db := openTestDB(t)

	if err := db.Rollback(1); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1 after rollback, got %d", version)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if _, ok := stats["runs"]; ok {
		t.Error("runs table should be gone after rollback")
	}

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Re-migration failed: %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	startTestRun(t, db, "run-1")

	run, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("Expected status running, got %s", run.Status)
	}
	if run.CompletedAt != nil {
		t.Error("Running run should not have a completion time")
	}

	err = db.FinishRun("run-1", RunStatusAborted, "advance_failure", 1, errors.New("next page input failed"))
	if err != nil {
		t.Fatalf("Failed to finish run: %v", err)
	}

	run, err = db.GetRun("run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != RunStatusAborted {
		t.Errorf("Expected status aborted, got %s", run.Status)
	}
	if run.Reason == nil || *run.Reason != "advance_failure" {
		t.Errorf("Unexpected reason: %v", run.Reason)
	}
	if run.ErrorMessage == nil || *run.ErrorMessage != "next page input failed" {
		t.Errorf("Unexpected error message: %v", run.ErrorMessage)
	}
	if run.PageCount != 1 {
		t.Errorf("Expected page count 1, got %d", run.PageCount)
	}
	if run.CompletedAt == nil {
		t.Error("Finished run should have a completion time")
	}

	err = db.FinishRun("run-1", RunStatusCompleted, "end_of_document", 1, nil)
	if !errors.Is(err, ErrRunFinished) {
		t.Errorf("Expected ErrRunFinished, got %v", err)
	}
}

func TestUnknownRun(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := db.FinishRun("missing", RunStatusCompleted, "", 0, nil); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		err := db.StartRun(&Run{
			ID:        id,
			TargetID:  "com.example.reader",
			Backend:   "adb",
			OutputDir: "/tmp/pages",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Failed to start run %s: %v", id, err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("Unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].TargetName != "" {
		t.Errorf("Expected empty target name, got %q", runs[0].TargetName)
	}
}

func TestPageRecorderWithStore(t *testing.T) {
	db := openTestDB(t)
	startTestRun(t, db, "run-1")

	store, err := pagestore.Open(t.TempDir(), pagestore.WithRecorder(db.Recorder("run-1")))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	frame := cv.Crop(pageImage(), cv.FullFrame)
	for i := 0; i < 3; i++ {
		if _, err := store.Append(frame, cv.Fingerprint(0xff<<i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	pages, err := db.ListPages("run-1")
	if err != nil {
		t.Fatalf("Failed to list pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Index != i+1 {
			t.Errorf("Page %d has index %d", i, p.Index)
		}
	}
	if pages[0].Fingerprint != "00000000000000ff" {
		t.Errorf("Unexpected fingerprint %s", pages[0].Fingerprint)
	}

	found, err := db.FindPagesByFingerprint("00000000000001fe")
	if err != nil {
		t.Fatalf("Failed to find pages: %v", err)
	}
	if len(found) != 1 || found[0].Index != 2 {
		t.Errorf("Unexpected fingerprint lookup result: %+v", found)
	}

	summary, err := db.GetRunSummary("run-1")
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	if summary.StoredPages != 3 {
		t.Errorf("Expected 3 stored pages, got %d", summary.StoredPages)
	}
}

func TestRecorderRejectsUnknownRun(t *testing.T) {
	db := openTestDB(t)

	store, err := pagestore.Open(t.TempDir(), pagestore.WithRecorder(db.Recorder("missing")))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	if _, err := store.Append(pageImage(), 0); err == nil {
		t.Fatal("Expected foreign key failure for unknown run")
	}
	if store.Len() != 0 {
		t.Errorf("Store should be empty, has %d", store.Len())
	}
}
