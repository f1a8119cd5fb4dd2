package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/salesbot/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// newTestReport builds a finished report with two submissions, one failed.
func newTestReport(started time.Time) *model.RunReport {
	r := model.NewRunReport()
	r.StartedAt = started
	r.AddStage("open_intranet", time.Second, nil)
	r.AddSubmission(model.SalesRecord{Row: 1, FirstName: "Ann", LastName: "Lee", SalesTarget: "10000", Sales: "12000"}, nil)
	r.AddSubmission(model.SalesRecord{Row: 2, FirstName: "Bob", LastName: "Ray", SalesTarget: "5000", Sales: "1000"}, errors.New("element not found"))
	r.FinishedAt = started.Add(5 * time.Second)
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "dir")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		if db.Path() != filepath.Join(dir, FileName) {
			t.Errorf("expected path %s, got %s", filepath.Join(dir, FileName), db.Path())
		}
	})

	t.Run("fails when database missing and creation disabled", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = db.Close()
	})
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	t.Run("round trips a report", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		report := newTestReport(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

		if err := db.SaveRun(ctx, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := db.GetRun(ctx, report.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected stored report")
		}
		if got.Attempted() != 2 {
			t.Errorf("expected 2 attempts, got %d", got.Attempted())
		}
		if got.Succeeded() != 1 {
			t.Errorf("expected 1 success, got %d", got.Succeeded())
		}
		if !got.StartedAt.Equal(report.StartedAt) {
			t.Errorf("expected started at %v, got %v", report.StartedAt, got.StartedAt)
		}
	})

	t.Run("returns nil for unknown id", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetRun(context.Background(), "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil report, got %+v", got)
		}
	})

	t.Run("saving twice replaces submissions", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		report := newTestReport(time.Now())

		if err := db.SaveRun(ctx, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := db.SaveRun(ctx, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		failed, err := db.FailedSubmissions(ctx, report.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(failed) != 1 {
			t.Errorf("expected 1 failed submission, got %d", len(failed))
		}
	})
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := newTestReport(base)
	newer := newTestReport(base.Add(time.Hour))
	newer.Error = "navigation failed"

	for _, r := range []*model.RunReport{older, newer} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	tests := []struct {
		name    string
		limit   int
		wantLen int
	}{
		{name: "no limit returns all", limit: 0, wantLen: 2},
		{name: "limit one returns newest", limit: 1, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runs, err := db.ListRuns(ctx, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(runs) != tt.wantLen {
				t.Fatalf("expected %d runs, got %d", tt.wantLen, len(runs))
			}
			if runs[0].ID != newer.ID {
				t.Errorf("expected newest run first, got %s", runs[0].ID)
			}
			if !runs[0].Failed {
				t.Error("expected newest run to be failed")
			}
			if runs[0].Error != "navigation failed" {
				t.Errorf("expected error text, got %q", runs[0].Error)
			}
		})
	}
}

func TestFailedSubmissions(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	report := newTestReport(time.Now())
	if err := db.SaveRun(ctx, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed, err := db.FailedSubmissions(ctx, report.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed submission, got %d", len(failed))
	}
	if failed[0].Row != 2 {
		t.Errorf("expected row 2, got %d", failed[0].Row)
	}
	if failed[0].Record.FirstName != "Bob" {
		t.Errorf("expected Bob, got %s", failed[0].Record.FirstName)
	}
	if failed[0].Error != "element not found" {
		t.Errorf("expected error text, got %q", failed[0].Error)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "RFC3339Nano", input: "2026-01-02T03:04:05.123456789Z"},
		{name: "RFC3339", input: "2026-01-02T03:04:05Z"},
		{name: "SQLite datetime", input: "2026-01-02 03:04:05"},
		{name: "empty string", input: "", zero: true},
		{name: "garbage", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("expected zero=%v, got %v", tt.zero, got)
			}
		})
	}
}
