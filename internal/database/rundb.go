package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/salesbot/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "salesbot.db"

// RunDB stores run reports in SQLite.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		attempted INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		first_name TEXT,
		last_name TEXT,
		sales_target TEXT,
		sales TEXT,
		status TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_run ON submissions(run_id);
	CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished run and its submissions in one transaction.
// Saving the same run ID again replaces the earlier copy.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.RunReport) (err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM submissions WHERE run_id = ?`, report.ID); err != nil {
		return fmt.Errorf("failed to clear submissions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO runs (id, started_at, finished_at, failed, error, attempted, succeeded, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		formatOptionalTime(report.FinishedAt),
		report.Failed(),
		report.Error,
		report.Attempted(),
		report.Succeeded(),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO submissions (run_id, row_index, first_name, last_name, sales_target, sales, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare submission insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range report.Submissions {
		if _, err = stmt.ExecContext(ctx,
			report.ID,
			s.Row,
			s.Record.FirstName,
			s.Record.LastName,
			s.Record.SalesTarget,
			s.Record.Sales,
			s.Status.String(),
			s.Error,
		); err != nil {
			return fmt.Errorf("failed to save submission for row %d: %w", s.Row, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunSummary is the list view of a stored run.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Failed     bool      `json:"failed"`
	Error      string    `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
}

// ListRuns returns the most recent runs, newest first.
// A limit of zero or less returns every run.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, started_at, finished_at, failed, error, attempted, succeeded
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			s        RunSummary
			started  string
			finished sql.NullString
			errText  sql.NullString
		)
		if err := rows.Scan(&s.ID, &started, &finished, &s.Failed, &errText, &s.Attempted, &s.Succeeded); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished.String)
		s.Error = errText.String
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetRun returns the stored report for id, or nil if there is none.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.RunReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// FailedSubmissions returns the failed submissions of a run in row order.
func (rdb *RunDB) FailedSubmissions(ctx context.Context, runID string) ([]model.Submission, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT row_index, first_name, last_name, sales_target, sales, error
	FROM submissions
	WHERE run_id = ? AND status = ?
	ORDER BY row_index
	`, runID, model.StatusFailed.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var results []model.Submission
	for rows.Next() {
		s := model.Submission{Status: model.StatusFailed}
		var errText sql.NullString
		if err := rows.Scan(&s.Row, &s.Record.FirstName, &s.Record.LastName, &s.Record.SalesTarget, &s.Record.Sales, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		s.Record.Row = s.Row
		s.Error = errText.String
		results = append(results, s)
	}

	return results, rows.Err()
}

func formatOptionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
