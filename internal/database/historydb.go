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

	"github.com/clarityhq/claritymark/internal/fetch"
	"github.com/clarityhq/claritymark/internal/model"
)

// HistoryDB provides SQLite-based storage for fetched pages and run
// reports.
//
// Design decision: We use a single database file for both the page
// cache and the run audit trail rather than separate files. Runs
// reference the pages they highlighted, and a single file keeps
// backup/restore trivial.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "claritymark.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent batch runs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Pages cache individual fetches so repeated runs against the same
	-- URL within the freshness window skip the network.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		body BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_fetched ON pages(fetched_at);

	-- Runs store the audit trail of highlight runs as JSON reports.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		claim TEXT NOT NULL,
		verdict TEXT NOT NULL,
		outcome TEXT NOT NULL,
		marker_count INTEGER DEFAULT 0,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SavePage inserts or refreshes a cached page.
// Uses UPSERT so refetching a URL replaces the stale copy.
func (hdb *HistoryDB) SavePage(ctx context.Context, page *fetch.Page) error {
	query := `
	INSERT INTO pages (url, status_code, content_type, body)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		body = excluded.body,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := hdb.db.ExecContext(ctx, query,
		page.URL,
		page.StatusCode,
		page.ContentType,
		page.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

// GetPage retrieves a cached page by URL if it was fetched within
// maxAge. Returns nil without error when the cache has no fresh copy.
func (hdb *HistoryDB) GetPage(ctx context.Context, url string, maxAge time.Duration) (*fetch.Page, error) {
	query := `
	SELECT url, fetched_at, status_code, content_type, body
	FROM pages
	WHERE url = ? AND fetched_at > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(maxAge.Seconds()))

	var page fetch.Page
	var fetchedAt string

	err := hdb.db.QueryRowContext(ctx, query, url, modifier).Scan(
		&page.URL,
		&fetchedAt,
		&page.StatusCode,
		&page.ContentType,
		&page.Body,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	page.FetchedAt = parseTimestamp(fetchedAt)

	return &page, nil
}

// SaveRun appends a run report to the audit trail and returns its ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO runs (source, claim, verdict, outcome, marker_count, started_at, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.Source,
		report.Claim,
		string(report.Verdict),
		string(report.Outcome),
		report.MarkerCount,
		report.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return result.LastInsertId()
}

// RunRecord is a stored run with its database identity.
type RunRecord struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Report is the full run report.
	Report *model.RunReport
}

// ListRuns returns stored runs, newest first. If source is non-empty,
// only runs against that source are returned. Limit <= 0 means no
// limit.
func (hdb *HistoryDB) ListRuns(ctx context.Context, source string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, report_json FROM runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	query += " ORDER BY started_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var id int64
		var reportJSON string

		if err := rows.Scan(&id, &reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var report model.RunReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		results = append(results, RunRecord{ID: id, Report: &report})
	}

	return results, rows.Err()
}

// GetRunByID retrieves a run report by its database ID.
// Returns nil without error when no run has that ID.
func (hdb *HistoryDB) GetRunByID(ctx context.Context, id int64) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
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

// PruneRuns deletes runs older than the retention window and returns
// how many were removed.
func (hdb *HistoryDB) PruneRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	modifier := fmt.Sprintf("-%d seconds", int(olderThan.Seconds()))

	result, err := hdb.db.ExecContext(ctx,
		"DELETE FROM runs WHERE started_at < datetime('now', ?)", modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	return result.RowsAffected()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
