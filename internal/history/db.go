// Package history records comparison runs in a SQLite database
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// DB wraps the SQL database connection holding comparison_runs
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Run is one row of comparison_runs
type Run struct {
	ID             int64
	RunID          string
	FileA          string
	FileB          string
	Threshold      float64
	Renderer       string
	Identical      bool
	Similarity     float64
	DifferingPages int
	// Pages holds the 0-based indices of differing pages.
	Pages     []int
	StartedAt time.Time
	Duration  time.Duration
	// Error is the fatal error message of a failed run.
	Error string
}

// NewRun describes a finished comparison; result is nil when err is set
func NewRun(runID, fileA, fileB string, threshold float64, renderer string, started time.Time, result *compare.ComparisonResult, err error) Run {
	run := Run{
		RunID:     runID,
		FileA:     fileA,
		FileB:     fileB,
		Threshold: threshold,
		Renderer:  renderer,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if err != nil {
		run.Error = err.Error()
	}
	if result != nil {
		run.Identical = result.Identical
		run.Similarity = result.Similarity
		run.DifferingPages = result.DifferingPages
		run.Pages = result.PagesWithDifferences
	}
	return run
}

// Open initializes the database at path, creating its directory and schema
func Open(path string, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("component", "History").Logger()

	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// an in-memory database exists per connection
	conn.SetMaxOpenConns(1)

	db := &DB{db: conn, logger: logger}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", path).Msg("History database ready")
	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	_, err := d.db.Exec(`
	CREATE TABLE IF NOT EXISTS comparison_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		file_a TEXT NOT NULL,
		file_b TEXT NOT NULL,
		threshold REAL NOT NULL,
		renderer TEXT NOT NULL,
		identical INTEGER NOT NULL,
		similarity REAL NOT NULL,
		differing_pages INTEGER NOT NULL,
		pages_json TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);
	`)
	return err
}

// RecordRun inserts a run and returns its row ID
func (d *DB) RecordRun(run Run) (int64, error) {
	pages := run.Pages
	if pages == nil {
		pages = []int{}
	}
	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return 0, err
	}

	query := `INSERT INTO comparison_runs (run_id, file_a, file_b, threshold, renderer, identical, similarity,
		differing_pages, pages_json, started_at, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := d.db.Exec(query,
		run.RunID, run.FileA, run.FileB, run.Threshold, run.Renderer, run.Identical, run.Similarity,
		run.DifferingPages, string(pagesJSON), run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(), sql.NullString{String: run.Error, Valid: run.Error != ""})
	if err != nil {
		d.logger.Error().Err(err).Str("run_id", run.RunID).Msg("Failed to record run")
		return 0, fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	d.logger.Debug().Int64("db_id", id).Str("run_id", run.RunID).Msg("Recorded run")
	return id, nil
}

// Recent returns up to limit runs, newest first
func (d *DB) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := d.db.Query(`SELECT id, run_id, file_a, file_b, threshold, renderer, identical, similarity,
		differing_pages, pages_json, started_at, duration_ms, error
		FROM comparison_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			pagesJSON  string
			startedAt  string
			durationMS int64
			errMsg     sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.RunID, &run.FileA, &run.FileB, &run.Threshold, &run.Renderer,
			&run.Identical, &run.Similarity, &run.DifferingPages, &pagesJSON, &startedAt, &durationMS, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(pagesJSON), &run.Pages); err != nil {
			return nil, fmt.Errorf("run %s has invalid pages: %w", run.RunID, err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("run %s has invalid start time: %w", run.RunID, err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
