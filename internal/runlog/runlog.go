// Package runlog keeps a local record of tracked runs so past fetches
// and batch jobs can be listed after the fact.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	dataset     TEXT NOT NULL DEFAULT '',
	steps       INTEGER NOT NULL DEFAULT 0,
	workers     INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Run is one tracked procedure invocation.
type Run struct {
	ID         string
	Command    string
	Dataset    string
	Steps      int
	Workers    int
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     string
	Error      string
}

// DB wraps the run log database.
type DB struct {
	*sql.DB
}

// Open opens or creates the run log at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create run log directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize run log schema: %w", err)
	}

	return &DB{sqlDB}, nil
}

// Start records a new run and fills in its ID and start time.
func (db *DB) Start(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.StartedAt = time.Now()
	r.Status = StatusRunning

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, command, dataset, steps, workers, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Command, r.Dataset, r.Steps, r.Workers, r.StartedAt, r.Status)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// Finish marks a run as completed. A non-empty errMsg marks it failed.
func (db *DB) Finish(ctx context.Context, id string, steps int, errMsg string) error {
	status := StatusOK
	if errMsg != "" {
		status = StatusFailed
	}

	_, err := db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, status = ?, error = ?, steps = ?
		WHERE id = ?
	`, time.Now(), status, errMsg, steps, id)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (db *DB) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, command, dataset, steps, workers, started_at, finished_at, status, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.Dataset, &r.Steps, &r.Workers,
			&r.StartedAt, &finished, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
