// Package history records relocation runs in a local SQLite database so
// an install can be audited after the fact: which run rewrote what, and
// which files could not be processed.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"reloc/internal/engine"
	"reloc/internal/patch"
)

// ErrRunNotFound reports a run ID with no recorded run.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded relocation pass.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Root         string
	OldPrefix    string
	NewPrefix    string
	FilesPatched int
	FilesFailed  int
	Success      bool
}

// Store persists runs and their per-file outcomes.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open initializes the history database at the given path, creating the
// schema when needed.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, path: path, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		root TEXT NOT NULL,
		old_prefix TEXT NOT NULL,
		new_prefix TEXT NOT NULL,
		files_patched INTEGER NOT NULL,
		files_failed INTEGER NOT NULL,
		success INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	outcomesTable := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		changed INTEGER NOT NULL,
		reason TEXT NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	`

	for _, table := range []string{runsTable, outcomesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a finished run and its outcomes in one transaction
// and returns the generated run ID. The run's ID field is ignored.
func (s *Store) RecordRun(run Run, report *engine.Report) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, root, old_prefix, new_prefix, files_patched, files_failed, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.StartedAt, run.FinishedAt, run.Root, run.OldPrefix, run.NewPrefix,
		report.FilesPatched, report.FilesFailed, report.Success())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO outcomes (run_id, path, changed, reason) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, out := range report.Outcomes {
		if _, err := stmt.Exec(id, out.Path, out.Changed, string(out.Reason)); err != nil {
			return "", fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.log.Debug("recorded run",
		zap.String("id", id),
		zap.Int("outcomes", len(report.Outcomes)))
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, root, old_prefix, new_prefix, files_patched, files_failed, success
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Root, &r.OldPrefix, &r.NewPrefix,
			&r.FilesPatched, &r.FilesFailed, &r.Success); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run and its outcomes.
func (s *Store) GetRun(id string) (*Run, []patch.Outcome, error) {
	var r Run
	err := s.db.QueryRow(`
		SELECT id, started_at, finished_at, root, old_prefix, new_prefix, files_patched, files_failed, success
		FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Root, &r.OldPrefix, &r.NewPrefix,
			&r.FilesPatched, &r.FilesFailed, &r.Success)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := s.db.Query(`SELECT path, changed, reason FROM outcomes WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []patch.Outcome
	for rows.Next() {
		var out patch.Outcome
		var reason string
		if err := rows.Scan(&out.Path, &out.Changed, &reason); err != nil {
			return nil, nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out.Reason = patch.Reason(reason)
		outcomes = append(outcomes, out)
	}
	return &r, outcomes, rows.Err()
}

// LastRun returns the most recent run, or ErrRunNotFound when the
// database is empty.
func (s *Store) LastRun() (*Run, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[0], nil
}
