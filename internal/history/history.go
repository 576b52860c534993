// Package history records harness runs in a local SQLite database so
// recent results and flaky tests can be inspected later.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	fresh      INTEGER NOT NULL,
	errored    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	name        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_by_name ON results(name);
`

// Run summarizes one harness invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Passed    int
	Failed    int
	New       int
	Errored   int
}

// TestResult is one test's outcome within a run.
type TestResult struct {
	Name       string
	Outcome    string
	DurationMS int64
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its per-test results in one transaction.
// A missing run ID is filled in with a fresh UUID.
func (s *Store) RecordRun(run Run, results []TestResult) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, passed, failed, fresh, errored) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.Passed, run.Failed, run.New, run.Errored,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO results (run_id, name, outcome, duration_ms) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, r := range results {
		if _, err := stmt.Exec(run.ID, r.Name, r.Outcome, r.DurationMS); err != nil {
			return "", fmt.Errorf("insert result %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, passed, failed, fresh, errored FROM runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ts int64
		if err := rows.Scan(&r.ID, &ts, &r.Passed, &r.Failed, &r.New, &r.Errored); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(ts, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FlakyTests returns names whose outcome varied across the most recent
// lastN runs. A cached outcome is a reused pass and counts as one.
func (s *Store) FlakyTests(lastN int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT name FROM results
		WHERE run_id IN (SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)
		GROUP BY name
		HAVING COUNT(DISTINCT CASE WHEN outcome = 'cached' THEN 'pass' ELSE outcome END) > 1
		ORDER BY name`,
		lastN,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
