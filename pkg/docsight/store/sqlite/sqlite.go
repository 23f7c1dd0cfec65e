// Package sqlite persists pipeline runs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the schema
// if needed.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_entries (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	title TEXT,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_evals (
	run_id TEXT NOT NULL,
	entry_position INTEGER NOT NULL,
	position INTEGER NOT NULL,
	feature TEXT NOT NULL,
	library TEXT NOT NULL,
	result TEXT,
	PRIMARY KEY(run_id, entry_position, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores a run and its evaluations in one transaction, replacing any
// previous run with the same id.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, r.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	for ei, entry := range r.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_entries (run_id, position, title) VALUES (?, ?, ?)`,
			r.ID, ei, entry.Title); err != nil {
			return err
		}
		for vi, eval := range entry.Evaluations {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_evals (run_id, entry_position, position, feature, library, result)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				r.ID, ei, vi, eval.Feature, eval.Library, string(eval.Result)); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// GetRun returns a run by id.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var r store.Run
	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at FROM runs WHERE id = ?`, id).Scan(&r.ID, &started)
	if err == sql.ErrNoRows {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return store.Run{}, err
	}
	if r.Entries, err = s.loadEntries(ctx, id); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var r store.Run
		var started string
		if err := rows.Scan(&r.ID, &started); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Entries, err = s.loadEntries(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *sqliteStore) loadEntries(ctx context.Context, runID string) ([]store.RunEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, title FROM run_entries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []store.RunEntry
	for rows.Next() {
		var pos int
		var e store.RunEntry
		if err := rows.Scan(&pos, &e.Title); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	evalRows, err := s.db.QueryContext(ctx,
		`SELECT entry_position, feature, library, result
		 FROM run_evals WHERE run_id = ? ORDER BY entry_position, position`, runID)
	if err != nil {
		return nil, err
	}
	defer evalRows.Close()

	for evalRows.Next() {
		var pos int
		var eval store.RunEvaluation
		var result string
		if err := evalRows.Scan(&pos, &eval.Feature, &eval.Library, &result); err != nil {
			return nil, err
		}
		eval.Result = []byte(result)
		if pos < 0 || pos >= len(entries) {
			return nil, fmt.Errorf("run %s: evaluation for missing entry %d", runID, pos)
		}
		entries[pos].Evaluations = append(entries[pos].Evaluations, eval)
	}
	return entries, evalRows.Err()
}
