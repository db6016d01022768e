package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a SQLite ledger that lives only as long as the store.
const MemoryPath = ":memory:"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (creating if needed) the ledger database at path.
// Use MemoryPath for an in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryLedger, ErrOpenFailed.Message()).
				WithContext("path", path).Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryLedger, ErrOpenFailed.Message()).
			WithContext("path", path).Build()
	}
	// An in-memory database is private to its connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryLedger, ErrSchemaFailed.Message()).
			WithContext("path", path).Build()
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		url TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		http_status INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		last_checked_at INTEGER NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0,
		first_failed_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		checked INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves the outcome recorded for url.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT url, status, http_status, error, last_checked_at, retry_count, first_failed_at FROM outcomes WHERE url = ?",
		url,
	)
	o, err := scanOutcome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "query outcome")
	}
	return &o, nil
}

// Upsert writes o, replacing any previous record for the same URL.
func (s *SQLiteStore) Upsert(ctx context.Context, o Outcome) error {
	if o.URL == "" {
		return errEmptyURL()
	}
	o = normalize(o)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (url, status, http_status, error, last_checked_at, retry_count, first_failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			status = excluded.status,
			http_status = excluded.http_status,
			error = excluded.error,
			last_checked_at = excluded.last_checked_at,
			retry_count = excluded.retry_count,
			first_failed_at = excluded.first_failed_at`,
		o.URL, string(o.Status), o.HTTPStatus, o.Error,
		toMillis(o.LastCheckedAt), o.RetryCount, toMillis(o.FirstFailedAt),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryLedger, "upsert outcome").WithContext("url", o.URL).Build()
	}
	return nil
}

// List returns outcomes ordered by URL.
func (s *SQLiteStore) List(ctx context.Context, statuses ...Status) ([]Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT url, status, http_status, error, last_checked_at, retry_count, first_failed_at FROM outcomes"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		marks := make([]string, len(statuses))
		for i, st := range statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		query += fmt.Sprintf(" WHERE status IN (%s)", strings.Join(marks, ", "))
	}
	query += " ORDER BY url"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "query outcomes")
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, wrap(err, "scan outcome")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, "iterate outcomes")
	}
	return out, nil
}

// Prune deletes Valid outcomes last checked before olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM outcomes WHERE status = ? AND last_checked_at < ?",
		string(StatusValid), toMillis(truncate(olderThan)),
	)
	if err != nil {
		return 0, wrap(err, "prune outcomes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(err, "prune outcomes")
	}
	return int(n), nil
}

// RecordRun appends a run summary.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, finished_at, checked, failed) VALUES (?, ?, ?, ?, ?)",
		run.ID, toMillis(truncate(run.StartedAt)), toMillis(truncate(run.FinishedAt)), run.Checked, run.Failed,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryLedger, "record run").WithContext("run_id", run.ID).Build()
	}
	return nil
}

// Runs returns recorded runs ordered by start time.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, checked, failed FROM runs ORDER BY started_at, rowid")
	if err != nil {
		return nil, wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Checked, &r.Failed); err != nil {
			return nil, wrap(err, "scan run")
		}
		r.StartedAt = fromMillis(started)
		r.FinishedAt = fromMillis(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, "iterate runs")
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row scanner) (Outcome, error) {
	var o Outcome
	var status string
	var checked, firstFailed int64
	if err := row.Scan(&o.URL, &status, &o.HTTPStatus, &o.Error, &checked, &o.RetryCount, &firstFailed); err != nil {
		return Outcome{}, err
	}
	o.Status = Status(status)
	o.LastCheckedAt = fromMillis(checked)
	o.FirstFailedAt = fromMillis(firstFailed)
	return o, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
