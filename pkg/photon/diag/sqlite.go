package diag

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	perrors "github.com/randalmurphal/photon/pkg/photon/errors"
)

// SQLiteStore persists incidents to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	retry  perrors.RetryConfig
	mu     sync.RWMutex
	closed bool
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithRetry sets the retry policy applied when the database is busy.
// Default: errors.DefaultRetry.
func WithRetry(cfg perrors.RetryConfig) SQLiteOption {
	return func(s *SQLiteStore) {
		s.retry = cfg
	}
}

// NewSQLiteStore opens (creating if needed) an incident database.
// The path should be a file path (e.g., "./photon.db") or ":memory:" for testing.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			queue_id INTEGER NOT NULL,
			queue_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			reason TEXT NOT NULL,
			detail TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_incidents_queue_id
		ON incidents(queue_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := &SQLiteStore{db: db, retry: perrors.DefaultRetry}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record implements Store. Busy-database errors are retried per the store's
// retry policy.
func (s *SQLiteStore) Record(ctx context.Context, inc Incident) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	inc, err := prepare(inc)
	if err != nil {
		return err
	}

	return perrors.Retry(ctx, s.retry, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO incidents (id, queue_id, queue_name, kind, sequence, reason, detail, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, inc.ID.String(), int64(inc.QueueID), inc.QueueName, inc.Kind, int64(inc.Sequence),
			string(inc.Reason), inc.Detail, inc.OccurredAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return classify("record incident", err)
		}
		return nil
	})
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, queueID uint64) ([]Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, queue_id, queue_name, kind, sequence, reason, detail, occurred_at
		FROM incidents
		WHERE queue_id = ?
		ORDER BY rowid
	`, int64(queueID))
	if err != nil {
		return nil, classify("list incidents", err)
	}
	return scanIncidents(rows)
}

// ListAll implements Store.
func (s *SQLiteStore) ListAll(ctx context.Context, limit int) ([]Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, queue_id, queue_name, kind, sequence, reason, detail, occurred_at
		FROM incidents
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, classify("list incidents", err)
	}
	return scanIncidents(rows)
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, classify("count incidents", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func scanIncidents(rows *sql.Rows) ([]Incident, error) {
	defer rows.Close()

	incidents := []Incident{}
	for rows.Next() {
		var (
			inc               Incident
			id, reason, stamp string
			queueID, sequence int64
		)
		if err := rows.Scan(&id, &queueID, &inc.QueueName, &inc.Kind, &sequence, &reason, &inc.Detail, &stamp); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scan incident id %q: %w", id, err)
		}
		inc.ID = parsed
		inc.QueueID = uint64(queueID)
		inc.Sequence = uint64(sequence)
		inc.Reason = Reason(reason)
		occurred, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("scan incident %s occurred_at %q: %w", id, stamp, err)
		}
		inc.OccurredAt = occurred
		incidents = append(incidents, inc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

// classify marks lock conflicts as retryable store-busy errors.
func classify(op string, err error) error {
	if perrors.IsBusyMessage(err) {
		return &perrors.StoreBusyError{Store: "sqlite", Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
