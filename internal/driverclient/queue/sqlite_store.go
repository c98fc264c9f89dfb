package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SqliteStore persists queue entries in a local SQLite database so captured
// requests survive app restarts.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqliteStore opens (and initializes) the queue database at path.
func OpenSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	store := &SqliteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSqliteStore wraps an existing database handle.
func NewSqliteStore(db *sql.DB) (*SqliteStore, error) {
	store := &SqliteStore{db: db}
	if err := store.init(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SqliteStore) init() error {
	if s.db == nil {
		return errors.New("queue store: db is nil")
	}
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS offline_queue (
        id              TEXT PRIMARY KEY,
        idempotency_key TEXT NOT NULL,
        method          TEXT NOT NULL,
        path            TEXT NOT NULL,
        body            BLOB,
        enqueued_at     TEXT NOT NULL
    );
	`)
	if err != nil {
		return fmt.Errorf("init queue store: create offline_queue table: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// Append stores one entry.
func (s *SqliteStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO offline_queue (
        id,
        idempotency_key,
        method,
        path,
        body,
        enqueued_at
    )
    VALUES (?, ?, ?, ?, ?, ?);
	`, entry.ID, entry.IdempotencyKey, entry.Method, entry.Path, entry.Body, entry.EnqueuedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append queue entry %q: %w", entry.ID, err)
	}
	return nil
}

// List returns all entries in enqueue order.
func (s *SqliteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT
        id,
        idempotency_key,
        method,
        path,
        body,
        enqueued_at
    FROM offline_queue
    ORDER BY enqueued_at ASC, id ASC;
	`)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var enqueuedAt string
		if err := rows.Scan(&entry.ID, &entry.IdempotencyKey, &entry.Method, &entry.Path, &entry.Body, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("list queue entries: scan rows: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, enqueuedAt)
		if err != nil {
			return nil, fmt.Errorf("list queue entries: parse enqueued_at %q: %w", enqueuedAt, err)
		}
		entry.EnqueuedAt = ts
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue entries: row iteration: %w", err)
	}
	return entries, nil
}

// Remove deletes one entry by id. Removing an absent entry is not an error.
func (s *SqliteStore) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("remove queue entry %q: %w", id, err)
	}
	return nil
}

var _ Store = (*SqliteStore)(nil)
