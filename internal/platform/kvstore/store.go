// Package kvstore provides a small SQLite-backed key-value store used for
// durable single-key snapshots, mirroring the fixed-key local storage the cart
// persists into.
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

// ErrKeyRequired indicates an empty key was supplied.
var ErrKeyRequired = errors.New("kvstore: key is required")

// Store wraps an SQLite database exposing get/put/delete over string keys.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// Open initialises the store at the given path, creating the schema when absent.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("kvstore: path is required")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("kvstore: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: initialise schema: %w", err)
	}

	return &Store{db: db, clock: time.Now}, nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("kvstore: store is closed")
	}
	return s.db.PingContext(ctx)
}

// Get loads the value stored under key. The second return reports presence.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("kvstore: store is closed")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, ErrKeyRequired
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return errors.New("kvstore: store is closed")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}

	updated := s.clock().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, updated,
	)
	if err != nil {
		return fmt.Errorf("kvstore: put %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return errors.New("kvstore: store is closed")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kvstore: delete %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
