// Package sqlite provides a SQLite-backed implementation of the storage.SnapshotStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.SnapshotStore
var (
	_ storage.SnapshotStore = (*SQLiteStore)(nil)
	_ storage.Timestamped   = (*SQLiteStore)(nil)
)

// SQLiteStore implements storage.SnapshotStore using SQLite.
// Several clients may share one database file; each owns the row keyed by its origin.
type SQLiteStore struct {
	db     *sql.DB
	origin string
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath, origin string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, origin: origin}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the latest snapshot written by this origin.
func (s *SQLiteStore) Get(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM snapshots WHERE origin = ?",
		s.origin,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return payload, nil
}

// Set upserts the snapshot row for this origin.
func (s *SQLiteStore) Set(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (origin, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(origin) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.origin, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// UpdatedAt reports when this origin's snapshot was last written.
func (s *SQLiteStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx,
		"SELECT updated_at FROM snapshots WHERE origin = ?",
		s.origin,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storage.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get snapshot timestamp: %w", err)
	}
	return time.Unix(ts, 0), nil
}
