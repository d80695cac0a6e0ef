// Package storage provides durable local persistence for ledger snapshots.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no snapshot has been persisted yet.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore holds the single latest serialized snapshot of one client.
// This abstraction allows swapping storage backends (file, SQLite, Redis)
// without changing the synchronization layer.
//
// Set overwrites any previous snapshot (last write wins).
type SnapshotStore interface {
	// Get returns the last persisted snapshot or ErrNotFound.
	Get(ctx context.Context) ([]byte, error)

	// Set replaces the persisted snapshot with data.
	Set(ctx context.Context, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// Timestamped is implemented by stores that record when the snapshot was
// last written.
type Timestamped interface {
	UpdatedAt(ctx context.Context) (time.Time, error)
}
