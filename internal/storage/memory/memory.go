// Package memory provides an in-process storage.SnapshotStore.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.SnapshotStore = (*Store)(nil)

// Store keeps the snapshot in memory. Data is lost when the process exits.
type Store struct {
	mu   sync.RWMutex
	data []byte
}

// New returns an empty store, or one pre-loaded with data when given.
func New(data []byte) *Store {
	return &Store{data: slices.Clone(data)}
}

func (s *Store) Get(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(s.data), nil
}

func (s *Store) Set(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = slices.Clone(data)
	return nil
}

func (s *Store) Close() error { return nil }
