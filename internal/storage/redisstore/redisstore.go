// Package redisstore provides a storage.SnapshotStore backed by a Redis key.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultPrefix namespaces snapshot keys.
const DefaultPrefix = "splitledger:snapshot"

var _ storage.SnapshotStore = (*Store)(nil)

// Store keeps one client's snapshot under "<prefix>:<origin>".
type Store struct {
	client     *redis.Client
	ownsClient bool
	key        string
}

// New connects to Redis with opts and verifies the connection.
func New(ctx context.Context, opts *redis.Options, origin string) (*Store, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s := NewWithClient(client, origin)
	s.ownsClient = true
	return s, nil
}

// NewWithClient wraps an existing client. The caller retains ownership of
// the client and is responsible for closing it.
func NewWithClient(client *redis.Client, origin string) *Store {
	return &Store{
		client: client,
		key:    fmt.Sprintf("%s:%s", DefaultPrefix, origin),
	}
}

func (s *Store) Get(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}
	return nil
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}
