// Package storagetest holds conformance checks shared by SnapshotStore implementations.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/storage"
)

// Run exercises the SnapshotStore contract against a fresh, empty store.
func Run(t *testing.T, store storage.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, []byte(`{"schemaVersion":1}`)))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schemaVersion":1}`, string(got))

	require.NoError(t, store.Set(ctx, []byte("second")))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got), "last write wins")

	// Callers may reuse their buffer after Set.
	buf := []byte("third")
	require.NoError(t, store.Set(ctx, buf))
	buf[0] = 'X'
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "third", string(got))
}
