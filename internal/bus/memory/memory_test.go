package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/bus"
	"github.com/mmynk/splitledger/internal/ledger"
)

func envelope(t *testing.T, origin string, seq uint64) bus.Envelope {
	t.Helper()
	env, err := bus.NewEnvelope("", origin, seq, ledger.SetLoading{Loading: true}, time.Now())
	require.NoError(t, err)
	return env
}

func receive(t *testing.T, ch <-chan bus.Envelope) bus.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		require.True(t, ok, "channel closed")
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return bus.Envelope{}
	}
}

func TestPublishReachesOtherMembersOnly(t *testing.T) {
	hub := NewHub()
	a := hub.Join("trip")
	b := hub.Join("trip")
	other := hub.Join("office")
	defer a.Close()
	defer b.Close()
	defer other.Close()

	ctx := context.Background()
	aCh, err := a.Subscribe(ctx)
	require.NoError(t, err)
	bCh, err := b.Subscribe(ctx)
	require.NoError(t, err)
	otherCh, err := other.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Publish(ctx, envelope(t, "a", 1)))

	got := receive(t, bCh)
	assert.Equal(t, "a", got.Origin)
	assert.Equal(t, "trip", got.Session, "session is filled from the endpoint")
	assert.Empty(t, aCh, "publisher does not hear itself")
	assert.Empty(t, otherCh, "sessions are isolated")
}

func TestFullQueueDropsAndCounts(t *testing.T) {
	var dropped int
	hub := NewHub(bus.WithBuffer(1), bus.WithDropHandler(func(bus.Envelope) { dropped++ }))
	a := hub.Join("s")
	b := hub.Join("s")
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	bCh, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Publish(ctx, envelope(t, "a", 1)))
	require.NoError(t, a.Publish(ctx, envelope(t, "a", 2)))

	assert.Equal(t, uint64(1), receive(t, bCh).Seq)
	assert.Equal(t, 1, dropped)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	hub := NewHub()
	a := hub.Join("s")
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := a.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestCloseLeavesHub(t *testing.T) {
	hub := NewHub()
	a := hub.Join("s")
	b := hub.Join("s")
	assert.Equal(t, 2, hub.Members("s"))

	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, hub.Members("s"))

	_, ok := <-ch
	assert.False(t, ok, "close ends subscriptions")

	err = b.Publish(context.Background(), envelope(t, "b", 1))
	assert.ErrorIs(t, err, bus.ErrClosed)
	_, err = b.Subscribe(context.Background())
	assert.ErrorIs(t, err, bus.ErrClosed)

	require.NoError(t, a.Close())
	assert.Equal(t, 0, hub.Members("s"))
}
