package bus

import (
	"context"
	"sync"
)

// Broadcaster fans envelopes out to local subscribers. Deliver never blocks:
// a subscriber whose queue is full loses the envelope.
type Broadcaster struct {
	opts Options

	mu     sync.Mutex
	subs   map[chan Envelope]struct{}
	closed bool
	done   chan struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(opts Options) *Broadcaster {
	return &Broadcaster{
		opts: opts,
		subs: make(map[chan Envelope]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe registers a new queue that lives until ctx is done or Close.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan Envelope, b.opts.Buffer)
	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.remove(ch)
	}()
	return ch, nil
}

// Deliver queues e on every subscriber.
func (b *Broadcaster) Deliver(e Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.opts.Dropped(e)
		}
	}
}

// Len reports the number of live subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber queue. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Done is closed once Close has been called.
func (b *Broadcaster) Done() <-chan struct{} { return b.done }

func (b *Broadcaster) remove(ch chan Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}
