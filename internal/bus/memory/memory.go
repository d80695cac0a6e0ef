// Package memory provides an in-process bus.CommandBus for tests and
// single-binary deployments.
package memory

import (
	"context"
	"sync"

	"github.com/mmynk/splitledger/internal/bus"
)

// Hub routes envelopes between the endpoints that joined the same session.
type Hub struct {
	opts bus.Options

	mu       sync.RWMutex
	sessions map[string]map[*Endpoint]struct{}
}

// NewHub creates an empty hub.
func NewHub(opts ...bus.Option) *Hub {
	return &Hub{
		opts:     bus.NewOptions(opts...),
		sessions: make(map[string]map[*Endpoint]struct{}),
	}
}

// Join returns a new endpoint attached to session.
func (h *Hub) Join(session string) *Endpoint {
	e := &Endpoint{
		hub:     h,
		session: session,
		local:   bus.NewBroadcaster(h.opts),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.sessions[session]
	if !ok {
		members = make(map[*Endpoint]struct{})
		h.sessions[session] = members
	}
	members[e] = struct{}{}
	return e
}

// Members reports how many endpoints are attached to session.
func (h *Hub) Members(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[session])
}

func (h *Hub) route(from *Endpoint, env bus.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for e := range h.sessions[from.session] {
		if e != from {
			e.local.Deliver(env)
		}
	}
}

func (h *Hub) leave(e *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.sessions[e.session]
	delete(members, e)
	if len(members) == 0 {
		delete(h.sessions, e.session)
	}
}

var _ bus.CommandBus = (*Endpoint)(nil)

// Endpoint is one replica's attachment to a Hub.
type Endpoint struct {
	hub     *Hub
	session string
	local   *bus.Broadcaster

	closeOnce sync.Once
}

// Publish hands env to every other endpoint of the session.
func (e *Endpoint) Publish(ctx context.Context, env bus.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-e.local.Done():
		return bus.ErrClosed
	default:
	}
	if env.Session == "" {
		env.Session = e.session
	}
	e.hub.route(e, env)
	return nil
}

func (e *Endpoint) Subscribe(ctx context.Context) (<-chan bus.Envelope, error) {
	return e.local.Subscribe(ctx)
}

// Close detaches the endpoint from the hub.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.hub.leave(e)
		e.local.Close()
	})
	return nil
}
