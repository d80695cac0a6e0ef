// Package bus carries ledger commands between replicas of the same session.
//
// Delivery is at-most-once and unordered across origins. Every transport
// encodes an Envelope as a single JSON frame.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/ledger"
)

// ErrClosed is returned by operations on a bus that has been closed.
var ErrClosed = errors.New("bus closed")

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Envelope is one published command plus routing metadata.
type Envelope struct {
	Session string             `json:"session"`
	Origin  string             `json:"origin"`
	Seq     uint64             `json:"seq"`
	Type    ledger.CommandType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
	SentAt  time.Time          `json:"sentAt"`
}

// NewEnvelope encodes cmd for publication.
func NewEnvelope(session, origin string, seq uint64, cmd ledger.Command, sentAt time.Time) (Envelope, error) {
	t, payload, err := ledger.EncodeCommand(cmd)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Session: session,
		Origin:  origin,
		Seq:     seq,
		Type:    t,
		Payload: payload,
		SentAt:  sentAt.UTC(),
	}, nil
}

// Command decodes the carried command.
func (e Envelope) Command() (ledger.Command, error) {
	return ledger.DecodeCommand(e.Type, e.Payload)
}

// Encode returns the JSON frame for e.
func Encode(e Envelope) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses a JSON frame. Frames without an origin or type are rejected.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if e.Origin == "" || e.Type == "" {
		return Envelope{}, fmt.Errorf("failed to decode envelope: missing origin or type")
	}
	return e, nil
}

// CommandBus is the capability a replica needs to exchange commands.
type CommandBus interface {
	// Publish sends e to the other members of the session. It does not wait
	// for delivery.
	Publish(ctx context.Context, e Envelope) error

	// Subscribe returns a channel of envelopes published by others. The
	// channel is closed when ctx is done or the bus is closed.
	Subscribe(ctx context.Context) (<-chan Envelope, error)

	// Close releases the transport and closes all subscription channels.
	Close() error
}

// Options configures a transport.
type Options struct {
	Logger *slog.Logger
	Buffer int
	OnDrop func(Envelope)
}

// Option is a functional option for configuring a transport.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(o *Options) { o.Buffer = n }
}

// WithDropHandler registers fn to be called for every envelope discarded
// because a subscriber's queue was full.
func WithDropHandler(fn func(Envelope)) Option {
	return func(o *Options) { o.OnDrop = fn }
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{Logger: slog.Default(), Buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Buffer < 1 {
		o.Buffer = 1
	}
	return o
}

// Dropped logs e as discarded and reports it to the drop handler.
func (o Options) Dropped(e Envelope) {
	o.Logger.Warn("dropping envelope, subscriber queue full",
		"origin", e.Origin,
		"seq", e.Seq,
		"type", e.Type,
	)
	if o.OnDrop != nil {
		o.OnDrop(e)
	}
}
