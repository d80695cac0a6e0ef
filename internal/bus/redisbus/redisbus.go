// Package redisbus implements bus.CommandBus over Redis Pub/Sub.
package redisbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/bus"
)

// DefaultPrefix namespaces session channels.
const DefaultPrefix = "splitledger:session"

var _ bus.CommandBus = (*Bus)(nil)

// Bus publishes to and subscribes from the channel "<prefix>:<session>".
// Redis echoes a publisher's own messages back; replicas filter by origin.
type Bus struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	session    string
	channel    string
	opts       bus.Options

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisOpts *redis.Options, session string, opts ...bus.Option) (*Bus, error) {
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	b := NewWithClient(client, session, opts...)
	b.ownsClient = true
	return b, nil
}

// NewWithClient creates a bus with an existing Redis client.
// Note: The caller retains ownership of the client and is responsible for closing it
func NewWithClient(client *redis.Client, session string, opts ...bus.Option) *Bus {
	return &Bus{
		client:  client,
		session: session,
		channel: fmt.Sprintf("%s:%s", DefaultPrefix, session),
		opts:    bus.NewOptions(opts...),
		done:    make(chan struct{}),
	}
}

// Channel returns the Pub/Sub channel name.
func (b *Bus) Channel() string { return b.channel }

// Publish sends env on the session channel.
func (b *Bus) Publish(ctx context.Context, env bus.Envelope) error {
	if b.isClosed() {
		return bus.ErrClosed
	}
	if env.Session == "" {
		env.Session = b.session
	}

	data, err := bus.Encode(env)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.opts.Logger.Error("Failed to publish envelope",
			"channel", b.channel,
			"error", err,
		)
		return fmt.Errorf("failed to publish envelope: %w", err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription and waits for Redis to confirm it,
// so envelopes published after Subscribe returns are not missed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan bus.Envelope, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, bus.ErrClosed
	}
	b.wg.Add(1)
	b.mu.Unlock()

	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		b.wg.Done()
		return nil, fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	b.opts.Logger.Info("Subscribed to session channel", "channel", b.channel)

	out := make(chan bus.Envelope, b.opts.Buffer)
	go func() {
		defer b.wg.Done()
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case msg, ok := <-ch:
				if !ok {
					b.opts.Logger.Warn("Session channel closed", "channel", b.channel)
					return
				}
				env, err := bus.Decode([]byte(msg.Payload))
				if err != nil {
					b.opts.Logger.Error("Failed to decode envelope",
						"channel", b.channel,
						"error", err,
					)
					continue
				}
				if env.Session != "" && env.Session != b.session {
					continue
				}
				select {
				case out <- env:
				default:
					b.opts.Dropped(env)
				}
			}
		}
	}()
	return out, nil
}

// Close stops all subscriptions and closes the client if the bus owns it.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()
	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
