package wsbus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmynk/splitledger/internal/bus"
)

const writeTimeout = 10 * time.Second

var _ bus.CommandBus = (*Client)(nil)

// Client is a replica's connection to a Hub.
type Client struct {
	conn    *websocket.Conn
	session string
	opts    bus.Options
	local   *bus.Broadcaster

	writeMu   sync.Mutex
	closeOnce sync.Once
	readDone  chan struct{}
}

// Dial connects to the hub at hubURL (ws:// or wss://) for session.
func Dial(ctx context.Context, hubURL, session string, opts ...bus.Option) (*Client, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hub url: %w", err)
	}
	q := u.Query()
	q.Set(sessionKey, session)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial hub: %w", err)
	}

	o := bus.NewOptions(opts...)
	c := &Client{
		conn:     conn,
		session:  session,
		opts:     o,
		local:    bus.NewBroadcaster(o),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	defer c.local.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				c.opts.Logger.Warn("Hub connection lost", "session", c.session, "error", err)
			}
			return
		}
		env, err := bus.Decode(data)
		if err != nil {
			c.opts.Logger.Warn("Dropping malformed frame", "session", c.session, "error", err)
			continue
		}
		c.local.Deliver(env)
	}
}

// Publish writes env to the hub.
func (c *Client) Publish(ctx context.Context, env bus.Envelope) error {
	select {
	case <-c.local.Done():
		return bus.ErrClosed
	default:
	}
	if env.Session == "" {
		env.Session = c.session
	}
	data, err := bus.Encode(env)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to publish envelope: %w", err)
	}
	return nil
}

func (c *Client) Subscribe(ctx context.Context) (<-chan bus.Envelope, error) {
	return c.local.Subscribe(ctx)
}

// Close sends a close frame and waits for the read loop to exit.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		<-c.readDone
	})
	return err
}
