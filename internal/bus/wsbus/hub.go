// Package wsbus implements bus.CommandBus over WebSockets: a Hub relays
// frames between the sockets of one session and a Client connects a
// replica to it.
package wsbus

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"github.com/mmynk/splitledger/internal/bus"
)

const sessionKey = "session"

// Hub is an http.Handler that upgrades requests carrying a ?session=
// query parameter and relays every frame to the other sockets of that
// session.
type Hub struct {
	m      *melody.Melody
	logger *slog.Logger
	onDrop func(bus.Envelope)
}

// NewHub creates a hub. Only the Logger and OnDrop options apply.
func NewHub(opts ...bus.Option) *Hub {
	o := bus.NewOptions(opts...)
	m := melody.New()
	m.Config.MaxMessageSize = 1024 * 1024
	// Keep-alive so idle connections survive proxies.
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &Hub{m: m, logger: o.Logger, onDrop: o.OnDrop}

	m.HandleConnect(func(s *melody.Session) {
		h.logger.Info("Client connected", "session", sessionOf(s))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		h.logger.Info("Client disconnected", "session", sessionOf(s))
	})
	m.HandleError(func(s *melody.Session, err error) {
		h.logger.Warn("WebSocket error", "session", sessionOf(s), "error", err)
	})
	m.HandleMessage(h.relay)
	return h
}

// ServeHTTP upgrades the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get(sessionKey)
	if session == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	if err := h.m.HandleRequestWithKeys(w, r, map[string]any{sessionKey: session}); err != nil {
		h.logger.Error("Failed to upgrade websocket", "error", err)
	}
}

// Len reports the number of connected sockets.
func (h *Hub) Len() int { return h.m.Len() }

// Close disconnects every socket.
func (h *Hub) Close() error { return h.m.Close() }

func (h *Hub) relay(s *melody.Session, msg []byte) {
	session := sessionOf(s)
	env, err := bus.Decode(msg)
	if err != nil {
		h.logger.Warn("Dropping malformed frame", "session", session, "error", err)
		return
	}
	if env.Session != "" && env.Session != session {
		h.logger.Warn("Dropping frame for foreign session",
			"session", session,
			"frame_session", env.Session,
		)
		return
	}

	err = h.m.BroadcastFilter(msg, func(q *melody.Session) bool {
		return q != s && sessionOf(q) == session
	})
	if err != nil {
		h.logger.Warn("Failed to relay frame", "session", session, "error", err)
		if h.onDrop != nil {
			h.onDrop(env)
		}
	}
}

func sessionOf(s *melody.Session) string {
	v, ok := s.Get(sessionKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
