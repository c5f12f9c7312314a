// Package realtime fans committed state changes out to every connected
// websocket session. The hub is process-scoped: its session set and client
// counter live exactly as long as the process and are never persisted.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"fieldnet/internal/platform/metrics"
)

// Hub tracks connected sessions and broadcasts events to all of them.
// Fan-out is fire-and-forget: a slow or dead session is dropped, never
// retried, and never blocks the writer or its peers.
type Hub struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[*session]struct{}

	relay *Relay

	upgrader websocket.Upgrader
}

// NewHub builds a hub. relay may be nil when running a single instance.
func NewHub(logger *slog.Logger, m *metrics.Metrics, relay *Relay) *Hub {
	h := &Hub{
		logger:   logger,
		metrics:  m,
		sessions: make(map[*session]struct{}),
		relay:    relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins; auth is not
			// transport-level.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	if relay != nil {
		relay.attach(h)
	}
	return h
}

// ServeHTTP upgrades the request into a realtime session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s := newSession(h, conn)
	h.register(s)
	go s.writePump()
	go s.readPump()
}

// ConnectedClients returns the live session count. It is computed from the
// actual open connections and from nothing else.
func (h *Hub) ConnectedClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Broadcast sends a named event to every currently connected session and,
// when a relay is configured, to peer instances. Payload marshal failures
// are logged and swallowed: broadcast problems never reach the writer that
// caused the event.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("broadcast payload marshal failed", "event", event, "error", err)
		return
	}
	h.broadcastLocal(event, data)
	if h.relay != nil && event != EventClientCount {
		h.relay.publish(event, data)
	}
}

// broadcastLocal fans a frame out to local sessions only. Relayed events from
// peer instances come in through here so they are not re-published.
func (h *Hub) broadcastLocal(event string, data json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("broadcast frame marshal failed", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics.EventsBroadcast.WithLabelValues(event).Inc()
	for s := range h.sessions {
		select {
		case s.send <- frame:
		default:
			// Session buffer full: the session is too far behind to keep the
			// ordering guarantee. Drop it; it reconnects and resynchronizes
			// with a full fetch.
			h.dropLocked(s)
			h.metrics.BroadcastDrops.Inc()
			h.logger.Warn("dropping slow session", "remote", s.conn.RemoteAddr().String())
		}
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	// The gauge is set while the lock is held so a racing set from a later
	// count cannot be overwritten by an earlier one.
	h.metrics.ConnectedClients.Set(float64(count))
	h.mu.Unlock()

	h.logger.Info("client connected", "connected_clients", count)
	h.broadcastCount(count)
}

// unregister removes a session after its transport closed.
func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	h.dropLocked(s)
	count := len(h.sessions)
	h.metrics.ConnectedClients.Set(float64(count))
	h.mu.Unlock()

	h.logger.Info("client disconnected", "connected_clients", count)
	h.broadcastCount(count)
}

// dropLocked removes a session from the set and closes its send channel.
// Caller holds h.mu.
func (h *Hub) dropLocked(s *session) {
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.send)
	}
}

func (h *Hub) broadcastCount(count int) {
	data, _ := json.Marshal(count)
	h.broadcastLocal(EventClientCount, data)
}
