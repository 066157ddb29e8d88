package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/battleship/internal/dependencies/clock"
	"github.com/mcoot/battleship/internal/model"
)

// Handler receives the lifecycle and inbound frames of every session
type Handler interface {
	Connect(ctx context.Context, sessionID model.SessionID)
	HandleFrame(ctx context.Context, sessionID model.SessionID, raw []byte)
	Disconnect(ctx context.Context, sessionID model.SessionID)
}

// Hub tracks connected sessions and delivers encoded frames to them
//
// Delivery is synchronous into each client's buffered queue, so frames sent
// to one session are written in the order they were handed to the hub.
type Hub struct {
	cfg      Config
	clock    clock.Clock
	upgrader websocket.Upgrader
	clients  map[model.SessionID]*Client
	mu       sync.RWMutex
	closed   bool
	logger   *slog.Logger
}

// NewHub creates a new Hub
func NewHub(cfg Config, clk clock.Clock, logger *slog.Logger) *Hub {
	return &Hub{
		cfg:   cfg,
		clock: clk,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[model.SessionID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Handler returns an http.HandlerFunc that upgrades requests and runs a session
func (h *Hub) Handler(handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, handler)
	}
}

// ServeWS upgrades the connection and blocks until the session ends
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, handler Handler) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h, conn, model.SessionID(uuid.NewString()))
	if !h.register(client) {
		_ = conn.Close()
		return
	}
	go client.writePump()

	ctx := r.Context()
	handler.Connect(ctx, client.sessionID)
	client.readPump(ctx, handler)

	h.unregister(client)
	handler.Disconnect(context.WithoutCancel(ctx), client.sessionID)
}

func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client.sessionID] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client registered",
		slog.String("session_id", string(client.sessionID)),
		slog.Int("total_clients", count))
	return true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if current, ok := h.clients[client.sessionID]; ok && current == client {
		delete(h.clients, client.sessionID)
	}
	count := len(h.clients)
	h.mu.Unlock()

	client.closeSend()
	h.logger.Info("websocket client unregistered",
		slog.String("session_id", string(client.sessionID)),
		slog.Duration("connection_duration", h.clock.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// Send queues a frame for one session; unknown sessions are ignored
func (h *Hub) Send(sessionID model.SessionID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[sessionID]; ok {
		h.deliver(client, frame)
	}
}

// SendMany queues a frame for each of the given sessions
func (h *Hub) SendMany(sessionIDs []model.SessionID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range sessionIDs {
		if client, ok := h.clients[id]; ok {
			h.deliver(client, frame)
		}
	}
}

// BroadcastAll queues a frame for every connected session
func (h *Hub) BroadcastAll(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.deliver(client, frame)
	}
}

// deliver must be called with h.mu held
func (h *Hub) deliver(client *Client, frame []byte) {
	if !client.enqueue(frame) {
		// A client that cannot keep up would otherwise see a gap in its event stream
		h.logger.Warn("websocket client buffer full, closing",
			slog.String("session_id", string(client.sessionID)))
		client.closeSend()
	}
}

// ClientCount returns the number of connected sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close rejects new connections and closes every open one
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, client := range h.clients {
		client.closeSend()
	}
	h.logger.Info("websocket hub stopped", slog.Int("disconnected_clients", len(h.clients)))
}
