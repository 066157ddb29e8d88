package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battleship/internal/middleware"
	"github.com/mcoot/battleship/internal/model"
)

// Config holds websocket connection tuning
type Config struct {
	WriteWait      time.Duration // Time allowed to write a frame to the peer
	PongWait       time.Duration // Time allowed between pongs before the peer is considered dead
	PingPeriod     time.Duration // Must be less than PongWait
	MaxMessageSize int64
	SendBufferSize int
}

// DefaultConfig returns the default websocket settings
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 256,
	}
}

// Client is one connected websocket session
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	sessionID   model.SessionID
	connectedAt time.Time

	mu      sync.Mutex
	send    chan []byte
	stopped bool
}

func newClient(hub *Hub, conn *websocket.Conn, sessionID model.SessionID) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		sessionID:   sessionID,
		send:        make(chan []byte, hub.cfg.SendBufferSize),
		connectedAt: hub.clock.Now(),
	}
}

// SessionID returns the session this client was assigned on connect
func (c *Client) SessionID() model.SessionID {
	return c.sessionID
}

// enqueue adds a frame to the send queue, reporting false if the queue was full
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend stops the write pump, which then closes the connection
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.send)
	}
}

// readPump feeds inbound frames to the handler until the connection drops
func (c *Client) readPump(ctx context.Context, handler Handler) {
	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed",
					slog.String("session_id", string(c.sessionID)),
					slog.String("error", err.Error()))
			}
			return
		}
		err = middleware.Guard(c.hub.logger, func() {
			handler.HandleFrame(ctx, c.sessionID, message)
		}, slog.String("session_id", string(c.sessionID)))
		if err != nil {
			return
		}
	}
}

// writePump drains the send queue in order and keeps the peer alive with pings
func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
