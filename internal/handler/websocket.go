package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/notify"
)

var errClientClosed = errors.New("websocket client closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// wsClient is one websocket subscriber. writePump is the only goroutine that
// writes to conn, so frames leave in the order Send accepted them.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	cfg    config.WebSocketConfig
	logger *logging.Logger
}

func newWSClient(conn *websocket.Conn, cfg config.WebSocketConfig, buffer int, logger *logging.Logger) *wsClient {
	return &wsClient{
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

// Send queues msg for delivery. It blocks while the queue is full until ctx
// is done or the client goes away.
func (c *wsClient) Send(ctx context.Context, msg []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the write pump, which sends a close frame and drops the
// connection. Safe to call more than once.
func (c *wsClient) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newWSClient(conn, h.ws, h.buffer, h.logger)
	if err := h.hub.Register(c); err != nil {
		conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", "subscribers", h.hub.Len())

	go c.writePump()
	go c.readPump(h.hub)
}

// readPump discards inbound frames; it exists to process control frames and
// notice when the peer goes away.
func (c *wsClient) readPump(reg *notify.Hub) {
	defer func() {
		reg.Deregister(c)
		c.Close()
		c.conn.Close()
		c.logger.Debug("websocket client disconnected", "subscribers", reg.Len())
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	wait := c.cfg.PingInterval + c.cfg.PongTimeout
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wait))
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.PongTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.PongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}
