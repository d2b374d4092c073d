package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/validation"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period. A failed ping drops the client.
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 16
)

// Client represents a WebSocket client
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans reload messages out to every connected browser.
type Hub struct {
	clients    map[*Client]struct{}
	mutex      sync.RWMutex
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
	logger     logging.Logger
}

// NewHub creates a hub. Run must be called to deliver messages.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("websocket"),
	}
}

// Run delivers messages until ctx is cancelled or the hub is closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.disconnectAll()
	defer h.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug(ctx, "Client connected", "clients", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug(ctx, "Client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; it reconnects and reloads anyway.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast queues message for every client. Messages are dropped when the
// queue is full.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		h.logger.Warn(context.Background(), nil, "Broadcast queue full, dropping message")
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) disconnectAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.checkOrigin(r); err != nil {
		logging.LogSecurityEvent(s.logger, r.Context(), "websocket_origin_rejected", map[string]interface{}{
			"origin": logging.SanitizeForLog(r.Header.Get("Origin")),
			"reason": err.Error(),
		})
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// checkOrigin already ran.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  s.hub,
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go client.writePump()
	client.readPump()
}

// checkOrigin accepts the configured origins, the server's own address and
// the host the request was sent to.
func (s *PreviewServer) checkOrigin(r *http.Request) error {
	port := s.config.Server.Port
	allowed := append([]string{
		r.Host,
		s.config.Server.Address(),
		fmt.Sprintf("localhost:%d", port),
		fmt.Sprintf("127.0.0.1:%d", port),
	}, s.config.Server.AllowedOrigins...)
	return validation.ValidateOrigin(r.Header.Get("Origin"), allowed)
}

// readPump drains the connection so control frames are processed. It
// returns once writePump closes the connection.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	ctx := context.Background()

	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && status != -1 {
				c.hub.logger.Debug(ctx, "WebSocket read failed", "error", err.Error())
			}
			return
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
