package tap

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/torvik/cloudlink/internal/logging"
	"github.com/torvik/cloudlink/internal/protocol"
)

const (
	// Time allowed to write an event to a diagnostic client
	writeWait = 10 * time.Second

	// Events buffered per client before it is considered too slow
	sendBuffer = 64
)

// Event is one decoded frame as published to diagnostic clients.
type Event struct {
	ReceivedAt time.Time        `json:"received_at"`
	Remote     string           `json:"remote"`
	FrameType  string           `json:"frame_type"`
	Summary    string           `json:"summary"`
	Fields     []protocol.Field `json:"fields"`
}

// client is one attached WebSocket connection. All writes to the connection
// go through a single writer goroutine draining send, so Broadcast may be
// called from any number of bridge goroutines concurrently.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans decoded frame events out to connected WebSocket clients. Clients
// are drop-on-slow: a client whose send buffer is full or whose write times
// out is closed rather than allowed to stall the tap.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Diagnostic stream, local tooling: any origin may attach.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// for event delivery. The connection stays registered until the client
// closes it, a write fails, or it falls too far behind.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logging.LogConnection(conn.RemoteAddr().String(), "diagnostic_client_attached")

	go h.writeLoop(c)

	// Drain the read side to process control frames and notice the close.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writeLoop is the single writer for one client's connection.
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Info("Dropping diagnostic client on write error",
					zap.String("remote_addr", c.conn.RemoteAddr().String()),
					zap.Error(err),
				)
				h.drop(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Broadcast queues evt for every attached client. It never blocks: a client
// whose send buffer is full is dropped.
func (h *Hub) Broadcast(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logging.Error("Failed to marshal event", zap.Error(err))
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			logging.Info("Dropping slow diagnostic client",
				zap.String("remote_addr", c.conn.RemoteAddr().String()),
			)
			h.drop(c)
		}
	}
}

// ClientCount returns the number of attached diagnostic clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every attached client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
		_ = c.conn.Close()
	}
}

// drop unregisters the client and closes its connection. Only the goroutine
// that removes the client from the registry tears it down, so concurrent
// drops of the same client are safe.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		close(c.done)
		_ = c.conn.Close()
		logging.LogConnection(c.conn.RemoteAddr().String(), "diagnostic_client_detached")
	}
}
