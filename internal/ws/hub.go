package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	// Per-client outbound queue. A client that falls this far behind is
	// dropped so a stuck socket can never back up the orchestrator.
	sendQueueSize = 32
)

// Push event types sent to observers.
const (
	EventStatusUpdate   = "status_update"
	EventProgressUpdate = "progress_update"
	EventLogUpdate      = "log_update"
)

// Envelope wraps every WebSocket message.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to all connected observers. Broadcasts are
// fire-and-forget: marshal once, enqueue per client, never block.
type Hub struct {
	log     *logger.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// Register adopts an upgraded connection and starts its pumps. The hub
// owns the connection from here on and closes it when the client leaves.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// StatusUpdate broadcasts a cycle status change.
func (h *Hub) StatusUpdate(status string, progress int) {
	h.broadcast(Envelope{
		Type: EventStatusUpdate,
		Data: map[string]any{"status": status, "progress": progress},
	})
}

// ProgressUpdate broadcasts a device progress report.
func (h *Hub) ProgressUpdate(progress int) {
	h.broadcast(Envelope{
		Type: EventProgressUpdate,
		Data: map[string]any{"progress": progress},
	})
}

// LogUpdate broadcasts a freshly appended log entry.
func (h *Hub) LogUpdate(e models.LogEntry) {
	h.broadcast(Envelope{
		Type: EventLogUpdate,
		Data: map[string]any{"action": e.Action, "status": e.Status, "type": e.Type},
	})
}

func (h *Hub) broadcast(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Errorw("ws_marshal_failed", "type", env.Type, "err", err)
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Warnw("ws_client_too_slow, dropping")
			h.removeLocked(c)
		}
	}
	h.mu.Unlock()
}

// unregister removes a client; safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// writePump drains the send queue and keeps the connection alive with
// pings. Exits when the queue is closed or a write fails.
func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				h.unregister(c)
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				h.unregister(c)
				return
			}
		}
	}
}

// readPump drains incoming frames to service control messages and detect
// disconnects; observers are not expected to send application data.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
