package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"solarcleaner/internal/ws"
)

const initialWriteWait = 10 * time.Second

// Upgrader for HTTP -> WebSocket. Origins are open, like the rest of the
// API surface.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect upgrades the connection, sends the current status so a new
// observer renders immediately, and hands the socket to the hub.
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}

	st := h.services.Cleaner.Status()
	_ = conn.SetWriteDeadline(time.Now().Add(initialWriteWait))
	if err := conn.WriteJSON(ws.Envelope{
		Type: ws.EventStatusUpdate,
		Data: map[string]any{"status": st.Status, "progress": st.Progress},
	}); err != nil {
		h.log.Infow("ws_write_failed_initial", "err", err)
		_ = conn.Close()
		return
	}

	h.hub.Register(conn)
}
