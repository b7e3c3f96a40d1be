package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// ProgressWebSocketHandler streams job snapshots to WebSocket clients so
// they can render live download progress without polling.
type ProgressWebSocketHandler struct {
	tracker *app.Tracker
	logger  *zap.Logger
}

// NewProgressWebSocketHandler creates a new WebSocket handler
func NewProgressWebSocketHandler(tracker *app.Tracker, log *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		tracker: tracker,
		logger:  log,
	}
}

// HandleWebSocket handles GET /ws/downloads. Every tracker change pushes a
// full snapshot of all jobs; the first message is sent immediately so a new
// client does not wait for the next change.
func (h *ProgressWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected",
		zap.String("remote_addr", c.Request.RemoteAddr))

	updates, cancel := h.tracker.Subscribe()
	defer cancel()

	if err := h.writeSnapshot(conn, h.tracker.List()); err != nil {
		return
	}

	// Read messages from client (for ping/pong and close detection)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := h.writeSnapshot(conn, snapshot); err != nil {
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func (h *ProgressWebSocketHandler) writeSnapshot(conn *websocket.Conn, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Error("Failed to marshal job snapshot", zap.Error(err))
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	return nil
}
