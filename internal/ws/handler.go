package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/solstreakhq/solstreak/backend/internal/domain/registry"
	"github.com/solstreakhq/solstreak/backend/internal/infrastructure/monitoring"
	"github.com/solstreakhq/solstreak/backend/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	// Events queued per client before the connection is dropped as too
	// slow to keep up.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams module lifecycle events to websocket clients
type Handler struct {
	manager *registry.Manager
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a websocket event stream handler
func NewHandler(manager *registry.Manager, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = &logging.Logger{Logger: zap.NewNop()}
	}
	return &Handler{manager: manager, logger: logger, metrics: metrics}
}

// HandleConnection upgrades the request and forwards every lifecycle
// event until the client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	// The registry delivers events synchronously, so the handler only
	// enqueues; the write pump owns the connection.
	events := make(chan registry.Event, sendBuffer)
	done := make(chan struct{})
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(done) }) }

	sub := h.manager.Subscribe(registry.EventAny, func(e registry.Event) {
		select {
		case events <- e:
		default:
			// Client is too slow to keep up
			stop()
		}
	})
	defer h.manager.Unsubscribe(sub)

	go h.readPump(conn, stop)
	h.writePump(conn, events, done)
}

// readPump discards client frames and detects disconnects
func (h *Handler) readPump(conn *websocket.Conn, stop func()) {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			stop()
			return
		}
	}
}

// writePump serializes events and pings onto the connection
func (h *Handler) writePump(conn *websocket.Conn, events <-chan registry.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	hello, _ := sonic.Marshal(map[string]interface{}{
		"type":    "system",
		"message": "connected to module event stream",
	})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case event := <-events:
			payload, err := sonic.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode event", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
