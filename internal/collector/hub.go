package collector

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard origin enforcement happens at the proxy
	},
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans accepted telemetry out to connected dashboard viewers. A viewer
// that cannot keep up has messages dropped rather than stalling ingestion.
type Hub struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	viewers map[*viewer]struct{}
	closed  bool
}

// NewHub creates an empty hub. Metrics may be nil.
func NewHub(logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		logger:  logger.Component("hub"),
		metrics: metrics,
		viewers: make(map[*viewer]struct{}),
	}
}

// ServeWS upgrades the request and serves the viewer until it disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(v) {
		conn.Close()
		return
	}

	go h.writePump(v)

	welcome, _ := json.Marshal(map[string]any{
		"type":    "system",
		"message": "connected to agent-observe collector",
	})
	h.enqueue(v, welcome)

	h.readPump(v)
}

// enqueue delivers one message to a single viewer if it is still registered.
// Membership is checked under the lock because send channels are only closed
// while it is held.
func (h *Hub) enqueue(v *viewer, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; !ok {
		return
	}
	select {
	case v.send <- data:
	default:
	}
}

// Broadcast marshals v once and enqueues it to every viewer.
func (h *Hub) Broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("broadcast marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
			// Slow viewer; skip this message for it.
		}
	}
	if h.metrics != nil && len(h.viewers) > 0 {
		h.metrics.WSBroadcasts.Inc()
	}
}

// ViewerCount returns the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Close disconnects every viewer and rejects future connections.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	viewers := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		viewers = append(viewers, v)
	}
	h.viewers = make(map[*viewer]struct{})
	h.mu.Unlock()

	for _, v := range viewers {
		close(v.send)
	}
	if h.metrics != nil {
		h.metrics.WSConnections.Set(0)
	}
}

func (h *Hub) register(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.viewers[v] = struct{}{}
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(len(h.viewers)))
	}
	return true
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; !ok {
		return
	}
	delete(h.viewers, v)
	close(v.send)
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(len(h.viewers)))
	}
}

// writePump drains the viewer's send channel onto the socket. It owns all
// writes to the connection and closes it when the channel closes.
func (h *Hub) writePump(v *viewer) {
	defer v.conn.Close()
	for data := range v.send {
		v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	v.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
}

// readPump consumes viewer messages until disconnect. Viewers only ever send
// pings; anything else is ignored.
func (h *Hub) readPump(v *viewer) {
	defer h.unregister(v)
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := v.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(map[string]any{"type": "pong"})
			h.enqueue(v, pong)
		}
	}
}
