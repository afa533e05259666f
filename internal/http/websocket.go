package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 16
)

// ChangeMessage tells dashboard clients which view to refetch.
type ChangeMessage struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity,omitempty"`
	Action    string    `json:"action,omitempty"`
	EntityID  string    `json:"entity_id,omitempty"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Message types on /ws.
const (
	MessageConnected    = "connected"
	MessageLedgerChange = "ledger_change"
)

// Hub keeps the open dashboard websockets and fans ledger changes out to
// them. A client that falls behind is dropped.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub. Origins are checked against the request host.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Hub{
		logger: logger.WithComponent(log.ComponentWebSocket),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeWS upgrades the request and streams change messages until the
// client goes away or the hub closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.DebugContext(r.Context(), "WebSocket upgrade failed", log.FieldError, err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// register adds c and queues its connected message.
func (h *Hub) register(c *wsClient) bool {
	hello, _ := json.Marshal(ChangeMessage{Type: MessageConnected, Timestamp: time.Now().UTC()})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	c.send <- hello
	h.logger.Debug("WebSocket client connected", "clients", len(h.clients))
	return true
}

// unregister removes c and closes its send channel, which ends writePump.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Debug("WebSocket client disconnected", "clients", len(h.clients))
	}
}

// readPump discards client messages and keeps the read deadline fresh.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends ev to every client. Its signature matches
// services.ChangeListener.
func (h *Hub) Broadcast(ctx context.Context, ev amqp.LedgerEvent) {
	msg, err := json.Marshal(ChangeMessage{
		Type:      MessageLedgerChange,
		Entity:    ev.Type.Entity(),
		Action:    ev.Type.Action(),
		EntityID:  ev.EntityID,
		Month:     ev.Month,
		Timestamp: ev.Timestamp,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode change message", log.FieldError, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
			h.logger.WarnContext(ctx, "Dropping slow WebSocket client")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
