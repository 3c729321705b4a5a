package alert

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"OptAlert/pkg/logger"
)

// Hub pushes alerts to connected websocket clients. It doubles as a
// notification channel: every alert is broadcast to whoever is watching
// the live stream.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	enabled bool
	log     *logger.Logger
}

type streamPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}

func NewHub(enabled bool, log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		enabled: enabled,
		log:     log,
	}
}

func (h *Hub) Name() string { return "stream" }

func (h *Hub) Enabled() bool { return h.enabled }

// Register adds a client connection. The caller keeps reading from the
// connection to detect disconnects and calls Unregister when done.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	h.log.Info("stream client connected", logger.Int("clients", len(h.clients)))
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Clients reports the number of connected stream clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify broadcasts the alert to every connected client. Write failures
// drop the client; the broadcast itself never fails.
func (h *Hub) Notify(_ context.Context, subject, body string) error {
	payload := streamPayload{Timestamp: time.Now(), Subject: subject, Body: body}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(payload); err != nil {
			h.log.Warn("stream client dropped", logger.Error(err))
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}

// Close disconnects all clients, typically during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
