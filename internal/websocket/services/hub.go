package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	activitymodels "go-gatewatch/internal/activity/models"
	"go-gatewatch/internal/websocket/models"
	"go-gatewatch/pkg/config"
)

// SnapshotProvider supplies the current live sessions for the greeting a
// client receives right after the upgrade.
type SnapshotProvider interface {
	ActiveSessions() []activitymodels.SessionSnapshot
}

// Hub fans session snapshots out to every connected subscriber. It keeps no
// history: a client that reconnects simply gets the current snapshot and
// rides along from there.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	provider SnapshotProvider
	upgrader websocket.Upgrader

	totalConnections atomic.Int64
	messagesSent     atomic.Int64

	broadcastMu   sync.Mutex
	lastBroadcast time.Time
}

// NewHub creates the subscriber hub. The provider may be nil, in which case
// new clients wait for the first broadcast instead of a greeting snapshot.
func NewHub(provider SnapshotProvider) *Hub {
	allowed := config.GetEnv("WS_ALLOWED_ORIGINS", "*")
	return &Hub{
		clients:  make(map[string]*Client),
		provider: provider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowed),
		},
	}
}

func originChecker(allowed string) func(*http.Request) bool {
	if allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	origins := make(map[string]bool)
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}
	return func(r *http.Request) bool {
		return origins[r.Header.Get("Origin")]
	}
}

// ServeWS upgrades the request and runs the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &Client{
		id:          uuid.New().String(),
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, 1),
		pongCh:      make(chan struct{}, 1),
		remoteAddr:  r.RemoteAddr,
		connectedAt: time.Now().UTC(),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.totalConnections.Add(1)

	slog.Info("WebSocket client connected",
		"client_id", client.id,
		"remote", client.remoteAddr,
		"clients", h.ClientCount())

	if h.provider != nil {
		if payload, err := encodeActivityUpdate(h.provider.ActiveSessions()); err == nil {
			client.queue(payload)
		} else {
			slog.Error("Failed to encode greeting snapshot", "error", err)
		}
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	if known {
		c.close()
		slog.Info("WebSocket client disconnected",
			"client_id", c.id,
			"messages_sent", c.sent.Load(),
			"clients", h.ClientCount())
	}
}

// BroadcastActivityUpdate pushes the snapshot to every client. Never blocks
// on a slow client; each queue keeps only the newest snapshot.
func (h *Hub) BroadcastActivityUpdate(sessions []activitymodels.SessionSnapshot) {
	payload, err := encodeActivityUpdate(sessions)
	if err != nil {
		slog.Error("Failed to encode activity update", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.queue(payload)
	}

	h.broadcastMu.Lock()
	h.lastBroadcast = time.Now().UTC()
	h.broadcastMu.Unlock()
}

func encodeActivityUpdate(sessions []activitymodels.SessionSnapshot) ([]byte, error) {
	if sessions == nil {
		sessions = []activitymodels.SessionSnapshot{}
	}
	return json.Marshal(models.ActivityMessage{
		Type: models.MessageTypeActivityUpdate,
		Data: sessions,
	})
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Clients returns metadata for every connected subscriber.
func (h *Hub) Clients() []models.ClientInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.ClientInfo, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, models.ClientInfo{
			ID:           c.id,
			RemoteAddr:   c.remoteAddr,
			ConnectedAt:  c.connectedAt,
			MessagesSent: c.sent.Load(),
		})
	}
	return out
}

// Stats returns the hub's lifetime counters.
func (h *Hub) Stats() models.HubStats {
	h.broadcastMu.Lock()
	last := h.lastBroadcast
	h.broadcastMu.Unlock()

	return models.HubStats{
		ActiveClients:    h.ClientCount(),
		TotalConnections: h.totalConnections.Load(),
		MessagesSent:     h.messagesSent.Load(),
		LastBroadcast:    last,
	}
}

// Close disconnects every client. Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
