package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	activitymodels "go-gatewatch/internal/activity/models"
	"go-gatewatch/internal/websocket/models"
)

type staticProvider struct {
	sessions []activitymodels.SessionSnapshot
}

func (p *staticProvider) ActiveSessions() []activitymodels.SessionSnapshot {
	return p.sessions
}

func TestOriginCheckerWildcard(t *testing.T) {
	check := originChecker("*")

	r := httptest.NewRequest("GET", "/ws", nil)
	if !check(r) {
		t.Error("wildcard should accept requests without an Origin header")
	}

	r.Header.Set("Origin", "https://anywhere.example")
	if !check(r) {
		t.Error("wildcard should accept any origin")
	}
}

func TestOriginCheckerList(t *testing.T) {
	check := originChecker("https://one.example, https://two.example")

	cases := []struct {
		origin string
		want   bool
	}{
		{"https://one.example", true},
		{"https://two.example", true},
		{"https://evil.example", false},
		{"", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/ws", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := check(r); got != tc.want {
			t.Errorf("origin %q: got %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestEncodeActivityUpdateEmpty(t *testing.T) {
	payload, err := encodeActivityUpdate(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := string(payload); got != `{"type":"activityUpdate","data":[]}` {
		t.Errorf("unexpected empty payload: %s", got)
	}
}

func TestClientQueueKeepsNewestSnapshot(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	c.queue([]byte("stale"))
	c.queue([]byte("fresh"))

	select {
	case got := <-c.send:
		if string(got) != "fresh" {
			t.Errorf("expected newest payload, got %q", got)
		}
	default:
		t.Fatal("queue left the send channel empty")
	}

	select {
	case extra := <-c.send:
		t.Errorf("unexpected second payload %q", extra)
	default:
	}
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	h := NewHub(nil)
	a := &Client{id: "a", hub: h, send: make(chan []byte, 1), remoteAddr: "10.0.0.1:40000", connectedAt: time.Now().UTC()}
	b := &Client{id: "b", hub: h, send: make(chan []byte, 1), remoteAddr: "10.0.0.2:40001", connectedAt: time.Now().UTC()}
	h.clients[a.id] = a
	h.clients[b.id] = b

	h.BroadcastActivityUpdate([]activitymodels.SessionSnapshot{{ID: "camp-1", Classification: "camp"}})

	for _, c := range []*Client{a, b} {
		select {
		case payload := <-c.send:
			var msg models.ActivityMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				t.Fatalf("client %s payload: %v", c.id, err)
			}
			if msg.Type != models.MessageTypeActivityUpdate {
				t.Errorf("client %s got message type %q", c.id, msg.Type)
			}
			if len(msg.Data) != 1 || msg.Data[0].ID != "camp-1" {
				t.Errorf("client %s got sessions %+v", c.id, msg.Data)
			}
		default:
			t.Errorf("client %s received nothing", c.id)
		}
	}

	if h.Stats().LastBroadcast.IsZero() {
		t.Error("broadcast should stamp LastBroadcast")
	}
}

func TestHubClientAccounting(t *testing.T) {
	h := NewHub(nil)
	if h.ClientCount() != 0 {
		t.Fatalf("fresh hub reports %d clients", h.ClientCount())
	}

	connectedAt := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)
	c := &Client{id: "watcher", hub: h, send: make(chan []byte, 1), remoteAddr: "198.51.100.7:52110", connectedAt: connectedAt}
	c.sent.Store(3)
	h.clients[c.id] = c

	if h.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", h.ClientCount())
	}

	infos := h.Clients()
	if len(infos) != 1 {
		t.Fatalf("expected 1 client info, got %d", len(infos))
	}
	info := infos[0]
	if info.ID != "watcher" || info.RemoteAddr != "198.51.100.7:52110" || info.MessagesSent != 3 {
		t.Errorf("unexpected client info: %+v", info)
	}
	if !info.ConnectedAt.Equal(connectedAt) {
		t.Errorf("ConnectedAt = %v, want %v", info.ConnectedAt, connectedAt)
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	h := NewHub(nil)
	c := &Client{id: "gone", hub: h, send: make(chan []byte, 1)}
	h.clients[c.id] = c

	h.unregister(c)

	if h.ClientCount() != 0 {
		t.Errorf("client not removed, count %d", h.ClientCount())
	}
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel")
		}
	default:
		t.Error("send channel still open after unregister")
	}

	// A second unregister for the same client is a no-op.
	h.unregister(c)
}

func TestHubCloseDisconnectsEveryone(t *testing.T) {
	h := NewHub(nil)
	a := &Client{id: "a", hub: h, send: make(chan []byte, 1)}
	b := &Client{id: "b", hub: h, send: make(chan []byte, 1)}
	h.clients[a.id] = a
	h.clients[b.id] = b

	h.Close()

	if h.ClientCount() != 0 {
		t.Errorf("expected empty hub, count %d", h.ClientCount())
	}
	for _, c := range []*Client{a, b} {
		select {
		case _, ok := <-c.send:
			if ok {
				t.Errorf("client %s send channel still open", c.id)
			}
		default:
			t.Errorf("client %s send channel not closed", c.id)
		}
	}

	h.Close()
}

func TestServeWSGreetingAndPing(t *testing.T) {
	provider := &staticProvider{sessions: []activitymodels.SessionSnapshot{{ID: "camp-greeting"}}}
	h := NewHub(provider)
	defer h.Close()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp != nil {
		resp.Body.Close()
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}

	var msg models.ActivityMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode greeting: %v", err)
	}
	if msg.Type != models.MessageTypeActivityUpdate {
		t.Errorf("greeting type = %q", msg.Type)
	}
	if len(msg.Data) != 1 || msg.Data[0].ID != "camp-greeting" {
		t.Errorf("greeting sessions = %+v", msg.Data)
	}

	// The greeting was queued after registration, so by the time the client
	// has read it the hub must know about the connection.
	if h.ClientCount() != 1 {
		t.Errorf("expected 1 registered client, got %d", h.ClientCount())
	}
	if got := h.Stats().TotalConnections; got != 1 {
		t.Errorf("TotalConnections = %d, want 1", got)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if string(reply) != "pong" {
		t.Errorf("expected pong reply, got %q", reply)
	}
}
