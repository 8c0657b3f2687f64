package services

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// Subscribers only ever send "ping"; anything longer is garbage.
	maxMessageSize = 512
)

var pingText = []byte("ping")

// Client is one WebSocket subscriber. All writes go through writePump; the
// send channel holds at most one snapshot, so a slow client skips straight
// to the newest state instead of queueing history.
type Client struct {
	id          string
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	pongCh      chan struct{}
	closeOnce   sync.Once
	remoteAddr  string
	connectedAt time.Time
	sent        atomic.Int64
}

// queue hands a payload to the writer, replacing any snapshot the client
// has not drained yet.
func (c *Client) queue(payload []byte) {
	select {
	case c.send <- payload:
		return
	default:
	}
	// Slot taken: drop the stale snapshot and offer the new one. If another
	// broadcast wins the race the client still ends up with a current state.
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump consumes inbound frames until the connection dies. The only
// client message with meaning is a literal "ping", answered with "pong".
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("WebSocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		if bytes.Equal(bytes.TrimSpace(message), pingText) {
			select {
			case c.pongCh <- struct{}{}:
			default:
			}
		}
	}
}

// writePump is the single writer for the connection: snapshots, pong
// replies and liveness pings all leave through here.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			c.sent.Add(1)
			c.hub.messagesSent.Add(1)

		case <-c.pongCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
