package models

import (
	"time"

	activitymodels "go-gatewatch/internal/activity/models"
)

// MessageTypeActivityUpdate is the one message type the hub pushes. Every
// payload is the full live snapshot, never a delta.
const MessageTypeActivityUpdate = "activityUpdate"

// ActivityMessage is the wire envelope for session snapshots.
type ActivityMessage struct {
	Type string                           `json:"type"`
	Data []activitymodels.SessionSnapshot `json:"data"`
}

// ClientInfo is the status-endpoint view of one connected subscriber.
type ClientInfo struct {
	ID           string    `json:"id"`
	RemoteAddr   string    `json:"remote_addr"`
	ConnectedAt  time.Time `json:"connected_at"`
	MessagesSent int64     `json:"messages_sent"`
}

// HubStats summarizes the hub's lifetime counters.
type HubStats struct {
	ActiveClients    int       `json:"active_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	LastBroadcast    time.Time `json:"last_broadcast"`
}
