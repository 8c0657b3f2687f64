package dto

import (
	"encoding/json"
)

// RedisQResponse represents the response from ZKillboard RedisQ
type RedisQResponse struct {
	Package *RedisQPackage `json:"package"`
}

// RedisQPackage represents a killmail package from RedisQ. The killmail body
// is kept raw because RedisQ occasionally delivers it as null, in which case
// the processor falls back to fetching it from ESI using the zkb hash.
type RedisQPackage struct {
	KillID   int64           `json:"killID"`
	Killmail json.RawMessage `json:"killmail"`
	ZKB      ZKBData         `json:"zkb"`
}

// ZKBData represents ZKillboard-specific metadata in the RedisQ response
type ZKBData struct {
	LocationID     int64    `json:"locationID"`
	Hash           string   `json:"hash"`
	FittedValue    float64  `json:"fittedValue"`
	DroppedValue   float64  `json:"droppedValue"`
	DestroyedValue float64  `json:"destroyedValue"`
	TotalValue     float64  `json:"totalValue"`
	Points         int      `json:"points"`
	NPC            bool     `json:"npc"`
	Solo           bool     `json:"solo"`
	Awox           bool     `json:"awox"`
	Labels         []string `json:"labels"`
	Href           string   `json:"href"`
}
