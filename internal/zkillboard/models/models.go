package models

import (
	"time"
)

// ConsumerState is the RedisQ consumer state snapshot persisted to Redis so a
// restart can report what the previous run was doing.
type ConsumerState struct {
	QueueID        string     `json:"queue_id"`
	State          string     `json:"state"` // stopped, starting, running, throttled, draining
	LastPollTime   time.Time  `json:"last_poll_time"`
	LastKillmailID int64      `json:"last_killmail_id"`
	TotalPolls     int64      `json:"total_polls"`
	NullResponses  int64      `json:"null_responses"`
	KillmailsFound int64      `json:"killmails_found"`
	HTTPErrors     int64      `json:"http_errors"`
	ParseErrors    int64      `json:"parse_errors"`
	StoreErrors    int64      `json:"store_errors"`
	RateLimitHits  int64      `json:"rate_limit_hits"`
	Enriched       int64      `json:"enriched"`
	Duplicates     int64      `json:"duplicates"`
	DroppedInvalid int64      `json:"dropped_invalid"`
	DroppedOld     int64      `json:"dropped_old"`
	ESIFallbacks   int64      `json:"esi_fallbacks"`
	CurrentTTW     int        `json:"current_ttw"`
	NullStreak     int        `json:"null_streak"`
	StartedAt      time.Time  `json:"started_at"`
	StoppedAt      *time.Time `json:"stopped_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
