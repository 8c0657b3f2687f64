package dto

import (
	"time"
)

// ServiceStatusOutput represents the status of the ZKillboard consumer service
type ServiceStatusOutput struct {
	Body ServiceStatusResponse `json:"body" doc:"ZKillboard service status"`
}

// ServiceStatusResponse represents the actual status data
type ServiceStatusResponse struct {
	Status       string         `json:"status" doc:"Service status (stopped, starting, running, throttled, draining)"`
	QueueID      string         `json:"queue_id" doc:"Unique RedisQ queue identifier"`
	LastPoll     *time.Time     `json:"last_poll,omitempty" doc:"Last successful poll time"`
	LastKillmail *int64         `json:"last_killmail_id,omitempty" doc:"Last received killmail ID"`
	Metrics      ServiceMetrics `json:"metrics" doc:"Service performance metrics"`
	Config       ServiceConfig  `json:"config" doc:"Service configuration"`
	Message      string         `json:"message,omitempty" doc:"Status message"`
}

// ServiceMetrics represents performance metrics for the consumer and the
// enrichment pipeline behind it
type ServiceMetrics struct {
	TotalPolls       int64         `json:"total_polls" doc:"Total number of polls made"`
	NullResponses    int64         `json:"null_responses" doc:"Number of null responses received"`
	KillmailsFound   int64         `json:"killmails_found" doc:"Number of killmail packages received"`
	HTTPErrors       int64         `json:"http_errors" doc:"Number of HTTP errors encountered"`
	ParseErrors      int64         `json:"parse_errors" doc:"Number of parse errors"`
	StoreErrors      int64         `json:"store_errors" doc:"Number of storage errors"`
	RateLimitHits    int64         `json:"rate_limit_hits" doc:"Number of rate limit hits"`
	Enriched         int64         `json:"enriched" doc:"Killmails fully enriched and dispatched"`
	Duplicates       int64         `json:"duplicates" doc:"Killmails skipped as already seen"`
	DroppedInvalid   int64         `json:"dropped_invalid" doc:"Killmails dropped for missing required fields"`
	DroppedOld       int64         `json:"dropped_old" doc:"Killmails dropped by the freshness gate"`
	ESIFallbacks     int64         `json:"esi_fallbacks" doc:"Killmail bodies fetched from ESI after a null RedisQ body"`
	EnrichQueueDepth int           `json:"enrich_queue_depth" doc:"Killmails waiting for enrichment"`
	CurrentTTW       int           `json:"current_ttw" doc:"Current time-to-wait value (seconds)"`
	NullStreak       int           `json:"null_streak" doc:"Consecutive null responses"`
	Uptime           time.Duration `json:"uptime" doc:"Service uptime duration"`
}

// ServiceConfig represents the current service configuration
type ServiceConfig struct {
	Endpoint      string `json:"endpoint" doc:"RedisQ endpoint URL"`
	TTWMin        int    `json:"ttw_min" doc:"Minimum time-to-wait (seconds)"`
	TTWMax        int    `json:"ttw_max" doc:"Maximum time-to-wait (seconds)"`
	NullThreshold int    `json:"null_threshold" doc:"Null responses before increasing TTW"`
	BatchSize     int    `json:"batch_size" doc:"Database batch insert size"`
	EnrichWorkers int    `json:"enrich_workers" doc:"Enrichment worker pool size"`
	MaxKillAgeH   int    `json:"max_kill_age_hours" doc:"Freshness gate in hours"`
}

// ServiceControlInput represents input for service control operations
type ServiceControlInput struct {
	Action  string `json:"action" required:"true" enum:"start,stop,restart" doc:"Control action to perform"`
	QueueID string `json:"queue_id,omitempty" doc:"Optional queue ID override"`
}

// ServiceControlOutput represents the result of a service control operation
type ServiceControlOutput struct {
	Body ServiceControlResponse `json:"body" doc:"Service control operation result"`
}

// ServiceControlResponse represents the actual control operation result
type ServiceControlResponse struct {
	Success bool   `json:"success" doc:"Whether the operation succeeded"`
	Message string `json:"message" doc:"Operation result message"`
	Status  string `json:"status" doc:"Current service status"`
}

// RecentKillmailsOutput represents recently processed killmails
type RecentKillmailsOutput struct {
	Body RecentKillmailsResponse `json:"body" doc:"Recent killmails data"`
}

// RecentKillmailsResponse represents the actual recent killmails data
type RecentKillmailsResponse struct {
	Killmails []KillmailSummary `json:"killmails" doc:"Recent killmails, newest first"`
	Count     int               `json:"count" doc:"Number of killmails returned"`
}

// KillmailSummary is the lightweight view of a processed killmail kept in the
// Redis recent-kills ring
type KillmailSummary struct {
	KillmailID    int64     `json:"killmail_id" doc:"Killmail ID"`
	Timestamp     time.Time `json:"timestamp" doc:"Kill time"`
	SolarSystemID int64     `json:"solar_system_id" doc:"Solar system ID"`
	SystemName    string    `json:"system_name,omitempty" doc:"Solar system name"`
	RegionName    string    `json:"region_name,omitempty" doc:"Region name"`
	ShipTypeID    int64     `json:"ship_type_id" doc:"Destroyed ship type"`
	ShipCategory  string    `json:"ship_category,omitempty" doc:"Destroyed ship category"`
	TotalValue    float64   `json:"total_value" doc:"Total ISK value"`
	Points        int       `json:"points" doc:"ZKillboard points"`
	Solo          bool      `json:"solo" doc:"Solo kill flag"`
	NPC           bool      `json:"npc" doc:"NPC kill flag"`
	Href          string    `json:"href,omitempty" doc:"ZKillboard URL"`
}
