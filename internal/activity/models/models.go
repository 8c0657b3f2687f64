package models

import (
	"time"

	killmodels "go-gatewatch/internal/killmails/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// ExpiredCampsCollection archives camp-seeded camp-family sessions
	ExpiredCampsCollection = "expired_camps"
	// SessionsCollection is the timeline record of every expired session
	SessionsCollection = "activity_sessions"
)

// Seed kinds. A session is seeded exactly once and the kind never changes.
const (
	SeedCamp = "camp-seed"
	SeedRoam = "roam-seed"
)

// Classification tags, re-evaluated on every kill and on every sweep.
const (
	ClassificationCamp        = "camp"
	ClassificationSoloCamp    = "solo_camp"
	ClassificationSmartbomb   = "smartbomb"
	ClassificationRoamingCamp = "roaming_camp"
	ClassificationBattle      = "battle"
	ClassificationRoam        = "roam"
	ClassificationSoloRoam    = "solo_roam"
	ClassificationActivity    = "activity"
)

// CampFamily holds the classifications that use the camp idle timeout and
// qualify a camp-seeded session for the expired-camp archive.
var CampFamily = map[string]bool{
	ClassificationCamp:        true,
	ClassificationSoloCamp:    true,
	ClassificationSmartbomb:   true,
	ClassificationRoamingCamp: true,
	ClassificationBattle:      true,
}

// Session is a live grouping of killmails into a camp, roam or battle. It is
// mutated only under the store mutex; everything handed to subscribers or
// routes goes through Snapshot.
type Session struct {
	ID             string
	Type           string // seed kind, immutable
	Classification string
	SystemID       int64
	StargateName   string // set once for camp-seeded sessions

	Kills      []*killmodels.Killmail
	TotalValue float64

	FirstKillTime time.Time
	LastKillTime  time.Time
	LastActivity  time.Time
	StartTime     time.Time

	VisitedSystems *OrderedSet[int64]
	Path           []PathEntry
	LastSystem     SystemRef

	Members     *OrderedSet[int64]
	Composition Composition

	Metrics        Metrics
	Probability    int
	MaxProbability int
	ProbabilityLog []string

	// Smartbomb is sticky: set when any appended kill carries a smartbomb
	// weapon, never cleared.
	Smartbomb bool
}

// NewSession seeds a session at the given system with its first-kill time.
func NewSession(id, seedKind string, systemID int64, systemName, regionName string, killTime time.Time) *Session {
	return &Session{
		ID:             id,
		Type:           seedKind,
		Classification: ClassificationActivity,
		SystemID:       systemID,
		VisitedSystems: NewOrderedSet[int64](),
		Members:        NewOrderedSet[int64](),
		Composition: Composition{
			OriginalAttackers: NewOrderedSet[int64](),
			ActiveAttackers:   NewOrderedSet[int64](),
			KilledAttackers:   NewOrderedSet[int64](),
		},
		FirstKillTime: killTime,
		LastActivity:  killTime,
		StartTime:     killTime,
		LastSystem:    SystemRef{ID: systemID, Name: systemName, Region: regionName},
	}
}

// Composition tracks who is shooting, who already died, and which corps and
// alliances are represented across a session's kills.
type Composition struct {
	OriginalAttackers *OrderedSet[int64]
	ActiveAttackers   *OrderedSet[int64]
	KilledAttackers   *OrderedSet[int64]

	// Insertion-ordered unique id lists
	InvolvedCorporations []int64
	InvolvedAlliances    []int64
}

// PathEntry is one hop of a session's movement between systems.
type PathEntry struct {
	ID     int64  `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Region string `bson:"region" json:"region"`
	Time   int64  `bson:"time" json:"time"` // epoch ms
}

// SystemRef names the system a session was last seen in.
type SystemRef struct {
	ID     int64  `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Region string `bson:"region" json:"region"`
}

// Metrics are the cached timing and party statistics for a session.
// Durations are whole minutes; timestamps are epoch ms.
type Metrics struct {
	FirstSeen          int64         `bson:"firstSeen" json:"firstSeen"`
	CampDuration       int64         `bson:"campDuration" json:"campDuration"`
	ActiveDuration     int64         `bson:"activeDuration" json:"activeDuration"`
	InactivityDuration int64         `bson:"inactivityDuration" json:"inactivityDuration"`
	PodKills           int           `bson:"podKills" json:"podKills"`
	KillFrequency      float64       `bson:"killFrequency" json:"killFrequency"`
	AvgValuePerKill    float64       `bson:"avgValuePerKill" json:"avgValuePerKill"`
	ShipCounts         map[int64]int `bson:"shipCounts" json:"shipCounts"`
	PartyMetrics       PartyMetrics  `bson:"partyMetrics" json:"partyMetrics"`
}

// PartyMetrics counts distinct characters, corps and alliances across all of
// a session's kills, victims included.
type PartyMetrics struct {
	Characters   int `bson:"characters" json:"characters"`
	Corporations int `bson:"corporations" json:"corporations"`
	Alliances    int `bson:"alliances" json:"alliances"`
}

// CompositionCounts is the wire form of Composition: counts only, the member
// sets travel separately as the members array.
type CompositionCounts struct {
	OriginalCount int `bson:"originalCount" json:"originalCount"`
	ActiveCount   int `bson:"activeCount" json:"activeCount"`
	KilledCount   int `bson:"killedCount" json:"killedCount"`
	NumCorps      int `bson:"numCorps" json:"numCorps"`
	NumAlliances  int `bson:"numAlliances" json:"numAlliances"`
}

// KillSummary is the slimmed kill shape carried inside session snapshots.
// Full killmails would blow up the broadcast payload, so only the fields the
// activity view renders survive.
type KillSummary struct {
	KillID         int64                      `bson:"killID" json:"killID"`
	ZKB            KillSummaryZKB             `bson:"zkb" json:"zkb"`
	Killmail       KillSummaryBody            `bson:"killmail" json:"killmail"`
	ShipCategories *killmodels.ShipCategories `bson:"shipCategories,omitempty" json:"shipCategories,omitempty"`
}

// KillSummaryZKB carries the zKillboard fields the frontend uses.
type KillSummaryZKB struct {
	TotalValue float64  `bson:"totalValue" json:"totalValue"`
	Labels     []string `bson:"labels" json:"labels"`
}

// KillSummaryBody is the trimmed ESI body of a summarized kill.
type KillSummaryBody struct {
	KillmailTime  time.Time         `bson:"killmail_time" json:"killmail_time"`
	SolarSystemID int64             `bson:"solar_system_id" json:"solar_system_id"`
	Victim        KillSummaryVictim `bson:"victim" json:"victim"`
}

// KillSummaryVictim identifies the destroyed ship and pilot.
type KillSummaryVictim struct {
	ShipTypeID  int64  `bson:"ship_type_id" json:"ship_type_id"`
	CharacterID *int64 `bson:"character_id,omitempty" json:"character_id,omitempty"`
}

// SessionSnapshot is the wire form of a Session: sets flattened to arrays,
// times as epoch ms, kills slimmed. This exact shape is broadcast to
// WebSocket subscribers and returned by /api/activities, and it is the
// details blob stored with archived camps.
type SessionSnapshot struct {
	ID             string            `bson:"id" json:"id"`
	Type           string            `bson:"type" json:"type"`
	Classification string            `bson:"classification" json:"classification"`
	SystemID       int64             `bson:"systemId" json:"systemId"`
	StargateName   string            `bson:"stargateName,omitempty" json:"stargateName,omitempty"`
	Kills          []KillSummary     `bson:"kills" json:"kills"`
	TotalValue     float64           `bson:"totalValue" json:"totalValue"`
	LastKill       int64             `bson:"lastKill" json:"lastKill"`
	FirstKillTime  int64             `bson:"firstKillTime" json:"firstKillTime"`
	LastActivity   int64             `bson:"lastActivity" json:"lastActivity"`
	StartTime      int64             `bson:"startTime" json:"startTime"`
	Composition    CompositionCounts `bson:"composition" json:"composition"`
	Metrics        Metrics           `bson:"metrics" json:"metrics"`
	Probability    int               `bson:"probability" json:"probability"`
	MaxProbability int               `bson:"maxProbability" json:"maxProbability"`
	ProbabilityLog []string          `bson:"probabilityLog" json:"probabilityLog"`
	VisitedSystems []int64           `bson:"visitedSystems" json:"visitedSystems"`
	SystemsVisited int               `bson:"systemsVisited" json:"systemsVisited"`
	Members        []int64           `bson:"members" json:"members"`
	Systems        []PathEntry       `bson:"systems" json:"systems"`
	LastSystem     SystemRef         `bson:"lastSystem" json:"lastSystem"`
}

// Snapshot flattens the session into its wire form. The caller must hold the
// store mutex; the result shares nothing with the live session.
func (s *Session) Snapshot() SessionSnapshot {
	kills := make([]KillSummary, 0, len(s.Kills))
	for _, km := range s.Kills {
		kills = append(kills, summarizeKill(km))
	}

	path := make([]PathEntry, len(s.Path))
	copy(path, s.Path)

	logCopy := make([]string, len(s.ProbabilityLog))
	copy(logCopy, s.ProbabilityLog)

	return SessionSnapshot{
		ID:             s.ID,
		Type:           s.Type,
		Classification: s.Classification,
		SystemID:       s.SystemID,
		StargateName:   s.StargateName,
		Kills:          kills,
		TotalValue:     s.TotalValue,
		LastKill:       toMillis(s.LastKillTime),
		FirstKillTime:  toMillis(s.FirstKillTime),
		LastActivity:   toMillis(s.LastActivity),
		StartTime:      toMillis(s.StartTime),
		Composition: CompositionCounts{
			OriginalCount: s.Composition.OriginalAttackers.Len(),
			ActiveCount:   s.Composition.ActiveAttackers.Len(),
			KilledCount:   s.Composition.KilledAttackers.Len(),
			NumCorps:      len(s.Composition.InvolvedCorporations),
			NumAlliances:  len(s.Composition.InvolvedAlliances),
		},
		Metrics:        s.Metrics.clone(),
		Probability:    s.Probability,
		MaxProbability: s.MaxProbability,
		ProbabilityLog: logCopy,
		VisitedSystems: s.VisitedSystems.Values(),
		SystemsVisited: s.VisitedSystems.Len(),
		Members:        s.Members.Values(),
		Systems:        path,
		LastSystem:     s.LastSystem,
	}
}

func (m Metrics) clone() Metrics {
	out := m
	out.ShipCounts = make(map[int64]int, len(m.ShipCounts))
	for k, v := range m.ShipCounts {
		out.ShipCounts[k] = v
	}
	return out
}

func summarizeKill(km *killmodels.Killmail) KillSummary {
	labels := km.ZKB.Labels
	if labels == nil {
		labels = []string{}
	}
	return KillSummary{
		KillID: km.KillID,
		ZKB: KillSummaryZKB{
			TotalValue: km.ZKB.TotalValue,
			Labels:     labels,
		},
		Killmail: KillSummaryBody{
			KillmailTime:  km.Killmail.KillmailTime,
			SolarSystemID: km.Killmail.SolarSystemID,
			Victim: KillSummaryVictim{
				ShipTypeID:  km.Killmail.Victim.ShipTypeID,
				CharacterID: km.Killmail.Victim.CharacterID,
			},
		},
		ShipCategories: km.ShipCategories,
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// ExpiredCamp is the durable record of a camp that ran its course, keyed by
// the session id. Inserts are $setOnInsert upserts, so replaying an expiry
// is a no-op.
type ExpiredCamp struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CampUniqueID   string             `bson:"camp_unique_id" json:"campUniqueId"`
	SystemID       int64              `bson:"system_id" json:"systemId"`
	StargateName   string             `bson:"stargate_name" json:"stargateName"`
	MaxProbability int                `bson:"max_probability" json:"maxProbability"`
	FirstKillTime  time.Time          `bson:"first_kill_time" json:"firstKillTime"`
	LastKillTime   time.Time          `bson:"last_kill_time" json:"lastKillTime"`
	EndTime        time.Time          `bson:"end_time" json:"endTime"`
	TotalValue     float64            `bson:"total_value" json:"totalValue"`
	Type           string             `bson:"type" json:"type"` // seed kind
	KillCount      int                `bson:"kill_count" json:"killCount"`
	Details        SessionSnapshot    `bson:"details" json:"details"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

// ShipCompEntry is one ship type's share of a session's composition.
type ShipCompEntry struct {
	Name     string `bson:"name" json:"name"`
	Category string `bson:"category" json:"category"`
	Count    int    `bson:"count" json:"count"`
}

// SessionRecord is the timeline row written for every expired session,
// whatever its classification. It carries enough summary columns for the
// timeline and regional history views without rehydrating kill data.
type SessionRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID      string             `bson:"session_id" json:"sessionId"`
	Classification string             `bson:"classification" json:"classification"`
	Confidence     float64            `bson:"confidence" json:"confidence"`

	StartSystemID   int64       `bson:"start_system_id" json:"startSystemId"`
	StartSystemName string      `bson:"start_system_name" json:"startSystemName"`
	StartRegion     string      `bson:"start_region" json:"startRegion"`
	EndSystemID     int64       `bson:"end_system_id" json:"endSystemId"`
	EndSystemName   string      `bson:"end_system_name" json:"endSystemName"`
	EndRegion       string      `bson:"end_region" json:"endRegion"`
	SystemsVisited  int         `bson:"systems_visited" json:"systemsVisited"`
	SystemPath      []PathEntry `bson:"system_path" json:"systemPath"`

	StartTime       time.Time `bson:"start_time" json:"startTime"`
	EndTime         time.Time `bson:"end_time" json:"endTime"`
	DurationMinutes float64   `bson:"duration_minutes" json:"durationMinutes"`
	DayOfWeek       int       `bson:"day_of_week" json:"dayOfWeek"` // 0 = Monday
	HourOfDay       int       `bson:"hour_of_day" json:"hourOfDay"`

	KillCount       int     `bson:"kill_count" json:"killCount"`
	PodKills        int     `bson:"pod_kills" json:"podKills"`
	TotalValue      float64 `bson:"total_value" json:"totalValue"`
	AvgValuePerKill float64 `bson:"avg_value_per_kill" json:"avgValuePerKill"`
	MaxProbability  int     `bson:"max_probability" json:"maxProbability"`

	MemberIDs     []int64 `bson:"member_ids" json:"memberIds"`
	MemberCount   int     `bson:"member_count" json:"memberCount"`
	CorpIDs       []int64 `bson:"corp_ids" json:"corpIds"`
	CorpCount     int     `bson:"corp_count" json:"corpCount"`
	AllianceIDs   []int64 `bson:"alliance_ids" json:"allianceIds"`
	AllianceCount int     `bson:"alliance_count" json:"allianceCount"`

	ShipComposition map[string]ShipCompEntry `bson:"ship_composition" json:"shipComposition"`
	VictimTypes     map[string]ShipCompEntry `bson:"victim_types" json:"victimTypes"`

	StargateName string  `bson:"stargate_name,omitempty" json:"stargateName,omitempty"`
	KillIDs      []int64 `bson:"kill_ids" json:"killIds"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
