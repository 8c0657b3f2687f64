package models

// RegionLiveStats buckets the live sessions of one region by family.
type RegionLiveStats struct {
	Camps      int     `bson:"camps" json:"camps"`
	Roams      int     `bson:"roams" json:"roams"`
	Battles    int     `bson:"battles" json:"battles"`
	Other      int     `bson:"other" json:"other"`
	TotalValue float64 `bson:"totalValue" json:"totalValue"`
}

// RegionHistoryStats summarizes one region's archived sessions over a window.
type RegionHistoryStats struct {
	Sessions int64            `bson:"sessions" json:"sessions"`
	Kills    int64            `bson:"kills" json:"kills"`
	Value    float64          `bson:"value" json:"value"`
	ByType   map[string]int64 `bson:"byType" json:"byType"`
}

// SessionStats is the archive-wide summary over a time window.
type SessionStats struct {
	TotalSessions int64   `bson:"total_sessions" json:"total_sessions"`
	Camps         int64   `bson:"camps" json:"camps"`
	Smartbombs    int64   `bson:"smartbombs" json:"smartbombs"`
	Roams         int64   `bson:"roams" json:"roams"`
	Battles       int64   `bson:"battles" json:"battles"`
	RoamingCamps  int64   `bson:"roaming_camps" json:"roaming_camps"`
	TotalKills    int64   `bson:"total_kills" json:"total_kills"`
	TotalValue    float64 `bson:"total_value" json:"total_value"`
	AvgDuration   float64 `bson:"avg_duration" json:"avg_duration"`
	RegionsActive int     `bson:"regions_active" json:"regions_active"`
}
