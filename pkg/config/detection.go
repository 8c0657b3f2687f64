package config

import "time"

// Detection holds the camp-detection tunables. Loaded once at startup and
// shared read-only by the activity engine and the sweep task.
type Detection struct {
	// CampTimeout is the idle timeout for camp-family sessions
	// (camp, solo_camp, smartbomb, roaming_camp, battle).
	CampTimeout time.Duration

	// RoamTimeout is the idle timeout for everything else.
	RoamTimeout time.Duration

	// DecayStart is how long a session may sit idle before its
	// probability starts decaying.
	DecayStart time.Duration

	// DecayRatePerMin is the linear decay fraction applied per minute
	// past DecayStart.
	DecayRatePerMin float64

	// UpdateInterval is the sweep cadence for recompute/expire/broadcast.
	UpdateInterval time.Duration

	// MaxKillAge is the ingest freshness gate; older kills are dropped.
	MaxKillAge time.Duration

	// KillRetention bounds how long stored kills are kept.
	KillRetention time.Duration
}

// NewDetection loads detection tunables from the environment.
func NewDetection() *Detection {
	return &Detection{
		CampTimeout:     time.Duration(GetIntEnv("CAMP_TIMEOUT_MIN", 40)) * time.Minute,
		RoamTimeout:     time.Duration(GetIntEnv("ROAM_TIMEOUT_MIN", 25)) * time.Minute,
		DecayStart:      time.Duration(GetIntEnv("DECAY_START_MIN", 5)) * time.Minute,
		DecayRatePerMin: GetFloatEnv("DECAY_RATE_PER_MIN", 0.10),
		UpdateInterval:  time.Duration(GetIntEnv("UPDATE_INTERVAL_MS", 30000)) * time.Millisecond,
		MaxKillAge:      time.Duration(GetIntEnv("ZKB_MAX_KILL_AGE_HOURS", 6)) * time.Hour,
		KillRetention:   time.Duration(GetIntEnv("KILL_RETENTION_DAYS", 7)) * 24 * time.Hour,
	}
}
