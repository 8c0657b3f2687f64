package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-gatewatch/internal/activity/models"
	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/config"
)

// Broadcaster receives the full live snapshot whenever the session set
// changes. The websocket hub implements this.
type Broadcaster interface {
	BroadcastActivityUpdate(sessions []models.SessionSnapshot)
}

// Engine groups enriched killmails into sessions. A kill lands in at most
// one new session per call, but may extend several existing ones: a gate
// kill always feeds its camp, and any kill with two or more attackers can
// also extend a roam those attackers already belong to.
type Engine struct {
	store       *Store
	detection   *config.Detection
	broadcaster Broadcaster
}

// NewEngine creates the grouping engine on top of the shared store.
func NewEngine(store *Store, detection *config.Detection) *Engine {
	return &Engine{
		store:     store,
		detection: detection,
	}
}

// SetBroadcaster wires the fan-out sink. Must be called before traffic.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// ProcessKillmail routes one enriched killmail into the session set and
// rescores everything it touched. Kills that match no session and cannot
// seed one are dropped without error.
func (e *Engine) ProcessKillmail(ctx context.Context, km *killmodels.Killmail) error {
	if km == nil {
		return nil
	}
	now := time.Now().UTC()
	killTime := km.Time()
	if killTime.IsZero() {
		killTime = now
	}

	systemID := km.SystemID()
	systemName := strconv.FormatInt(systemID, 10)
	regionName := ""
	stargateName := ""
	if pp := km.Pinpoints; pp != nil {
		if cd := pp.CelestialData; cd != nil {
			if cd.SolarSystemName != "" {
				systemName = cd.SolarSystemName
			}
			regionName = cd.RegionName
		}
		if pp.NearestCelestial != nil {
			stargateName = pp.NearestCelestial.Name
		}
	}

	// Camp identity is the gate itself: kills on the same stargate in the
	// same system always collapse into one session.
	campID := ""
	if stargateName != "" && strings.Contains(strings.ToLower(stargateName), "stargate") && isGateKill(km) {
		campID = fmt.Sprintf("%d-%s", systemID, stargateName)
	}

	attackerIDs := attackerPilots(km)

	st := e.store
	st.mu.Lock()

	touched := false
	campUpdated := false

	if campID != "" {
		s := st.sessions[campID]
		if s == nil {
			s = models.NewSession(campID, models.SeedCamp, systemID, systemName, regionName, killTime)
			s.StargateName = stargateName
			st.sessions[campID] = s
			slog.Info("New camp session",
				"session_id", campID,
				"system", systemName,
				"kill_id", km.KillID)
		}
		e.appendKillLocked(s, km, killTime, systemID, systemName, regionName, attackerIDs, now)
		touched = true
		campUpdated = true
	}

	if len(attackerIDs) >= 2 {
		match := st.matchSessionLocked(campID, attackerIDs)
		if match != nil {
			e.appendKillLocked(match, km, killTime, systemID, systemName, regionName, attackerIDs, now)
			touched = true
		} else if !campUpdated {
			// Only open a roam when the kill did not already land in a
			// camp, otherwise every camp kill would spawn a shadow roam.
			id := newRoamID(now)
			s := models.NewSession(id, models.SeedRoam, systemID, systemName, regionName, killTime)
			st.sessions[id] = s
			e.appendKillLocked(s, km, killTime, systemID, systemName, regionName, attackerIDs, now)
			touched = true
			slog.Info("New roam session",
				"session_id", id,
				"system", systemName,
				"attackers", len(attackerIDs),
				"kill_id", km.KillID)
		}
	}

	var snapshot []models.SessionSnapshot
	if touched {
		snapshot = st.snapshotLocked(now)
	}
	st.mu.Unlock()

	if touched && e.broadcaster != nil {
		e.broadcaster.BroadcastActivityUpdate(snapshot)
	}
	return nil
}

// matchSessionLocked finds the existing session sharing at least one pilot
// with the kill, preferring the most recently active one. The camp the kill
// already landed in is excluded so the same kill is not counted twice.
func (st *Store) matchSessionLocked(excludeID string, attackerIDs []int64) *models.Session {
	var match *models.Session
	for id, s := range st.sessions {
		if id == excludeID {
			continue
		}
		if !s.Members.ContainsAny(attackerIDs) {
			continue
		}
		if match == nil {
			match = s
			continue
		}
		if s.LastActivity.After(match.LastActivity) {
			match = s
		} else if s.LastActivity.Equal(match.LastActivity) && s.ID < match.ID {
			match = s
		}
	}
	return match
}

// appendKillLocked adds a kill to a session and recomputes everything
// derived from the kill list. Duplicate kill IDs are dropped.
func (e *Engine) appendKillLocked(s *models.Session, km *killmodels.Killmail, killTime time.Time, systemID int64, systemName, regionName string, attackerIDs []int64, now time.Time) {
	for _, existing := range s.Kills {
		if existing.KillID == km.KillID {
			return
		}
	}

	s.Kills = append(s.Kills, km)
	s.TotalValue += km.ZKB.TotalValue
	s.LastKillTime = killTime
	s.LastActivity = killTime

	if n := len(s.Path); n == 0 || s.Path[n-1].ID != systemID {
		s.Path = append(s.Path, models.PathEntry{
			ID:     systemID,
			Name:   systemName,
			Region: regionName,
			Time:   killTime.UnixMilli(),
		})
	}
	s.VisitedSystems.Add(systemID)
	s.LastSystem = models.SystemRef{ID: systemID, Name: systemName, Region: regionName}

	for _, cid := range attackerIDs {
		s.Members.Add(cid)
	}
	updateComposition(s, km)

	if killHasSmartbombWeapon(km) {
		s.Smartbomb = true
	}

	s.Metrics = computeMetrics(s.Kills, now)
	prob, trace := scoreSession(s, now, e.detection)
	s.Probability = prob
	s.ProbabilityLog = trace
	s.Classification = classifySession(s)
}

// updateComposition folds one kill's participants into the session roster.
// Attackers join the active set unless they were already killed earlier in
// the session; a victim who was an active attacker moves to the killed set.
func updateComposition(s *models.Session, km *killmodels.Killmail) {
	comp := &s.Composition
	for _, a := range km.Killmail.Attackers {
		if a.CharacterID == nil {
			continue
		}
		cid := *a.CharacterID
		s.Members.Add(cid)
		comp.OriginalAttackers.Add(cid)
		if !comp.KilledAttackers.Contains(cid) {
			comp.ActiveAttackers.Add(cid)
		}
		if a.CorporationID != nil {
			comp.InvolvedCorporations = appendUniqueID(comp.InvolvedCorporations, *a.CorporationID)
		}
		if a.AllianceID != nil {
			comp.InvolvedAlliances = appendUniqueID(comp.InvolvedAlliances, *a.AllianceID)
		}
	}

	v := km.Killmail.Victim
	if v.CharacterID != nil {
		cid := *v.CharacterID
		s.Members.Add(cid)
		if comp.ActiveAttackers.Contains(cid) {
			comp.ActiveAttackers.Remove(cid)
			comp.KilledAttackers.Add(cid)
		}
		if v.CorporationID != nil {
			comp.InvolvedCorporations = appendUniqueID(comp.InvolvedCorporations, *v.CorporationID)
		}
		if v.AllianceID != nil {
			comp.InvolvedAlliances = appendUniqueID(comp.InvolvedAlliances, *v.AllianceID)
		}
	}
}

// attackerPilots returns the distinct attacker character IDs, ignoring
// attackers sitting in capsules. Pods on the mail are leftovers from an
// earlier loss, not the hunting party.
func attackerPilots(km *killmodels.Killmail) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, a := range km.Killmail.Attackers {
		if a.CharacterID == nil {
			continue
		}
		if a.ShipTypeID != nil && *a.ShipTypeID == CapsuleShipTypeID {
			continue
		}
		cid := *a.CharacterID
		if seen[cid] {
			continue
		}
		seen[cid] = true
		out = append(out, cid)
	}
	return out
}

func appendUniqueID(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func newRoamID(now time.Time) string {
	return fmt.Sprintf("roam-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
