package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go-gatewatch/internal/activity/models"
	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/sde"
)

// scoreSession computes the percent probability (0-100) that a session is an
// active gate camp, together with the human-readable trace of the
// computation. It updates s.MaxProbability with the rounded result before the
// minimum-threshold floor is applied; the caller stores the returned values.
//
// The path never fails: missing enrichment scores as zero weight.
func scoreSession(s *models.Session, now time.Time, det *config.Detection) (int, []string) {
	var trace []string

	scorable := make([]*killmodels.Killmail, 0, len(s.Kills))
	for _, km := range s.Kills {
		if scorableKill(km) {
			scorable = append(scorable, km)
		}
	}
	if len(scorable) == 0 {
		return 0, []string{"no scorable kills"}
	}

	relevant := scorable
	if s.StargateName != "" {
		var gateKills []*killmodels.Killmail
		for _, km := range scorable {
			if isGateKill(km) {
				gateKills = append(gateKills, km)
			}
		}
		if len(gateKills) == 0 {
			return 0, []string{"no gate kills at " + s.StargateName}
		}
		relevant = gateKills
	}

	var shipKills, podKills []*killmodels.Killmail
	for _, km := range relevant {
		if km.Killmail.Victim.ShipTypeID == CapsuleShipTypeID {
			podKills = append(podKills, km)
		} else {
			shipKills = append(shipKills, km)
		}
	}
	sort.SliceStable(shipKills, func(i, j int) bool {
		return shipKills[i].Time().Before(shipKills[j].Time())
	})
	if len(shipKills) == 0 && len(podKills) == 0 {
		return 0, []string{"no scorable kills"}
	}
	trace = append(trace, fmt.Sprintf("%d scorable kills: %d ship, %d pod", len(relevant), len(shipKills), len(podKills)))

	lastEvent := s.LastKillTime
	if lastEvent.IsZero() {
		lastEvent = s.LastActivity
	}
	if lastEvent.IsZero() {
		lastEvent = s.FirstKillTime
	}
	if lastEvent.IsZero() {
		lastEvent = now
	}
	minutesSince := now.Sub(lastEvent).Minutes()

	base := 0.0

	// Burst penalty: several rapid kills right after a session starts look
	// like a passing gang trading blows, not a settled camp.
	if len(shipKills) > 1 {
		campAge := now.Sub(s.FirstKillTime).Minutes()
		if campAge <= youngSessionMinutes && hasBurst(shipKills) {
			base -= burstPenalty
			trace = append(trace, fmt.Sprintf("burst penalty -%.2f: rapid kills in a young session", burstPenalty))
		}
	}

	// Threat ships across all attackers of all ship kills.
	threat := 0.0
	for _, km := range shipKills {
		for _, a := range km.Killmail.Attackers {
			if a.ShipTypeID != nil {
				threat += threatShips[*a.ShipTypeID]
			}
		}
	}
	if len(shipKills) > 0 {
		capped := math.Min(threatScoreCap, threat)
		base += capped
		if capped > 0 {
			trace = append(trace, fmt.Sprintf("threat ships +%.2f", capped))
		}
	}

	// Smartbomb bonus for flagged sessions, larger when a known smartbomb
	// hull or weapon shows up across the session's kills.
	if s.Smartbomb {
		bonus := smartbombBaseBonus
		if hasSmartbombEvidence(s.Kills) {
			if len(shipKills) > 1 {
				bonus += smartbombShipBonus
			} else {
				bonus += smartbombSoloBonus
			}
		}
		base += bonus
		trace = append(trace, fmt.Sprintf("smartbomb +%.2f", bonus))
	}

	// Known camping location.
	if s.StargateName != "" {
		if camp, ok := permanentCamps[s.SystemID]; ok {
			lowered := strings.ToLower(s.StargateName)
			for _, gate := range camp.Gates {
				if strings.Contains(lowered, strings.ToLower(gate)) {
					base += camp.Weight
					trace = append(trace, fmt.Sprintf("known camp location %s +%.2f", gate, camp.Weight))
					break
				}
			}
		}
	}

	// Vulnerable victims: industrials and miners die at camps, not in fleet
	// fights.
	vulnerable := 0
	for _, km := range shipKills {
		switch victimCategory(km) {
		case sde.CategoryIndustrial, sde.CategoryMining:
			vulnerable++
		}
	}
	if vulnerable > 0 {
		bonus := vulnerableSingle
		if vulnerable > 1 {
			bonus = vulnerableMultiple
		}
		base += bonus
		trace = append(trace, fmt.Sprintf("vulnerable victims +%.2f (%d industrial/mining)", bonus, vulnerable))
	}

	// Attacker consistency over the last three ship kills.
	if len(shipKills) >= 2 {
		check := shipKills
		if len(check) > 3 {
			check = check[len(check)-3:]
		}
		if sameVictimBurst(check) {
			trace = append(trace, "consistency skipped: same-victim burst")
		} else {
			latest := attackerCharacters(check[len(check)-1])
			consistency := 0.0
			for i := len(check) - 2; i >= 0; i-- {
				prev := attackerCharacters(check[i])
				overlap := 0
				for cid := range prev {
					if _, ok := latest[cid]; ok {
						overlap++
					}
				}
				minOverlap := len(prev) / 3
				if minOverlap < minConsistencyPilots {
					minOverlap = minConsistencyPilots
				}
				if overlap >= minOverlap && overlap >= minConsistencyPilots {
					consistency += consistencyBonus
				}
			}
			capped := math.Min(maxConsistencyBonus, consistency)
			base += capped
			if capped > 0 {
				trace = append(trace, fmt.Sprintf("attacker consistency +%.2f", capped))
			}
		}
	}

	// Widely spaced kills indicate sustained camping rather than one brawl.
	if len(shipKills) >= 2 {
		spaced := 0.0
		for i := 1; i < len(shipKills); i++ {
			gap := shipKills[i].Time().Sub(shipKills[i-1].Time())
			if gap.Milliseconds() > widelySpacedGapMs {
				spaced += widelySpacedBonus
			}
		}
		capped := math.Min(maxWidelySpacedBonus, spaced)
		base += capped
		if capped > 0 {
			trace = append(trace, fmt.Sprintf("widely spaced kills +%.2f", capped))
		}
	}

	// Pod kills: campers catch pods, roaming gangs rarely bother.
	if len(podKills) > 0 {
		bonus := math.Min(maxPodBonus, float64(len(podKills))*podBonusPerKill)
		base += bonus
		trace = append(trace, fmt.Sprintf("pod kills +%.2f (%d)", bonus, len(podKills)))
	}

	base = clampScore(base)

	decayStartMin := det.DecayStart.Minutes()
	if minutesSince > decayStartMin {
		decayPct := math.Min(1.0, (minutesSince-decayStartMin)*det.DecayRatePerMin)
		base *= 1 - decayPct
		trace = append(trace, fmt.Sprintf("decay x%.2f after %.1f min idle", 1-decayPct, minutesSince))
	}

	base = clampScore(base)
	pct := int(math.Round(base * 100))
	trace = append(trace, fmt.Sprintf("final %d%% (raw %.2f)", pct, base))

	if pct > s.MaxProbability {
		s.MaxProbability = pct
	}
	if pct < minProbThreshold {
		return 0, trace
	}
	return pct, trace
}

func clampScore(v float64) float64 {
	return math.Max(0.0, math.Min(overallProbCap, v))
}

// scorableKill applies the probability filter: friendly fire, NPC and
// structure victims, mobile tractor units, and kills with no player or
// faction actor on the attacker side do not count toward camp probability.
func scorableKill(km *killmodels.Killmail) bool {
	if km.ZKB.Awox {
		return false
	}
	v := km.Killmail.Victim
	if v.CorporationID != nil && v.CharacterID == nil {
		return false
	}
	for _, label := range km.ZKB.Labels {
		if label == "npc" {
			return false
		}
	}
	if victimCategory(km) == sde.CategoryStructure {
		return false
	}
	if v.ShipTypeID == MTUShipTypeID {
		return false
	}
	if len(km.Killmail.Attackers) > 0 {
		hasPlayer := false
		for _, a := range km.Killmail.Attackers {
			if a.CharacterID != nil || a.FactionID != nil {
				hasPlayer = true
				break
			}
		}
		if !hasPlayer {
			return false
		}
	}
	return true
}

// isGateKill reports whether the pinpoint puts the kill at a stargate close
// enough to count for camp detection.
func isGateKill(km *killmodels.Killmail) bool {
	pp := km.Pinpoints
	if pp == nil || pp.NearestCelestial == nil || pp.NearestCelestial.Name == "" {
		return false
	}
	if !strings.Contains(strings.ToLower(pp.NearestCelestial.Name), "stargate") {
		return false
	}
	return pp.AtCelestial ||
		pp.TriangulationType == killmodels.TriangulationDirectWarp ||
		pp.TriangulationType == killmodels.TriangulationNearCelestial
}

func victimCategory(km *killmodels.Killmail) string {
	if km.ShipCategories != nil && km.ShipCategories.Victim != nil {
		return km.ShipCategories.Victim.Category
	}
	return ""
}

// hasBurst reports whether any two consecutive kills (sorted by time) landed
// within the burst window.
func hasBurst(sorted []*killmodels.Killmail) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time().Sub(sorted[i-1].Time()).Milliseconds() < burstWindowMs {
			return true
		}
	}
	return false
}

// sameVictimBurst detects the one case the consistency stage must skip: the
// checked kills landed in a burst and all share one victim corp or alliance,
// which is a fleet welp, not evidence of repeat campers.
func sameVictimBurst(check []*killmodels.Killmail) bool {
	if !hasBurst(check) {
		return false
	}
	var corps, alliances []int64
	for _, km := range check {
		if km.Killmail.Victim.CorporationID != nil {
			corps = append(corps, *km.Killmail.Victim.CorporationID)
		}
		if km.Killmail.Victim.AllianceID != nil {
			alliances = append(alliances, *km.Killmail.Victim.AllianceID)
		}
	}
	return (len(corps) == len(check) && allSame(corps)) ||
		(len(alliances) == len(check) && allSame(alliances))
}

func allSame(ids []int64) bool {
	for _, id := range ids[1:] {
		if id != ids[0] {
			return false
		}
	}
	return true
}

func attackerCharacters(km *killmodels.Killmail) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, a := range km.Killmail.Attackers {
		if a.CharacterID != nil {
			out[*a.CharacterID] = struct{}{}
		}
	}
	return out
}

// killHasSmartbombWeapon reports whether any attacker used an exact-match
// smartbomb weapon on this kill.
func killHasSmartbombWeapon(km *killmodels.Killmail) bool {
	for _, a := range km.Killmail.Attackers {
		if a.WeaponTypeID != nil && smartbombWeapons[*a.WeaponTypeID] {
			return true
		}
	}
	return false
}

// hasSmartbombEvidence scans all kills for smartbomb hulls or weapons on the
// attacker side.
func hasSmartbombEvidence(kills []*killmodels.Killmail) bool {
	for _, km := range kills {
		for _, a := range km.Killmail.Attackers {
			if a.ShipTypeID != nil && smartbombShips[*a.ShipTypeID] {
				return true
			}
			if a.WeaponTypeID != nil && smartbombWeapons[*a.WeaponTypeID] {
				return true
			}
		}
	}
	return false
}
