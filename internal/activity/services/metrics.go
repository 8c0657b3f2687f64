package services

import (
	"time"

	"go-gatewatch/internal/activity/models"
	killmodels "go-gatewatch/internal/killmails/models"
)

// computeMetrics derives the timing and party statistics for a session's
// kills. Durations are whole minutes relative to now.
func computeMetrics(kills []*killmodels.Killmail, now time.Time) models.Metrics {
	empty := models.Metrics{
		FirstSeen:  now.UnixMilli(),
		ShipCounts: map[int64]int{},
	}
	if len(kills) == 0 {
		return empty
	}

	var times []int64
	for _, k := range kills {
		if t := k.Time(); !t.IsZero() {
			times = append(times, t.UnixMilli())
		}
	}
	if len(times) == 0 {
		return empty
	}

	earliest, latest := times[0], times[0]
	for _, t := range times[1:] {
		if t < earliest {
			earliest = t
		}
		if t > latest {
			latest = t
		}
	}

	nowMs := now.UnixMilli()
	totalDur := (nowMs - earliest) / 60_000
	var activeDur int64
	if latest > earliest {
		activeDur = (latest - earliest) / 60_000
		if activeDur < 1 {
			activeDur = 1
		}
	}
	inactivity := (nowMs - latest) / 60_000

	chars := map[int64]struct{}{}
	corps := map[int64]struct{}{}
	alliances := map[int64]struct{}{}
	shipCounts := map[int64]int{}
	var totalValue float64
	podCount := 0

	for _, k := range kills {
		for _, a := range k.Killmail.Attackers {
			if a.CharacterID != nil {
				chars[*a.CharacterID] = struct{}{}
			}
			if a.CorporationID != nil {
				corps[*a.CorporationID] = struct{}{}
			}
			if a.AllianceID != nil {
				alliances[*a.AllianceID] = struct{}{}
			}
			if a.ShipTypeID != nil {
				shipCounts[*a.ShipTypeID]++
			}
		}
		v := k.Killmail.Victim
		if v.CharacterID != nil {
			chars[*v.CharacterID] = struct{}{}
		}
		if v.CorporationID != nil {
			corps[*v.CorporationID] = struct{}{}
		}
		if v.AllianceID != nil {
			alliances[*v.AllianceID] = struct{}{}
		}
		totalValue += k.ZKB.TotalValue
		if v.ShipTypeID == CapsuleShipTypeID {
			podCount++
		}
	}

	var killFrequency float64
	if activeDur > 0 {
		killFrequency = float64(len(kills)) / float64(activeDur)
	}

	return models.Metrics{
		FirstSeen:          earliest,
		CampDuration:       totalDur,
		ActiveDuration:     activeDur,
		InactivityDuration: inactivity,
		PodKills:           podCount,
		KillFrequency:      killFrequency,
		AvgValuePerKill:    totalValue / float64(len(kills)),
		ShipCounts:         shipCounts,
		PartyMetrics: models.PartyMetrics{
			Characters:   len(chars),
			Corporations: len(corps),
			Alliances:    len(alliances),
		},
	}
}
