package services

import (
	"testing"
	"time"

	killmodels "go-gatewatch/internal/killmails/models"
)

func TestComputeMetricsEmpty(t *testing.T) {
	now := baseTime
	m := computeMetrics(nil, now)
	if m.FirstSeen != now.UnixMilli() {
		t.Errorf("first seen = %d, want now", m.FirstSeen)
	}
	if m.ShipCounts == nil || len(m.ShipCounts) != 0 {
		t.Errorf("ship counts = %v, want empty map", m.ShipCounts)
	}
	if m.CampDuration != 0 || m.PodKills != 0 {
		t.Errorf("empty metrics carry data: %+v", m)
	}
}

func TestComputeMetricsIgnoresZeroTimes(t *testing.T) {
	km := testKill(1, time.Time{}, 30000001, withAttackers(1001))
	m := computeMetrics([]*killmodels.Killmail{km}, baseTime)
	if m.FirstSeen != baseTime.UnixMilli() {
		t.Errorf("kills without timestamps should fall back to now, got %d", m.FirstSeen)
	}
}

func TestComputeMetrics(t *testing.T) {
	first := baseTime
	second := baseTime.Add(10 * time.Minute)
	now := second.Add(5 * time.Minute)

	kills := []*killmodels.Killmail{
		testKill(1, first, 30000001, func(km *killmodels.Killmail) {
			km.Killmail.Attackers = []killmodels.Attacker{
				{CharacterID: ptr(int64(1001)), CorporationID: ptr(int64(111)), AllianceID: ptr(int64(900)), ShipTypeID: ptr(int64(22456))},
				{CharacterID: ptr(int64(1002)), CorporationID: ptr(int64(111)), ShipTypeID: ptr(int64(587))},
			}
		}),
		testKill(2, second, 30000001,
			withAttackers(1001),
			withVictimShip(CapsuleShipTypeID)),
	}

	m := computeMetrics(kills, now)

	if m.FirstSeen != first.UnixMilli() {
		t.Errorf("first seen = %d, want the earliest kill", m.FirstSeen)
	}
	if m.CampDuration != 15 {
		t.Errorf("camp duration = %d minutes, want 15", m.CampDuration)
	}
	if m.ActiveDuration != 10 {
		t.Errorf("active duration = %d minutes, want 10", m.ActiveDuration)
	}
	if m.InactivityDuration != 5 {
		t.Errorf("inactivity = %d minutes, want 5", m.InactivityDuration)
	}
	if m.PodKills != 1 {
		t.Errorf("pod kills = %d, want 1", m.PodKills)
	}
	if m.KillFrequency != 0.2 {
		t.Errorf("kill frequency = %f, want 0.2 kills/min", m.KillFrequency)
	}
	if m.AvgValuePerKill != 10_000_000 {
		t.Errorf("avg value = %f", m.AvgValuePerKill)
	}

	if m.ShipCounts[22456] != 1 || m.ShipCounts[587] != 2 {
		t.Errorf("ship counts = %v", m.ShipCounts)
	}

	// 1001, 1002 and the two victims.
	if m.PartyMetrics.Characters != 4 {
		t.Errorf("characters = %d, want 4", m.PartyMetrics.Characters)
	}
	// 111 from kill one, 98000100 from kill two, plus two victim corps.
	if m.PartyMetrics.Corporations != 4 {
		t.Errorf("corporations = %d, want 4", m.PartyMetrics.Corporations)
	}
	if m.PartyMetrics.Alliances != 1 {
		t.Errorf("alliances = %d, want 1", m.PartyMetrics.Alliances)
	}
}

func TestComputeMetricsActiveDurationFloor(t *testing.T) {
	kills := []*killmodels.Killmail{
		testKill(1, baseTime, 30000001, withAttackers(1001)),
		testKill(2, baseTime.Add(20*time.Second), 30000001, withAttackers(1001)),
	}
	m := computeMetrics(kills, baseTime.Add(time.Minute))
	if m.ActiveDuration != 1 {
		t.Errorf("active duration = %d, want floor of 1 minute", m.ActiveDuration)
	}
	if m.KillFrequency != 2 {
		t.Errorf("kill frequency = %f, want 2", m.KillFrequency)
	}
}
