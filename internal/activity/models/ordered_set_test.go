package models

import (
	"testing"
	"time"

	killmodels "go-gatewatch/internal/killmails/models"
)

func TestOrderedSetAdd(t *testing.T) {
	s := NewOrderedSet[int64]()
	if !s.Add(3) || !s.Add(1) || !s.Add(2) {
		t.Fatal("first insert of each value must report true")
	}
	if s.Add(1) {
		t.Error("duplicate insert must report false")
	}
	if s.Len() != 3 {
		t.Errorf("len = %d, want 3", s.Len())
	}

	want := []int64{3, 1, 2}
	got := s.Values()
	for i, v := range want {
		if got[i] != v {
			t.Errorf("values[%d] = %d, want %d (insertion order)", i, got[i], v)
		}
	}
}

func TestOrderedSetRemove(t *testing.T) {
	s := NewOrderedSet[int64]()
	s.Add(1)
	s.Add(2)
	s.Add(3)

	if !s.Remove(2) {
		t.Error("removing a present value must report true")
	}
	if s.Remove(2) {
		t.Error("removing an absent value must report false")
	}
	if s.Contains(2) {
		t.Error("removed value still present")
	}

	got := s.Values()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("values after removal = %v, want [1 3]", got)
	}
}

func TestOrderedSetValuesIsACopy(t *testing.T) {
	s := NewOrderedSet[int64]()
	s.Add(1)
	s.Add(2)

	v := s.Values()
	v[0] = 99
	if s.Values()[0] != 1 {
		t.Error("mutating the returned slice must not touch the set")
	}
}

func TestOrderedSetContainsAny(t *testing.T) {
	s := NewOrderedSet[int64]()
	s.Add(10)
	s.Add(20)

	if !s.ContainsAny([]int64{5, 20}) {
		t.Error("ContainsAny should find 20")
	}
	if s.ContainsAny([]int64{5, 6}) {
		t.Error("ContainsAny with no overlap must be false")
	}
	if s.ContainsAny(nil) {
		t.Error("ContainsAny(nil) must be false")
	}
}

func TestSessionSnapshotFlattening(t *testing.T) {
	killTime := time.Date(2025, 8, 18, 19, 0, 0, 0, time.UTC)
	s := NewSession("30000001-Stargate (Test)", SeedCamp, 30000001, "Hek", "Metropolis", killTime)
	s.StargateName = "Stargate (Test)"
	s.Classification = ClassificationCamp
	s.Probability = 42
	s.MaxProbability = 67
	s.ProbabilityLog = []string{"final 42% (raw 0.42)"}
	s.TotalValue = 12_345
	s.LastKillTime = killTime

	victimChar := int64(90_000_001)
	s.Kills = append(s.Kills, &killmodels.Killmail{
		KillID: 7,
		ZKB:    killmodels.ZKBData{TotalValue: 12_345},
		Killmail: killmodels.ESIKillmail{
			KillmailTime:  killTime,
			SolarSystemID: 30000001,
			Victim:        killmodels.Victim{CharacterID: &victimChar, ShipTypeID: 587},
		},
	})
	s.Path = append(s.Path, PathEntry{ID: 30000001, Name: "Hek", Region: "Metropolis", Time: killTime.UnixMilli()})
	s.VisitedSystems.Add(30000001)
	s.Members.Add(1001)
	s.Members.Add(1002)
	s.Composition.OriginalAttackers.Add(1001)
	s.Composition.OriginalAttackers.Add(1002)
	s.Composition.ActiveAttackers.Add(1001)
	s.Composition.KilledAttackers.Add(1002)
	s.Composition.InvolvedCorporations = []int64{111, 222}
	s.Composition.InvolvedAlliances = []int64{900}

	snap := s.Snapshot()

	if snap.ID != s.ID || snap.Type != SeedCamp || snap.Classification != ClassificationCamp {
		t.Errorf("identity fields wrong: %+v", snap)
	}
	if snap.StargateName != "Stargate (Test)" {
		t.Errorf("stargate = %q", snap.StargateName)
	}
	if snap.LastKill != killTime.UnixMilli() || snap.FirstKillTime != killTime.UnixMilli() {
		t.Errorf("kill times not epoch ms: last=%d first=%d", snap.LastKill, snap.FirstKillTime)
	}
	if snap.Probability != 42 || snap.MaxProbability != 67 {
		t.Errorf("probability fields = %d/%d", snap.Probability, snap.MaxProbability)
	}

	if len(snap.Kills) != 1 {
		t.Fatalf("kills = %d, want 1", len(snap.Kills))
	}
	k := snap.Kills[0]
	if k.KillID != 7 || k.ZKB.TotalValue != 12_345 {
		t.Errorf("kill summary = %+v", k)
	}
	if k.ZKB.Labels == nil {
		t.Error("nil labels must marshal as an empty array, not null")
	}
	if k.Killmail.Victim.CharacterID == nil || *k.Killmail.Victim.CharacterID != victimChar {
		t.Error("victim character lost in summary")
	}

	comp := snap.Composition
	if comp.OriginalCount != 2 || comp.ActiveCount != 1 || comp.KilledCount != 1 {
		t.Errorf("composition counts = %+v", comp)
	}
	if comp.NumCorps != 2 || comp.NumAlliances != 1 {
		t.Errorf("corp/alliance counts = %+v", comp)
	}

	if snap.SystemsVisited != 1 || len(snap.VisitedSystems) != 1 {
		t.Errorf("visited systems = %v", snap.VisitedSystems)
	}
	if len(snap.Members) != 2 {
		t.Errorf("members = %v", snap.Members)
	}
	if len(snap.Systems) != 1 || snap.Systems[0].Name != "Hek" {
		t.Errorf("path = %v", snap.Systems)
	}

	// The snapshot must not alias live session state.
	snap.ProbabilityLog[0] = "mutated"
	if s.ProbabilityLog[0] != "final 42% (raw 0.42)" {
		t.Error("probability log aliased into the snapshot")
	}
	snap.Metrics.ShipCounts[999] = 5
	if _, ok := s.Metrics.ShipCounts[999]; ok {
		t.Error("ship counts aliased into the snapshot")
	}
}

func TestSnapshotZeroTimes(t *testing.T) {
	s := NewSession("x", SeedRoam, 1, "A", "R", time.Time{})
	snap := s.Snapshot()
	if snap.LastKill != 0 || snap.FirstKillTime != 0 || snap.LastActivity != 0 || snap.StartTime != 0 {
		t.Errorf("zero times must flatten to 0, got %+v", snap)
	}
}
