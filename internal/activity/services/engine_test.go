package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-gatewatch/internal/activity/models"
	killmodels "go-gatewatch/internal/killmails/models"
)

func TestEngineSeedsCampFromGateKill(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	kill := testKill(1, baseTime, 30002813,
		withAttackers(1001, 1002),
		withGatePinpoint("Stargate (Nourvukaiken)", "Tama", "Black Rise"))
	if err := e.ProcessKillmail(context.Background(), kill); err != nil {
		t.Fatalf("ProcessKillmail failed: %v", err)
	}

	s, ok := st.sessions["30002813-Stargate (Nourvukaiken)"]
	if !ok {
		t.Fatalf("camp session keyed by system and gate missing, have %v", sessionIDs(st))
	}
	if s.Type != models.SeedCamp {
		t.Errorf("seed kind = %s, want %s", s.Type, models.SeedCamp)
	}
	if s.StargateName != "Stargate (Nourvukaiken)" {
		t.Errorf("stargate name = %q", s.StargateName)
	}
	if len(st.sessions) != 1 {
		t.Errorf("gate kill must not open a shadow roam, have %d sessions", len(st.sessions))
	}

	// Replaying the same kill is a no-op for the kill list and value.
	if err := e.ProcessKillmail(context.Background(), kill); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(s.Kills) != 1 {
		t.Errorf("duplicate kill appended, have %d kills", len(s.Kills))
	}
	if s.TotalValue != 10_000_000 {
		t.Errorf("duplicate kill double-counted value: %f", s.TotalValue)
	}
}

func TestEngineSeedsRoamAndFollowsMovement(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	kills := []*killmodels.Killmail{
		testKill(1, baseTime, 30000001, withAttackers(1001, 1002), withCelestialData("Hek", "Metropolis")),
		testKill(2, baseTime.Add(5*time.Minute), 30000002, withAttackers(1001, 1002), withCelestialData("Uttindar", "Metropolis")),
		testKill(3, baseTime.Add(9*time.Minute), 30000002, withAttackers(1001, 1002), withCelestialData("Uttindar", "Metropolis")),
	}
	for _, km := range kills {
		if err := e.ProcessKillmail(context.Background(), km); err != nil {
			t.Fatalf("ProcessKillmail(%d) failed: %v", km.KillID, err)
		}
	}

	s := singleSession(t, st)
	if !strings.HasPrefix(s.ID, "roam-") {
		t.Errorf("roam id = %q", s.ID)
	}
	if s.Type != models.SeedRoam {
		t.Errorf("seed kind = %s, want %s", s.Type, models.SeedRoam)
	}
	if got := s.VisitedSystems.Len(); got != 2 {
		t.Errorf("visited systems = %d, want 2", got)
	}
	// The path records hops, not kills: a second kill in the same system
	// must not add an entry.
	if got := len(s.Path); got != 2 {
		t.Errorf("path length = %d, want 2", got)
	}
	if s.LastSystem.Name != "Uttindar" {
		t.Errorf("last system = %q", s.LastSystem.Name)
	}
	if len(s.Kills) != 3 {
		t.Errorf("kills = %d, want 3", len(s.Kills))
	}
}

func TestEngineDropsSoloOffGateKill(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	kill := testKill(1, baseTime, 30000001, withAttackers(1001))
	if err := e.ProcessKillmail(context.Background(), kill); err != nil {
		t.Fatalf("ProcessKillmail failed: %v", err)
	}
	if len(st.sessions) != 0 {
		t.Errorf("single-attacker kill away from a gate should group nothing, have %v", sessionIDs(st))
	}
}

func TestEngineGateKillAlsoExtendsRoam(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	roamKill := testKill(1, baseTime, 30000001, withAttackers(1001, 1002))
	if err := e.ProcessKillmail(context.Background(), roamKill); err != nil {
		t.Fatalf("roam kill failed: %v", err)
	}

	gateKill := testKill(2, baseTime.Add(10*time.Minute), 30002813,
		withAttackers(1001, 1002),
		withGatePinpoint("Stargate (Nourvukaiken)", "Tama", "Black Rise"))
	if err := e.ProcessKillmail(context.Background(), gateKill); err != nil {
		t.Fatalf("gate kill failed: %v", err)
	}

	if len(st.sessions) != 2 {
		t.Fatalf("expected camp plus roam, have %v", sessionIDs(st))
	}
	camp := st.sessions["30002813-Stargate (Nourvukaiken)"]
	if camp == nil {
		t.Fatalf("camp session missing, have %v", sessionIDs(st))
	}
	if len(camp.Kills) != 1 {
		t.Errorf("camp kills = %d, want 1", len(camp.Kills))
	}
	for id, s := range st.sessions {
		if id == camp.ID {
			continue
		}
		// The same gang's roam keeps following them through the camp.
		if len(s.Kills) != 2 {
			t.Errorf("roam kills = %d, want 2", len(s.Kills))
		}
		if got := s.VisitedSystems.Len(); got != 2 {
			t.Errorf("roam visited systems = %d, want 2", got)
		}
	}
}

func TestEngineDemotesKilledAttacker(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	kills := []*killmodels.Killmail{
		testKill(1, baseTime, 30000001, withAttackers(1001, 1002)),
		// 1001 loses a ship to their own gang-mates' targets.
		testKill(2, baseTime.Add(5*time.Minute), 30000001, withAttackers(1002, 1003), func(km *killmodels.Killmail) {
			km.Killmail.Victim.CharacterID = ptr(int64(1001))
		}),
		// Even back on killmails, a killed attacker stays killed.
		testKill(3, baseTime.Add(10*time.Minute), 30000001, withAttackers(1001, 1003)),
	}
	for _, km := range kills {
		if err := e.ProcessKillmail(context.Background(), km); err != nil {
			t.Fatalf("ProcessKillmail(%d) failed: %v", km.KillID, err)
		}
	}

	s := singleSession(t, st)
	comp := s.Composition
	if got := comp.OriginalAttackers.Len(); got != 3 {
		t.Errorf("original attackers = %d, want 3", got)
	}
	if !comp.KilledAttackers.Contains(1001) {
		t.Error("victim 1001 should sit in the killed set")
	}
	if comp.ActiveAttackers.Contains(1001) {
		t.Error("killed attacker 1001 must not return to the active set")
	}
	if !comp.ActiveAttackers.Contains(1002) || !comp.ActiveAttackers.Contains(1003) {
		t.Errorf("active attackers = %v", comp.ActiveAttackers.Values())
	}
}

func TestEngineTracksInvolvedCorpsAndAlliances(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	kill := testKill(1, baseTime, 30000001, func(km *killmodels.Killmail) {
		km.Killmail.Attackers = []killmodels.Attacker{
			{CharacterID: ptr(int64(1001)), CorporationID: ptr(int64(111)), AllianceID: ptr(int64(900)), ShipTypeID: ptr(int64(587))},
			{CharacterID: ptr(int64(1002)), CorporationID: ptr(int64(222)), AllianceID: ptr(int64(900)), ShipTypeID: ptr(int64(587))},
		}
		km.Killmail.Victim.CorporationID = ptr(int64(333))
	})
	if err := e.ProcessKillmail(context.Background(), kill); err != nil {
		t.Fatalf("ProcessKillmail failed: %v", err)
	}

	s := singleSession(t, st)
	wantCorps := []int64{111, 222, 333}
	gotCorps := s.Composition.InvolvedCorporations
	if len(gotCorps) != len(wantCorps) {
		t.Fatalf("corps = %v, want %v", gotCorps, wantCorps)
	}
	for i, id := range wantCorps {
		if gotCorps[i] != id {
			t.Errorf("corps[%d] = %d, want %d (insertion order)", i, gotCorps[i], id)
		}
	}
	if len(s.Composition.InvolvedAlliances) != 1 || s.Composition.InvolvedAlliances[0] != 900 {
		t.Errorf("alliances = %v, want [900]", s.Composition.InvolvedAlliances)
	}
}

func TestEngineIgnoresPodSittersAsAttackers(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)

	// One real attacker plus one in a capsule: not enough pilots for a roam.
	kill := testKill(1, baseTime, 30000001, func(km *killmodels.Killmail) {
		km.Killmail.Attackers = []killmodels.Attacker{
			{CharacterID: ptr(int64(1001)), ShipTypeID: ptr(int64(587))},
			{CharacterID: ptr(int64(1002)), ShipTypeID: ptr(int64(CapsuleShipTypeID))},
		}
	})
	if err := e.ProcessKillmail(context.Background(), kill); err != nil {
		t.Fatalf("ProcessKillmail failed: %v", err)
	}
	if len(st.sessions) != 0 {
		t.Errorf("capsule attacker counted as a pilot, have %v", sessionIDs(st))
	}
}

func TestMatchSessionPrefersRecentActivity(t *testing.T) {
	det := testDetection()
	st := NewStore(det)

	older := models.NewSession("roam-1-aaaa", models.SeedRoam, 30000001, "Hek", "Metropolis", baseTime)
	older.Members.Add(1001)
	older.LastActivity = baseTime

	newer := models.NewSession("roam-2-bbbb", models.SeedRoam, 30000002, "Uttindar", "Metropolis", baseTime)
	newer.Members.Add(1001)
	newer.LastActivity = baseTime.Add(10 * time.Minute)

	st.sessions[older.ID] = older
	st.sessions[newer.ID] = newer

	if got := st.matchSessionLocked("", []int64{1001}); got != newer {
		t.Errorf("match = %s, want the more recent %s", got.ID, newer.ID)
	}

	// Ties break toward the smaller session id so matching is deterministic.
	newer.LastActivity = baseTime
	if got := st.matchSessionLocked("", []int64{1001}); got != older {
		t.Errorf("tie match = %s, want %s", got.ID, older.ID)
	}

	if got := st.matchSessionLocked(older.ID, []int64{1001}); got != newer {
		t.Errorf("excluded match = %s, want %s", got.ID, newer.ID)
	}

	if got := st.matchSessionLocked("", []int64{9999}); got != nil {
		t.Errorf("no shared pilot should match nothing, got %s", got.ID)
	}
}

// recordingBroadcaster captures every snapshot handed to the fan-out.
type recordingBroadcaster struct {
	calls [][]models.SessionSnapshot
}

func (b *recordingBroadcaster) BroadcastActivityUpdate(sessions []models.SessionSnapshot) {
	b.calls = append(b.calls, sessions)
}

func TestEngineBroadcastsOnChange(t *testing.T) {
	det := testDetection()
	st := NewStore(det)
	e := NewEngine(st, det)
	b := &recordingBroadcaster{}
	e.SetBroadcaster(b)

	// Recent kill times keep the session inside its timeout so the snapshot
	// carries it.
	killTime := time.Now().UTC().Add(-time.Minute)
	kill := testKill(1, killTime, 30002813,
		withAttackers(1001, 1002),
		withGatePinpoint("Stargate (Nourvukaiken)", "Tama", "Black Rise"))
	if err := e.ProcessKillmail(context.Background(), kill); err != nil {
		t.Fatalf("ProcessKillmail failed: %v", err)
	}
	if len(b.calls) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(b.calls))
	}
	if len(b.calls[0]) != 1 {
		t.Fatalf("snapshot sessions = %d, want 1", len(b.calls[0]))
	}
	if b.calls[0][0].ID != "30002813-Stargate (Nourvukaiken)" {
		t.Errorf("snapshot id = %q", b.calls[0][0].ID)
	}

	// An untouched kill must not trigger a broadcast.
	drop := testKill(2, killTime, 30000001, withAttackers(2001))
	if err := e.ProcessKillmail(context.Background(), drop); err != nil {
		t.Fatalf("ProcessKillmail failed: %v", err)
	}
	if len(b.calls) != 1 {
		t.Errorf("dropped kill broadcast anyway, calls = %d", len(b.calls))
	}
}

func sessionIDs(st *Store) []string {
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	return ids
}
