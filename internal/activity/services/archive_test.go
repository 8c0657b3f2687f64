package services

import (
	"testing"
	"time"

	"go-gatewatch/internal/activity/models"
	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/sde"
)

func withAttackerCategories(entries ...killmodels.AttackerShipCategory) killOpt {
	return func(km *killmodels.Killmail) {
		if km.ShipCategories == nil {
			km.ShipCategories = &killmodels.ShipCategories{}
		}
		km.ShipCategories.Attackers = entries
	}
}

func TestBuildExpiredCamp(t *testing.T) {
	det := testDetection()
	killTime := time.Date(2025, 8, 18, 19, 0, 0, 0, time.UTC)
	st := feedKills(t, det, testKill(1, killTime, 30002813,
		withAttackers(1001, 1002),
		withGatePinpoint("Stargate (Nourvukaiken)", "Tama", "Black Rise")))
	s := singleSession(t, st)
	s.MaxProbability = 50

	now := killTime.Add(50 * time.Minute)
	camp := buildExpiredCamp(s, det.CampTimeout, now)

	if camp.CampUniqueID != s.ID {
		t.Errorf("camp unique id = %q, want the session id %q", camp.CampUniqueID, s.ID)
	}
	if camp.SystemID != 30002813 {
		t.Errorf("system id = %d", camp.SystemID)
	}
	if camp.StargateName != "Stargate (Nourvukaiken)" {
		t.Errorf("stargate = %q", camp.StargateName)
	}
	if camp.MaxProbability != 50 {
		t.Errorf("max probability = %d, want 50", camp.MaxProbability)
	}
	if !camp.EndTime.Equal(killTime.Add(det.CampTimeout)) {
		t.Errorf("end time = %v, want last kill plus camp timeout", camp.EndTime)
	}
	if camp.KillCount != 1 {
		t.Errorf("kill count = %d, want 1", camp.KillCount)
	}
	if camp.Type != models.SeedCamp {
		t.Errorf("seed kind = %q", camp.Type)
	}
	if camp.Details.ID != s.ID || len(camp.Details.Kills) != 1 {
		t.Errorf("details snapshot incomplete: id=%q kills=%d", camp.Details.ID, len(camp.Details.Kills))
	}
	if !camp.CreatedAt.Equal(now) {
		t.Errorf("created at = %v, want %v", camp.CreatedAt, now)
	}
}

func TestBuildExpiredCampWithoutKillTimeFallsBack(t *testing.T) {
	det := testDetection()
	s := models.NewSession("camp-x", models.SeedCamp, 30000001, "Hek", "Metropolis", time.Time{})
	s.FirstKillTime = time.Time{}
	s.StartTime = time.Time{}
	s.LastActivity = baseTime

	camp := buildExpiredCamp(s, det.CampTimeout, baseTime.Add(time.Hour))
	if !camp.EndTime.Equal(baseTime.Add(det.CampTimeout)) {
		t.Errorf("end time = %v, want last activity plus timeout", camp.EndTime)
	}
}

func TestBuildSessionRecord(t *testing.T) {
	det := testDetection()
	start := time.Date(2025, 8, 18, 19, 0, 0, 0, time.UTC) // a Monday
	end := start.Add(30 * time.Minute)

	kills := []*killmodels.Killmail{
		testKill(1, start, 30000001,
			withAttackers(1001, 1002),
			withCelestialData("Hek", "Metropolis"),
			withVictimShip(648),
			withVictimCategory(sde.CategoryIndustrial, "Badger"),
			withAttackerCategories(killmodels.AttackerShipCategory{
				ShipTypeID: 587, Category: sde.CategoryFrigate, Name: "Rifter", Tier: "T1",
			})),
		testKill(2, end, 30000002,
			withAttackers(1001, 1002),
			withCelestialData("Uttindar", "Metropolis"),
			withVictimShip(CapsuleShipTypeID)),
	}
	st := feedKills(t, det, kills...)
	s := singleSession(t, st)
	s.Probability = 60
	s.MaxProbability = 72
	s.Classification = models.ClassificationRoam

	now := end.Add(40 * time.Minute)
	record := buildSessionRecord(s, det.RoamTimeout, now)

	if record.SessionID != s.ID {
		t.Errorf("session id = %q", record.SessionID)
	}
	if record.Classification != models.ClassificationRoam {
		t.Errorf("classification = %q", record.Classification)
	}
	if record.Confidence != 0.6 {
		t.Errorf("confidence = %f, want 0.6", record.Confidence)
	}

	if record.StartSystemName != "Hek" || record.StartRegion != "Metropolis" {
		t.Errorf("start = %s/%s, want Hek/Metropolis", record.StartSystemName, record.StartRegion)
	}
	if record.EndSystemName != "Uttindar" || record.EndSystemID != 30000002 {
		t.Errorf("end = %s/%d, want Uttindar/30000002", record.EndSystemName, record.EndSystemID)
	}
	if record.SystemsVisited != 2 || len(record.SystemPath) != 2 {
		t.Errorf("path: visited=%d entries=%d, want 2/2", record.SystemsVisited, len(record.SystemPath))
	}

	if !record.StartTime.Equal(start) {
		t.Errorf("start time = %v", record.StartTime)
	}
	if !record.EndTime.Equal(end.Add(det.RoamTimeout)) {
		t.Errorf("end time = %v, want last kill plus roam timeout", record.EndTime)
	}
	if record.DurationMinutes != 30.0 {
		t.Errorf("duration = %f minutes, want 30.0", record.DurationMinutes)
	}
	if record.DayOfWeek != 0 {
		t.Errorf("day of week = %d, want 0 for a Monday start", record.DayOfWeek)
	}
	if record.HourOfDay != 19 {
		t.Errorf("hour of day = %d, want 19", record.HourOfDay)
	}

	if record.KillCount != 2 || record.PodKills != 1 {
		t.Errorf("kills=%d pods=%d, want 2/1", record.KillCount, record.PodKills)
	}
	if record.TotalValue != 20_000_000 || record.AvgValuePerKill != 10_000_000 {
		t.Errorf("value=%f avg=%f", record.TotalValue, record.AvgValuePerKill)
	}
	if record.MaxProbability != 72 {
		t.Errorf("max probability = %d", record.MaxProbability)
	}

	// Two attackers in Rifters on each of the two kills.
	rifters, ok := record.ShipComposition["587"]
	if !ok {
		t.Fatalf("ship composition missing 587: %v", record.ShipComposition)
	}
	if rifters.Name != "Rifter" || rifters.Category != sde.CategoryFrigate || rifters.Count != 4 {
		t.Errorf("rifter entry = %+v", rifters)
	}

	badger, ok := record.VictimTypes["648"]
	if !ok {
		t.Fatalf("victim types missing 648: %v", record.VictimTypes)
	}
	if badger.Name != "Badger" || badger.Category != sde.CategoryIndustrial || badger.Count != 1 {
		t.Errorf("badger entry = %+v", badger)
	}
	pod, ok := record.VictimTypes["670"]
	if !ok {
		t.Fatalf("victim types missing 670: %v", record.VictimTypes)
	}
	if pod.Name != "Unknown" || pod.Category != sde.CategoryUnknown || pod.Count != 1 {
		t.Errorf("unenriched pod entry should fall back to Unknown, got %+v", pod)
	}

	if len(record.KillIDs) != 2 || record.KillIDs[0] != 1 || record.KillIDs[1] != 2 {
		t.Errorf("kill ids = %v", record.KillIDs)
	}
	// Attackers plus the two victims.
	if record.MemberCount != 4 {
		t.Errorf("member count = %d, want 4", record.MemberCount)
	}
	if record.CorpCount != 3 {
		t.Errorf("corp count = %d, want 3 (attacker corp plus two victim corps)", record.CorpCount)
	}
	if record.AllianceCount != 0 {
		t.Errorf("alliance count = %d, want 0", record.AllianceCount)
	}
	if !record.CreatedAt.Equal(now) {
		t.Errorf("created at = %v", record.CreatedAt)
	}
}

func TestBuildSessionRecordClampsNegativeDuration(t *testing.T) {
	det := testDetection()
	s := models.NewSession("roam-x", models.SeedRoam, 30000001, "Hek", "Metropolis", baseTime)
	s.StartTime = baseTime
	s.LastKillTime = baseTime.Add(-10 * time.Minute)

	record := buildSessionRecord(s, det.RoamTimeout, baseTime)
	if record.DurationMinutes != 0 {
		t.Errorf("duration = %f, want clamp to 0", record.DurationMinutes)
	}
}
