package services

import (
	"testing"

	"go-gatewatch/internal/activity/models"
)

func TestFoldLiveRegions(t *testing.T) {
	snap := func(classification, region string, value float64) models.SessionSnapshot {
		return models.SessionSnapshot{
			Classification: classification,
			LastSystem:     models.SystemRef{Region: region},
			TotalValue:     value,
		}
	}

	live := foldLiveRegions([]models.SessionSnapshot{
		snap(models.ClassificationCamp, "Black Rise", 100),
		snap(models.ClassificationSoloCamp, "Black Rise", 50),
		snap(models.ClassificationSmartbomb, "Black Rise", 25),
		snap(models.ClassificationRoamingCamp, "Black Rise", 10),
		snap(models.ClassificationRoam, "Black Rise", 5),
		snap(models.ClassificationBattle, "Placid", 1000),
		snap(models.ClassificationSoloRoam, "Placid", 30),
		snap(models.ClassificationActivity, "Placid", 1),
		snap(models.ClassificationCamp, "", 7),
	})

	blackRise := live["Black Rise"]
	if blackRise.Camps != 4 {
		t.Errorf("Black Rise camps = %d, want 4", blackRise.Camps)
	}
	if blackRise.Roams != 1 {
		t.Errorf("Black Rise roams = %d, want 1", blackRise.Roams)
	}
	if blackRise.TotalValue != 190 {
		t.Errorf("Black Rise value = %f, want 190", blackRise.TotalValue)
	}

	placid := live["Placid"]
	if placid.Battles != 1 || placid.Roams != 1 || placid.Other != 1 {
		t.Errorf("Placid buckets = %+v", placid)
	}
	if placid.TotalValue != 1031 {
		t.Errorf("Placid value = %f, want 1031", placid.TotalValue)
	}

	unknown := live["Unknown"]
	if unknown.Camps != 1 || unknown.TotalValue != 7 {
		t.Errorf("sessions without a region should land in Unknown, got %+v", unknown)
	}
}

func TestFoldHistoryRow(t *testing.T) {
	history := make(map[string]models.RegionHistoryStats)

	foldHistoryRow(history, "Metropolis", models.ClassificationCamp, 3, 12, 500)
	foldHistoryRow(history, "Metropolis", models.ClassificationRoam, 2, 8, 100)
	foldHistoryRow(history, "Metropolis", models.ClassificationCamp, 1, 4, 50)
	foldHistoryRow(history, "Heimatar", "", 5, 20, 900)

	metro := history["Metropolis"]
	if metro.Sessions != 6 || metro.Kills != 24 || metro.Value != 650 {
		t.Errorf("Metropolis totals = %+v", metro)
	}
	if metro.ByType[models.ClassificationCamp] != 4 {
		t.Errorf("camp sessions = %d, want 4", metro.ByType[models.ClassificationCamp])
	}
	if metro.ByType[models.ClassificationRoam] != 2 {
		t.Errorf("roam sessions = %d, want 2", metro.ByType[models.ClassificationRoam])
	}

	heim := history["Heimatar"]
	if heim.Sessions != 5 || heim.Kills != 20 || heim.Value != 900 {
		t.Errorf("Heimatar totals = %+v", heim)
	}
	if len(heim.ByType) != 0 {
		t.Errorf("empty classification must not land in ByType, got %v", heim.ByType)
	}
}
