package services

import (
	"context"
	"fmt"
	"time"

	"go-gatewatch/internal/activity/models"
)

// GetRegionsActivity returns the live per-region buckets alongside the
// archived per-region history for the given window.
func (s *Service) GetRegionsActivity(ctx context.Context, hours int) (map[string]models.RegionLiveStats, map[string]models.RegionHistoryStats, error) {
	now := time.Now().UTC()
	live := foldLiveRegions(s.store.Snapshot(now))

	history, err := s.repository.GetRegionHistory(ctx, now.Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load region history: %w", err)
	}
	return live, history, nil
}

// foldLiveRegions buckets the live snapshot by the region each session was
// last seen in. Camp-family classifications count as camps except battles,
// which get their own bucket.
func foldLiveRegions(snapshots []models.SessionSnapshot) map[string]models.RegionLiveStats {
	live := make(map[string]models.RegionLiveStats)
	for _, snapshot := range snapshots {
		region := snapshot.LastSystem.Region
		if region == "" {
			region = "Unknown"
		}
		entry := live[region]
		switch snapshot.Classification {
		case models.ClassificationCamp, models.ClassificationSoloCamp,
			models.ClassificationSmartbomb, models.ClassificationRoamingCamp:
			entry.Camps++
		case models.ClassificationRoam, models.ClassificationSoloRoam:
			entry.Roams++
		case models.ClassificationBattle:
			entry.Battles++
		default:
			entry.Other++
		}
		entry.TotalValue += snapshot.TotalValue
		live[region] = entry
	}
	return live
}
