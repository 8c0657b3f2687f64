package services

import (
	"fmt"
	"time"

	"go-gatewatch/internal/scheduler/models"
	"go-gatewatch/pkg/config"
)

// Well-known system task IDs. Handlers are registered against these at
// startup.
const (
	TaskActivitySweep   = "system-activity-sweep"
	TaskKillmailCleanup = "system-killmail-cleanup"
	TaskFeedWatchdog    = "system-feed-watchdog"
	TaskHistoryCleanup  = "system-history-cleanup"
)

// GetSystemTasks returns predefined system tasks
func GetSystemTasks(detection *config.Detection) []*models.Task {
	now := time.Now().UTC()

	return []*models.Task{
		{
			ID:          TaskActivitySweep,
			Name:        "Activity Sweep",
			Description: "Rescores live sessions, expires idle ones and archives the results",
			Type:        models.TaskTypeSystem,
			Schedule:    fmt.Sprintf("@every %s", detection.UpdateInterval),
			Status:      models.TaskStatusPending,
			Priority:    models.TaskPriorityCritical,
			Enabled:     true,
			Metadata: models.TaskMetadata{
				Timeout:  models.Duration(1 * time.Minute),
				Tags:     []string{"system", "activity", "sweep"},
				IsSystem: true,
				Source:   "system",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          TaskKillmailCleanup,
			Name:        "Killmail Cleanup",
			Description: "Deletes stored killmails older than the retention window",
			Type:        models.TaskTypeSystem,
			Schedule:    "0 0 * * * *", // Every hour
			Status:      models.TaskStatusPending,
			Priority:    models.TaskPriorityLow,
			Enabled:     true,
			Metadata: models.TaskMetadata{
				Timeout:  models.Duration(10 * time.Minute),
				Tags:     []string{"system", "killmails", "cleanup"},
				IsSystem: true,
				Source:   "system",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          TaskFeedWatchdog,
			Name:        "Feed Watchdog",
			Description: "Restarts the zKillboard consumer if it stopped without being disabled",
			Type:        models.TaskTypeSystem,
			Schedule:    "0 */5 * * * *", // Every 5 minutes
			Status:      models.TaskStatusPending,
			Priority:    models.TaskPriorityHigh,
			Enabled:     true,
			Metadata: models.TaskMetadata{
				Timeout:  models.Duration(1 * time.Minute),
				Tags:     []string{"system", "zkillboard", "monitoring"},
				IsSystem: true,
				Source:   "system",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          TaskHistoryCleanup,
			Name:        "Execution History Cleanup",
			Description: "Trims old scheduler execution records",
			Type:        models.TaskTypeSystem,
			Schedule:    "0 0 3 * * *", // Daily at 03:00
			Status:      models.TaskStatusPending,
			Priority:    models.TaskPriorityLow,
			Enabled:     true,
			Metadata: models.TaskMetadata{
				Timeout:  models.Duration(5 * time.Minute),
				Tags:     []string{"system", "scheduler", "cleanup"},
				IsSystem: true,
				Source:   "system",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
