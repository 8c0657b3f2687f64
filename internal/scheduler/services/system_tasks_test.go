package services

import (
	"testing"
	"time"

	"go-gatewatch/internal/scheduler/models"
	"go-gatewatch/pkg/config"
)

func TestGetSystemTasks(t *testing.T) {
	detection := &config.Detection{UpdateInterval: 30 * time.Second}

	tasks := GetSystemTasks(detection)
	if len(tasks) != 4 {
		t.Fatalf("expected 4 system tasks, got %d", len(tasks))
	}

	byID := make(map[string]*models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	sweep := byID[TaskActivitySweep]
	if sweep == nil {
		t.Fatal("missing activity sweep task")
	}
	if sweep.Schedule != "@every 30s" {
		t.Errorf("sweep schedule = %q, want the detection update interval", sweep.Schedule)
	}
	if sweep.Priority != models.TaskPriorityCritical {
		t.Errorf("sweep priority = %q", sweep.Priority)
	}

	schedules := map[string]string{
		TaskKillmailCleanup: "0 0 * * * *",
		TaskFeedWatchdog:    "0 */5 * * * *",
		TaskHistoryCleanup:  "0 0 3 * * *",
	}
	for id, want := range schedules {
		task := byID[id]
		if task == nil {
			t.Errorf("missing task %s", id)
			continue
		}
		if task.Schedule != want {
			t.Errorf("%s schedule = %q, want %q", id, task.Schedule, want)
		}
	}

	for _, task := range tasks {
		if !task.Enabled {
			t.Errorf("%s should be enabled", task.ID)
		}
		if task.Type != models.TaskTypeSystem {
			t.Errorf("%s type = %q", task.ID, task.Type)
		}
		if task.Status != models.TaskStatusPending {
			t.Errorf("%s status = %q", task.ID, task.Status)
		}
		if !task.Metadata.IsSystem {
			t.Errorf("%s should be flagged as a system task", task.ID)
		}
		if task.Metadata.Timeout.ToDuration() <= 0 {
			t.Errorf("%s has no execution timeout", task.ID)
		}
	}
}

func TestSystemTaskSchedulesParse(t *testing.T) {
	detection := &config.Detection{UpdateInterval: 30 * time.Second}

	for _, task := range GetSystemTasks(detection) {
		if _, err := scheduleParser.Parse(task.Schedule); err != nil {
			t.Errorf("%s schedule %q does not parse: %v", task.ID, task.Schedule, err)
		}
	}
}
