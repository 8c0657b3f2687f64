package models

import (
	"time"
)

// Collection names for the task registry and its execution history
const (
	TasksCollection      = "scheduler_tasks"
	ExecutionsCollection = "scheduler_executions"
)

// TaskType defines the type of task to execute
type TaskType string

const (
	TaskTypeSystem TaskType = "system"
)

// TaskStatus represents the current status of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusDisabled  TaskStatus = "disabled"
)

// TaskPriority defines task execution priority
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityNormal   TaskPriority = "normal"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// Task represents a scheduled task definition. The schedule is a six-field
// cron expression (with seconds) or an @every descriptor.
type Task struct {
	ID          string       `json:"id" bson:"_id" validate:"required"`
	Name        string       `json:"name" bson:"name" validate:"required"`
	Description string       `json:"description" bson:"description"`
	Type        TaskType     `json:"type" bson:"type" validate:"required"`
	Schedule    string       `json:"schedule" bson:"schedule" validate:"required,cron"`
	Status      TaskStatus   `json:"status" bson:"status" validate:"task_status"`
	Priority    TaskPriority `json:"priority" bson:"priority" validate:"task_priority"`
	Enabled     bool         `json:"enabled" bson:"enabled"`
	Metadata    TaskMetadata `json:"metadata" bson:"metadata"`
	LastRun     *time.Time   `json:"last_run,omitempty" bson:"last_run,omitempty"`
	NextRun     *time.Time   `json:"next_run,omitempty" bson:"next_run,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

// TaskMetadata contains additional task information
type TaskMetadata struct {
	Timeout      Duration `json:"timeout" bson:"timeout"`
	Tags         []string `json:"tags" bson:"tags"`
	IsSystem     bool     `json:"is_system" bson:"is_system"`
	Source       string   `json:"source" bson:"source"`
	LastError    string   `json:"last_error,omitempty" bson:"last_error,omitempty"`
	SuccessCount int64    `json:"success_count" bson:"success_count"`
	FailureCount int64    `json:"failure_count" bson:"failure_count"`
	TotalRuns    int64    `json:"total_runs" bson:"total_runs"`
}

// TaskExecution represents a single task execution record
type TaskExecution struct {
	ID          string     `json:"id" bson:"_id"`
	TaskID      string     `json:"task_id" bson:"task_id"`
	Status      TaskStatus `json:"status" bson:"status"`
	StartedAt   time.Time  `json:"started_at" bson:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Duration    Duration   `json:"duration" bson:"duration"`
	Output      string     `json:"output,omitempty" bson:"output,omitempty"`
	Error       string     `json:"error,omitempty" bson:"error,omitempty"`
	WorkerID    string     `json:"worker_id" bson:"worker_id"`
}

// SchedulerStats represents scheduler statistics
type SchedulerStats struct {
	TotalTasks       int64      `json:"total_tasks"`
	EnabledTasks     int64      `json:"enabled_tasks"`
	RunningTasks     int64      `json:"running_tasks"`
	CompletedToday   int64      `json:"completed_today"`
	FailedToday      int64      `json:"failed_today"`
	NextScheduledRun *time.Time `json:"next_scheduled_run,omitempty"`
	WorkerCount      int        `json:"worker_count"`
	QueueSize        int        `json:"queue_size"`
}

// EngineStats represents engine statistics
type EngineStats struct {
	WorkerCount    int  `json:"worker_count"`
	QueueSize      int  `json:"queue_size"`
	ScheduledTasks int  `json:"scheduled_tasks"`
	IsRunning      bool `json:"is_running"`
}
