package dto

import (
	"go-gatewatch/internal/scheduler/models"
)

// ModuleStatusResponse represents the scheduler module status
type ModuleStatusResponse struct {
	Module  string             `json:"module" doc:"Module name"`
	Status  string             `json:"status" doc:"Module health status"`
	Message string             `json:"message,omitempty" doc:"Optional status message"`
	Engine  models.EngineStats `json:"engine" doc:"Live engine statistics"`
}

// StatusOutput wraps the module status response
type StatusOutput struct {
	Body ModuleStatusResponse `json:"body"`
}

// SchedulerStatsOutput wraps scheduler statistics
type SchedulerStatsOutput struct {
	Body models.SchedulerStats `json:"body"`
}

// TaskListResponse holds all registered tasks
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks" doc:"Registered tasks"`
	Count int           `json:"count" doc:"Number of tasks"`
}

// TaskListOutput wraps the task list response
type TaskListOutput struct {
	Body TaskListResponse `json:"body"`
}

// TaskGetOutput wraps a single task
type TaskGetOutput struct {
	Body models.Task `json:"body"`
}

// TaskHistoryResponse holds the recent executions of a task
type TaskHistoryResponse struct {
	TaskID     string                 `json:"task_id" doc:"Task ID"`
	Executions []models.TaskExecution `json:"executions" doc:"Executions, newest first"`
	Count      int                    `json:"count" doc:"Number of executions returned"`
}

// TaskHistoryOutput wraps the execution history response
type TaskHistoryOutput struct {
	Body TaskHistoryResponse `json:"body"`
}

// TaskActionResponse reports the result of a task control operation
type TaskActionResponse struct {
	TaskID  string `json:"task_id" doc:"Task ID"`
	Success bool   `json:"success" doc:"Whether the operation succeeded"`
	Message string `json:"message" doc:"Operation result message"`
}

// TaskActionOutput wraps a task control response
type TaskActionOutput struct {
	Body TaskActionResponse `json:"body"`
}
