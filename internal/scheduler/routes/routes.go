package routes

import (
	"context"
	"net/http"

	"go-gatewatch/internal/scheduler/dto"
	"go-gatewatch/internal/scheduler/services"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterSchedulerRoutes registers all scheduler routes
func RegisterSchedulerRoutes(api huma.API, basePath string, service *services.Service) {
	// Module status endpoint
	huma.Register(api, huma.Operation{
		OperationID:   "getSchedulerStatus",
		Method:        http.MethodGet,
		Path:          basePath + "/status",
		Summary:       "Get scheduler module status",
		Description:   "Returns the health of the scheduler module and live engine statistics.",
		Tags:          []string{"Module Status"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		response := dto.ModuleStatusResponse{
			Module: "scheduler",
			Status: "healthy",
			Engine: service.GetEngineStats(),
		}
		if err := service.HealthCheck(ctx); err != nil {
			response.Status = "unhealthy"
			response.Message = err.Error()
		}
		return &dto.StatusOutput{Body: response}, nil
	})

	// Aggregate statistics
	huma.Register(api, huma.Operation{
		OperationID:   "getSchedulerStats",
		Method:        http.MethodGet,
		Path:          basePath + "/stats",
		Summary:       "Get scheduler statistics",
		Description:   "Returns task counts, today's completion and failure totals and the next scheduled run.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.SchedulerStatsOutput, error) {
		stats, err := service.GetStats(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch scheduler statistics", err)
		}
		return &dto.SchedulerStatsOutput{Body: *stats}, nil
	})

	// Task registry
	huma.Register(api, huma.Operation{
		OperationID:   "listSchedulerTasks",
		Method:        http.MethodGet,
		Path:          basePath + "/tasks",
		Summary:       "List scheduled tasks",
		Description:   "Returns every registered task with its schedule, state and run counters.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.TaskListOutput, error) {
		tasks, err := service.ListTasks(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list tasks", err)
		}
		return &dto.TaskListOutput{
			Body: dto.TaskListResponse{
				Tasks: tasks,
				Count: len(tasks),
			},
		}, nil
	})

	// Single task
	huma.Register(api, huma.Operation{
		OperationID:   "getSchedulerTask",
		Method:        http.MethodGet,
		Path:          basePath + "/tasks/{task_id}",
		Summary:       "Get a scheduled task",
		Description:   "Returns one task by ID.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.TaskGetInput) (*dto.TaskGetOutput, error) {
		task, err := service.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch task", err)
		}
		if task == nil {
			return nil, huma.Error404NotFound("Task not found")
		}
		return &dto.TaskGetOutput{Body: *task}, nil
	})

	// Execution history
	huma.Register(api, huma.Operation{
		OperationID:   "getSchedulerTaskHistory",
		Method:        http.MethodGet,
		Path:          basePath + "/tasks/{task_id}/history",
		Summary:       "Get task execution history",
		Description:   "Returns the most recent executions of a task, newest first.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.TaskHistoryInput) (*dto.TaskHistoryOutput, error) {
		task, err := service.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch task", err)
		}
		if task == nil {
			return nil, huma.Error404NotFound("Task not found")
		}

		executions, err := service.GetTaskHistory(ctx, input.TaskID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch task history", err)
		}
		return &dto.TaskHistoryOutput{
			Body: dto.TaskHistoryResponse{
				TaskID:     input.TaskID,
				Executions: executions,
				Count:      len(executions),
			},
		}, nil
	})

	// Immediate execution
	huma.Register(api, huma.Operation{
		OperationID:   "executeSchedulerTask",
		Method:        http.MethodPost,
		Path:          basePath + "/tasks/{task_id}/execute",
		Summary:       "Execute a task now",
		Description:   "Queues a task for immediate execution, outside its regular schedule.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.TaskExecuteInput) (*dto.TaskActionOutput, error) {
		task, err := service.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch task", err)
		}
		if task == nil {
			return nil, huma.Error404NotFound("Task not found")
		}

		if err := service.ExecuteNow(ctx, input.TaskID); err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return &dto.TaskActionOutput{
			Body: dto.TaskActionResponse{
				TaskID:  input.TaskID,
				Success: true,
				Message: "Task queued for execution",
			},
		}, nil
	})

	// Enable
	huma.Register(api, huma.Operation{
		OperationID:   "enableSchedulerTask",
		Method:        http.MethodPost,
		Path:          basePath + "/tasks/{task_id}/enable",
		Summary:       "Enable a task",
		Description:   "Enables a task and reschedules the engine.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.TaskEnableInput) (*dto.TaskActionOutput, error) {
		found, err := service.SetTaskEnabled(ctx, input.TaskID, true)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to enable task", err)
		}
		if !found {
			return nil, huma.Error404NotFound("Task not found")
		}
		return &dto.TaskActionOutput{
			Body: dto.TaskActionResponse{
				TaskID:  input.TaskID,
				Success: true,
				Message: "Task enabled",
			},
		}, nil
	})

	// Disable
	huma.Register(api, huma.Operation{
		OperationID:   "disableSchedulerTask",
		Method:        http.MethodPost,
		Path:          basePath + "/tasks/{task_id}/disable",
		Summary:       "Disable a task",
		Description:   "Disables a task. The definition stays registered and keeps its run history.",
		Tags:          []string{"Scheduler"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.TaskDisableInput) (*dto.TaskActionOutput, error) {
		found, err := service.SetTaskEnabled(ctx, input.TaskID, false)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to disable task", err)
		}
		if !found {
			return nil, huma.Error404NotFound("Task not found")
		}
		return &dto.TaskActionOutput{
			Body: dto.TaskActionResponse{
				TaskID:  input.TaskID,
				Success: true,
				Message: "Task disabled",
			},
		}, nil
	})
}
