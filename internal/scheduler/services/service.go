package services

import (
	"context"
	"fmt"
	"time"

	"go-gatewatch/internal/scheduler/dto"
	"go-gatewatch/internal/scheduler/models"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/database"

	"github.com/go-playground/validator/v10"
)

// executionRetention is how long finished execution records are kept.
const executionRetention = 7 * 24 * time.Hour

// Service owns the task registry and the execution engine
type Service struct {
	repository *Repository
	engine     *Engine
	validate   *validator.Validate
	detection  *config.Detection
}

// NewService creates the scheduler service
func NewService(mongodb *database.MongoDB, detection *config.Detection) *Service {
	repository := NewRepository(mongodb)
	validate := validator.New()
	dto.RegisterCustomValidators(validate)

	s := &Service{
		repository: repository,
		engine:     NewEngine(repository),
		validate:   validate,
		detection:  detection,
	}

	// The scheduler cleans up after itself; everything else registers
	// its handlers during startup wiring.
	s.engine.RegisterHandler(TaskHistoryCleanup, s.cleanupHistory)

	return s
}

// CreateIndexes creates the MongoDB indexes for the scheduler collections
func (s *Service) CreateIndexes(ctx context.Context) error {
	return s.repository.CreateIndexes(ctx)
}

// InitializeSystemTasks validates and upserts the built-in task definitions.
// Operator-controlled fields (enabled, counters) are preserved across
// restarts.
func (s *Service) InitializeSystemTasks(ctx context.Context) error {
	for _, task := range GetSystemTasks(s.detection) {
		if err := s.validate.Struct(task); err != nil {
			return fmt.Errorf("invalid system task %s: %w", task.ID, err)
		}
		if err := s.repository.UpsertSystemTask(ctx, task); err != nil {
			return fmt.Errorf("failed to upsert system task %s: %w", task.ID, err)
		}
	}
	return nil
}

// RegisterHandler binds a task ID to its implementation
func (s *Service) RegisterHandler(taskID string, handler TaskHandler) {
	s.engine.RegisterHandler(taskID, handler)
}

// Start launches the execution engine
func (s *Service) Start(ctx context.Context) error {
	return s.engine.Start(ctx)
}

// Stop shuts the execution engine down
func (s *Service) Stop() {
	s.engine.Stop()
}

// ExecuteNow queues a task for immediate execution
func (s *Service) ExecuteNow(ctx context.Context, taskID string) error {
	task, err := s.repository.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %s not found", taskID)
	}
	if !task.Enabled {
		return fmt.Errorf("task %s is disabled", taskID)
	}
	return s.engine.Enqueue(taskID)
}

// SetTaskEnabled toggles a task and reschedules the engine. Returns false
// when the task does not exist.
func (s *Service) SetTaskEnabled(ctx context.Context, taskID string, enabled bool) (bool, error) {
	found, err := s.repository.SetTaskEnabled(ctx, taskID, enabled)
	if err != nil || !found {
		return found, err
	}
	if err := s.engine.Reload(ctx); err != nil {
		return true, fmt.Errorf("task updated but rescheduling failed: %w", err)
	}
	return true, nil
}

// ListTasks returns all registered tasks
func (s *Service) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.repository.ListTasks(ctx)
}

// GetTask returns one task, or nil when it does not exist
func (s *Service) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.repository.GetTask(ctx, taskID)
}

// GetTaskHistory returns the most recent executions of a task
func (s *Service) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]models.TaskExecution, error) {
	return s.repository.GetTaskExecutions(ctx, taskID, limit)
}

// GetStats returns scheduler statistics with live engine numbers folded in
func (s *Service) GetStats(ctx context.Context) (*models.SchedulerStats, error) {
	stats, err := s.repository.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	engineStats := s.engine.GetStats()
	stats.WorkerCount = engineStats.WorkerCount
	stats.QueueSize = engineStats.QueueSize
	return stats, nil
}

// GetEngineStats returns live engine statistics
func (s *Service) GetEngineStats() models.EngineStats {
	return s.engine.GetStats()
}

// HealthCheck verifies the scheduler collections are reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.repository.CheckHealth(ctx)
}

func (s *Service) cleanupHistory(ctx context.Context) (string, error) {
	deleted, err := s.repository.CleanupExecutions(ctx, executionRetention)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("removed %d execution records", deleted), nil
}
