package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-gatewatch/internal/scheduler/models"
	"go-gatewatch/pkg/config"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TaskHandler runs one task and returns a human-readable summary of what it
// did. Handlers must honor the context deadline.
type TaskHandler func(ctx context.Context) (string, error)

// scheduleParser accepts the six-field form (with seconds) as well as
// @every descriptors, matching what the cron instance itself runs.
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Engine schedules registered tasks with cron and runs them on a small
// worker pool. A task never runs concurrently with itself; a tick that
// lands while the previous run is still going is skipped.
type Engine struct {
	repository *Repository
	cron       *cron.Cron
	workers    int
	queue      chan string
	workerWg   sync.WaitGroup

	mu           sync.Mutex
	running      bool
	handlers     map[string]TaskHandler
	entries      []cron.EntryID
	runningTasks map[string]bool
}

// NewEngine creates the scheduler engine
func NewEngine(repository *Repository) *Engine {
	return &Engine{
		repository:   repository,
		cron:         cron.New(cron.WithSeconds()),
		workers:      config.GetIntEnv("SCHEDULER_WORKERS", 4),
		queue:        make(chan string, 64),
		handlers:     make(map[string]TaskHandler),
		runningTasks: make(map[string]bool),
	}
}

// RegisterHandler binds a task ID to the function that executes it. Must be
// called before Start.
func (e *Engine) RegisterHandler(taskID string, handler TaskHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[taskID] = handler
}

// Start loads the enabled tasks, schedules them and launches the workers
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("scheduler engine is already running")
	}

	if err := e.repository.ResetRunningTasks(ctx); err != nil {
		return fmt.Errorf("failed to reset stale running tasks: %w", err)
	}
	if err := e.scheduleEnabledLocked(ctx); err != nil {
		return fmt.Errorf("failed to schedule tasks: %w", err)
	}

	for i := 0; i < e.workers; i++ {
		e.workerWg.Add(1)
		go e.worker(ctx, fmt.Sprintf("worker-%d", i))
	}

	e.cron.Start()
	e.running = true

	slog.Info("Scheduler engine started",
		"workers", e.workers,
		"scheduled_tasks", len(e.entries))
	return nil
}

// Stop drains the cron scheduler and the worker pool
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	<-e.cron.Stop().Done()
	close(e.queue)
	e.workerWg.Wait()

	slog.Info("Scheduler engine stopped")
}

// IsRunning returns whether the engine is running
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Reload re-reads the registry and reschedules everything. Called after a
// task is enabled or disabled.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduleEnabledLocked(ctx)
}

func (e *Engine) scheduleEnabledLocked(ctx context.Context) error {
	tasks, err := e.repository.GetEnabledTasks(ctx)
	if err != nil {
		return err
	}

	for _, id := range e.entries {
		e.cron.Remove(id)
	}
	e.entries = e.entries[:0]

	for _, task := range tasks {
		taskID := task.ID
		entryID, err := e.cron.AddFunc(task.Schedule, func() {
			e.enqueue(taskID)
		})
		if err != nil {
			slog.Error("Failed to schedule task",
				"task_id", taskID,
				"schedule", task.Schedule,
				"error", err)
			continue
		}
		e.entries = append(e.entries, entryID)

		if next := nextRunTime(task.Schedule, time.Now().UTC()); next != nil {
			e.repository.RecordNextRun(ctx, taskID, *next)
		}
	}

	slog.Info("Tasks scheduled", "count", len(e.entries))
	return nil
}

// Enqueue requests an immediate run of a task
func (e *Engine) Enqueue(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return fmt.Errorf("scheduler engine is not running")
	}
	select {
	case e.queue <- taskID:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (e *Engine) enqueue(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	select {
	case e.queue <- taskID:
	default:
		slog.Warn("Task queue full, skipping tick", "task_id", taskID)
	}
}

// GetStats returns engine statistics
func (e *Engine) GetStats() models.EngineStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.EngineStats{
		WorkerCount:    e.workers,
		QueueSize:      len(e.queue),
		ScheduledTasks: len(e.entries),
		IsRunning:      e.running,
	}
}

func (e *Engine) worker(ctx context.Context, workerID string) {
	defer e.workerWg.Done()
	for taskID := range e.queue {
		e.runTask(ctx, taskID, workerID)
	}
}

func (e *Engine) runTask(ctx context.Context, taskID, workerID string) {
	e.mu.Lock()
	if e.runningTasks[taskID] {
		e.mu.Unlock()
		slog.Debug("Task still running, skipping tick", "task_id", taskID)
		return
	}
	e.runningTasks[taskID] = true
	handler := e.handlers[taskID]
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.runningTasks, taskID)
		e.mu.Unlock()
	}()

	// Bookkeeping must land even when the app context is already being
	// torn down, otherwise a shutdown mid-run leaves phantom records.
	recordCtx := context.WithoutCancel(ctx)

	task, err := e.repository.GetTask(recordCtx, taskID)
	if err != nil || task == nil {
		slog.Error("Failed to load task for execution", "task_id", taskID, "error", err)
		return
	}
	if !task.Enabled {
		return
	}

	started := time.Now().UTC()
	execution := &models.TaskExecution{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Status:    models.TaskStatusRunning,
		StartedAt: started,
		WorkerID:  workerID,
	}
	if err := e.repository.CreateExecution(recordCtx, execution); err != nil {
		slog.Error("Failed to create execution record", "task_id", taskID, "error", err)
	}
	e.repository.UpdateTaskStatus(recordCtx, taskID, models.TaskStatusRunning)

	var output string
	var runErr error
	if handler == nil {
		runErr = fmt.Errorf("no handler registered for task %s", taskID)
	} else {
		timeout := task.Metadata.Timeout.ToDuration()
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		taskCtx, cancel := context.WithTimeout(ctx, timeout)
		output, runErr = handler(taskCtx)
		cancel()
	}

	completed := time.Now().UTC()
	execution.CompletedAt = &completed
	execution.Duration = models.Duration(completed.Sub(started))
	if runErr != nil {
		execution.Status = models.TaskStatusFailed
		execution.Error = runErr.Error()
		slog.Error("Task failed",
			"task_id", taskID,
			"duration", execution.Duration.String(),
			"error", runErr)
	} else {
		execution.Status = models.TaskStatusCompleted
		execution.Output = output
		slog.Debug("Task completed",
			"task_id", taskID,
			"duration", execution.Duration.String())
	}

	if err := e.repository.UpdateExecution(recordCtx, execution); err != nil {
		slog.Error("Failed to update execution record", "execution_id", execution.ID, "error", err)
	}
	e.repository.UpdateTaskStatus(recordCtx, taskID, models.TaskStatusPending)
	e.repository.RecordTaskRun(recordCtx, taskID, completed, nextRunTime(task.Schedule, completed), runErr)
}

func nextRunTime(schedule string, from time.Time) *time.Time {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil
	}
	next := sched.Next(from)
	return &next
}
