package services

import (
	"context"
	"time"

	"go-gatewatch/internal/scheduler/models"
	"go-gatewatch/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for the task registry
type Repository struct {
	mongodb    *database.MongoDB
	tasks      *mongo.Collection
	executions *mongo.Collection
}

// NewRepository creates a new scheduler repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		tasks:      mongodb.Database.Collection(models.TasksCollection),
		executions: mongodb.Database.Collection(models.ExecutionsCollection),
	}
}

// CreateIndexes creates the indexes the registry and history queries rely on
func (r *Repository) CreateIndexes(ctx context.Context) error {
	taskIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "enabled", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "next_run", Value: 1}},
		},
	}
	if _, err := r.tasks.Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return err
	}

	executionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "task_id", Value: 1},
				{Key: "started_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "started_at", Value: -1}},
		},
	}
	_, err := r.executions.Indexes().CreateMany(ctx, executionIndexes)
	return err
}

// UpsertSystemTask writes a system task definition. Definition fields are
// always refreshed so code changes win, but the enabled flag and counters
// survive restarts: an operator who disabled a task keeps it disabled.
func (r *Repository) UpsertSystemTask(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": task.ID}
	update := bson.M{
		"$set": bson.M{
			"name":               task.Name,
			"description":        task.Description,
			"type":               task.Type,
			"schedule":           task.Schedule,
			"priority":           task.Priority,
			"metadata.timeout":   task.Metadata.Timeout,
			"metadata.tags":      task.Metadata.Tags,
			"metadata.is_system": task.Metadata.IsSystem,
			"metadata.source":    task.Metadata.Source,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"enabled":    task.Enabled,
			"status":     models.TaskStatusPending,
			"created_at": now,
		},
	}
	_, err := r.tasks.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetTask retrieves a single task, nil when unknown
func (r *Repository) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// ListTasks returns all registered tasks ordered by ID
func (r *Repository) ListTasks(ctx context.Context) ([]models.Task, error) {
	cursor, err := r.tasks.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetEnabledTasks returns the tasks the engine should schedule
func (r *Repository) GetEnabledTasks(ctx context.Context) ([]models.Task, error) {
	cursor, err := r.tasks.Find(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetTaskEnabled toggles a task. Returns true when the task exists.
func (r *Repository) SetTaskEnabled(ctx context.Context, taskID string, enabled bool) (bool, error) {
	status := models.TaskStatusPending
	if !enabled {
		status = models.TaskStatusDisabled
	}
	result, err := r.tasks.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$set": bson.M{
			"enabled":    enabled,
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// UpdateTaskStatus updates the live status of a task
func (r *Repository) UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	_, err := r.tasks.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	})
	return err
}

// RecordNextRun stores the next scheduled run time of a task
func (r *Repository) RecordNextRun(ctx context.Context, taskID string, nextRun time.Time) error {
	_, err := r.tasks.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$set": bson.M{
			"next_run":   nextRun,
			"updated_at": time.Now().UTC(),
		},
	})
	return err
}

// RecordTaskRun folds one finished run into the task document: timestamps,
// run counters and the last error.
func (r *Repository) RecordTaskRun(ctx context.Context, taskID string, lastRun time.Time, nextRun *time.Time, runErr error) error {
	set := bson.M{
		"last_run":   lastRun,
		"updated_at": time.Now().UTC(),
	}
	if nextRun != nil {
		set["next_run"] = *nextRun
	}

	inc := bson.M{"metadata.total_runs": 1}
	if runErr != nil {
		inc["metadata.failure_count"] = 1
		set["metadata.last_error"] = runErr.Error()
	} else {
		inc["metadata.success_count"] = 1
		set["metadata.last_error"] = ""
	}

	_, err := r.tasks.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": set, "$inc": inc})
	return err
}

// CreateExecution inserts a new execution record
func (r *Repository) CreateExecution(ctx context.Context, execution *models.TaskExecution) error {
	_, err := r.executions.InsertOne(ctx, execution)
	return err
}

// UpdateExecution replaces an execution record with its final state
func (r *Repository) UpdateExecution(ctx context.Context, execution *models.TaskExecution) error {
	_, err := r.executions.ReplaceOne(ctx, bson.M{"_id": execution.ID}, execution)
	return err
}

// GetTaskExecutions returns the most recent executions of one task
func (r *Repository) GetTaskExecutions(ctx context.Context, taskID string, limit int) ([]models.TaskExecution, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.executions.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var executions []models.TaskExecution
	if err := cursor.All(ctx, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}

// CleanupExecutions removes execution records older than the retention window
func (r *Repository) CleanupExecutions(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result, err := r.executions.DeleteMany(ctx, bson.M{"started_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// ResetRunningTasks marks tasks stuck in the running state as pending. Called
// at startup to recover from an unclean shutdown.
func (r *Repository) ResetRunningTasks(ctx context.Context) error {
	_, err := r.tasks.UpdateMany(ctx,
		bson.M{"status": models.TaskStatusRunning},
		bson.M{"$set": bson.M{"status": models.TaskStatusPending, "updated_at": time.Now().UTC()}})
	return err
}

// GetStats assembles the scheduler statistics from the registry and today's
// execution history.
func (r *Repository) GetStats(ctx context.Context) (*models.SchedulerStats, error) {
	total, err := r.tasks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	enabled, err := r.tasks.CountDocuments(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, err
	}
	running, err := r.tasks.CountDocuments(ctx, bson.M{"status": models.TaskStatusRunning})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	completedToday, err := r.executions.CountDocuments(ctx, bson.M{
		"status":     models.TaskStatusCompleted,
		"started_at": bson.M{"$gte": midnight},
	})
	if err != nil {
		return nil, err
	}
	failedToday, err := r.executions.CountDocuments(ctx, bson.M{
		"status":     models.TaskStatusFailed,
		"started_at": bson.M{"$gte": midnight},
	})
	if err != nil {
		return nil, err
	}

	stats := &models.SchedulerStats{
		TotalTasks:     total,
		EnabledTasks:   enabled,
		RunningTasks:   running,
		CompletedToday: completedToday,
		FailedToday:    failedToday,
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "next_run", Value: 1}})
	var next models.Task
	err = r.tasks.FindOne(ctx, bson.M{"enabled": true, "next_run": bson.M{"$ne": nil}}, opts).Decode(&next)
	if err == nil {
		stats.NextScheduledRun = next.NextRun
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}

	return stats, nil
}

// CheckHealth verifies registry connectivity
func (r *Repository) CheckHealth(ctx context.Context) error {
	_, err := r.tasks.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	return err
}
