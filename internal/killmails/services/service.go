package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-gatewatch/internal/killmails/models"
)

// Service exposes the killmail store to the ingest pipeline, the REST routes
// and the scheduled retention cleanup.
type Service struct {
	repository *Repository
}

// NewService creates a new killmails service
func NewService(repository *Repository) *Service {
	return &Service{
		repository: repository,
	}
}

// StoreBatch persists a batch of enriched killmails
func (s *Service) StoreBatch(ctx context.Context, killmails []models.Killmail) error {
	if len(killmails) == 0 {
		return nil
	}
	if err := s.repository.CreateMany(ctx, killmails); err != nil {
		return fmt.Errorf("failed to store killmail batch: %w", err)
	}
	return nil
}

// Exists reports whether a killmail is already stored
func (s *Service) Exists(ctx context.Context, killID int64) (bool, error) {
	return s.repository.Exists(ctx, killID)
}

// GetKillmail retrieves a single enriched killmail by its ID
func (s *Service) GetKillmail(ctx context.Context, killID int64) (*models.Killmail, error) {
	return s.repository.GetByKillID(ctx, killID)
}

// GetRecent returns the most recently ingested killmails
func (s *Service) GetRecent(ctx context.Context, limit int) ([]models.Killmail, error) {
	return s.repository.GetRecent(ctx, limit)
}

// GetBySystemSince returns killmails in a system newer than the given time
func (s *Service) GetBySystemSince(ctx context.Context, systemID int64, since time.Time, limit int) ([]models.Killmail, error) {
	return s.repository.GetBySystemSince(ctx, systemID, since, limit)
}

// CleanupOlderThan removes killmails older than the retention window
func (s *Service) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.repository.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("killmail retention cleanup failed: %w", err)
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "Killmail retention cleanup completed",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

// Count returns the total number of stored killmails
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repository.CountKillmails(ctx)
}

// CreateIndexes creates the killmail collection indexes
func (s *Service) CreateIndexes(ctx context.Context) error {
	return s.repository.CreateIndexes(ctx)
}

// HealthCheck verifies database connectivity
func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := s.repository.CountKillmails(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
