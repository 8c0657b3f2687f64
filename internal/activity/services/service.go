package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-gatewatch/internal/activity/models"
	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/config"
)

// Service ties the live session engine to the archive. The ingest pipeline
// feeds it killmails, the scheduler drives its sweep, and the REST and
// WebSocket surfaces read from it.
type Service struct {
	repository *Repository
	store      *Store
	engine     *Engine
	detection  *config.Detection
}

// NewService creates the activity service with an empty session set
func NewService(repository *Repository, detection *config.Detection) *Service {
	store := NewStore(detection)
	return &Service{
		repository: repository,
		store:      store,
		engine:     NewEngine(store, detection),
		detection:  detection,
	}
}

// SetBroadcaster wires the fan-out sink used after kills and sweeps
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.engine.SetBroadcaster(b)
}

// ProcessKillmail feeds one enriched killmail into the session engine. This
// is the sink the ingest pipeline calls for every accepted kill.
func (s *Service) ProcessKillmail(ctx context.Context, km *killmodels.Killmail) error {
	return s.engine.ProcessKillmail(ctx, km)
}

// ActiveSessions returns the current live snapshot, highest probability first
func (s *Service) ActiveSessions() []models.SessionSnapshot {
	return s.store.Snapshot(time.Now().UTC())
}

// ActiveSessionCount returns the number of live sessions
func (s *Service) ActiveSessionCount() int {
	return s.store.ActiveCount(time.Now().UTC())
}

// RunSweep is the periodic tick: expire idle sessions, rescore the rest,
// archive what expired, and broadcast when the picture changed. Archive
// failures put the session back on the queue for the next tick.
func (s *Service) RunSweep(ctx context.Context) error {
	now := time.Now().UTC()
	changed := s.store.Sweep(now)

	var firstErr error
	for _, session := range s.store.PopExpired() {
		if err := s.archiveSession(ctx, session, now); err != nil {
			s.store.Requeue(session)
			if firstErr == nil {
				firstErr = err
			}
			slog.ErrorContext(ctx, "Failed to archive expired session",
				"session_id", session.ID,
				"error", err)
			continue
		}
		slog.InfoContext(ctx, "Archived expired session",
			"session_id", session.ID,
			"classification", session.Classification,
			"kills", len(session.Kills),
			"max_probability", session.MaxProbability)
	}

	if changed {
		if b := s.engine.broadcaster; b != nil {
			b.BroadcastActivityUpdate(s.store.Snapshot(now))
		}
	}
	return firstErr
}

func (s *Service) archiveSession(ctx context.Context, session *models.Session, now time.Time) error {
	timeout := s.store.TimeoutFor(session.Classification)

	record := buildSessionRecord(session, timeout, now)
	if err := s.repository.SaveSessionRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}

	// Only camps that still looked like camps when they expired earn a row
	// in the expired-camp archive.
	if session.Type == models.SeedCamp && models.CampFamily[session.Classification] {
		camp := buildExpiredCamp(session, timeout, now)
		if err := s.repository.SaveExpiredCamp(ctx, camp); err != nil {
			return fmt.Errorf("failed to save expired camp: %w", err)
		}
	}
	return nil
}

// GetSessions returns archived sessions for the window, newest first
func (s *Service) GetSessions(ctx context.Context, hours int, classification, region string, limit, offset int) ([]models.SessionRecord, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.repository.GetSessions(ctx, since, classification, region, limit, offset)
}

// GetSessionByID retrieves one archived session, nil when unknown
func (s *Service) GetSessionByID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	return s.repository.GetSessionByID(ctx, sessionID)
}

// GetSessionStats aggregates the archive into a summary for the window
func (s *Service) GetSessionStats(ctx context.Context, hours int) (*models.SessionStats, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.repository.GetSessionStats(ctx, since)
}

// ArchivedSessionCount returns the number of archived timeline rows
func (s *Service) ArchivedSessionCount(ctx context.Context) (int64, error) {
	return s.repository.CountSessions(ctx)
}

// CreateIndexes creates the archive collection indexes
func (s *Service) CreateIndexes(ctx context.Context) error {
	return s.repository.CreateIndexes(ctx)
}

// HealthCheck verifies archive database connectivity
func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := s.repository.CountSessions(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
