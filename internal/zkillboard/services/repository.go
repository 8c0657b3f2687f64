package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-gatewatch/internal/zkillboard/dto"
	"go-gatewatch/internal/zkillboard/models"
	"go-gatewatch/pkg/database"

	"github.com/redis/go-redis/v9"
)

const (
	consumerStateKey = "zkb:consumer:state"
	queueIDKey       = "zkb:consumer:queue_id"
	seenKeyPrefix    = "zkb:seen:"
	recentKillsKey   = "zkb:recent"

	// seenTTL bounds the dedupe markers; RedisQ never redelivers older kills
	seenTTL = 24 * time.Hour

	// recentKillsMax is the length of the recent-kills ring
	recentKillsMax = 100
)

// Repository stores the consumer's hot state in Redis: queue identity, state
// snapshots, dedupe markers and the recent-kills ring.
type Repository struct {
	redis *database.Redis
}

// NewRepository creates a new zkillboard repository
func NewRepository(redis *database.Redis) *Repository {
	return &Repository{
		redis: redis,
	}
}

// SaveConsumerState persists the consumer state snapshot
func (r *Repository) SaveConsumerState(ctx context.Context, state *models.ConsumerState) error {
	return r.redis.SetJSON(ctx, consumerStateKey, state, 0)
}

// LoadConsumerState returns the last persisted consumer state, or nil when none exists
func (r *Repository) LoadConsumerState(ctx context.Context) (*models.ConsumerState, error) {
	var state models.ConsumerState
	err := r.redis.GetJSON(ctx, consumerStateKey, &state)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// LoadOrCreateQueueID returns the persistent RedisQ queue identity, storing
// the candidate when none exists yet. Keeping the same queue ID across
// restarts lets RedisQ resume the stream where the previous run left it.
func (r *Repository) LoadOrCreateQueueID(ctx context.Context, candidate string) (string, error) {
	created, err := r.redis.SetNX(ctx, queueIDKey, candidate, 0)
	if err != nil {
		return "", fmt.Errorf("failed to persist queue ID: %w", err)
	}
	if created {
		return candidate, nil
	}

	queueID, err := r.redis.Get(ctx, queueIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to load queue ID: %w", err)
	}
	return queueID, nil
}

// StoreQueueID replaces the persisted queue identity
func (r *Repository) StoreQueueID(ctx context.Context, queueID string) error {
	return r.redis.Set(ctx, queueIDKey, queueID, 0)
}

// MarkSeen records a killmail as processed. Returns true when the kill was
// not seen before, false when the marker already existed.
func (r *Repository) MarkSeen(ctx context.Context, killID int64) (bool, error) {
	return r.redis.SetNX(ctx, fmt.Sprintf("%s%d", seenKeyPrefix, killID), "1", seenTTL)
}

// WasSeen reports whether a killmail was already processed recently
func (r *Repository) WasSeen(ctx context.Context, killID int64) (bool, error) {
	count, err := r.redis.Exists(ctx, fmt.Sprintf("%s%d", seenKeyPrefix, killID))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CacheRecentKill pushes a killmail summary onto the recent-kills ring
func (r *Repository) CacheRecentKill(ctx context.Context, summary *dto.KillmailSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal killmail summary: %w", err)
	}

	pipe := r.redis.Client.TxPipeline()
	pipe.LPush(ctx, recentKillsKey, data)
	pipe.LTrim(ctx, recentKillsKey, 0, recentKillsMax-1)
	_, err = pipe.Exec(ctx)
	return err
}

// GetRecentKills returns the newest killmail summaries, up to limit
func (r *Repository) GetRecentKills(ctx context.Context, limit int) ([]dto.KillmailSummary, error) {
	if limit <= 0 || limit > recentKillsMax {
		limit = recentKillsMax
	}

	entries, err := r.redis.Client.LRange(ctx, recentKillsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.KillmailSummary, 0, len(entries))
	for _, entry := range entries {
		var summary dto.KillmailSummary
		if err := json.Unmarshal([]byte(entry), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
