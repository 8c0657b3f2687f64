package evegateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-gatewatch/pkg/database"

	"github.com/redis/go-redis/v9"
)

// RedisCacheManager implements CacheManager using Redis for persistence
type RedisCacheManager struct {
	redis *database.Redis
	ctx   context.Context
}

// NewRedisCacheManager creates a new Redis-based cache manager
func NewRedisCacheManager(redis *database.Redis) *RedisCacheManager {
	return &RedisCacheManager{
		redis: redis,
		ctx:   context.Background(),
	}
}

func cacheKeyFor(key string) string {
	return fmt.Sprintf("esi:cache:%s", key)
}

// Get retrieves data from Redis cache
func (r *RedisCacheManager) Get(key string) ([]byte, bool, error) {
	entry, found, err := r.loadEntry(key)
	if err != nil || !found {
		return nil, false, err
	}

	// Check if entry has expired
	if entry.Expires.Before(time.Now()) {
		r.redis.Delete(r.ctx, cacheKeyFor(key))
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// GetWithExpiry retrieves data from Redis cache along with expiry time
func (r *RedisCacheManager) GetWithExpiry(key string) ([]byte, bool, *time.Time, error) {
	entry, found, err := r.loadEntry(key)
	if err != nil || !found {
		return nil, false, nil, err
	}

	if entry.Expires.Before(time.Now()) {
		r.redis.Delete(r.ctx, cacheKeyFor(key))
		return nil, false, nil, nil
	}

	return entry.Data, true, &entry.Expires, nil
}

// GetForNotModified retrieves data from Redis cache even if expired (for 304 responses)
func (r *RedisCacheManager) GetForNotModified(key string) ([]byte, bool, error) {
	entry, found, err := r.loadEntry(key)
	if err != nil || !found {
		return nil, false, err
	}

	return entry.Data, true, nil
}

// RefreshExpiry updates the expiry time of a cached entry in Redis (for 304 responses)
func (r *RedisCacheManager) RefreshExpiry(key string, headers http.Header) error {
	entry, found, err := r.loadEntry(key)
	if err != nil || !found {
		return err
	}

	entry.Expires = expiresFromHeaders(headers)
	return r.storeEntry(key, entry)
}

// Set stores data in Redis cache
func (r *RedisCacheManager) Set(key string, data []byte, headers http.Header) error {
	entry := &CacheEntry{
		Data:         data,
		ETag:         headers.Get("ETag"),
		LastModified: headers.Get("Last-Modified"),
		Expires:      expiresFromHeaders(headers),
	}

	return r.storeEntry(key, entry)
}

// SetConditionalHeaders sets conditional headers if cached data exists in Redis
func (r *RedisCacheManager) SetConditionalHeaders(req *http.Request, key string) error {
	entry, found, err := r.loadEntry(key)
	if err != nil || !found {
		return err
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	}
	if entry.LastModified != "" {
		req.Header.Set("If-Modified-Since", entry.LastModified)
	}

	return nil
}

func (r *RedisCacheManager) loadEntry(key string) (*CacheEntry, bool, error) {
	entryJSON, err := r.redis.Get(r.ctx, cacheKeyFor(key))
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil // Cache miss
		}
		return nil, false, err
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return &entry, true, nil
}

func (r *RedisCacheManager) storeEntry(key string, entry *CacheEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// Time until expiry doubles as the Redis TTL
	ttl := time.Until(entry.Expires)
	if ttl < 0 {
		ttl = 5 * time.Second
	}

	return r.redis.Set(r.ctx, cacheKeyFor(key), entryJSON, ttl)
}
