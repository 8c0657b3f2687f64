package services

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum spacing between RedisQ polls and tracks an
// exponential backoff level for upstream 429 responses. RedisQ is a shared
// public feed; hammering it gets the queue ID banned.
type RateLimiter struct {
	mu sync.Mutex

	minInterval time.Duration
	lastRequest time.Time

	backoffLevel    int
	maxBackoffLevel int
	baseBackoff     time.Duration
}

// NewRateLimiter creates a rate limiter with RedisQ-appropriate defaults
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		minInterval:     500 * time.Millisecond,
		maxBackoffLevel: 4,
		baseBackoff:     5 * time.Second,
	}
}

// Acquire blocks until the minimum interval since the previous request has
// elapsed, then claims the request slot.
func (rl *RateLimiter) Acquire() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.lastRequest.IsZero() {
		elapsed := time.Since(rl.lastRequest)
		if elapsed < rl.minInterval {
			time.Sleep(rl.minInterval - elapsed)
		}
	}

	rl.lastRequest = time.Now()
	return nil
}

// Release marks the request as complete
func (rl *RateLimiter) Release() {
	// Spacing is enforced on acquire; nothing to do here
}

// IncrementBackoff raises the backoff level after an upstream rate limit hit
func (rl *RateLimiter) IncrementBackoff() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.backoffLevel < rl.maxBackoffLevel {
		rl.backoffLevel++
	}
}

// GetBackoffDuration returns the current backoff duration (base * 2^level)
func (rl *RateLimiter) GetBackoffDuration() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.baseBackoff * time.Duration(1<<rl.backoffLevel)
}

// Reset clears the backoff level after a successful request
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.backoffLevel = 0
}
