package services

import (
	"testing"
	"time"

	"go-gatewatch/internal/zkillboard/dto"
)

func TestServiceStateString(t *testing.T) {
	tests := []struct {
		state ServiceState
		want  string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateThrottled, "throttled"},
		{StateDraining, "draining"},
		{ServiceState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ServiceState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestCalculateTTW(t *testing.T) {
	tests := []struct {
		name       string
		nullStreak int
		want       int
	}{
		{"fresh queue", 0, 1},
		{"short streak", 4, 1},
		{"at threshold", 5, 10},
		{"long quiet period", 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &RedisQConsumer{
				ttwMin:        1,
				ttwMax:        10,
				nullThreshold: 5,
				nullStreak:    tt.nullStreak,
			}
			if got := c.calculateTTW(); got != tt.want {
				t.Errorf("calculateTTW() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNullResponseGrowsStreak(t *testing.T) {
	c := &RedisQConsumer{ttwMin: 1, ttwMax: 10, nullThreshold: 2}

	for i := 0; i < 2; i++ {
		c.processResponse(&dto.RedisQResponse{})
	}

	if c.nullStreak != 2 {
		t.Errorf("null streak = %d, want 2", c.nullStreak)
	}
	if got := c.metrics.NullResponses.Load(); got != 2 {
		t.Errorf("null responses metric = %d, want 2", got)
	}
	if got := c.calculateTTW(); got != 10 {
		t.Errorf("ttw after hitting the threshold = %d, want max", got)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid duration", "45s", 45 * time.Second},
		{"complex duration", "1m30s", 90 * time.Second},
		{"invalid falls back", "soon", 30 * time.Second},
		{"empty falls back", "", 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvAsDuration("TEST_DURATION", 30*time.Second); got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimiterBackoff(t *testing.T) {
	rl := NewRateLimiter()

	if got := rl.GetBackoffDuration(); got != 5*time.Second {
		t.Errorf("initial backoff = %v, want 5s", got)
	}

	rl.IncrementBackoff()
	if got := rl.GetBackoffDuration(); got != 10*time.Second {
		t.Errorf("backoff after one hit = %v, want 10s", got)
	}

	// The level caps at four no matter how many hits come in.
	for i := 0; i < 10; i++ {
		rl.IncrementBackoff()
	}
	if got := rl.GetBackoffDuration(); got != 80*time.Second {
		t.Errorf("capped backoff = %v, want 80s", got)
	}

	rl.Reset()
	if got := rl.GetBackoffDuration(); got != 5*time.Second {
		t.Errorf("backoff after reset = %v, want 5s", got)
	}
}

func TestRateLimiterAcquireRelease(t *testing.T) {
	rl := NewRateLimiter()
	if err := rl.Acquire(); err != nil {
		t.Fatalf("first acquire should not fail: %v", err)
	}
	rl.Release()
}
