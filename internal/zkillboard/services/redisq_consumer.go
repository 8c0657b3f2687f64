package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go-gatewatch/internal/zkillboard/dto"
	"go-gatewatch/internal/zkillboard/models"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/version"

	"github.com/google/uuid"
)

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ServiceState represents the state of the consumer service
type ServiceState int

const (
	StateStopped ServiceState = iota
	StateStarting
	StateRunning
	StateThrottled
	StateDraining
)

func (s ServiceState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateThrottled:
		return "throttled"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// RedisQConsumer long-polls the zKillboard RedisQ feed and feeds packages
// into the killmail processor. The queue identity is persisted in Redis so a
// restart resumes the same upstream queue.
type RedisQConsumer struct {
	httpClient *http.Client
	processor  *KillmailProcessor
	repository *Repository

	// Configuration
	queueID       string
	endpoint      string
	userAgent     string
	ttw           int
	ttwMin        int
	ttwMax        int
	nullThreshold int

	// State management
	mu         sync.RWMutex
	state      atomic.Int32
	running    atomic.Bool
	desired    atomic.Bool
	lastPoll   time.Time
	nullStreak int
	startTime  time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	// Metrics
	metrics ConsumerMetrics

	// Rate limiting
	rateLimiter *RateLimiter
}

// ConsumerMetrics tracks poll-level performance metrics
type ConsumerMetrics struct {
	TotalPolls     atomic.Int64
	NullResponses  atomic.Int64
	KillmailsFound atomic.Int64
	HTTPErrors     atomic.Int64
	ParseErrors    atomic.Int64
	StoreErrors    atomic.Int64
	RateLimitHits  atomic.Int64
	LastKillmailID atomic.Int64
}

// NewRedisQConsumer creates a new RedisQ consumer instance
func NewRedisQConsumer(processor *KillmailProcessor, repository *Repository) *RedisQConsumer {
	endpoint := config.GetEnv("REDISQ_URL", "https://zkillredisq.stream/listen.php")
	userAgent := config.GetEnv("ZKB_USER_AGENT", fmt.Sprintf("go-gatewatch/%s (gatewatch@example.com)", version.Version))

	ttwMin := config.GetIntEnv("ZKB_REDISQ_TTW_MIN", 1)
	ttwMax := config.GetIntEnv("ZKB_REDISQ_TTW_MAX", 10)
	nullThreshold := config.GetIntEnv("ZKB_NULL_THRESHOLD", 5)
	httpTimeout := getEnvAsDuration("ZKB_HTTP_TIMEOUT", 30*time.Second)

	// The client timeout must cover the server-side long-poll wait
	if minTimeout := time.Duration(ttwMax+10) * time.Second; httpTimeout < minTimeout {
		httpTimeout = minTimeout
	}

	httpClient := &http.Client{
		Timeout: httpTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	consumer := &RedisQConsumer{
		httpClient:    httpClient,
		processor:     processor,
		repository:    repository,
		endpoint:      endpoint,
		userAgent:     userAgent,
		ttw:           ttwMin,
		ttwMin:        ttwMin,
		ttwMax:        ttwMax,
		nullThreshold: nullThreshold,
		rateLimiter:   NewRateLimiter(),
	}

	consumer.state.Store(int32(StateStopped))
	return consumer
}

// Start begins the consumer polling loop
func (c *RedisQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Record intent before anything can fail, so the watchdog retries a
	// start that lost a race with a Redis hiccup.
	c.desired.Store(true)

	if c.running.Load() {
		return fmt.Errorf("consumer already running")
	}

	c.state.Store(int32(StateStarting))
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.resolveQueueID(c.ctx); err != nil {
		c.state.Store(int32(StateStopped))
		return err
	}

	if previous, err := c.repository.LoadConsumerState(c.ctx); err == nil && previous != nil {
		slog.Info("Resuming RedisQ queue",
			"queue_id", c.queueID,
			"previous_state", previous.State,
			"previous_killmails", previous.KillmailsFound)
	}

	// Reset per-session counters
	c.nullStreak = 0
	c.ttw = c.ttwMin
	c.startTime = time.Now()

	c.processor.Start(c.ctx)

	c.wg.Add(1)
	go c.pollLoop()

	c.running.Store(true)
	c.state.Store(int32(StateRunning))

	if err := c.repository.SaveConsumerState(c.ctx, c.getState()); err != nil {
		slog.Warn("Failed to save consumer state", "error", err)
	}

	slog.Info("RedisQ consumer started", "queue_id", c.queueID, "endpoint", c.endpoint)

	return nil
}

// Stop gracefully stops the consumer and drains the enrichment pipeline
func (c *RedisQConsumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.desired.Store(false)

	if !c.running.Load() {
		return fmt.Errorf("consumer not running")
	}

	c.state.Store(int32(StateDraining))

	slog.Info("Stopping RedisQ consumer...")

	if c.cancel != nil {
		c.cancel()
	}

	// Wait for the polling loop to finish
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("RedisQ poll loop stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("RedisQ consumer stop timeout")
	}

	// Drain in-flight enrichment, then land the tail batch
	c.processor.Stop()
	if err := c.processor.Flush(context.Background()); err != nil {
		slog.Error("Failed to flush pending killmails on stop", "error", err)
	}

	c.running.Store(false)
	c.state.Store(int32(StateStopped))

	state := c.getState()
	now := time.Now()
	state.StoppedAt = &now
	if err := c.repository.SaveConsumerState(context.Background(), state); err != nil {
		slog.Warn("Failed to save final consumer state", "error", err)
	}

	slog.Info("RedisQ consumer stopped")
	return nil
}

// IsRunning reports whether the consumer loop is active
func (c *RedisQConsumer) IsRunning() bool {
	return c.running.Load()
}

// ShouldBeRunning reports whether the last control action wanted the
// consumer up. The feed watchdog restarts the consumer when this is true
// but the loop is down.
func (c *RedisQConsumer) ShouldBeRunning() bool {
	return c.desired.Load()
}

// OverrideQueueID replaces the persisted queue identity before a start
func (c *RedisQConsumer) OverrideQueueID(ctx context.Context, queueID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return fmt.Errorf("cannot change queue ID while running")
	}
	c.queueID = queueID
	return c.repository.StoreQueueID(ctx, queueID)
}

// resolveQueueID picks the queue identity: explicit override, environment,
// the persisted value, or a freshly generated one.
func (c *RedisQConsumer) resolveQueueID(ctx context.Context) error {
	if c.queueID != "" {
		return nil
	}

	if queueID := os.Getenv("REDISQ_QUEUE_ID"); queueID != "" {
		c.queueID = queueID
		return nil
	}

	candidate := fmt.Sprintf("gatewatch-%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	queueID, err := c.repository.LoadOrCreateQueueID(ctx, candidate)
	if err != nil {
		return fmt.Errorf("failed to resolve queue ID: %w", err)
	}
	c.queueID = queueID
	return nil
}

// pollLoop is the main polling loop
func (c *RedisQConsumer) pollLoop() {
	defer c.wg.Done()

	slog.Info("Starting RedisQ poll loop")

	// Periodic state save ticker
	stateTicker := time.NewTicker(30 * time.Second)
	defer stateTicker.Stop()

	// Periodic batch flush so quiet periods still land their kills
	flushTicker := time.NewTicker(3 * time.Second)
	defer flushTicker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			slog.Info("Poll loop context cancelled")
			return

		case <-stateTicker.C:
			if err := c.repository.SaveConsumerState(c.ctx, c.getState()); err != nil {
				slog.Warn("Failed to save consumer state", "error", err)
			}

		case <-flushTicker.C:
			if err := c.processor.Flush(c.ctx); err != nil {
				slog.Error("Failed to flush pending killmails", "error", err)
			}

		default:
			c.poll()
		}
	}
}

// poll performs a single RedisQ poll
func (c *RedisQConsumer) poll() {
	if err := c.rateLimiter.Acquire(); err != nil {
		slog.Warn("Rate limit acquisition failed", "error", err)
		c.metrics.RateLimitHits.Add(1)
		c.state.Store(int32(StateThrottled))
		time.Sleep(5 * time.Second)
		c.state.Store(int32(StateRunning))
		return
	}
	defer c.rateLimiter.Release()

	ttw := c.calculateTTW()

	url := fmt.Sprintf("%s?queueID=%s&ttw=%d", c.endpoint, c.queueID, ttw)

	req, err := http.NewRequestWithContext(c.ctx, "GET", url, nil)
	if err != nil {
		slog.Error("Failed to create request", "error", err)
		c.metrics.HTTPErrors.Add(1)
		time.Sleep(5 * time.Second)
		return
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.metrics.TotalPolls.Add(1)
	c.mu.Lock()
	c.lastPoll = time.Now()
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		slog.Error("RedisQ request failed", "error", err)
		c.metrics.HTTPErrors.Add(1)
		time.Sleep(5 * time.Second)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		slog.Warn("Rate limited by RedisQ")
		c.metrics.RateLimitHits.Add(1)
		c.state.Store(int32(StateThrottled))

		c.rateLimiter.IncrementBackoff()
		backoffDuration := c.rateLimiter.GetBackoffDuration()
		slog.Info("Backing off due to rate limit", "backoff", backoffDuration)
		time.Sleep(backoffDuration)

		c.state.Store(int32(StateRunning))
		return
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Unexpected RedisQ status", "status", resp.StatusCode)
		c.metrics.HTTPErrors.Add(1)
		time.Sleep(5 * time.Second)
		return
	}

	c.rateLimiter.Reset()

	var redisqResp dto.RedisQResponse
	if err := json.NewDecoder(resp.Body).Decode(&redisqResp); err != nil {
		slog.Error("Failed to decode RedisQ response", "error", err)
		c.metrics.ParseErrors.Add(1)
		return
	}

	c.processResponse(&redisqResp)
}

// processResponse handles the RedisQ response
func (c *RedisQConsumer) processResponse(resp *dto.RedisQResponse) {
	if resp.Package == nil {
		c.metrics.NullResponses.Add(1)
		c.mu.Lock()
		c.nullStreak++
		c.mu.Unlock()
		return
	}

	// Reset the adaptive wait on killmail received
	c.mu.Lock()
	c.nullStreak = 0
	c.ttw = c.ttwMin
	c.mu.Unlock()

	c.metrics.KillmailsFound.Add(1)
	c.metrics.LastKillmailID.Store(resp.Package.KillID)

	if err := c.processor.ProcessKillmail(c.ctx, resp.Package); err != nil {
		slog.Error("Failed to process killmail", "error", err, "killmail_id", resp.Package.KillID)
		c.metrics.StoreErrors.Add(1)
		return
	}

	slog.Info("Killmail received",
		"killmail_id", resp.Package.KillID,
		"value", resp.Package.ZKB.TotalValue,
		"solo", resp.Package.ZKB.Solo,
		"npc", resp.Package.ZKB.NPC)
}

// calculateTTW calculates the adaptive long-poll wait: back off to the
// maximum after a streak of empty responses, snap back on activity.
func (c *RedisQConsumer) calculateTTW() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.nullStreak >= c.nullThreshold {
		return c.ttwMax
	}
	return c.ttwMin
}

// GetStatus returns the current service status
func (c *RedisQConsumer) GetStatus() *dto.ServiceStatusOutput {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var lastPoll *time.Time
	if !c.lastPoll.IsZero() {
		lp := c.lastPoll
		lastPoll = &lp
	}

	var lastKillmail *int64
	if id := c.metrics.LastKillmailID.Load(); id > 0 {
		lastKillmail = &id
	}

	var uptime time.Duration
	if !c.startTime.IsZero() && c.running.Load() {
		uptime = time.Since(c.startTime)
	}

	pm := c.processor.Metrics()

	return &dto.ServiceStatusOutput{
		Body: dto.ServiceStatusResponse{
			Status:       ServiceState(c.state.Load()).String(),
			QueueID:      c.queueID,
			LastPoll:     lastPoll,
			LastKillmail: lastKillmail,
			Metrics: dto.ServiceMetrics{
				TotalPolls:       c.metrics.TotalPolls.Load(),
				NullResponses:    c.metrics.NullResponses.Load(),
				KillmailsFound:   c.metrics.KillmailsFound.Load(),
				HTTPErrors:       c.metrics.HTTPErrors.Load(),
				ParseErrors:      c.metrics.ParseErrors.Load(),
				StoreErrors:      c.metrics.StoreErrors.Load() + pm.StoreErrors.Load(),
				RateLimitHits:    c.metrics.RateLimitHits.Load(),
				Enriched:         pm.Enriched.Load(),
				Duplicates:       pm.Duplicates.Load(),
				DroppedInvalid:   pm.DroppedInvalid.Load(),
				DroppedOld:       pm.DroppedOld.Load(),
				ESIFallbacks:     pm.ESIFallbacks.Load(),
				EnrichQueueDepth: c.processor.EnrichQueueDepth(),
				CurrentTTW:       c.ttw,
				NullStreak:       c.nullStreak,
				Uptime:           uptime,
			},
			Config: dto.ServiceConfig{
				Endpoint:      c.endpoint,
				TTWMin:        c.ttwMin,
				TTWMax:        c.ttwMax,
				NullThreshold: c.nullThreshold,
				BatchSize:     c.processor.BatchSize(),
				EnrichWorkers: c.processor.EnrichWorkers(),
				MaxKillAgeH:   int(c.processor.MaxKillAge().Hours()),
			},
			Message: c.getStatusMessage(),
		},
	}
}

// getStatusMessage returns a descriptive status message
func (c *RedisQConsumer) getStatusMessage() string {
	state := ServiceState(c.state.Load())
	switch state {
	case StateRunning:
		return fmt.Sprintf("Consumer running, %d killmails enriched", c.processor.Metrics().Enriched.Load())
	case StateThrottled:
		return "Consumer throttled due to rate limiting"
	case StateDraining:
		return "Consumer draining, shutdown in progress"
	case StateStopped:
		return "Consumer stopped"
	default:
		return "Consumer in unknown state"
	}
}

// getState returns the current consumer state for persistence
func (c *RedisQConsumer) getState() *models.ConsumerState {
	pm := c.processor.Metrics()
	return &models.ConsumerState{
		QueueID:        c.queueID,
		State:          ServiceState(c.state.Load()).String(),
		LastPollTime:   c.lastPoll,
		LastKillmailID: c.metrics.LastKillmailID.Load(),
		TotalPolls:     c.metrics.TotalPolls.Load(),
		NullResponses:  c.metrics.NullResponses.Load(),
		KillmailsFound: c.metrics.KillmailsFound.Load(),
		HTTPErrors:     c.metrics.HTTPErrors.Load(),
		ParseErrors:    c.metrics.ParseErrors.Load(),
		StoreErrors:    c.metrics.StoreErrors.Load() + pm.StoreErrors.Load(),
		RateLimitHits:  c.metrics.RateLimitHits.Load(),
		Enriched:       pm.Enriched.Load(),
		Duplicates:     pm.Duplicates.Load(),
		DroppedInvalid: pm.DroppedInvalid.Load(),
		DroppedOld:     pm.DroppedOld.Load(),
		ESIFallbacks:   pm.ESIFallbacks.Load(),
		CurrentTTW:     c.ttw,
		NullStreak:     c.nullStreak,
		StartedAt:      c.startTime,
		UpdatedAt:      time.Now(),
	}
}
