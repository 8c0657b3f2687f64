package evegateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/evegateway/killmails"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client represents an EVE Online ESI client. Only the killmail category is
// wired up; the activity pipeline never needs character or universe lookups
// because static data comes from the SDE exports.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	cacheManager CacheManager
	retryClient  RetryClient
	errorLimits  *ESIErrorLimits
	limitsMutex  *sync.RWMutex

	Killmails killmails.Client
}

// NewClient creates a new EVE Online ESI client. When redisClient is non-nil
// the response cache persists across restarts; otherwise an in-memory cache
// is used.
func NewClient(redisClient *database.Redis) *Client {
	var transport http.RoundTripper = http.DefaultTransport

	// Only add OpenTelemetry instrumentation if telemetry is enabled
	if config.GetBoolEnv("ENABLE_TELEMETRY", false) {
		transport = otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Host)
			}),
		)
	}

	// ESI-compliant User-Agent header with contact information
	userAgent := config.GetEnv("ESI_USER_AGENT", "go-gatewatch/1.0.0 (gatewatch@example.com)")
	baseURL := config.GetEnv("ESI_BASE_URL", "https://esi.evetech.net/latest")

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}

	var cacheManager CacheManager
	if redisClient != nil {
		cacheManager = NewRedisCacheManager(redisClient)
	} else {
		cacheManager = NewDefaultCacheManager()
	}

	errorLimits := &ESIErrorLimits{}
	limitsMutex := &sync.RWMutex{}
	retryClient := NewDefaultRetryClient(httpClient, errorLimits, limitsMutex)

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		cacheManager: cacheManager,
		retryClient:  retryClient,
		errorLimits:  errorLimits,
		limitsMutex:  limitsMutex,
		Killmails:    killmails.NewKillmailClient(httpClient, baseURL, userAgent, cacheManager, retryClient),
	}
}

// HTTPClient returns the underlying HTTP client for advanced usage
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// UserAgent returns the configured ESI User-Agent string
func (c *Client) UserAgent() string {
	return c.userAgent
}

// ErrorLimits returns a snapshot of the tracked ESI error limit state
func (c *Client) ErrorLimits() ESIErrorLimits {
	c.limitsMutex.RLock()
	defer c.limitsMutex.RUnlock()
	return *c.errorLimits
}
