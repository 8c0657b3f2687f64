package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go-gatewatch/internal/activity"
	"go-gatewatch/internal/killmails"
	"go-gatewatch/internal/scheduler"
	schedulersvc "go-gatewatch/internal/scheduler/services"
	"go-gatewatch/internal/websocket"
	"go-gatewatch/internal/zkillboard"
	"go-gatewatch/pkg/app"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/evegateway"
	"go-gatewatch/pkg/handlers"
	gatewatchMiddleware "go-gatewatch/pkg/middleware"
	"go-gatewatch/pkg/module"
	"go-gatewatch/pkg/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "go.uber.org/automaxprocs"
)

// customLoggerMiddleware logs requests but excludes health check endpoints
func customLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip logging for health check endpoints
		if strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}

		// Use the default chi logger for all other requests
		middleware.Logger(next).ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers. CORS_ALLOWED_ORIGINS is "*" (default) or
// a comma-separated list of exact origins; listed origins also get
// credentials.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := config.GetEnv("CORS_ALLOWED_ORIGINS", "*")
	allowAny := allowed == "*"

	allowedSet := make(map[string]bool)
	if !allowAny {
		for _, origin := range strings.Split(allowed, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedSet[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowAny {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if allowedSet[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	// Display startup banner
	displayBanner()

	// Display version information
	versionInfo := version.Get()
	log.Printf("🏷️  Version: %s | Build: %s", version.GetVersionString(), versionInfo.BuildDate)
	log.Printf("🖥️  CPUs: %d | GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	ctx := context.Background()

	// Initialize application with shared components
	appCtx, err := app.InitializeApp("gatewatch")
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// The archive and the hot state are load-bearing here, unlike services
	// that can limp along without them.
	if appCtx.MongoDB == nil || appCtx.Redis == nil {
		log.Fatalf("Gatewatch requires MongoDB and Redis")
	}

	// Print memory stats (compact)
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("💾 Memory: %s heap | %s total", formatBytes(m.HeapAlloc), formatBytes(m.Sys))
	printMemoryLimits()

	// Initialize Chi router
	r := chi.NewRouter()

	// Global middleware
	r.Use(customLoggerMiddleware) // Custom logger that excludes health checks
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)
	r.Use(gatewatchMiddleware.TracingMiddleware)

	// Shared ESI client (killmail body fetch for null RedisQ packages)
	evegateClient := evegateway.NewClient(appCtx.Redis)

	// Initialize modules. The kill pipeline is wired back to front, so each
	// stage exists before the one that feeds it.
	killmailsModule := killmails.New(appCtx.MongoDB, appCtx.Redis)
	activityModule := activity.New(appCtx.MongoDB, appCtx.Redis, appCtx.Detection)
	activityService := activityModule.GetService()

	zkbModule := zkillboard.New(
		appCtx.MongoDB,
		appCtx.Redis,
		evegateClient,
		appCtx.SDEService,
		killmailsModule.GetService(),
		activityService,
	)
	wsModule := websocket.New(appCtx.MongoDB, appCtx.Redis, activityService)
	activityModule.SetBroadcaster(wsModule.Hub())

	schedulerModule := scheduler.New(appCtx.MongoDB, appCtx.Redis, appCtx.Detection)

	// System task implementations
	schedulerModule.RegisterHandler(schedulersvc.TaskActivitySweep, func(taskCtx context.Context) (string, error) {
		if err := activityService.RunSweep(taskCtx); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d sessions active", activityService.ActiveSessionCount()), nil
	})
	schedulerModule.RegisterHandler(schedulersvc.TaskKillmailCleanup, func(taskCtx context.Context) (string, error) {
		deleted, err := killmailsModule.GetService().CleanupOlderThan(taskCtx, appCtx.Detection.KillRetention)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("removed %d killmails", deleted), nil
	})
	schedulerModule.RegisterHandler(schedulersvc.TaskFeedWatchdog, func(taskCtx context.Context) (string, error) {
		consumer := zkbModule.GetConsumer()
		if consumer.IsRunning() {
			return "consumer running", nil
		}
		if !consumer.ShouldBeRunning() {
			return "consumer stopped by operator", nil
		}
		// The consumer outlives the task deadline, so it gets the app
		// context rather than taskCtx.
		if err := consumer.Start(ctx); err != nil {
			return "", fmt.Errorf("failed to restart consumer: %w", err)
		}
		return "consumer restarted", nil
	})

	modules := []module.Module{killmailsModule, activityModule, zkbModule, wsModule, schedulerModule}

	// Create indexes and seed system tasks
	if err := killmailsModule.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize killmails module: %v", err)
	}
	if err := activityModule.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize activity module: %v", err)
	}
	if err := zkbModule.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize zkillboard module: %v", err)
	}
	if err := schedulerModule.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize scheduler module: %v", err)
	}

	// Mount module routes with configurable API prefix
	apiPrefix := config.GetAPIPrefix()

	// Create unified Huma API configuration
	humaConfig := huma.DefaultConfig("Gatewatch API", "1.0.0")
	humaConfig.Info.Description = "EVE Online gate camp detection: real-time killmail activity sessions, regional aggregation and historical timeline"

	// Add servers based on environment configuration or defaults
	customServers := config.GetOpenAPIServers()
	if customServers != nil {
		humaConfig.Servers = make([]*huma.Server, len(customServers))
		for i, server := range customServers {
			serverURL := server.URL
			if apiPrefix != "" && !strings.HasSuffix(serverURL, apiPrefix) {
				serverURL = serverURL + apiPrefix
			}
			humaConfig.Servers[i] = &huma.Server{
				URL:         serverURL,
				Description: server.Description,
			}
		}
	} else {
		frontendURL := config.GetFrontendURL()
		humaConfig.Servers = []*huma.Server{
			{URL: frontendURL + apiPrefix, Description: "Production server"},
			{URL: "http://localhost:8080" + apiPrefix, Description: "Local development"},
		}
	}

	// Create the unified API on the main router
	var unifiedAPI huma.API
	if apiPrefix == "" {
		unifiedAPI = humachi.New(r, humaConfig)
	} else {
		// Mount the API under the prefix
		r.Route(apiPrefix, func(prefixRouter chi.Router) {
			unifiedAPI = humachi.New(prefixRouter, humaConfig)
		})
	}

	// Register all module routes on the unified API
	killmailsModule.RegisterUnifiedRoutes(unifiedAPI, "/killmails")
	activityModule.RegisterUnifiedRoutes(unifiedAPI, "/api")
	zkbModule.RegisterUnifiedRoutes(unifiedAPI, "/zkillboard")
	wsModule.RegisterUnifiedRoutes(unifiedAPI, "/websocket")
	schedulerModule.RegisterUnifiedRoutes(unifiedAPI, "/scheduler")

	// The WebSocket upgrade is a raw chi route outside huma and outside the
	// API prefix
	wsModule.Routes(r)

	// Aggregate health endpoint
	r.Get("/health", handlers.AggregateHealthHandler(handlers.AggregateHealthConfig{
		Service: "gatewatch",
		Checks: map[string]handlers.HealthCheck{
			"mongodb":   appCtx.MongoDB.HealthCheck,
			"redis":     appCtx.Redis.HealthCheck,
			"activity":  activityService.HealthCheck,
			"killmails": killmailsModule.GetService().HealthCheck,
			"scheduler": schedulerModule.GetService().HealthCheck,
		},
		Gauges: map[string]handlers.HealthGauge{
			"websocket_clients": func() int64 { return int64(wsModule.Hub().ClientCount()) },
			"active_sessions":   func() int64 { return int64(activityService.ActiveSessionCount()) },
			"cached_ship_types": func() int64 { return int64(zkbModule.GetCategories().CachedCount()) },
			"map_systems":       func() int64 { return int64(appCtx.SDEService.Counts()["solar_systems"]) },
		},
	}))

	// Start background services for all modules
	for _, mod := range modules {
		go mod.StartBackgroundTasks(ctx)
	}

	// Start the kill feed and the scheduler engine
	if err := zkbModule.Start(ctx); err != nil {
		// Not fatal: the feed watchdog task retries every five minutes
		slog.Error("Failed to start RedisQ consumer", "error", err)
	}
	if err := schedulerModule.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler engine: %v", err)
	}

	// HTTP server setup
	port := app.GetPort("8080")
	host := config.GetHost()

	srv := &http.Server{
		Addr:         host + ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Display server configuration
	serverAddr := host + ":" + port
	if host == "0.0.0.0" {
		log.Printf("🚀 Server: http://localhost:%s%s | OpenAPI: %s/openapi.json", port, apiPrefix, apiPrefix)
	} else {
		log.Printf("🚀 Server: http://%s%s | OpenAPI: %s/openapi.json", serverAddr, apiPrefix, apiPrefix)
	}

	// Start main server
	go func() {
		slog.Info("Starting gatewatch server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Received shutdown signal, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Drain order matters: stop the ingest side so no new kills enter the
	// engine, wait out an in-flight sweep, flush whatever expired, then
	// drop the subscribers.
	zkbModule.Stop()
	schedulerModule.Stop()
	if err := activityService.RunSweep(shutdownCtx); err != nil {
		slog.Warn("Final archive sweep failed", "error", err)
	}
	wsModule.Stop()
	killmailsModule.Stop()
	activityModule.Stop()

	// Application context handles database and telemetry shutdown
	appCtx.Shutdown(shutdownCtx)

	slog.Info("Gatewatch shutdown completed successfully")
}

func displayBanner() {
	file, err := os.Open("banner.txt")
	if err != nil {
		// Fallback to inline banner if file not found
		fmt.Print("\033[38;5;33m")
		fmt.Print("GATEWATCH\n")
		fmt.Print("\033[0m")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		fmt.Print("\033[38;5;33m")
		fmt.Print("GATEWATCH\n")
		fmt.Print("\033[0m")
		return
	}

	lines := strings.Split(string(content), "\n")
	colors := []string{
		"\033[38;5;33m", // Bright blue
		"\033[38;5;39m", // Cyan
		"\033[38;5;75m", // Light blue
		"\033[38;5;51m", // Bright cyan
		"\033[38;5;33m", // Bright blue
		"\033[38;5;39m", // Cyan
	}

	fmt.Print("\n")
	for i, line := range lines {
		if line != "" && i < len(colors) {
			fmt.Print(colors[i])
			fmt.Println(line)
		}
	}
	fmt.Print("\033[0m") // Reset colors
	fmt.Print("\n")
}

// formatBytes converts bytes to human readable format
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// printMemoryLimits reads and displays container memory limits
func printMemoryLimits() {
	// Try cgroups v2 first (newer systems)
	if limit := readCgroupV2MemoryLimit(); limit > 0 {
		log.Printf("📦 Container limit: %s", formatBytes(uint64(limit)))
		return
	}

	// Try cgroups v1 (older systems)
	if limit := readCgroupV1MemoryLimit(); limit > 0 {
		log.Printf("📦 Container limit: %s", formatBytes(uint64(limit)))
		return
	}
}

// readCgroupV2MemoryLimit reads memory limit from cgroups v2
func readCgroupV2MemoryLimit() int64 {
	data, err := os.ReadFile("/sys/fs/cgroup/memory.max")
	if err != nil {
		return 0
	}

	limitStr := strings.TrimSpace(string(data))
	if limitStr == "max" {
		return 0 // No limit set
	}

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		return 0
	}

	return limit
}

// readCgroupV1MemoryLimit reads memory limit from cgroups v1
func readCgroupV1MemoryLimit() int64 {
	data, err := os.ReadFile("/sys/fs/cgroup/memory/memory.limit_in_bytes")
	if err != nil {
		return 0
	}

	limitStr := strings.TrimSpace(string(data))
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		return 0
	}

	// cgroups v1 sometimes returns very large values when no limit is set
	// Anything larger than 1TB is probably "unlimited"
	if limit > 1024*1024*1024*1024 {
		return 0
	}

	return limit
}
