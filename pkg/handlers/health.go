package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go-gatewatch/pkg/version"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthGauge reports one live counter for the aggregate health document
type HealthGauge func() int64

// AggregateHealthConfig wires the service-level health endpoint
type AggregateHealthConfig struct {
	Service string
	Checks  map[string]HealthCheck
	Gauges  map[string]HealthGauge
}

// AggregateHealthResponse is the service-level health document
type AggregateHealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	GitCommit string            `json:"git_commit"`
	BuildDate string            `json:"build_date"`
	GoVersion string            `json:"go_version"`
	Platform  string            `json:"platform"`
	Checks    map[string]string `json:"checks,omitempty"`
	Gauges    map[string]int64  `json:"gauges,omitempty"`
}

// AggregateHealthHandler builds the service-level health endpoint: dependency
// probes plus live gauges. It always answers 200 so load balancers keep
// routing; the status field and per-check detail carry the degradation.
func AggregateHealthHandler(cfg AggregateHealthConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		info := version.Get()
		response := AggregateHealthResponse{
			Status:    "healthy",
			Service:   cfg.Service,
			Version:   info.Version,
			GitCommit: info.GitCommit,
			BuildDate: info.BuildDate,
			GoVersion: info.GoVersion,
			Platform:  info.Platform,
			Checks:    make(map[string]string, len(cfg.Checks)),
			Gauges:    make(map[string]int64, len(cfg.Gauges)),
		}

		for name, check := range cfg.Checks {
			if err := check(ctx); err != nil {
				response.Status = "degraded"
				response.Checks[name] = err.Error()
			} else {
				response.Checks[name] = "ok"
			}
		}
		for name, gauge := range cfg.Gauges {
			response.Gauges[name] = gauge()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("Failed to encode health response", "error", err)
		}
	}
}
