package routes

import (
	"context"
	"net/http"

	"go-gatewatch/internal/activity/dto"
	"go-gatewatch/internal/activity/services"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterActivityRoutes registers all activity-related routes
func RegisterActivityRoutes(api huma.API, basePath string, service *services.Service) {
	// Module status endpoint (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getActivityStatus",
		Method:        http.MethodGet,
		Path:          basePath + "/activities/status",
		Summary:       "Get activity module status",
		Description:   "Returns the health status of the activity module",
		Tags:          []string{"Module Status"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		if err := service.HealthCheck(ctx); err != nil {
			return &dto.StatusOutput{
				Body: dto.ModuleStatusResponse{
					Module:         "activity",
					Status:         "unhealthy",
					Message:        err.Error(),
					ActiveSessions: service.ActiveSessionCount(),
				},
			}, nil
		}

		return &dto.StatusOutput{
			Body: dto.ModuleStatusResponse{
				Module:         "activity",
				Status:         "healthy",
				ActiveSessions: service.ActiveSessionCount(),
			},
		}, nil
	})

	// Live session snapshot (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getActivities",
		Method:        http.MethodGet,
		Path:          basePath + "/activities",
		Summary:       "Get live activity sessions",
		Description:   "Returns the current live sessions sorted by probability, the same snapshot WebSocket subscribers receive.",
		Tags:          []string{"Activity"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.ActivitiesOutput, error) {
		activities := service.ActiveSessions()
		return &dto.ActivitiesOutput{
			Body: dto.ActivitiesResponse{
				Activities: activities,
				Count:      len(activities),
			},
		}, nil
	})

	// Regional live + history view (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getRegionsActivity",
		Method:        http.MethodGet,
		Path:          basePath + "/regions/activity",
		Summary:       "Get per-region activity",
		Description:   "Folds live sessions into per-region buckets and aggregates archived sessions per region over the window.",
		Tags:          []string{"Activity"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.GetRegionsActivityInput) (*dto.RegionsActivityOutput, error) {
		live, history, err := service.GetRegionsActivity(ctx, input.Hours)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to load regional activity", err)
		}

		return &dto.RegionsActivityOutput{
			Body: dto.RegionsActivityResponse{
				Live:    live,
				History: history,
				Hours:   input.Hours,
			},
		}, nil
	})

	// Archived session timeline (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getSessions",
		Method:        http.MethodGet,
		Path:          basePath + "/sessions",
		Summary:       "List archived sessions",
		Description:   "Returns archived sessions ordered by start time descending, with optional classification and region filters.",
		Tags:          []string{"Activity"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.GetSessionsInput) (*dto.SessionsOutput, error) {
		sessions, err := service.GetSessions(ctx, input.Hours, input.Classification, input.Region, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list sessions", err)
		}

		return &dto.SessionsOutput{
			Body: dto.SessionsResponse{
				Sessions: sessions,
				Count:    len(sessions),
				Limit:    input.Limit,
				Offset:   input.Offset,
			},
		}, nil
	})

	// Archive summary (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getSessionStats",
		Method:        http.MethodGet,
		Path:          basePath + "/sessions/stats/summary",
		Summary:       "Get session archive summary",
		Description:   "Aggregates the archived sessions of the window into counts by classification, totals and averages.",
		Tags:          []string{"Activity"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.GetSessionStatsInput) (*dto.SessionStatsOutput, error) {
		stats, err := service.GetSessionStats(ctx, input.Hours)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to aggregate session stats", err)
		}

		return &dto.SessionStatsOutput{Body: *stats}, nil
	})

	// Single archived session (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getSessionDetail",
		Method:        http.MethodGet,
		Path:          basePath + "/sessions/{session_id}",
		Summary:       "Get archived session by ID",
		Description:   "Retrieves one archived session document from the timeline.",
		Tags:          []string{"Activity"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.GetSessionDetailInput) (*dto.SessionDetailOutput, error) {
		record, err := service.GetSessionByID(ctx, input.SessionID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch session", err)
		}
		if record == nil {
			return nil, huma.Error404NotFound("Session not found")
		}

		return &dto.SessionDetailOutput{Body: *record}, nil
	})
}
