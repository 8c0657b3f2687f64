package routes

import (
	"context"
	"net/http"

	"go-gatewatch/internal/killmails/dto"
	"go-gatewatch/internal/killmails/services"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterKillmailRoutes registers all killmail-related routes
func RegisterKillmailRoutes(api huma.API, basePath string, service *services.Service) {
	// Module status endpoint (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getKillmailsStatus",
		Method:        http.MethodGet,
		Path:          basePath + "/status",
		Summary:       "Get killmails module status",
		Description:   "Returns the health status of the killmails module",
		Tags:          []string{"Module Status"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		if err := service.HealthCheck(ctx); err != nil {
			return &dto.StatusOutput{
				Body: dto.ModuleStatusResponse{
					Module:  "killmails",
					Status:  "unhealthy",
					Message: err.Error(),
				},
			}, nil
		}

		return &dto.StatusOutput{
			Body: dto.ModuleStatusResponse{
				Module: "killmails",
				Status: "healthy",
			},
		}, nil
	})

	// Recently ingested killmails (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getRecentKillmails",
		Method:        http.MethodGet,
		Path:          basePath + "/recent",
		Summary:       "Get recently ingested killmails",
		Description:   "Returns the most recently ingested enriched killmails, including ship classifications and celestial pinpoints.",
		Tags:          []string{"Killmails"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.GetRecentKillmailsInput) (*dto.KillmailListOutput, error) {
		killmails, err := service.GetRecent(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch recent killmails", err)
		}

		return &dto.KillmailListOutput{
			Body: dto.KillmailListResponse{
				Killmails: killmails,
				Count:     len(killmails),
			},
		}, nil
	})

	// Single enriched killmail (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getKillmail",
		Method:        http.MethodGet,
		Path:          basePath + "/{killmail_id}",
		Summary:       "Get killmail by ID",
		Description:   "Retrieves a single enriched killmail from the store.",
		Tags:          []string{"Killmails"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *dto.GetKillmailInput) (*dto.KillmailOutput, error) {
		killmail, err := service.GetKillmail(ctx, input.KillmailID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch killmail", err)
		}
		if killmail == nil {
			return nil, huma.Error404NotFound("Killmail not found")
		}

		return &dto.KillmailOutput{Body: *killmail}, nil
	})
}
