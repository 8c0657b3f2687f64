package routes

import (
	"context"
	"net/http"

	"go-gatewatch/internal/zkillboard/dto"
	"go-gatewatch/internal/zkillboard/services"

	"github.com/danielgtaylor/huma/v2"
)

// ControlInput wraps the control request body
type ControlInput struct {
	Body dto.ServiceControlInput
}

// RecentKillsInput is the input for the recent-kills endpoint
type RecentKillsInput struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum number of killmails to return"`
}

// RegisterZKillboardRoutes registers all zkillboard consumer routes
func RegisterZKillboardRoutes(api huma.API, basePath string, consumer *services.RedisQConsumer, repository *services.Repository) {
	// Consumer status (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getZKillboardStatus",
		Method:        http.MethodGet,
		Path:          basePath + "/status",
		Summary:       "Get RedisQ consumer status",
		Description:   "Returns the state, metrics and configuration of the zKillboard RedisQ consumer and its enrichment pipeline.",
		Tags:          []string{"ZKillboard"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.ServiceStatusOutput, error) {
		return consumer.GetStatus(), nil
	})

	// Consumer control (start/stop/restart)
	huma.Register(api, huma.Operation{
		OperationID:   "controlZKillboardConsumer",
		Method:        http.MethodPost,
		Path:          basePath + "/control",
		Summary:       "Control the RedisQ consumer",
		Description:   "Starts, stops or restarts the RedisQ consumer. An optional queue ID override replaces the persisted queue identity on the next start.",
		Tags:          []string{"ZKillboard"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *ControlInput) (*dto.ServiceControlOutput, error) {
		response := dto.ServiceControlResponse{Success: true}

		switch input.Body.Action {
		case "start":
			if input.Body.QueueID != "" {
				if err := consumer.OverrideQueueID(ctx, input.Body.QueueID); err != nil {
					return nil, huma.Error409Conflict("Failed to override queue ID", err)
				}
			}
			if err := consumer.Start(context.WithoutCancel(ctx)); err != nil {
				response.Success = false
				response.Message = err.Error()
			} else {
				response.Message = "Consumer started"
			}

		case "stop":
			if err := consumer.Stop(); err != nil {
				response.Success = false
				response.Message = err.Error()
			} else {
				response.Message = "Consumer stopped"
			}

		case "restart":
			if consumer.IsRunning() {
				if err := consumer.Stop(); err != nil {
					return nil, huma.Error500InternalServerError("Failed to stop consumer", err)
				}
			}
			if input.Body.QueueID != "" {
				if err := consumer.OverrideQueueID(ctx, input.Body.QueueID); err != nil {
					return nil, huma.Error409Conflict("Failed to override queue ID", err)
				}
			}
			if err := consumer.Start(context.WithoutCancel(ctx)); err != nil {
				response.Success = false
				response.Message = err.Error()
			} else {
				response.Message = "Consumer restarted"
			}

		default:
			return nil, huma.Error400BadRequest("Unknown action: " + input.Body.Action)
		}

		response.Status = consumer.GetStatus().Body.Status
		return &dto.ServiceControlOutput{Body: response}, nil
	})

	// Recent kills from the Redis ring (public)
	huma.Register(api, huma.Operation{
		OperationID:   "getZKillboardRecent",
		Method:        http.MethodGet,
		Path:          basePath + "/recent",
		Summary:       "Get recently processed killmails",
		Description:   "Returns lightweight summaries of the most recently processed killmails.",
		Tags:          []string{"ZKillboard"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *RecentKillsInput) (*dto.RecentKillmailsOutput, error) {
		summaries, err := repository.GetRecentKills(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to fetch recent killmails", err)
		}

		return &dto.RecentKillmailsOutput{
			Body: dto.RecentKillmailsResponse{
				Killmails: summaries,
				Count:     len(summaries),
			},
		}, nil
	})
}
