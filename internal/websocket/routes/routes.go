package routes

import (
	"context"
	"net/http"

	"go-gatewatch/internal/websocket/dto"
	"go-gatewatch/internal/websocket/services"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterWebSocketRoutes registers the websocket status route. The upgrade
// endpoint itself is a plain Chi handler, registered by the module.
func RegisterWebSocketRoutes(api huma.API, basePath string, hub *services.Hub) {
	huma.Register(api, huma.Operation{
		OperationID:   "getWebSocketStatus",
		Method:        http.MethodGet,
		Path:          basePath + "/status",
		Summary:       "Get websocket module status",
		Description:   "Returns the subscriber hub counters and connected clients",
		Tags:          []string{"Module Status"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		return &dto.StatusOutput{
			Body: dto.ModuleStatusResponse{
				Module:  "websocket",
				Status:  "healthy",
				Stats:   hub.Stats(),
				Clients: hub.Clients(),
			},
		}, nil
	})
}
