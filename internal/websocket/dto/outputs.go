package dto

import (
	"go-gatewatch/internal/websocket/models"
)

// ModuleStatusResponse represents the health status of the websocket module
type ModuleStatusResponse struct {
	Module  string              `json:"module" doc:"Module name"`
	Status  string              `json:"status" doc:"Module status (healthy/unhealthy)"`
	Stats   models.HubStats     `json:"stats" doc:"Hub lifetime counters"`
	Clients []models.ClientInfo `json:"clients" doc:"Connected subscribers"`
}

// StatusOutput wraps ModuleStatusResponse for Huma v2
type StatusOutput struct {
	Body ModuleStatusResponse
}
