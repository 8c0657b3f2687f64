package dto

import (
	"go-gatewatch/internal/killmails/models"
)

// ModuleStatusResponse represents the health status of the killmails module
type ModuleStatusResponse struct {
	Module  string `json:"module" doc:"Module name"`
	Status  string `json:"status" doc:"Module status (healthy/unhealthy)"`
	Message string `json:"message,omitempty" doc:"Additional status message"`
}

// StatusOutput wraps ModuleStatusResponse for Huma v2
type StatusOutput struct {
	Body ModuleStatusResponse
}

// KillmailListResponse is a page of enriched killmails in wire format
type KillmailListResponse struct {
	Killmails []models.Killmail `json:"killmails" doc:"Enriched killmails, most recently ingested first"`
	Count     int               `json:"count" doc:"Number of killmails returned"`
}

// KillmailListOutput wraps KillmailListResponse for Huma v2
type KillmailListOutput struct {
	Body KillmailListResponse
}

// KillmailOutput wraps a single enriched killmail for Huma v2
type KillmailOutput struct {
	Body models.Killmail
}
