package dto

import (
	"go-gatewatch/internal/activity/models"
)

// ModuleStatusResponse represents the health status of the activity module
type ModuleStatusResponse struct {
	Module         string `json:"module" doc:"Module name"`
	Status         string `json:"status" doc:"Module status (healthy/unhealthy)"`
	Message        string `json:"message,omitempty" doc:"Additional status message"`
	ActiveSessions int    `json:"active_sessions" doc:"Number of live sessions"`
}

// StatusOutput wraps ModuleStatusResponse for Huma v2
type StatusOutput struct {
	Body ModuleStatusResponse
}

// ActivitiesResponse is the live session snapshot in wire format
type ActivitiesResponse struct {
	Activities []models.SessionSnapshot `json:"activities" doc:"Live sessions, highest probability first"`
	Count      int                      `json:"count" doc:"Number of live sessions"`
}

// ActivitiesOutput wraps ActivitiesResponse for Huma v2
type ActivitiesOutput struct {
	Body ActivitiesResponse
}

// RegionsActivityResponse pairs the live per-region view with its history
type RegionsActivityResponse struct {
	Live    map[string]models.RegionLiveStats    `json:"live" doc:"Live sessions bucketed per region"`
	History map[string]models.RegionHistoryStats `json:"history" doc:"Archived sessions aggregated per region"`
	Hours   int                                  `json:"hours" doc:"History window in hours"`
}

// RegionsActivityOutput wraps RegionsActivityResponse for Huma v2
type RegionsActivityOutput struct {
	Body RegionsActivityResponse
}

// SessionsResponse is a page of archived sessions
type SessionsResponse struct {
	Sessions []models.SessionRecord `json:"sessions" doc:"Archived sessions, most recent first"`
	Count    int                    `json:"count" doc:"Number of sessions returned"`
	Limit    int                    `json:"limit" doc:"Page size used"`
	Offset   int                    `json:"offset" doc:"Page offset used"`
}

// SessionsOutput wraps SessionsResponse for Huma v2
type SessionsOutput struct {
	Body SessionsResponse
}

// SessionDetailOutput wraps a single archived session for Huma v2
type SessionDetailOutput struct {
	Body models.SessionRecord
}

// SessionStatsOutput wraps the archive summary for Huma v2
type SessionStatsOutput struct {
	Body models.SessionStats
}
