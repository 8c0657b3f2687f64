package activity

import (
	"context"

	"go-gatewatch/internal/activity/routes"
	"go-gatewatch/internal/activity/services"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the activity module: the session engine that turns the
// enriched kill stream into scored camps, roams and battles.
type Module struct {
	*module.BaseModule
	service    *services.Service
	repository *services.Repository
}

// New creates a new activity module instance
func New(mongodb *database.MongoDB, redis *database.Redis, detection *config.Detection) *Module {
	repository := services.NewRepository(mongodb)
	service := services.NewService(repository, detection)

	return &Module{
		BaseModule: module.NewBaseModule("activity", mongodb, redis),
		service:    service,
		repository: repository,
	}
}

// Initialize creates the archive collection indexes
func (m *Module) Initialize(ctx context.Context) error {
	return m.repository.CreateIndexes(ctx)
}

// SetBroadcaster wires the WebSocket hub into the session engine
func (m *Module) SetBroadcaster(b services.Broadcaster) {
	m.service.SetBroadcaster(b)
}

// RegisterUnifiedRoutes registers all activity routes with the unified API gateway
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	routes.RegisterActivityRoutes(api, basePath, m.service)
}

// Routes registers routes on a Chi router (implements module.Module interface)
func (m *Module) Routes(r chi.Router) {
	// Activity module uses only Huma v2 unified routes
}

// GetService returns the service instance for this module
func (m *Module) GetService() *services.Service {
	return m.service
}
