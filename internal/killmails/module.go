package killmails

import (
	"context"

	"go-gatewatch/internal/killmails/routes"
	"go-gatewatch/internal/killmails/services"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the killmails module: the durable store for enriched kills
type Module struct {
	*module.BaseModule
	service    *services.Service
	repository *services.Repository
}

// New creates a new killmails module instance
func New(mongodb *database.MongoDB, redis *database.Redis) *Module {
	repository := services.NewRepository(mongodb)
	service := services.NewService(repository)

	return &Module{
		BaseModule: module.NewBaseModule("killmails", mongodb, redis),
		service:    service,
		repository: repository,
	}
}

// RegisterUnifiedRoutes registers all killmails routes with the unified API gateway
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	routes.RegisterKillmailRoutes(api, basePath, m.service)
}

// Routes registers routes on a Chi router (implements module.Module interface)
func (m *Module) Routes(r chi.Router) {
	// Killmails module uses only Huma v2 unified routes
}

// Initialize performs module initialization tasks
func (m *Module) Initialize(ctx context.Context) error {
	return m.repository.CreateIndexes(ctx)
}

// GetService returns the service instance for this module
func (m *Module) GetService() *services.Service {
	return m.service
}

// GetRepository returns the repository instance for this module
func (m *Module) GetRepository() *services.Repository {
	return m.repository
}
