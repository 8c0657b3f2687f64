package scheduler

import (
	"context"

	"go-gatewatch/internal/scheduler/routes"
	"go-gatewatch/internal/scheduler/services"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the scheduler module: a cron-driven engine that runs the
// registered system tasks on a worker pool.
type Module struct {
	*module.BaseModule
	service *services.Service
}

// New creates a new scheduler module instance
func New(mongodb *database.MongoDB, redis *database.Redis, detection *config.Detection) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("scheduler", mongodb, redis),
		service:    services.NewService(mongodb, detection),
	}
}

// Initialize creates indexes and upserts the system task definitions
func (m *Module) Initialize(ctx context.Context) error {
	if err := m.service.CreateIndexes(ctx); err != nil {
		return err
	}
	return m.service.InitializeSystemTasks(ctx)
}

// RegisterHandler binds a task ID to its implementation. Must be called
// before Start.
func (m *Module) RegisterHandler(taskID string, handler services.TaskHandler) {
	m.service.RegisterHandler(taskID, handler)
}

// Start launches the execution engine
func (m *Module) Start(ctx context.Context) error {
	return m.service.Start(ctx)
}

// Stop drains the engine, then stops the base module
func (m *Module) Stop() {
	m.service.Stop()
	m.BaseModule.Stop()
}

// RegisterUnifiedRoutes registers all scheduler routes with the unified API gateway
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	routes.RegisterSchedulerRoutes(api, basePath, m.service)
}

// Routes registers routes on a Chi router (implements module.Module interface)
func (m *Module) Routes(r chi.Router) {
	// Scheduler module uses only Huma v2 unified routes
}

// GetService returns the service instance for this module
func (m *Module) GetService() *services.Service {
	return m.service
}
