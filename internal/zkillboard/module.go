package zkillboard

import (
	"context"
	"log/slog"
	"time"

	killservices "go-gatewatch/internal/killmails/services"
	"go-gatewatch/internal/zkillboard/routes"
	"go-gatewatch/internal/zkillboard/services"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/evegateway"
	"go-gatewatch/pkg/module"
	"go-gatewatch/pkg/sde"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the zkillboard module: the RedisQ consumer and the
// enrichment pipeline that feeds the activity engine and the kill store.
type Module struct {
	*module.BaseModule
	consumer   *services.RedisQConsumer
	processor  *services.KillmailProcessor
	repository *services.Repository
	categories *services.ShipCategoryResolver
}

// New creates a new zkillboard module instance. The sink receives enriched
// killmails in ingestion order; passing nil disables activity tracking.
func New(
	mongodb *database.MongoDB,
	redis *database.Redis,
	eveGateway *evegateway.Client,
	sdeService sde.SDEService,
	killService *killservices.Service,
	sink services.ActivitySink,
) *Module {
	repository := services.NewRepository(redis)
	categories := services.NewShipCategoryResolver(sdeService, mongodb, redis)
	pinpoints := services.NewPinpointCalculator(sdeService)

	processor := services.NewKillmailProcessor(
		repository,
		killService,
		eveGateway,
		sdeService,
		categories,
		pinpoints,
		sink,
		services.ProcessorConfig{
			EnrichWorkers: config.GetIntEnv("ZKB_ENRICH_WORKERS", 8),
			BatchSize:     config.GetIntEnv("ZKB_BATCH_SIZE", 10),
			MaxKillAge:    time.Duration(config.GetIntEnv("ZKB_MAX_KILL_AGE_HOURS", 6)) * time.Hour,
		},
	)

	consumer := services.NewRedisQConsumer(processor, repository)

	return &Module{
		BaseModule: module.NewBaseModule("zkillboard", mongodb, redis),
		consumer:   consumer,
		processor:  processor,
		repository: repository,
		categories: categories,
	}
}

// Initialize prepares the ship-type cache indexes
func (m *Module) Initialize(ctx context.Context) error {
	return m.categories.CreateIndexes(ctx)
}

// Start launches the RedisQ consumer unless disabled by configuration
func (m *Module) Start(ctx context.Context) error {
	if !config.GetBoolEnv("ZKB_ENABLED", true) {
		slog.Info("ZKillboard consumer disabled by configuration")
		return nil
	}
	return m.consumer.Start(ctx)
}

// Stop shuts the consumer down and drains the enrichment pipeline
func (m *Module) Stop() {
	if m.consumer.IsRunning() {
		if err := m.consumer.Stop(); err != nil {
			slog.Warn("Failed to stop RedisQ consumer", "error", err)
		}
	}
	m.BaseModule.Stop()
}

// RegisterUnifiedRoutes registers all zkillboard routes with the unified API gateway
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	routes.RegisterZKillboardRoutes(api, basePath, m.consumer, m.repository)
}

// Routes registers routes on a Chi router (implements module.Module interface)
func (m *Module) Routes(r chi.Router) {
	// ZKillboard module uses only Huma v2 unified routes
}

// GetConsumer returns the RedisQ consumer, used by the feed watchdog
func (m *Module) GetConsumer() *services.RedisQConsumer {
	return m.consumer
}

// GetCategories returns the ship category resolver
func (m *Module) GetCategories() *services.ShipCategoryResolver {
	return m.categories
}
