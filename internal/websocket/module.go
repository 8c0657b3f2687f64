package websocket

import (
	"go-gatewatch/internal/websocket/routes"
	"go-gatewatch/internal/websocket/services"
	"go-gatewatch/pkg/config"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the websocket module: the hub that pushes live session
// snapshots to subscribers.
type Module struct {
	*module.BaseModule
	hub *services.Hub
}

// New creates a new websocket module instance. The provider supplies the
// greeting snapshot for freshly connected clients.
func New(mongodb *database.MongoDB, redis *database.Redis, provider services.SnapshotProvider) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("websocket", mongodb, redis),
		hub:        services.NewHub(provider),
	}
}

// Hub returns the subscriber hub, which the activity engine uses as its
// broadcast sink.
func (m *Module) Hub() *services.Hub {
	return m.hub
}

// RegisterUnifiedRoutes registers the websocket status route with the
// unified API gateway
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	routes.RegisterWebSocketRoutes(api, basePath, m.hub)
}

// Routes registers the upgrade endpoint on the Chi router. The upgrade
// cannot go through Huma, it needs the raw connection.
func (m *Module) Routes(r chi.Router) {
	r.Get(config.GetEnv("WS_PATH", "/ws"), m.hub.ServeWS)
}

// Stop disconnects every subscriber
func (m *Module) Stop() {
	m.hub.Close()
	m.BaseModule.Stop()
}
