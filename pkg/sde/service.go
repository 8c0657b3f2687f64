package sde

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
)

// Service provides in-memory access to the EVE Online static map and ship data.
// All maps are keyed by stringified ids to match the JSON files produced by
// cmd/sde. Data loads lazily on first access.
type Service struct {
	solarSystems map[string]*SolarSystem
	regions      map[string]*Region
	celestials   map[string][]*Celestial
	shipTypes    map[string]*ShipType
	marketGroups map[string]*MarketGroup
	loaded       bool
	loadMu       sync.Mutex // Only used during initial loading
	dataDir      string
}

// NewService creates a new SDE service instance
func NewService(dataDir string) *Service {
	return &Service{
		solarSystems: make(map[string]*SolarSystem),
		regions:      make(map[string]*Region),
		celestials:   make(map[string][]*Celestial),
		shipTypes:    make(map[string]*ShipType),
		marketGroups: make(map[string]*MarketGroup),
		dataDir:      dataDir,
	}
}

// ensureLoaded loads SDE data if not already loaded
func (s *Service) ensureLoaded() error {
	// Fast path: data already loaded, no locking needed
	if s.loaded {
		return nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// Double-check after acquiring lock (another goroutine might have loaded it)
	if s.loaded {
		return nil
	}

	if err := loadJSONFile(s.dataDir, "solar_systems.json", &s.solarSystems); err != nil {
		return fmt.Errorf("failed to load solar systems: %w", err)
	}

	if err := loadJSONFile(s.dataDir, "regions.json", &s.regions); err != nil {
		return fmt.Errorf("failed to load regions: %w", err)
	}

	if err := loadJSONFile(s.dataDir, "celestials.json", &s.celestials); err != nil {
		return fmt.Errorf("failed to load celestials: %w", err)
	}

	if err := loadJSONFile(s.dataDir, "ship_types.json", &s.shipTypes); err != nil {
		return fmt.Errorf("failed to load ship types: %w", err)
	}

	if err := loadJSONFile(s.dataDir, "market_groups.json", &s.marketGroups); err != nil {
		return fmt.Errorf("failed to load market groups: %w", err)
	}

	s.loaded = true

	// Log memory usage after loading SDE data
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	slog.Info("SDE data loaded successfully",
		"solar_systems_count", len(s.solarSystems),
		"regions_count", len(s.regions),
		"celestial_systems_count", len(s.celestials),
		"ship_types_count", len(s.shipTypes),
		"market_groups_count", len(s.marketGroups),
		"heap_size", formatBytes(m.HeapAlloc),
		"total_alloc", formatBytes(m.TotalAlloc),
	)

	return nil
}

func loadJSONFile(dataDir, name string, dest interface{}) error {
	filePath := filepath.Join(dataDir, name)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}

	return nil
}

// GetSolarSystem retrieves a solar system by id
func (s *Service) GetSolarSystem(systemID int64) (*SolarSystem, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	system, exists := s.solarSystems[strconv.FormatInt(systemID, 10)]
	if !exists {
		return nil, fmt.Errorf("solar system %d not found", systemID)
	}

	return system, nil
}

// GetRegion retrieves a region by id
func (s *Service) GetRegion(regionID int64) (*Region, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	region, exists := s.regions[strconv.FormatInt(regionID, 10)]
	if !exists {
		return nil, fmt.Errorf("region %d not found", regionID)
	}

	return region, nil
}

// GetSystemCelestials returns all celestial objects in a system. The slice is
// shared; callers must not mutate it.
func (s *Service) GetSystemCelestials(systemID int64) ([]*Celestial, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	return s.celestials[strconv.FormatInt(systemID, 10)], nil
}

// GetShipType retrieves an inventory type by id
func (s *Service) GetShipType(typeID int64) (*ShipType, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	shipType, exists := s.shipTypes[strconv.FormatInt(typeID, 10)]
	if !exists {
		return nil, fmt.Errorf("type %d not found", typeID)
	}

	return shipType, nil
}

// GetMarketGroup retrieves a market group node by id
func (s *Service) GetMarketGroup(marketGroupID int64) (*MarketGroup, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	group, exists := s.marketGroups[strconv.FormatInt(marketGroupID, 10)]
	if !exists {
		return nil, fmt.Errorf("market group %d not found", marketGroupID)
	}

	return group, nil
}

// SystemName resolves a system id to its name, empty string when unknown
func (s *Service) SystemName(systemID int64) string {
	system, err := s.GetSolarSystem(systemID)
	if err != nil {
		return ""
	}
	return system.Name
}

// RegionNameForSystem resolves the region name a system belongs to,
// empty string when unknown
func (s *Service) RegionNameForSystem(systemID int64) string {
	system, err := s.GetSolarSystem(systemID)
	if err != nil {
		return ""
	}
	region, err := s.GetRegion(system.RegionID)
	if err != nil {
		return ""
	}
	return region.Name
}

// RegionIDForSystem resolves the region id a system belongs to, 0 when unknown
func (s *Service) RegionIDForSystem(systemID int64) int64 {
	system, err := s.GetSolarSystem(systemID)
	if err != nil {
		return 0
	}
	return system.RegionID
}

// IsLoaded reports whether the SDE data has been loaded
func (s *Service) IsLoaded() bool {
	return s.loaded
}

// Counts returns per-dataset entry counts for health reporting
func (s *Service) Counts() map[string]int {
	if err := s.ensureLoaded(); err != nil {
		return map[string]int{}
	}

	return map[string]int{
		"solar_systems": len(s.solarSystems),
		"regions":       len(s.regions),
		"celestials":    len(s.celestials),
		"ship_types":    len(s.shipTypes),
		"market_groups": len(s.marketGroups),
	}
}

// formatBytes formats a byte count in a human readable form
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
