package sde

// SDEService defines the interface for accessing the static map and ship data
type SDEService interface {
	// Map operations
	GetSolarSystem(systemID int64) (*SolarSystem, error)
	GetRegion(regionID int64) (*Region, error)
	GetSystemCelestials(systemID int64) ([]*Celestial, error)
	SystemName(systemID int64) string
	RegionNameForSystem(systemID int64) string
	RegionIDForSystem(systemID int64) int64

	// Type operations
	GetShipType(typeID int64) (*ShipType, error)
	GetMarketGroup(marketGroupID int64) (*MarketGroup, error)
	ClassifyShip(typeID int64) *ShipCategory

	// Service status
	IsLoaded() bool
	Counts() map[string]int
}
