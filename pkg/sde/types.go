package sde

// SolarSystem represents one solar system from the map data
type SolarSystem struct {
	SystemID int64   `json:"system_id"`
	Name     string  `json:"name"`
	RegionID int64   `json:"region_id"`
	Security float64 `json:"security"`
}

// Region represents one region from the map data
type Region struct {
	RegionID int64  `json:"region_id"`
	Name     string `json:"name"`
}

// Celestial is a single celestial object (star, planet, moon, belt, stargate,
// station) with its position in system coordinates (meters)
type Celestial struct {
	ItemID int64   `json:"item_id"`
	Name   string  `json:"name"`
	TypeID int64   `json:"type_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

// ShipType holds the inventory type fields needed for ship classification
type ShipType struct {
	TypeID        int64  `json:"type_id"`
	Name          string `json:"name"`
	GroupID       int64  `json:"group_id"`
	MarketGroupID int64  `json:"market_group_id,omitempty"`
}

// MarketGroup is one node of the market group tree
type MarketGroup struct {
	MarketGroupID int64  `json:"market_group_id"`
	ParentGroupID *int64 `json:"parent_group_id,omitempty"`
	Name          string `json:"name"`
}

// ShipCategory is the resolved classification for a ship type
type ShipCategory struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Tier     string `json:"tier"`
}
