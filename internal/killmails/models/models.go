package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// KillmailsCollection is the MongoDB collection for enriched killmails
	KillmailsCollection = "killmails"
	// ShipTypesCollection is the MongoDB collection caching resolved ship classifications
	ShipTypesCollection = "ship_types"
)

// Triangulation types emitted by the pinpoint calculator
const (
	TriangulationAtCelestial   = "at_celestial"
	TriangulationDirectWarp    = "direct_warp"
	TriangulationNearCelestial = "near_celestial"
	TriangulationDirect        = "direct"
	TriangulationViaBookspam   = "via_bookspam"
)

// Killmail is the unified enriched killmail: the zKillboard metadata and ESI body
// as received from RedisQ, plus the enrichment layers (ship classifications and
// celestial pinpoints) added by the ingest pipeline. The JSON tags produce the
// wire format consumed by WebSocket clients and the REST API.
type Killmail struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"-"`

	KillID int64   `bson:"kill_id" json:"killID"`
	ZKB    ZKBData `bson:"zkb" json:"zkb"`

	Killmail ESIKillmail `bson:"killmail" json:"killmail"`

	// Enrichment, absent until the pipeline has attached it
	ShipCategories *ShipCategories `bson:"ship_categories,omitempty" json:"shipCategories,omitempty"`
	Pinpoints      *Pinpoints      `bson:"pinpoints,omitempty" json:"pinpoints,omitempty"`

	IngestedAt time.Time `bson:"ingested_at" json:"-"`
}

// Time returns the killmail timestamp.
func (k *Killmail) Time() time.Time {
	return k.Killmail.KillmailTime
}

// SystemID returns the solar system the kill occurred in.
func (k *Killmail) SystemID() int64 {
	return k.Killmail.SolarSystemID
}

// ZKBData is the zKillboard metadata attached to each RedisQ package.
type ZKBData struct {
	LocationID     int64    `bson:"location_id,omitempty" json:"locationID,omitempty"`
	Hash           string   `bson:"hash" json:"hash"`
	FittedValue    float64  `bson:"fitted_value,omitempty" json:"fittedValue,omitempty"`
	DroppedValue   float64  `bson:"dropped_value,omitempty" json:"droppedValue,omitempty"`
	DestroyedValue float64  `bson:"destroyed_value,omitempty" json:"destroyedValue,omitempty"`
	TotalValue     float64  `bson:"total_value" json:"totalValue"`
	Points         int      `bson:"points,omitempty" json:"points,omitempty"`
	NPC            bool     `bson:"npc" json:"npc"`
	Solo           bool     `bson:"solo" json:"solo"`
	Awox           bool     `bson:"awox" json:"awox"`
	Labels         []string `bson:"labels,omitempty" json:"labels,omitempty"`
	Href           string   `bson:"href,omitempty" json:"href,omitempty"`
}

// ESIKillmail is the killmail body in ESI wire format.
type ESIKillmail struct {
	KillmailID    int64     `bson:"killmail_id" json:"killmail_id"`
	KillmailTime  time.Time `bson:"killmail_time" json:"killmail_time"`
	SolarSystemID int64     `bson:"solar_system_id" json:"solar_system_id"`
	MoonID        *int64    `bson:"moon_id,omitempty" json:"moon_id,omitempty"`
	WarID         *int64    `bson:"war_id,omitempty" json:"war_id,omitempty"`

	Victim    Victim     `bson:"victim" json:"victim"`
	Attackers []Attacker `bson:"attackers" json:"attackers"`
}

// Victim represents the destroyed party in a killmail
type Victim struct {
	CharacterID   *int64    `bson:"character_id,omitempty" json:"character_id,omitempty"`
	CorporationID *int64    `bson:"corporation_id,omitempty" json:"corporation_id,omitempty"`
	AllianceID    *int64    `bson:"alliance_id,omitempty" json:"alliance_id,omitempty"`
	FactionID     *int64    `bson:"faction_id,omitempty" json:"faction_id,omitempty"`
	ShipTypeID    int64     `bson:"ship_type_id" json:"ship_type_id"`
	DamageTaken   int64     `bson:"damage_taken" json:"damage_taken"`
	Position      *Position `bson:"position,omitempty" json:"position,omitempty"`
	Items         []Item    `bson:"items,omitempty" json:"items,omitempty"`
}

// Attacker represents an attacking party in a killmail
type Attacker struct {
	CharacterID    *int64  `bson:"character_id,omitempty" json:"character_id,omitempty"`
	CorporationID  *int64  `bson:"corporation_id,omitempty" json:"corporation_id,omitempty"`
	AllianceID     *int64  `bson:"alliance_id,omitempty" json:"alliance_id,omitempty"`
	FactionID      *int64  `bson:"faction_id,omitempty" json:"faction_id,omitempty"`
	ShipTypeID     *int64  `bson:"ship_type_id,omitempty" json:"ship_type_id,omitempty"`
	WeaponTypeID   *int64  `bson:"weapon_type_id,omitempty" json:"weapon_type_id,omitempty"`
	DamageDone     int64   `bson:"damage_done" json:"damage_done"`
	FinalBlow      bool    `bson:"final_blow" json:"final_blow"`
	SecurityStatus float64 `bson:"security_status" json:"security_status"`
}

// Position represents 3D coordinates in space (meters from system center)
type Position struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
	Z float64 `bson:"z" json:"z"`
}

// Item represents an item from the victim's ship, possibly nested in a container
type Item struct {
	ItemTypeID        int64  `bson:"item_type_id" json:"item_type_id"`
	Flag              int64  `bson:"flag" json:"flag"`
	Singleton         int64  `bson:"singleton" json:"singleton"`
	QuantityDestroyed *int64 `bson:"quantity_destroyed,omitempty" json:"quantity_destroyed,omitempty"`
	QuantityDropped   *int64 `bson:"quantity_dropped,omitempty" json:"quantity_dropped,omitempty"`
	Items             []Item `bson:"items,omitempty" json:"items,omitempty"`
}

// ShipCategories holds the resolved classifications for the victim ship and
// every distinct attacker ship type on a killmail.
type ShipCategories struct {
	Victim    *VictimShipCategory    `bson:"victim" json:"victim"`
	Attackers []AttackerShipCategory `bson:"attackers" json:"attackers"`
}

// VictimShipCategory classifies the destroyed ship
type VictimShipCategory struct {
	Category string `bson:"category" json:"category"`
	Name     string `bson:"name" json:"name"`
	Tier     string `bson:"tier" json:"tier"`
}

// AttackerShipCategory classifies one distinct attacker ship type
type AttackerShipCategory struct {
	ShipTypeID int64  `bson:"ship_type_id" json:"shipTypeId"`
	Category   string `bson:"category" json:"category"`
	Name       string `bson:"name" json:"name"`
	Tier       string `bson:"tier" json:"tier"`
}

// Pinpoints locates a kill relative to the celestial objects of its system.
// hasTetrahedron means the kill position sits inside a tetrahedron spanned by
// four celestials, which makes probe-less triangulation possible.
type Pinpoints struct {
	HasTetrahedron        bool             `bson:"has_tetrahedron" json:"hasTetrahedron"`
	Points                []CelestialPoint `bson:"points" json:"points"`
	AtCelestial           bool             `bson:"at_celestial" json:"atCelestial"`
	NearestCelestial      *CelestialPoint  `bson:"nearest_celestial,omitempty" json:"nearestCelestial"`
	TriangulationPossible bool             `bson:"triangulation_possible" json:"triangulationPossible"`
	TriangulationType     string           `bson:"triangulation_type,omitempty" json:"triangulationType,omitempty"`
	CelestialData         *CelestialData   `bson:"celestial_data,omitempty" json:"celestialData,omitempty"`
}

// CelestialPoint is a named celestial with its distance to the kill position
type CelestialPoint struct {
	Name     string   `bson:"name" json:"name"`
	Distance float64  `bson:"distance" json:"distance"`
	Position Position `bson:"position" json:"position"`
}

// CelestialData names the system and region a kill occurred in. The solar
// system ID is a string for compatibility with the map export format.
type CelestialData struct {
	RegionID        int64  `bson:"region_id" json:"regionid"`
	RegionName      string `bson:"region_name" json:"regionname"`
	SolarSystemID   string `bson:"solar_system_id" json:"solarsystemid"`
	SolarSystemName string `bson:"solar_system_name" json:"solarsystemname"`
}

// ShipTypeCache is a cached ship classification in the ship_types collection.
type ShipTypeCache struct {
	TypeID    int64     `bson:"type_id" json:"type_id"`
	Category  string    `bson:"category" json:"category"`
	Name      string    `bson:"name" json:"name"`
	Tier      string    `bson:"tier" json:"tier"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
