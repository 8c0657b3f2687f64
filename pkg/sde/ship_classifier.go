package sde

import (
	"fmt"
	"strings"
)

// Ship category tags emitted by the classifier
const (
	CategoryFrigate       = "frigate"
	CategoryDestroyer     = "destroyer"
	CategoryCruiser       = "cruiser"
	CategoryBattlecruiser = "battlecruiser"
	CategoryBattleship    = "battleship"
	CategoryCapital       = "capital"
	CategoryIndustrial    = "industrial"
	CategoryMining        = "mining"
	CategoryShuttle       = "shuttle"
	CategoryCorvette      = "corvette"
	CategoryFighter       = "fighter"
	CategoryStructure     = "structure"
	CategoryCapsule       = "capsule"
	CategoryConcord       = "concord"
	CategoryNPC           = "npc"
	CategoryUnknown       = "unknown"
)

// Inventory groups that classify directly, without a market group walk
const (
	groupConcord = 1180
	groupCapsule = 29
)

// The market group tree is walked upward until one of these parents is hit.
// Root of the ship tree is market group 4.
var (
	structureMarketGroups     = map[int64]bool{477: true, 99: true, 383: true, 1320: true}
	fighterMarketGroups       = map[int64]bool{157: true}
	shuttleMarketGroups       = map[int64]bool{391: true, 1618: true}
	frigateMarketGroups       = map[int64]bool{1361: true, 1838: true, 1619: true}
	destroyerMarketGroups     = map[int64]bool{1372: true, 2350: true}
	cruiserMarketGroups       = map[int64]bool{1367: true, 1837: true}
	battlecruiserMarketGroups = map[int64]bool{1374: true, 1698: true}
	battleshipMarketGroups    = map[int64]bool{1376: true, 1620: true}
	capitalMarketGroups       = map[int64]bool{1381: true, 2288: true}
)

const (
	corvetteMarketGroup   int64 = 1815
	industrialMarketGroup int64 = 1382
	miningMarketGroup     int64 = 1384
	shipMarketGroupRoot   int64 = 4
)

// ClassifyShip resolves a ship type id to its category, display name and tech
// tier by walking the market group tree. Unknown types degrade to an
// "unknown" category with a synthetic name so scoring never fails on them.
func (s *Service) ClassifyShip(typeID int64) *ShipCategory {
	shipType, err := s.GetShipType(typeID)
	if err != nil {
		return &ShipCategory{
			Category: CategoryUnknown,
			Name:     fmt.Sprintf("TypeID %d", typeID),
			Tier:     "T1",
		}
	}

	result := &ShipCategory{
		Category: CategoryUnknown,
		Name:     shipType.Name,
		Tier:     "T1",
	}

	switch shipType.GroupID {
	case groupConcord:
		result.Category = CategoryConcord
		return result
	case groupCapsule:
		result.Category = CategoryCapsule
		return result
	}

	if shipType.MarketGroupID == 0 {
		return result
	}

	current := shipType.MarketGroupID
	visited := make(map[int64]bool)
	for current != 0 && !visited[current] {
		visited[current] = true

		group, err := s.GetMarketGroup(current)
		if err != nil {
			break
		}

		if strings.Contains(group.Name, "Advanced") || strings.HasPrefix(group.Name, "Tech II") {
			result.Tier = "T2"
		}

		if result.Category == CategoryUnknown {
			result.Category = categoryForMarketGroup(current)
		}

		if current == shipMarketGroupRoot || group.ParentGroupID == nil {
			break
		}
		current = *group.ParentGroupID
	}

	return result
}

func categoryForMarketGroup(id int64) string {
	switch {
	case capitalMarketGroups[id]:
		return CategoryCapital
	case structureMarketGroups[id]:
		return CategoryStructure
	case shuttleMarketGroups[id]:
		return CategoryShuttle
	case fighterMarketGroups[id]:
		return CategoryFighter
	case id == corvetteMarketGroup:
		return CategoryCorvette
	case frigateMarketGroups[id]:
		return CategoryFrigate
	case destroyerMarketGroups[id]:
		return CategoryDestroyer
	case cruiserMarketGroups[id]:
		return CategoryCruiser
	case battlecruiserMarketGroups[id]:
		return CategoryBattlecruiser
	case battleshipMarketGroups[id]:
		return CategoryBattleship
	case id == industrialMarketGroup:
		return CategoryIndustrial
	case id == miningMarketGroup:
		return CategoryMining
	default:
		return CategoryUnknown
	}
}
