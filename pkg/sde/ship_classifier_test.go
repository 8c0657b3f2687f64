package sde

import "testing"

func int64Ptr(v int64) *int64 { return &v }

// classifierFixture builds a loaded service around a small slice of the type
// and market group trees.
func classifierFixture() *Service {
	return &Service{
		loaded: true,
		shipTypes: map[string]*ShipType{
			// Rifter: Minmatar T1 frigate
			"587": {TypeID: 587, Name: "Rifter", GroupID: 25, MarketGroupID: 64},
			// Wolf: assault frigate under an Advanced group
			"11371": {TypeID: 11371, Name: "Wolf", GroupID: 324, MarketGroupID: 432},
			// Capsule classifies by inventory group, not market group
			"670": {TypeID: 670, Name: "Capsule", GroupID: 29},
			// CONCORD police battleship
			"3885": {TypeID: 3885, Name: "CONCORD Police Battleship", GroupID: 1180},
			// Badger: industrial hauler
			"648": {TypeID: 648, Name: "Badger", GroupID: 28, MarketGroupID: 1390},
			// No market group at all
			"9999": {TypeID: 9999, Name: "Polaris Frigate", GroupID: 25},
			// Market group chain with a cycle
			"8888": {TypeID: 8888, Name: "Cycle Ship", GroupID: 25, MarketGroupID: 7001},
			// Astrahus: a citadel under the structure tree
			"35832": {TypeID: 35832, Name: "Astrahus", GroupID: 1657, MarketGroupID: 2201},
		},
		marketGroups: map[string]*MarketGroup{
			// Rifter chain: 64 -> 1361 (frigates) -> 4 (ships root)
			"64":   {MarketGroupID: 64, ParentGroupID: int64Ptr(1361), Name: "Minmatar"},
			"1361": {MarketGroupID: 1361, ParentGroupID: int64Ptr(4), Name: "Frigates"},
			"4":    {MarketGroupID: 4, Name: "Ships"},
			// Wolf chain: 432 -> 1838 (advanced frigates) -> 4
			"432":  {MarketGroupID: 432, ParentGroupID: int64Ptr(1838), Name: "Assault Frigates"},
			"1838": {MarketGroupID: 1838, ParentGroupID: int64Ptr(4), Name: "Advanced Frigates"},
			// Badger chain: 1390 -> 1382 (industrials) -> 4
			"1390": {MarketGroupID: 1390, ParentGroupID: int64Ptr(1382), Name: "Caldari"},
			"1382": {MarketGroupID: 1382, ParentGroupID: int64Ptr(4), Name: "Haulers"},
			// Cycle: 7001 -> 7002 -> 7001
			"7001": {MarketGroupID: 7001, ParentGroupID: int64Ptr(7002), Name: "Loop A"},
			"7002": {MarketGroupID: 7002, ParentGroupID: int64Ptr(7001), Name: "Loop B"},
			// Astrahus chain: 2201 -> 477 (structures)
			"2201": {MarketGroupID: 2201, ParentGroupID: int64Ptr(477), Name: "Citadels"},
			"477":  {MarketGroupID: 477, Name: "Structures"},
		},
	}
}

func TestClassifyShip(t *testing.T) {
	svc := classifierFixture()

	tests := []struct {
		name         string
		typeID       int64
		wantCategory string
		wantName     string
		wantTier     string
	}{
		{"t1 frigate", 587, CategoryFrigate, "Rifter", "T1"},
		{"t2 assault frigate", 11371, CategoryFrigate, "Wolf", "T2"},
		{"capsule by inventory group", 670, CategoryCapsule, "Capsule", "T1"},
		{"concord by inventory group", 3885, CategoryConcord, "CONCORD Police Battleship", "T1"},
		{"industrial", 648, CategoryIndustrial, "Badger", "T1"},
		{"structure", 35832, CategoryStructure, "Astrahus", "T1"},
		{"no market group", 9999, CategoryUnknown, "Polaris Frigate", "T1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ClassifyShip(tt.typeID)
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("tier = %q, want %q", got.Tier, tt.wantTier)
			}
		})
	}
}

func TestClassifyShipUnknownType(t *testing.T) {
	svc := classifierFixture()
	got := svc.ClassifyShip(123456)
	if got.Category != CategoryUnknown {
		t.Errorf("category = %q, want unknown", got.Category)
	}
	if got.Name != "TypeID 123456" {
		t.Errorf("name = %q, want the synthetic placeholder", got.Name)
	}
	if got.Tier != "T1" {
		t.Errorf("tier = %q", got.Tier)
	}
}

func TestClassifyShipMarketGroupCycleTerminates(t *testing.T) {
	svc := classifierFixture()
	// Must return despite the 7001 <-> 7002 parent loop.
	got := svc.ClassifyShip(8888)
	if got.Category != CategoryUnknown {
		t.Errorf("category = %q, want unknown for an unmatched chain", got.Category)
	}
	if got.Name != "Cycle Ship" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestCategoryForMarketGroup(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{1361, CategoryFrigate},
		{1838, CategoryFrigate},
		{1619, CategoryFrigate},
		{1372, CategoryDestroyer},
		{2350, CategoryDestroyer},
		{1367, CategoryCruiser},
		{1374, CategoryBattlecruiser},
		{1376, CategoryBattleship},
		{1381, CategoryCapital},
		{2288, CategoryCapital},
		{477, CategoryStructure},
		{157, CategoryFighter},
		{391, CategoryShuttle},
		{1815, CategoryCorvette},
		{1382, CategoryIndustrial},
		{1384, CategoryMining},
		{42, CategoryUnknown},
	}
	for _, tt := range tests {
		if got := categoryForMarketGroup(tt.id); got != tt.want {
			t.Errorf("categoryForMarketGroup(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
