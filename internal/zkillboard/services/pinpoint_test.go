package services

import (
	"errors"
	"math"
	"testing"

	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/sde"
)

// stubSDE serves fixed map data for pinpoint tests.
type stubSDE struct {
	systems    map[int64]*sde.SolarSystem
	regions    map[int64]*sde.Region
	celestials map[int64][]*sde.Celestial
}

func (s *stubSDE) GetSolarSystem(systemID int64) (*sde.SolarSystem, error) {
	if sys, ok := s.systems[systemID]; ok {
		return sys, nil
	}
	return nil, errors.New("solar system not found")
}

func (s *stubSDE) GetRegion(regionID int64) (*sde.Region, error) {
	if r, ok := s.regions[regionID]; ok {
		return r, nil
	}
	return nil, errors.New("region not found")
}

func (s *stubSDE) GetSystemCelestials(systemID int64) ([]*sde.Celestial, error) {
	if c, ok := s.celestials[systemID]; ok {
		return c, nil
	}
	return nil, errors.New("no celestials")
}

func (s *stubSDE) SystemName(systemID int64) string {
	if sys, ok := s.systems[systemID]; ok {
		return sys.Name
	}
	return ""
}

func (s *stubSDE) RegionNameForSystem(systemID int64) string {
	sys, ok := s.systems[systemID]
	if !ok {
		return ""
	}
	if r, ok := s.regions[sys.RegionID]; ok {
		return r.Name
	}
	return ""
}

func (s *stubSDE) RegionIDForSystem(systemID int64) int64 {
	if sys, ok := s.systems[systemID]; ok {
		return sys.RegionID
	}
	return 0
}

func (s *stubSDE) GetShipType(int64) (*sde.ShipType, error) {
	return nil, errors.New("not loaded")
}

func (s *stubSDE) GetMarketGroup(int64) (*sde.MarketGroup, error) {
	return nil, errors.New("not loaded")
}

func (s *stubSDE) ClassifyShip(typeID int64) *sde.ShipCategory {
	return &sde.ShipCategory{Category: sde.CategoryUnknown, Name: "stub", Tier: "T1"}
}

func (s *stubSDE) IsLoaded() bool { return true }

func (s *stubSDE) Counts() map[string]int { return map[string]int{} }

func pinpointFixture() *stubSDE {
	return &stubSDE{
		systems: map[int64]*sde.SolarSystem{
			30000142: {SystemID: 30000142, Name: "Jita", RegionID: 10000002, Security: 0.9},
			30000002: {SystemID: 30000002, Name: "Maurasi", RegionID: 10000002, Security: 0.9},
		},
		regions: map[int64]*sde.Region{
			10000002: {RegionID: 10000002, Name: "The Forge"},
		},
		celestials: map[int64][]*sde.Celestial{
			// One gate far out on the x axis; kill positions step away from it.
			30000142: {
				{ItemID: 1, Name: "Stargate (Perimeter)", X: 1e12, Y: 2e12, Z: 3e12},
				{ItemID: 2, Name: "Jita IV - Moon 4", X: 5e12, Y: 2e12, Z: 3e12},
			},
			// A regular tetrahedron around the origin, far beyond warp range
			// of any kill near the center.
			30000002: {
				{ItemID: 11, Name: "Planet I", X: 1e11, Y: 1e11, Z: 1e11},
				{ItemID: 12, Name: "Planet II", X: 1e11, Y: -1e11, Z: -1e11},
				{ItemID: 13, Name: "Planet III", X: -1e11, Y: 1e11, Z: -1e11},
				{ItemID: 14, Name: "Planet IV", X: -1e11, Y: -1e11, Z: 1e11},
			},
		},
	}
}

func killAt(systemID int64, x, y, z float64) *killmodels.ESIKillmail {
	return &killmodels.ESIKillmail{
		SolarSystemID: systemID,
		Victim: killmodels.Victim{
			ShipTypeID: 587,
			Position:   &killmodels.Position{X: x, Y: y, Z: z},
		},
	}
}

func TestCalculateWithoutPosition(t *testing.T) {
	calc := NewPinpointCalculator(pinpointFixture())

	tests := []struct {
		name string
		km   *killmodels.ESIKillmail
	}{
		{"nil position", &killmodels.ESIKillmail{SolarSystemID: 30000142}},
		{"zero coordinate", killAt(30000142, 0, 2e12, 3e12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := calc.Calculate(tt.km)
			if pp.NearestCelestial != nil || pp.TriangulationPossible || pp.HasTetrahedron {
				t.Errorf("positionless kill should pinpoint nothing: %+v", pp)
			}
			if pp.Points == nil || len(pp.Points) != 0 {
				t.Errorf("points must be an empty array, got %v", pp.Points)
			}
			// The system and region names still ride along.
			if pp.CelestialData == nil || pp.CelestialData.SolarSystemName != "Jita" {
				t.Errorf("celestial data missing: %+v", pp.CelestialData)
			}
		})
	}
}

func TestCalculateDistanceThresholds(t *testing.T) {
	calc := NewPinpointCalculator(pinpointFixture())

	tests := []struct {
		name     string
		offset   float64
		wantType string
		wantAt   bool
	}{
		{"on the gate", 5_000, killmodels.TriangulationAtCelestial, true},
		{"threshold is inclusive", 10_000, killmodels.TriangulationAtCelestial, true},
		{"within warp range", 500_000, killmodels.TriangulationDirectWarp, false},
		{"near the gate", 5_000_000, killmodels.TriangulationNearCelestial, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := calc.Calculate(killAt(30000142, 1e12+tt.offset, 2e12, 3e12))
			if pp.TriangulationType != tt.wantType {
				t.Errorf("type = %q, want %q", pp.TriangulationType, tt.wantType)
			}
			if pp.AtCelestial != tt.wantAt {
				t.Errorf("atCelestial = %v, want %v", pp.AtCelestial, tt.wantAt)
			}
			if !pp.TriangulationPossible {
				t.Error("triangulation should be possible inside the near threshold")
			}
			if pp.NearestCelestial == nil || pp.NearestCelestial.Name != "Stargate (Perimeter)" {
				t.Errorf("nearest = %+v", pp.NearestCelestial)
			}
		})
	}
}

func TestCalculateTetrahedron(t *testing.T) {
	calc := NewPinpointCalculator(pinpointFixture())

	// A kill near the center of the system sits far from every celestial but
	// inside the tetrahedron they span.
	pp := calc.Calculate(killAt(30000002, 1e9, 1e9, 1e9))

	if !pp.HasTetrahedron {
		t.Fatalf("expected a containing tetrahedron: %+v", pp)
	}
	if len(pp.Points) != 4 {
		t.Fatalf("points = %d, want 4", len(pp.Points))
	}
	if !pp.TriangulationPossible {
		t.Error("tetrahedron containment makes triangulation possible")
	}
	// At celestial scales every containing tetrahedron is far above the
	// direct-warp volume cutoff.
	if pp.TriangulationType != killmodels.TriangulationViaBookspam {
		t.Errorf("type = %q, want %q", pp.TriangulationType, killmodels.TriangulationViaBookspam)
	}
	if pp.NearestCelestial == nil {
		t.Error("nearest celestial should still be reported")
	}
}

func TestCalculateFallbackWithoutTetrahedron(t *testing.T) {
	sdeStub := pinpointFixture()
	// Only two celestials: no tetrahedron can exist.
	sdeStub.celestials[30000002] = sdeStub.celestials[30000002][:2]
	calc := NewPinpointCalculator(sdeStub)

	pp := calc.Calculate(killAt(30000002, 1e9, 1e9, 1e9))
	if pp.HasTetrahedron {
		t.Error("two celestials cannot span a tetrahedron")
	}
	if pp.TriangulationPossible {
		t.Error("far from everything with no tetrahedron: not triangulable")
	}
	if pp.NearestCelestial == nil {
		t.Error("nearest celestial should still be reported")
	}
}

func TestCalculateUnknownSystem(t *testing.T) {
	calc := NewPinpointCalculator(pinpointFixture())
	pp := calc.Calculate(killAt(31000001, 1e9, 1e9, 1e9))

	if pp.NearestCelestial != nil || pp.TriangulationPossible {
		t.Errorf("unknown system should pinpoint nothing: %+v", pp)
	}
	cd := pp.CelestialData
	if cd == nil || cd.SolarSystemID != "31000001" {
		t.Fatalf("celestial data = %+v", cd)
	}
	if cd.SolarSystemName != "" || cd.RegionName != "" {
		t.Errorf("unknown system must not invent names: %+v", cd)
	}
}

func TestInTetrahedron(t *testing.T) {
	unit := [4]vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	tests := []struct {
		name string
		p    vec3
		want bool
	}{
		{"centroid", vec3{0.25, 0.25, 0.25}, true},
		{"near a vertex", vec3{0.1, 0.1, 0.1}, true},
		{"on a face", vec3{0.5, 0.5, 0}, true},
		{"outside", vec3{1, 1, 1}, false},
		{"behind a face", vec3{-0.5, 0.25, 0.25}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inTetrahedron(tt.p, unit); got != tt.want {
				t.Errorf("inTetrahedron(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	degenerate := [4]vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	if inTetrahedron(vec3{1, 1, 1}, degenerate) {
		t.Error("degenerate tetrahedron contains nothing")
	}
}

func TestTetraVolume(t *testing.T) {
	unit := [4]vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	if got := tetraVolume(unit); math.Abs(got-1.0/6.0) > 1e-12 {
		t.Errorf("unit tetrahedron volume = %f, want 1/6", got)
	}
}
