package services

import (
	"math"
	"strconv"

	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/sde"
)

// Distance thresholds (meters) for locating a kill relative to celestials
const (
	atCelestialThreshold   = 10_000.0
	directWarpThreshold    = 1_000_000.0
	nearCelestialThreshold = 10_000_000.0

	// barycentricEpsilon pads the containment test against float error
	barycentricEpsilon = 0.01

	// maxTetrahedronVolume is the cutoff between a tetrahedron tight enough
	// to warp into directly and one that needs bookmark spam: one AU in meters
	kmPerAU              = 149_597_870.7
	maxTetrahedronVolume = kmPerAU * 1000

	// maxTetraCelestials bounds the C(n,4) combination search
	maxTetraCelestials = 40
)

// PinpointCalculator locates kills relative to the celestial objects of their
// solar system: at a celestial, within warp range of one, or inside a
// tetrahedron of four celestials that allows probe-less triangulation.
type PinpointCalculator struct {
	sdeService sde.SDEService
}

// NewPinpointCalculator creates a new pinpoint calculator
func NewPinpointCalculator(sdeService sde.SDEService) *PinpointCalculator {
	return &PinpointCalculator{
		sdeService: sdeService,
	}
}

// Calculate builds the pinpoint block for a killmail, always attaching the
// celestial data naming the system and region even when the kill position is
// missing.
func (p *PinpointCalculator) Calculate(km *killmodels.ESIKillmail) *killmodels.Pinpoints {
	pinpoints := p.locate(km)
	pinpoints.CelestialData = p.celestialData(km.SolarSystemID)
	return pinpoints
}

func (p *PinpointCalculator) locate(km *killmodels.ESIKillmail) *killmodels.Pinpoints {
	empty := &killmodels.Pinpoints{
		Points: []killmodels.CelestialPoint{},
	}

	pos := km.Victim.Position
	if pos == nil || pos.X == 0 || pos.Y == 0 || pos.Z == 0 {
		return empty
	}
	kill := vec3{pos.X, pos.Y, pos.Z}

	celestials, err := p.sdeService.GetSystemCelestials(km.SolarSystemID)
	if err != nil || len(celestials) == 0 {
		return empty
	}

	// Nearest named celestial
	var nearest *killmodels.CelestialPoint
	minDist := math.Inf(1)
	for _, cel := range celestials {
		if cel.Name == "" {
			continue
		}
		d := dist(vec3{cel.X, cel.Y, cel.Z}, kill)
		if d < minDist {
			minDist = d
			nearest = &killmodels.CelestialPoint{
				Name:     cel.Name,
				Distance: d,
				Position: killmodels.Position{X: cel.X, Y: cel.Y, Z: cel.Z},
			}
		}
	}

	if nearest != nil {
		switch {
		case minDist <= atCelestialThreshold:
			return &killmodels.Pinpoints{
				Points:                []killmodels.CelestialPoint{},
				AtCelestial:           true,
				NearestCelestial:      nearest,
				TriangulationPossible: true,
				TriangulationType:     killmodels.TriangulationAtCelestial,
			}
		case minDist <= directWarpThreshold:
			return &killmodels.Pinpoints{
				Points:                []killmodels.CelestialPoint{},
				NearestCelestial:      nearest,
				TriangulationPossible: true,
				TriangulationType:     killmodels.TriangulationDirectWarp,
			}
		case minDist <= nearCelestialThreshold:
			return &killmodels.Pinpoints{
				Points:                []killmodels.CelestialPoint{},
				NearestCelestial:      nearest,
				TriangulationPossible: true,
				TriangulationType:     killmodels.TriangulationNearCelestial,
			}
		}
	}

	// Minimum-volume tetrahedron containing the kill position
	valid := make([]*sde.Celestial, 0, len(celestials))
	for _, cel := range celestials {
		if cel.Name != "" {
			valid = append(valid, cel)
		}
	}

	var bestPoints []killmodels.CelestialPoint
	minVol := math.Inf(1)
	triType := ""

	if len(valid) >= 4 {
		check := valid
		if len(check) > maxTetraCelestials {
			check = check[:maxTetraCelestials]
		}
		n := len(check)
		for i := 0; i < n-3; i++ {
			for j := i + 1; j < n-2; j++ {
				for k := j + 1; k < n-1; k++ {
					for l := k + 1; l < n; l++ {
						verts := [4]vec3{
							{check[i].X, check[i].Y, check[i].Z},
							{check[j].X, check[j].Y, check[j].Z},
							{check[k].X, check[k].Y, check[k].Z},
							{check[l].X, check[l].Y, check[l].Z},
						}
						if !inTetrahedron(kill, verts) {
							continue
						}
						vol := tetraVolume(verts)
						if vol >= minVol {
							continue
						}
						minVol = vol
						names := [4]*sde.Celestial{check[i], check[j], check[k], check[l]}
						bestPoints = bestPoints[:0]
						for v, cel := range names {
							bestPoints = append(bestPoints, killmodels.CelestialPoint{
								Name:     cel.Name,
								Distance: dist(verts[v], kill),
								Position: killmodels.Position{X: cel.X, Y: cel.Y, Z: cel.Z},
							})
						}
						if vol < maxTetrahedronVolume {
							triType = killmodels.TriangulationDirect
						} else {
							triType = killmodels.TriangulationViaBookspam
						}
					}
				}
			}
		}
	}

	if len(bestPoints) == 4 {
		return &killmodels.Pinpoints{
			HasTetrahedron:        true,
			Points:                bestPoints,
			NearestCelestial:      nearest,
			TriangulationPossible: true,
			TriangulationType:     triType,
		}
	}

	return &killmodels.Pinpoints{
		Points:                []killmodels.CelestialPoint{},
		NearestCelestial:      nearest,
		TriangulationPossible: nearest != nil && minDist <= nearCelestialThreshold,
	}
}

// celestialData names the system and region for a kill. Misses degrade to
// zero values rather than failing the enrichment.
func (p *PinpointCalculator) celestialData(systemID int64) *killmodels.CelestialData {
	data := &killmodels.CelestialData{
		SolarSystemID: strconv.FormatInt(systemID, 10),
	}
	if system, err := p.sdeService.GetSolarSystem(systemID); err == nil && system != nil {
		data.SolarSystemName = system.Name
		data.RegionID = system.RegionID
		if region, err := p.sdeService.GetRegion(system.RegionID); err == nil && region != nil {
			data.RegionName = region.Name
		}
	}
	return data
}

type vec3 struct {
	x, y, z float64
}

func sub(a, b vec3) vec3 {
	return vec3{a.x - b.x, a.y - b.y, a.z - b.z}
}

func cross(a, b vec3) vec3 {
	return vec3{
		a.y*b.z - a.z*b.y,
		a.z*b.x - a.x*b.z,
		a.x*b.y - a.y*b.x,
	}
}

func dot(a, b vec3) float64 {
	return a.x*b.x + a.y*b.y + a.z*b.z
}

func dist(a, b vec3) float64 {
	d := sub(a, b)
	return math.Sqrt(dot(d, d))
}

// inTetrahedron tests containment via barycentric coordinates. The epsilon
// admits points sitting numerically on a face.
func inTetrahedron(p vec3, verts [4]vec3) bool {
	a, b, c, d := verts[0], verts[1], verts[2], verts[3]

	vap, vbp, vcp, vdp := sub(p, a), sub(p, b), sub(p, c), sub(p, d)
	vab, vac, vad := sub(b, a), sub(c, a), sub(d, a)

	total := math.Abs(dot(cross(vab, vac), vad)) / 6.0
	if total == 0 {
		return false
	}

	v1 := math.Abs(dot(cross(vbp, vcp), vdp)) / 6.0
	v2 := math.Abs(dot(cross(vap, vcp), vdp)) / 6.0
	v3 := math.Abs(dot(cross(vap, vbp), vdp)) / 6.0
	v4 := math.Abs(dot(cross(vap, vbp), vcp)) / 6.0

	fracs := [4]float64{v1 / total, v2 / total, v3 / total, v4 / total}
	sum := fracs[0] + fracs[1] + fracs[2] + fracs[3]
	if math.Abs(sum-1.0) >= barycentricEpsilon {
		return false
	}
	for _, f := range fracs {
		if f < -barycentricEpsilon || f > 1+barycentricEpsilon {
			return false
		}
	}
	return true
}

func tetraVolume(verts [4]vec3) float64 {
	ab := sub(verts[1], verts[0])
	ac := sub(verts[2], verts[0])
	ad := sub(verts[3], verts[0])
	return math.Abs(dot(cross(ab, ac), ad)) / 6.0
}
