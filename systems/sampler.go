package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// PositionSampler picks random walkable points near an origin.
type PositionSampler struct {
	grid        *NavGrid
	terrain     *Terrain
	rng         *rand.Rand
	maxAttempts int

	misses int
}

// NewPositionSampler creates a sampler making at most maxAttempts tries per call.
func NewPositionSampler(grid *NavGrid, terrain *Terrain, rng *rand.Rand, maxAttempts int) *PositionSampler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PositionSampler{
		grid:        grid,
		terrain:     terrain,
		rng:         rng,
		maxAttempts: maxAttempts,
	}
}

// FindReachablePoint returns a random walkable point within maxDistance of origin.
// Each attempt draws a point inside a sphere of radius maxDistance and snaps it
// to the nearest open nav cell no farther than maxDistance. When every attempt
// fails, origin is returned unchanged.
func (s *PositionSampler) FindReachablePoint(origin r3.Vec, maxDistance float64) r3.Vec {
	snapRadius := int(maxDistance / s.grid.cellSize)

	for i := 0; i < s.maxAttempts; i++ {
		candidate := r3.Add(origin, r3.Scale(maxDistance, s.insideUnitSphere()))

		gx, gz := s.grid.WorldToGrid(candidate.X, candidate.Z)
		if !s.grid.IsBlocked(gx, gz) {
			candidate.Y = s.terrain.HeightAt(candidate.X, candidate.Z)
			return candidate
		}

		ox, oz := s.grid.NearestOpen(gx, gz, snapRadius)
		if ox < 0 {
			continue
		}
		x, z := s.grid.GridToWorld(ox, oz)
		if math.Hypot(x-candidate.X, z-candidate.Z) > maxDistance {
			continue
		}
		return r3.Vec{X: x, Y: s.terrain.HeightAt(x, z), Z: z}
	}

	s.misses++
	return origin
}

// Misses returns how many calls fell back to the origin.
func (s *PositionSampler) Misses() int {
	return s.misses
}

// insideUnitSphere draws a uniform point inside the unit sphere.
func (s *PositionSampler) insideUnitSphere() r3.Vec {
	for {
		v := r3.Vec{
			X: s.rng.Float64()*2 - 1,
			Y: s.rng.Float64()*2 - 1,
			Z: s.rng.Float64()*2 - 1,
		}
		if r3.Norm2(v) <= 1 {
			return v
		}
	}
}
