// Package systems provides the world services agents run against:
// spatial queries, terrain, navigation and point sampling.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DZ float64 // Delta from query origin
	DistSq float64 // Squared planar distance
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid over XZ.
// It is rebuilt from the Position components once per tick, so queries see
// the positions at the start of the tick.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]ecs.Entity

	positions *ecs.Map1[components.Position]
	organisms *ecs.Map1[components.Organism]
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(world *ecs.World, width, depth, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(depth/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 8)
	}

	return &SpatialGrid{
		cellSize:  cellSize,
		cols:      cols,
		rows:      rows,
		cells:     cells,
		positions: ecs.NewMap1[components.Position](world),
		organisms: ecs.NewMap1[components.Organism](world),
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, z float64) {
	idx := g.cellIndex(x, z)
	g.cells[idx] = append(g.cells[idx], e)
}

// MaxQueryResults caps the number of neighbors returned by QueryRadiusInto.
const MaxQueryResults = 128

// QueryRadiusInto finds entities within radius and appends to dst (up to MaxQueryResults).
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, z, radius float64, exclude ecs.Entity) []Neighbor {
	g.each(x, z, radius, func(e ecs.Entity, dx, dz, distSq float64) bool {
		if e == exclude {
			return true
		}
		dst = append(dst, Neighbor{E: e, DX: dx, DZ: dz, DistSq: distSq})
		return len(dst) < MaxQueryResults
	})
	return dst
}

// FindInRadius returns entities of the given kind within radius of origin.
// Distance is measured on the XZ plane.
func (g *SpatialGrid) FindInRadius(origin r3.Vec, radius float64, kind components.Kind) []ecs.Entity {
	var out []ecs.Entity
	g.each(origin.X, origin.Z, radius, func(e ecs.Entity, _, _, _ float64) bool {
		if org := g.organisms.Get(e); org != nil && org.Kind == kind {
			out = append(out, e)
		}
		return true
	})
	return out
}

// each calls fn for every entity within radius until fn returns false.
func (g *SpatialGrid) each(x, z, radius float64, fn func(e ecs.Entity, dx, dz, distSq float64) bool) {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := int(math.Floor(x / g.cellSize))
	centerRow := int(math.Floor(z / g.cellSize))
	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}

			for _, e := range g.cells[row*g.cols+col] {
				pos := g.positions.Get(e)
				if pos == nil {
					continue
				}
				dx := pos.X - x
				dz := pos.Z - z
				distSq := dx*dx + dz*dz
				if distSq > radiusSq {
					continue
				}
				if !fn(e, dx, dz, distSq) {
					return
				}
			}
		}
	}
}

// cellIndex returns the flat index for a world position, clamped to the grid.
func (g *SpatialGrid) cellIndex(x, z float64) int {
	col := clampInt(int(math.Floor(x/g.cellSize)), 0, g.cols-1)
	row := clampInt(int(math.Floor(z/g.cellSize)), 0, g.rows-1)
	return row*g.cols + col
}
