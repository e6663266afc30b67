package systems

import "math"

// NavGrid stores the walkable surface used for A* pathfinding.
// Cells are marked as blocked (true) or open (false).
type NavGrid struct {
	cells    []bool  // true = blocked
	cellSize float64 // world units per cell
	width    int     // grid width in cells (X)
	height   int     // grid height in cells (Z)
}

// NewNavGrid builds a navigation grid from terrain, inflated by a radius.
// A nav cell is blocked if solid terrain lies within inflation of its center.
func NewNavGrid(terrain *Terrain, cellSize, inflation float64) *NavGrid {
	worldW, worldD := terrain.Bounds()
	w := int(worldW / cellSize)
	h := int(worldD / cellSize)

	grid := &NavGrid{
		cells:    make([]bool, w*h),
		cellSize: cellSize,
		width:    w,
		height:   h,
	}

	tcs := terrain.CellSize()
	reach := inflation + tcs*0.5
	for gz := 0; gz < h; gz++ {
		for gx := 0; gx < w; gx++ {
			centerX := (float64(gx) + 0.5) * cellSize
			centerZ := (float64(gz) + 0.5) * cellSize

			blocked := terrain.IsSolid(centerX, centerZ)

			tMinX := int((centerX - inflation) / tcs)
			tMaxX := int((centerX + inflation) / tcs)
			tMinZ := int((centerZ - inflation) / tcs)
			tMaxZ := int((centerZ + inflation) / tcs)

			for tz := tMinZ; tz <= tMaxZ && !blocked; tz++ {
				for tx := tMinX; tx <= tMaxX && !blocked; tx++ {
					if tx < 0 || tz < 0 || !terrain.IsBlocked(tx, tz) {
						continue
					}
					dx := centerX - (float64(tx)+0.5)*tcs
					dz := centerZ - (float64(tz)+0.5)*tcs
					if dx*dx+dz*dz < reach*reach {
						blocked = true
					}
				}
			}

			grid.cells[gz*w+gx] = blocked
		}
	}

	return grid
}

// IsBlocked returns true if the given nav grid cell is blocked.
func (g *NavGrid) IsBlocked(gx, gz int) bool {
	if gx < 0 || gx >= g.width || gz < 0 || gz >= g.height {
		return true // Out of bounds is blocked
	}
	return g.cells[gz*g.width+gx]
}

// IsBlockedWorld returns true if the world position is in a blocked cell.
func (g *NavGrid) IsBlockedWorld(x, z float64) bool {
	gx, gz := g.WorldToGrid(x, z)
	return g.IsBlocked(gx, gz)
}

// WorldToGrid converts world coordinates to nav grid coordinates.
func (g *NavGrid) WorldToGrid(x, z float64) (gx, gz int) {
	gx = int(math.Floor(x / g.cellSize))
	gz = int(math.Floor(z / g.cellSize))
	return
}

// GridToWorld converts nav grid coordinates to world coordinates (cell center).
func (g *NavGrid) GridToWorld(gx, gz int) (x, z float64) {
	x = (float64(gx) + 0.5) * g.cellSize
	z = (float64(gz) + 0.5) * g.cellSize
	return
}

// ClampToGrid returns the nearest in-bounds cell.
func (g *NavGrid) ClampToGrid(gx, gz int) (int, int) {
	return clampInt(gx, 0, g.width-1), clampInt(gz, 0, g.height-1)
}

// NearestOpen finds the nearest unblocked cell within maxRadius cells.
// Returns (-1, -1) if none is found.
func (g *NavGrid) NearestOpen(gx, gz, maxRadius int) (int, int) {
	if !g.IsBlocked(gx, gz) {
		return gx, gz
	}
	// Spiral search outward
	for radius := 1; radius <= maxRadius; radius++ {
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				if abs(dx) != radius && abs(dz) != radius {
					continue
				}
				if !g.IsBlocked(gx+dx, gz+dz) {
					return gx + dx, gz + dz
				}
			}
		}
	}
	return -1, -1
}

// CellSize returns the nav cell size in world units.
func (g *NavGrid) CellSize() float64 {
	return g.cellSize
}

// OpenCells returns the number of walkable cells.
func (g *NavGrid) OpenCells() int {
	n := 0
	for _, b := range g.cells {
		if !b {
			n++
		}
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
