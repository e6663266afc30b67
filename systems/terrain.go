package systems

import (
	"github.com/ojrac/opensimplex-go"
)

// Terrain is a height field over the XZ plane with impassable obstacle cells.
type Terrain struct {
	blocked     []bool
	cellSize    float64
	width       float64
	depth       float64
	cols        int
	rows        int
	heightScale float64
	height      opensimplex.Noise // nil for flat terrain
	scale       float64
}

// TerrainParams configures procedural terrain generation.
type TerrainParams struct {
	Width, Depth float64
	CellSize     float64
	Scale        float64 // noise frequency
	Threshold    float64 // normalized noise above this is blocked
	HeightScale  float64
}

// NewTerrain generates terrain from seeded simplex noise.
func NewTerrain(p TerrainParams, seed int64) *Terrain {
	t := NewFlatTerrain(p.Width, p.Depth, p.CellSize)
	t.scale = p.Scale
	t.heightScale = p.HeightScale
	t.height = opensimplex.NewNormalized(seed)
	t.generateObstacles(opensimplex.NewNormalized(seed+1), p.Threshold)
	return t
}

// NewFlatTerrain creates open, flat terrain with no obstacles.
func NewFlatTerrain(width, depth, cellSize float64) *Terrain {
	cols := int(width / cellSize)
	rows := int(depth / cellSize)
	return &Terrain{
		blocked:  make([]bool, cols*rows),
		cellSize: cellSize,
		width:    width,
		depth:    depth,
		cols:     cols,
		rows:     rows,
	}
}

// generateObstacles blocks cells where noise exceeds threshold.
// Rock outcrops use two octaves so they form clustered, irregular shapes.
func (t *Terrain) generateObstacles(noise opensimplex.Noise, threshold float64) {
	if threshold >= 1 {
		return
	}
	for gz := 0; gz < t.rows; gz++ {
		for gx := 0; gx < t.cols; gx++ {
			x := (float64(gx) + 0.5) * t.cellSize
			z := (float64(gz) + 0.5) * t.cellSize
			v := 0.7*noise.Eval2(x*t.scale, z*t.scale) + 0.3*noise.Eval2(x*t.scale*3, z*t.scale*3)
			t.blocked[gz*t.cols+gx] = v > threshold
		}
	}
	t.clearCenter()
}

// clearCenter keeps the middle of the world open so spawning always succeeds.
func (t *Terrain) clearCenter() {
	cx, cz := t.cols/2, t.rows/2
	r := t.cols / 10
	if r < 2 {
		r = 2
	}
	for gz := cz - r; gz <= cz+r; gz++ {
		for gx := cx - r; gx <= cx+r; gx++ {
			t.SetBlocked(gx, gz, false)
		}
	}
}

// SetBlocked marks a terrain cell. Out-of-range cells are ignored.
func (t *Terrain) SetBlocked(gx, gz int, blocked bool) {
	if gx < 0 || gx >= t.cols || gz < 0 || gz >= t.rows {
		return
	}
	t.blocked[gz*t.cols+gx] = blocked
}

// IsBlocked reports whether a terrain cell is solid. Out of bounds is solid.
func (t *Terrain) IsBlocked(gx, gz int) bool {
	if gx < 0 || gx >= t.cols || gz < 0 || gz >= t.rows {
		return true
	}
	return t.blocked[gz*t.cols+gx]
}

// IsSolid reports whether a world position lies in a solid cell.
func (t *Terrain) IsSolid(x, z float64) bool {
	if x < 0 || z < 0 {
		return true
	}
	return t.IsBlocked(int(x/t.cellSize), int(z/t.cellSize))
}

// HeightAt returns the surface height at a world position.
func (t *Terrain) HeightAt(x, z float64) float64 {
	if t.height == nil || t.heightScale == 0 {
		return 0
	}
	return t.heightScale * t.height.Eval2(x*t.scale*0.5, z*t.scale*0.5)
}

// Bounds returns the world extent.
func (t *Terrain) Bounds() (width, depth float64) {
	return t.width, t.depth
}

// CellSize returns the terrain cell size.
func (t *Terrain) CellSize() float64 {
	return t.cellSize
}

// BlockedFraction returns the share of solid cells.
func (t *Terrain) BlockedFraction() float64 {
	if len(t.blocked) == 0 {
		return 0
	}
	n := 0
	for _, b := range t.blocked {
		if b {
			n++
		}
	}
	return float64(n) / float64(len(t.blocked))
}
