package systems

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AStarPlanner provides A* pathfinding over a navigation grid.
type AStarPlanner struct {
	grid          *NavGrid
	maxIterations int

	// Reusable data structures (cleared between searches)
	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]float64
}

// astarNode is a node in the A* search.
type astarNode struct {
	gx, gz int     // Grid coordinates
	f      float64 // f = g + h (priority)
	index  int     // Heap index
}

// nodeHeap implements heap.Interface for A* open set.
type nodeHeap []*astarNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// goalSearchRadius bounds the search for an open cell near a blocked goal.
const goalSearchRadius = 10

// NewAStarPlanner creates an A* planner. maxIterations caps node expansions
// per search; zero means the grid size.
func NewAStarPlanner(grid *NavGrid, maxIterations int) *AStarPlanner {
	if maxIterations <= 0 {
		maxIterations = grid.width * grid.height
	}
	return &AStarPlanner{
		grid:          grid,
		maxIterations: maxIterations,
		openHeap:      &nodeHeap{},
		closedSet:     make(map[int]struct{}, 256),
		cameFrom:      make(map[int]int, 256),
		gScore:        make(map[int]float64, 256),
	}
}

// Grid returns the planner's navigation grid.
func (a *AStarPlanner) Grid() *NavGrid {
	return a.grid
}

// FindPath computes a path from start to goal on the XZ plane.
// A goal that is blocked or out of bounds is moved to the nearest open cell,
// so the path may end short of it. Returns nil if no path is found.
// Waypoint Y is left at zero; callers project onto the surface.
func (a *AStarPlanner) FindPath(start, goal r3.Vec) []r3.Vec {
	grid := a.grid

	startGX, startGZ := grid.ClampToGrid(grid.WorldToGrid(start.X, start.Z))
	goalGX, goalGZ := grid.ClampToGrid(grid.WorldToGrid(goal.X, goal.Z))
	exactGoal := !grid.IsBlockedWorld(goal.X, goal.Z)

	if grid.IsBlocked(startGX, startGZ) {
		startGX, startGZ = grid.NearestOpen(startGX, startGZ, goalSearchRadius)
		if startGX < 0 {
			return nil
		}
	}
	if grid.IsBlocked(goalGX, goalGZ) {
		goalGX, goalGZ = grid.NearestOpen(goalGX, goalGZ, goalSearchRadius)
		if goalGX < 0 {
			return nil
		}
	}

	finish := func(path []r3.Vec) []r3.Vec {
		if exactGoal {
			path[len(path)-1] = r3.Vec{X: goal.X, Z: goal.Z}
		}
		return path
	}

	// Same cell - no path needed
	if startGX == goalGX && startGZ == goalGZ {
		x, z := grid.GridToWorld(goalGX, goalGZ)
		return finish([]r3.Vec{{X: x, Z: z}})
	}

	// Clear reusable data structures
	*a.openHeap = (*a.openHeap)[:0]
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)

	startID := startGZ*grid.width + startGX
	goalID := goalGZ*grid.width + goalGX

	a.gScore[startID] = 0
	heap.Push(a.openHeap, &astarNode{gx: startGX, gz: startGZ, f: heuristic(startGX, startGZ, goalGX, goalGZ)})

	iterations := 0
	for a.openHeap.Len() > 0 && iterations < a.maxIterations {
		iterations++

		current := heap.Pop(a.openHeap).(*astarNode)
		currentID := current.gz*grid.width + current.gx

		if currentID == goalID {
			return finish(a.reconstructPath(startID, goalID))
		}
		if _, done := a.closedSet[currentID]; done {
			continue
		}
		a.closedSet[currentID] = struct{}{}

		// Check 8-connected neighbors
		neighbors := [8][2]int{
			{current.gx - 1, current.gz},     // W
			{current.gx + 1, current.gz},     // E
			{current.gx, current.gz - 1},     // N
			{current.gx, current.gz + 1},     // S
			{current.gx - 1, current.gz - 1}, // NW
			{current.gx + 1, current.gz - 1}, // NE
			{current.gx - 1, current.gz + 1}, // SW
			{current.gx + 1, current.gz + 1}, // SE
		}

		for i, n := range neighbors {
			ngx, ngz := n[0], n[1]
			if grid.IsBlocked(ngx, ngz) {
				continue
			}

			// No corner cutting on diagonals
			if i >= 4 {
				dx := ngx - current.gx
				dz := ngz - current.gz
				if grid.IsBlocked(current.gx+dx, current.gz) || grid.IsBlocked(current.gx, current.gz+dz) {
					continue
				}
			}

			neighborID := ngz*grid.width + ngx
			if _, ok := a.closedSet[neighborID]; ok {
				continue
			}

			moveCost := 1.0
			if i >= 4 {
				moveCost = math.Sqrt2
			}
			tentativeG := a.gScore[currentID] + moveCost

			existingG, exists := a.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			a.cameFrom[neighborID] = currentID
			a.gScore[neighborID] = tentativeG
			heap.Push(a.openHeap, &astarNode{gx: ngx, gz: ngz, f: tentativeG + heuristic(ngx, ngz, goalGX, goalGZ)})
		}
	}

	return nil
}

// heuristic computes the Euclidean distance heuristic for A*.
func heuristic(gx1, gz1, gx2, gz2 int) float64 {
	dx := float64(gx2 - gx1)
	dz := float64(gz2 - gz1)
	return math.Sqrt(dx*dx + dz*dz)
}

// reconstructPath builds the path from cameFrom map.
func (a *AStarPlanner) reconstructPath(startID, goalID int) []r3.Vec {
	grid := a.grid

	var pathIDs []int
	current := goalID
	for current != startID {
		pathIDs = append(pathIDs, current)
		var ok bool
		current, ok = a.cameFrom[current]
		if !ok {
			break
		}
	}
	pathIDs = append(pathIDs, startID)

	path := make([]r3.Vec, len(pathIDs))
	for i := 0; i < len(pathIDs); i++ {
		id := pathIDs[len(pathIDs)-1-i]
		x, z := grid.GridToWorld(id%grid.width, id/grid.width)
		path[i] = r3.Vec{X: x, Z: z}
	}

	return a.simplifyPath(path)
}

// simplifyPath removes waypoints that are in a straight line.
func (a *AStarPlanner) simplifyPath(path []r3.Vec) []r3.Vec {
	if len(path) <= 2 {
		return path
	}

	simplified := make([]r3.Vec, 0, len(path))
	simplified = append(simplified, path[0])

	anchor := path[0]
	for i := 1; i < len(path)-1; i++ {
		if !a.HasLineOfSight(anchor, path[i+1]) {
			simplified = append(simplified, path[i])
			anchor = path[i]
		}
	}

	simplified = append(simplified, path[len(path)-1])
	return simplified
}

// HasLineOfSight checks if there's a clear line between two points on the nav grid.
func (a *AStarPlanner) HasLineOfSight(from, to r3.Vec) bool {
	dx := to.X - from.X
	dz := to.Z - from.Z
	dist := math.Hypot(dx, dz)
	if dist < 0.01 {
		return true
	}

	stepSize := a.grid.cellSize * 0.5
	steps := int(dist/stepSize) + 1
	dx /= dist
	dz /= dist

	for i := 0; i <= steps; i++ {
		d := math.Min(float64(i)*stepSize, dist)
		if a.grid.IsBlockedWorld(from.X+dx*d, from.Z+dz*d) {
			return false
		}
	}
	return true
}
