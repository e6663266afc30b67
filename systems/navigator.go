package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NavParams configures a Navigator.
type NavParams struct {
	StoppingDistance float64
	PlanDelayTicks   int // ticks a destination stays pending before a path is planned
}

// Navigator moves one agent along A* paths on the terrain surface.
// Destinations are planned asynchronously: a path stays pending for
// PlanDelayTicks updates after SetDestination.
type Navigator struct {
	planner *AStarPlanner
	terrain *Terrain
	params  NavParams

	pos    r3.Vec
	speed  float64
	active bool

	hasDest bool
	dest    r3.Vec
	pending int // updates left until planning

	path  []r3.Vec
	index int // next waypoint

	plans    int
	failures int
}

// NewNavigator places a navigator at pos, projected onto the surface.
func NewNavigator(planner *AStarPlanner, terrain *Terrain, params NavParams, pos r3.Vec) *Navigator {
	n := &Navigator{
		planner: planner,
		terrain: terrain,
		params:  params,
		active:  true,
	}
	n.pos = n.project(pos)
	return n
}

// SetDestination requests a path to p. Returns false if the navigator is inactive.
func (n *Navigator) SetDestination(p r3.Vec) bool {
	if !n.active {
		return false
	}
	n.hasDest = true
	n.dest = p
	n.pending = n.params.PlanDelayTicks
	if n.pending == 0 {
		n.plan()
	}
	return true
}

// ResetPath clears the destination and stops movement.
func (n *Navigator) ResetPath() {
	n.hasDest = false
	n.path = nil
	n.index = 0
	n.pending = 0
}

// PathPending reports whether a destination is waiting to be planned.
func (n *Navigator) PathPending() bool {
	return n.hasDest && n.pending > 0
}

// RemainingDistance returns the distance left along the current path.
// It is zero when there is no path.
func (n *Navigator) RemainingDistance() float64 {
	if n.path == nil {
		return 0
	}
	total := 0.0
	prev := n.pos
	for i := n.index; i < len(n.path); i++ {
		total += planarDistance(prev, n.path[i])
		prev = n.path[i]
	}
	return total
}

// StoppingDistance returns the arrival threshold.
func (n *Navigator) StoppingDistance() float64 {
	return n.params.StoppingDistance
}

// Active reports whether the navigator accepts destinations.
func (n *Navigator) Active() bool {
	return n.active
}

// SetActive enables or disables the navigator. Disabling clears the path.
func (n *Navigator) SetActive(active bool) {
	n.active = active
	if !active {
		n.ResetPath()
	}
}

// Position returns the current world position.
func (n *Navigator) Position() r3.Vec {
	return n.pos
}

// SetSpeed sets the movement speed in world units per second.
func (n *Navigator) SetSpeed(speed float64) {
	n.speed = speed
}

// Speed returns the current movement speed.
func (n *Navigator) Speed() float64 {
	return n.speed
}

// Destination returns the requested destination, if any.
func (n *Navigator) Destination() (r3.Vec, bool) {
	return n.dest, n.hasDest
}

// Plans returns how many paths were planned and how many failed.
func (n *Navigator) Plans() (planned, failed int) {
	return n.plans, n.failures
}

// Update plans pending paths and advances along the current one by speed*dt.
// While a new destination is pending the previous path is still followed.
func (n *Navigator) Update(dt float64) {
	if !n.active || !n.hasDest {
		return
	}
	if n.pending > 0 {
		n.pending--
		if n.pending == 0 {
			n.plan()
		}
	}

	step := n.speed * dt
	for step > 0 && n.index < len(n.path) {
		wp := n.path[n.index]
		d := planarDistance(n.pos, wp)
		if d <= step {
			n.pos.X, n.pos.Z = wp.X, wp.Z
			step -= d
			n.index++
			continue
		}
		dx := (wp.X - n.pos.X) / d
		dz := (wp.Z - n.pos.Z) / d
		n.pos.X += dx * step
		n.pos.Z += dz * step
		step = 0
	}
	n.pos = n.project(n.pos)
}

// plan computes the path to the current destination.
// A failed plan leaves the navigator with no path.
func (n *Navigator) plan() {
	n.plans++
	path := n.planner.FindPath(n.pos, n.dest)
	if path == nil {
		n.failures++
		n.path = nil
		n.hasDest = false
		return
	}
	n.path = path
	n.index = 0
	// The first waypoint is the center of the start cell.
	if len(path) > 1 {
		n.index = 1
	}
}

func (n *Navigator) project(p r3.Vec) r3.Vec {
	p.Y = n.terrain.HeightAt(p.X, p.Z)
	return p
}

func planarDistance(a, b r3.Vec) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}
