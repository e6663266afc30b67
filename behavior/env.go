// Package behavior implements the animal state machine: Idle/Moving/Chase loops
// advanced once per simulation tick, with predator and prey specializations.
//
// Each agent owns exactly one active loop object. Entering a new state discards
// the previous loop, so a cancelled loop can never run again or transition the agent.
// Agents refer to each other only through ecs.Entity handles resolved by a Registry,
// and every read re-checks liveness.
package behavior

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

// NavAgent is the pathfinding/movement component bound to an agent.
// The core writes to it only through SetDestination, ResetPath and SetSpeed.
type NavAgent interface {
	SetDestination(p r3.Vec) bool
	ResetPath()
	RemainingDistance() float64
	StoppingDistance() float64
	PathPending() bool
	Active() bool
	Position() r3.Vec
	SetSpeed(speed float64)
}

// SpatialQuery finds entities of a kind within radius of a point.
// Results are unordered and may include handles that are no longer alive.
type SpatialQuery interface {
	FindInRadius(origin r3.Vec, radius float64, kind components.Kind) []ecs.Entity
}

// Sampler finds a random reachable point near origin.
// Implementations never fail: they fall back to origin after bounded retries.
type Sampler interface {
	FindReachablePoint(origin r3.Vec, maxDistance float64) r3.Vec
}

// Registry resolves entity handles to live agents.
type Registry interface {
	Lookup(e ecs.Entity) (*Agent, bool)
}

// Env holds the collaborators shared by all agents of a simulation.
type Env struct {
	Clock    *Clock
	Registry Registry
	Spatial  SpatialQuery
	Sampler  Sampler
	Rand     *rand.Rand
	Observer Observer

	// Despawn is called once when an agent dies. The driver removes the
	// entity after the current tick.
	Despawn func(e ecs.Entity)
}

func (env *Env) observer() Observer {
	if env.Observer == nil {
		return NopObserver{}
	}
	return env.Observer
}

// timeEpsilon absorbs float drift when comparing tick-derived times.
const timeEpsilon = 1e-9

// Clock is the discrete simulation clock shared by all agents.
type Clock struct {
	tick int64
	dt   float64
}

// NewClock creates a clock advancing dt seconds per tick.
func NewClock(dt float64) *Clock {
	return &Clock{dt: dt}
}

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() {
	c.tick++
}

// Tick returns the current tick number.
func (c *Clock) Tick() int64 {
	return c.tick
}

// DT returns seconds per tick.
func (c *Clock) DT() float64 {
	return c.dt
}

// Now returns the current simulation time in seconds.
func (c *Clock) Now() float64 {
	return float64(c.tick) * c.dt
}

// reached reports whether now has passed deadline.
func reached(now, deadline float64) bool {
	return now >= deadline-timeEpsilon
}
