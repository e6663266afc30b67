package behavior

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

const testDT = 0.02

// fakeNav is a navigator that only moves when a test moves it.
type fakeNav struct {
	pos      r3.Vec
	dest     r3.Vec
	hasPath  bool
	pending  bool
	inactive bool
	stopping float64
	speed    float64

	destCalls  int
	resetCalls int
}

func (n *fakeNav) SetDestination(p r3.Vec) bool {
	n.dest = p
	n.hasPath = true
	n.destCalls++
	return true
}

func (n *fakeNav) ResetPath() {
	n.hasPath = false
	n.resetCalls++
}

func (n *fakeNav) RemainingDistance() float64 {
	if !n.hasPath {
		return 0
	}
	return r3.Norm(r3.Sub(n.dest, n.pos))
}

func (n *fakeNav) StoppingDistance() float64 { return n.stopping }
func (n *fakeNav) PathPending() bool         { return n.pending }
func (n *fakeNav) Active() bool              { return !n.inactive }
func (n *fakeNav) Position() r3.Vec          { return n.pos }
func (n *fakeNav) SetSpeed(s float64)        { n.speed = s }

type chaseEndEvent struct {
	predator ecs.Entity
	reason   ChaseEnd
}

// recordingObserver keeps the events tests assert on.
type recordingObserver struct {
	NopObserver
	chaseEnds []chaseEndEvent
	bites     int
	deaths    int
}

func (o *recordingObserver) ChaseEnded(p ecs.Entity, r ChaseEnd, _ float64) {
	o.chaseEnds = append(o.chaseEnds, chaseEndEvent{p, r})
}

func (o *recordingObserver) Bitten(_, _ ecs.Entity, _ int, _ bool) { o.bites++ }
func (o *recordingObserver) Died(ecs.Entity, components.Kind)      { o.deaths++ }

// testWorld is a minimal driver: a registry, brute-force spatial query
// and a sampler that offsets the origin along X.
type testWorld struct {
	t      *testing.T
	world  *ecs.World
	orgs   *ecs.Map1[components.Organism]
	clock  *Clock
	env    *Env
	obs    *recordingObserver
	agents map[ecs.Entity]*Agent
	order  []*Agent

	despawned []ecs.Entity
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	w := &testWorld{
		t:      t,
		world:  ecs.NewWorld(),
		clock:  NewClock(testDT),
		obs:    &recordingObserver{},
		agents: make(map[ecs.Entity]*Agent),
	}
	w.orgs = ecs.NewMap1[components.Organism](w.world)
	w.env = &Env{
		Clock:    w.clock,
		Registry: w,
		Spatial:  w,
		Sampler:  w,
		Rand:     rand.New(rand.NewSource(1)),
		Observer: w.obs,
		Despawn: func(e ecs.Entity) {
			w.despawned = append(w.despawned, e)
		},
	}
	return w
}

func testParams(kind components.Kind) Params {
	p := Params{
		WanderDistance: 50,
		WalkSpeed:      5,
		MaxWalkTime:    6,
		IdleTime:       5,
		Health:         10,
		RunSpeed:       5,
	}
	switch kind {
	case components.KindPredator:
		p.Health = 20
		p.RunSpeed = 11
		p.DetectionRange = 20
		p.MaxChaseTime = 10
		p.BiteDamage = 3
		p.BiteCooldown = 1
	case components.KindPrey:
		p.RunSpeed = 10
		p.DetectionRange = 10
		p.EscapeMaxDistance = 80
	}
	return p
}

func (w *testWorld) spawn(kind components.Kind, pos r3.Vec) (*Agent, *fakeNav) {
	return w.spawnWith(kind, pos, testParams(kind))
}

func (w *testWorld) spawnWith(kind components.Kind, pos r3.Vec, p Params) (*Agent, *fakeNav) {
	w.t.Helper()
	e := w.orgs.NewEntity(&components.Organism{ID: uint32(len(w.order) + 1), Kind: kind})
	nav := &fakeNav{pos: pos, stopping: 1.5}
	a := NewAgent(e, kind, p, nav, w.env)
	w.agents[e] = a
	w.order = append(w.order, a)
	return a, nav
}

// remove drops an entity from the registry, as the driver does after death.
func (w *testWorld) remove(a *Agent) {
	delete(w.agents, a.Entity())
	if w.world.Alive(a.Entity()) {
		w.world.RemoveEntity(a.Entity())
	}
}

func (w *testWorld) Lookup(e ecs.Entity) (*Agent, bool) {
	if !w.world.Alive(e) {
		return nil, false
	}
	a, ok := w.agents[e]
	return a, ok
}

func (w *testWorld) FindInRadius(origin r3.Vec, radius float64, kind components.Kind) []ecs.Entity {
	var out []ecs.Entity
	for _, a := range w.order {
		if a.Kind() != kind {
			continue
		}
		if r3.Norm(r3.Sub(a.Position(), origin)) <= radius {
			out = append(out, a.Entity())
		}
	}
	return out
}

func (w *testWorld) FindReachablePoint(origin r3.Vec, maxDistance float64) r3.Vec {
	return r3.Add(origin, r3.Vec{X: maxDistance / 2})
}

// step advances the clock and ticks every agent in spawn order.
func (w *testWorld) step() {
	w.clock.Advance()
	for _, a := range w.order {
		a.Tick()
	}
}

func (w *testWorld) stepN(n int) {
	for i := 0; i < n; i++ {
		w.step()
	}
}

// stepUntil steps until cond holds, returning the number of steps taken,
// or -1 if limit steps pass first.
func (w *testWorld) stepUntil(limit int, cond func() bool) int {
	for i := 1; i <= limit; i++ {
		w.step()
		if cond() {
			return i
		}
	}
	return -1
}
