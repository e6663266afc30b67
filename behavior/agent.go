package behavior

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

// State is the behavioral state of an agent.
type State uint8

const (
	StateIdle State = iota
	StateMoving
	StateChase
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateChase:
		return "chase"
	default:
		return "unknown"
	}
}

// Stats counts state machine activity for one agent.
type Stats struct {
	LoopsStarted   int
	LoopsCancelled int
	Transitions    int
	EntryHooks     int
}

// Loop is the per-state routine of an agent. Enter runs synchronously when
// the loop is started; Step runs once per tick from the following tick on.
// A loop that has been replaced is never stepped again.
type Loop interface {
	Enter(a *Agent, now float64)
	Step(a *Agent, now float64)
}

// Role supplies the kind-specific parts of the state machine.
type Role interface {
	// OnStateChanged runs on every accepted transition, before the new loop starts.
	OnStateChanged(a *Agent, s State)
	// OnPerceptionTick runs once per Moving tick.
	OnPerceptionTick(a *Agent)
	// NewChaseLoop builds the loop run while in StateChase.
	NewChaseLoop(a *Agent) Loop
}

// Agent is one simulated animal.
type Agent struct {
	self   ecs.Entity
	kind   components.Kind
	params Params
	nav    NavAgent
	env    *Env
	role   Role

	state  State
	health int
	dead   bool
	loop   Loop
	epoch  uint64 // bumped whenever the active loop is discarded

	target ecs.Entity // predator: prey being chased
	threat ecs.Entity // prey: predator being fled

	stats Stats
}

// NewAgent creates an agent in StateIdle with its idle loop running.
func NewAgent(self ecs.Entity, kind components.Kind, params Params, nav NavAgent, env *Env) *Agent {
	a := &Agent{
		self:   self,
		kind:   kind,
		params: params,
		nav:    nav,
		env:    env,
		role:   roleFor(kind),
		state:  StateIdle,
		health: params.Health,
	}
	a.stats.EntryHooks++
	a.role.OnStateChanged(a, StateIdle)
	a.startLoop()
	return a
}

func roleFor(kind components.Kind) Role {
	switch kind {
	case components.KindPredator:
		return predatorRole{}
	case components.KindPrey:
		return preyRole{}
	default:
		return wandererRole{}
	}
}

// Entity returns the agent's handle.
func (a *Agent) Entity() ecs.Entity { return a.self }

// Kind returns the agent's kind.
func (a *Agent) Kind() components.Kind { return a.kind }

// State returns the current state.
func (a *Agent) State() State { return a.state }

// Health returns current health.
func (a *Agent) Health() int { return a.health }

// Dead reports whether the agent has died.
func (a *Agent) Dead() bool { return a.dead }

// Params returns the agent's tunables.
func (a *Agent) Params() Params { return a.params }

// Nav returns the bound navigation agent.
func (a *Agent) Nav() NavAgent { return a.nav }

// Stats returns a copy of the agent's counters.
func (a *Agent) Stats() Stats { return a.stats }

// Target returns the predator's current chase target, if any.
func (a *Agent) Target() (ecs.Entity, bool) { return a.target, !a.target.IsZero() }

// Threat returns the prey's current threat, if any.
func (a *Agent) Threat() (ecs.Entity, bool) { return a.threat, !a.threat.IsZero() }

// Position returns the agent's world position.
func (a *Agent) Position() r3.Vec { return a.nav.Position() }

// SetState transitions to s. Requests for the current state are no-ops:
// no hook runs and the active loop keeps running.
func (a *Agent) SetState(s State) {
	if a.dead || s == a.state {
		return
	}
	from := a.state
	a.cancelLoop()
	a.state = s
	a.stats.Transitions++
	a.env.observer().StateChanged(a.self, a.kind, from, s)

	a.stats.EntryHooks++
	a.role.OnStateChanged(a, s)
	a.startLoop()
}

// Tick advances the active loop by one step.
func (a *Agent) Tick() {
	if a.dead || a.loop == nil {
		return
	}
	a.loop.Step(a, a.env.Clock.Now())
}

// ReceiveDamage subtracts amount from health and kills the agent when health
// drops to zero or below. It reports whether this call killed the agent.
// Damage to a dead agent is ignored.
func (a *Agent) ReceiveDamage(amount int) bool {
	if a.dead {
		return false
	}
	a.health -= amount
	if a.health <= 0 {
		a.Die()
		return true
	}
	return false
}

// Die stops all behavior and requests removal. It is idempotent.
func (a *Agent) Die() {
	if a.dead {
		return
	}
	a.dead = true
	a.cancelLoop()
	a.nav.ResetPath()
	a.target = ecs.Entity{}
	a.threat = ecs.Entity{}

	a.env.observer().Died(a.self, a.kind)
	if a.env.Despawn != nil {
		a.env.Despawn(a.self)
	}
}

// cancelLoop discards the active loop.
func (a *Agent) cancelLoop() {
	if a.loop != nil {
		a.loop = nil
		a.stats.LoopsCancelled++
	}
	a.epoch++
}

// startLoop creates and enters the loop for the current state.
func (a *Agent) startLoop() {
	var l Loop
	switch a.state {
	case StateIdle:
		l = &idleLoop{}
	case StateMoving:
		l = &movingLoop{}
	case StateChase:
		l = a.role.NewChaseLoop(a)
	}
	a.loop = l
	a.stats.LoopsStarted++
	l.Enter(a, a.env.Clock.Now())
}

// restartLoop replaces the active loop with a fresh one for the same state.
func (a *Agent) restartLoop() {
	a.cancelLoop()
	a.startLoop()
}

// lookup resolves a handle to a live agent.
func (a *Agent) lookup(e ecs.Entity) (*Agent, bool) {
	if e.IsZero() || a.env.Registry == nil {
		return nil, false
	}
	other, ok := a.env.Registry.Lookup(e)
	if !ok || other == nil || other.dead {
		return nil, false
	}
	return other, true
}

// arrived reports whether the navigator has reached its destination.
func (a *Agent) arrived() bool {
	return !a.nav.PathPending() && a.nav.RemainingDistance() <= a.nav.StoppingDistance()
}

// distanceTo returns the straight-line distance to other.
func (a *Agent) distanceTo(other *Agent) float64 {
	return r3.Norm(r3.Sub(other.Position(), a.Position()))
}
