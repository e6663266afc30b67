package behavior

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

// preyRole flees from the predator that alerted it.
type preyRole struct{}

func (preyRole) OnStateChanged(a *Agent, s State) {
	if s == StateChase {
		a.nav.SetSpeed(a.params.RunSpeed)
		return
	}
	a.nav.SetSpeed(a.params.WalkSpeed)
}

func (preyRole) OnPerceptionTick(*Agent) {}

func (preyRole) NewChaseLoop(*Agent) Loop {
	return &fleeLoop{}
}

// AlertPrey tells a prey that predator is chasing it. The prey enters
// StateChase, or restarts its flee loop if it is already fleeing.
// Alerts to dead agents and non-prey are ignored.
func (a *Agent) AlertPrey(predator ecs.Entity) {
	if a.dead || a.kind != components.KindPrey {
		return
	}
	a.threat = predator
	a.env.observer().Alerted(a.self, predator)
	if a.state == StateChase {
		a.restartLoop()
		return
	}
	a.SetState(StateChase)
}

type fleePhase uint8

const (
	fleeWaiting  fleePhase = iota // threat alerted us but is not yet in range
	fleeRunning                   // threat in range, keep picking escape points
	fleeSettling                  // threat gone, finish the last escape path
)

// fleeLoop waits for the threat to close in, runs until it is out of range,
// then settles on the last escape destination.
type fleeLoop struct {
	phase       fleePhase
	settleStart float64
}

func (l *fleeLoop) Enter(_ *Agent, _ float64) {
	l.phase = fleeWaiting
}

func (l *fleeLoop) Step(a *Agent, now float64) {
	threat, alive := a.lookup(a.threat)
	inRange := alive && a.distanceTo(threat) <= a.params.DetectionRange

	switch l.phase {
	case fleeWaiting:
		if !alive {
			a.threat = ecs.Entity{}
			a.SetState(StateIdle)
			return
		}
		if !inRange {
			return
		}
		a.nav.ResetPath()
		l.phase = fleeRunning
		a.runFrom(threat)

	case fleeRunning:
		if inRange {
			a.runFrom(threat)
			return
		}
		l.phase = fleeSettling
		l.settleStart = now
		l.settle(a, now)

	case fleeSettling:
		if inRange {
			l.phase = fleeRunning
			a.runFrom(threat)
			return
		}
		l.settle(a, now)
	}
}

func (l *fleeLoop) settle(a *Agent, now float64) {
	if a.arrived() || reached(now, l.settleStart+a.params.MaxWalkTime) {
		a.threat = ecs.Entity{}
		a.SetState(StateIdle)
	}
}

// runFrom picks a new escape destination once the current one is reached.
func (a *Agent) runFrom(threat *Agent) {
	if !a.nav.Active() {
		return
	}
	if a.nav.PathPending() || a.nav.RemainingDistance() >= a.nav.StoppingDistance() {
		return
	}

	pos := a.Position()
	away := r3.Sub(pos, threat.Position())
	if r3.Norm(away) < 1e-9 {
		angle := 0.0
		if a.env.Rand != nil {
			angle = a.env.Rand.Float64() * 2 * math.Pi
		}
		away = r3.Vec{X: math.Cos(angle), Z: math.Sin(angle)}
	}
	escape := r3.Add(pos, r3.Scale(2*a.params.EscapeMaxDistance, r3.Unit(away)))
	dest := a.env.Sampler.FindReachablePoint(escape, a.params.EscapeMaxDistance)
	a.nav.SetDestination(dest)
}
