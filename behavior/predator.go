package behavior

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/wilds/components"
)

// predatorRole scans for prey while moving and chases what it finds.
type predatorRole struct{}

func (predatorRole) OnStateChanged(a *Agent, s State) {
	if s == StateChase {
		a.nav.SetSpeed(a.params.RunSpeed)
		return
	}
	// Leaving Chase drops the target, so the next Moving tick rescans.
	a.target = ecs.Entity{}
	a.nav.SetSpeed(a.params.WalkSpeed)
}

func (predatorRole) OnPerceptionTick(a *Agent) {
	if !a.target.IsZero() {
		return
	}
	if prey, ok := a.acquirePrey(); ok {
		a.target = prey
		a.SetState(StateChase)
	}
}

func (predatorRole) NewChaseLoop(*Agent) Loop {
	return &chaseLoop{}
}

// acquirePrey returns the first live prey within detection range.
func (a *Agent) acquirePrey() (ecs.Entity, bool) {
	hits := a.env.Spatial.FindInRadius(a.Position(), a.params.DetectionRange, components.KindPrey)
	for _, e := range hits {
		if e == a.self {
			continue
		}
		if _, ok := a.lookup(e); ok {
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// chaseLoop pursues the target until contact, loss or timeout.
// After a bite it waits out the cooldown, then rescans.
type chaseLoop struct {
	start    float64
	cooling  bool
	resumeAt float64
}

func (l *chaseLoop) Enter(a *Agent, now float64) {
	prey, ok := a.lookup(a.target)
	if !ok {
		a.target = ecs.Entity{}
		a.SetState(StateIdle)
		return
	}
	l.start = now
	a.env.observer().ChaseStarted(a.self, a.target)
	prey.AlertPrey(a.self)
}

func (l *chaseLoop) Step(a *Agent, now float64) {
	if l.cooling {
		if !reached(now, l.resumeAt) {
			return
		}
		a.target = ecs.Entity{}
		if prey, ok := a.acquirePrey(); ok {
			a.target = prey
			a.restartLoop()
			return
		}
		a.SetState(StateIdle)
		return
	}

	prey, ok := a.lookup(a.target)
	if !ok {
		l.stop(a, now, ChaseTargetLost)
		return
	}
	if reached(now, l.start+a.params.MaxChaseTime) {
		l.stop(a, now, ChaseTimeout)
		return
	}

	if a.distanceTo(prey) <= a.nav.StoppingDistance() {
		killed := prey.ReceiveDamage(a.params.BiteDamage)
		obs := a.env.observer()
		obs.Bitten(a.self, prey.self, a.params.BiteDamage, killed)
		obs.ChaseEnded(a.self, ChaseContact, now-l.start)
		l.cooling = true
		l.resumeAt = now + a.params.BiteCooldown
		return
	}

	a.SetState(StateChase)
	a.nav.SetDestination(prey.Position())
}

func (l *chaseLoop) stop(a *Agent, now float64, reason ChaseEnd) {
	a.env.observer().ChaseEnded(a.self, reason, now-l.start)
	a.nav.ResetPath()
	a.target = ecs.Entity{}
	a.SetState(StateIdle)
}
