package behavior

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

// chaseSetup places a moving predator at the origin and a prey at preyX.
func chaseSetup(t *testing.T, preyX float64) (*testWorld, *Agent, *fakeNav, *Agent, *fakeNav) {
	t.Helper()
	w := newTestWorld(t)
	pred, predNav := w.spawn(components.KindPredator, r3.Vec{})
	prey, preyNav := w.spawn(components.KindPrey, r3.Vec{X: preyX})
	predNav.SetDestination(r3.Vec{Z: 500})
	pred.SetState(StateMoving)
	return w, pred, predNav, prey, preyNav
}

// TestPredatorAcquiresPreySameTick verifies a scan puts both predator and
// prey into Chase within one step.
func TestPredatorAcquiresPreySameTick(t *testing.T) {
	w, pred, predNav, prey, preyNav := chaseSetup(t, 15)

	w.step()

	if pred.State() != StateChase {
		t.Fatalf("Expected predator in chase, got %s", pred.State())
	}
	if prey.State() != StateChase {
		t.Fatalf("Expected prey in chase, got %s", prey.State())
	}
	if target, ok := pred.Target(); !ok || target != prey.Entity() {
		t.Errorf("Expected predator target %v, got %v", prey.Entity(), target)
	}
	if threat, ok := prey.Threat(); !ok || threat != pred.Entity() {
		t.Errorf("Expected prey threat %v, got %v", pred.Entity(), threat)
	}
	if predNav.speed != 11 {
		t.Errorf("Expected predator run speed 11, got %f", predNav.speed)
	}
	if preyNav.speed != 10 {
		t.Errorf("Expected prey run speed 10, got %f", preyNav.speed)
	}
	// Threat at 15 is beyond the prey's detection range of 10.
	if preyNav.destCalls != 0 {
		t.Errorf("Expected prey to wait for threat, got %d destinations", preyNav.destCalls)
	}
}

// TestPredatorIgnoresPreyOutOfRange verifies no chase starts beyond detection range.
func TestPredatorIgnoresPreyOutOfRange(t *testing.T) {
	w, pred, _, prey, _ := chaseSetup(t, 25)

	w.stepN(10)

	if pred.State() != StateMoving {
		t.Errorf("Expected predator still moving, got %s", pred.State())
	}
	if prey.State() != StateIdle {
		t.Errorf("Expected prey idle, got %s", prey.State())
	}
}

// TestPredatorSkipsDeadPrey verifies dead prey are never acquired.
func TestPredatorSkipsDeadPrey(t *testing.T) {
	w, pred, _, prey, _ := chaseSetup(t, 5)
	live, _ := w.spawn(components.KindPrey, r3.Vec{X: 8})
	prey.Die()

	w.step()

	if target, ok := pred.Target(); !ok || target != live.Entity() {
		t.Errorf("Expected live prey as target, got %v", target)
	}
}

// TestChaseBounded verifies a chase that never closes the distance ends
// after MaxChaseTime.
func TestChaseBounded(t *testing.T) {
	w, pred, predNav, _, _ := chaseSetup(t, 15)
	w.step()
	if pred.State() != StateChase {
		t.Fatalf("Expected chase, got %s", pred.State())
	}

	want := int(math.Round(pred.Params().MaxChaseTime / testDT))
	ticks := w.stepUntil(want+10, func() bool { return pred.State() != StateChase })

	if ticks != want {
		t.Errorf("Expected chase to end after %d ticks, got %d", want, ticks)
	}
	if pred.State() != StateIdle {
		t.Errorf("Expected idle, got %s", pred.State())
	}
	if _, ok := pred.Target(); ok {
		t.Error("Expected target cleared")
	}
	if predNav.hasPath {
		t.Error("Expected path reset")
	}
	last := w.obs.chaseEnds[len(w.obs.chaseEnds)-1]
	if last.reason != ChaseTimeout {
		t.Errorf("Expected timeout, got %s", last.reason)
	}
}

// TestChaseUpdatesDestination verifies pursuit follows the target each tick.
func TestChaseUpdatesDestination(t *testing.T) {
	w, pred, predNav, _, preyNav := chaseSetup(t, 15)
	w.step()

	preyNav.pos = r3.Vec{X: 12, Z: 4}
	w.step()

	if pred.State() != StateChase {
		t.Fatalf("Expected chase, got %s", pred.State())
	}
	if predNav.dest != preyNav.pos {
		t.Errorf("Expected destination %v, got %v", preyNav.pos, predNav.dest)
	}
}

// TestBiteOnContact verifies one bite per contact and the cooldown between bites.
func TestBiteOnContact(t *testing.T) {
	w, pred, _, prey, _ := chaseSetup(t, 1.5)

	w.step() // acquire
	w.step() // contact

	if prey.Health() != 7 {
		t.Fatalf("Expected prey health 7 after one bite, got %d", prey.Health())
	}
	if w.obs.bites != 1 {
		t.Errorf("Expected 1 bite, got %d", w.obs.bites)
	}

	w.stepN(10)
	if prey.Health() != 7 {
		t.Errorf("Expected no damage during cooldown, got health %d", prey.Health())
	}
	if pred.State() != StateChase {
		t.Errorf("Expected predator to hold chase during cooldown, got %s", pred.State())
	}

	// Cooldown is 50 ticks; the predator rescans and bites again.
	w.stepN(48)
	if prey.Health() != 4 {
		t.Errorf("Expected second bite after cooldown, got health %d", prey.Health())
	}
	if w.obs.chaseEnds[0].reason != ChaseContact {
		t.Errorf("Expected contact, got %s", w.obs.chaseEnds[0].reason)
	}
}

// TestBiteKillsPrey verifies a lethal bite kills the prey and the predator
// goes idle once the cooldown finds nothing else.
func TestBiteKillsPrey(t *testing.T) {
	w := newTestWorld(t)
	pred, predNav := w.spawn(components.KindPredator, r3.Vec{})
	p := testParams(components.KindPrey)
	p.Health = 3
	prey, _ := w.spawnWith(components.KindPrey, r3.Vec{X: 1}, p)
	predNav.SetDestination(r3.Vec{Z: 500})
	pred.SetState(StateMoving)

	w.stepN(2)

	if !prey.Dead() {
		t.Fatal("Expected prey dead")
	}
	if len(w.despawned) != 1 || w.despawned[0] != prey.Entity() {
		t.Errorf("Expected prey despawn request, got %v", w.despawned)
	}

	w.stepN(60)
	if pred.State() != StateIdle {
		t.Errorf("Expected predator idle, got %s", pred.State())
	}
	if _, ok := pred.Target(); ok {
		t.Error("Expected target cleared")
	}
}

// TestPredatorLosesRemovedTarget verifies a removed target ends the chase on the next step.
func TestPredatorLosesRemovedTarget(t *testing.T) {
	w, pred, _, prey, _ := chaseSetup(t, 15)
	w.step()
	if pred.State() != StateChase {
		t.Fatalf("Expected chase, got %s", pred.State())
	}

	prey.Die()
	w.remove(prey)
	w.step()

	if pred.State() != StateIdle {
		t.Errorf("Expected idle, got %s", pred.State())
	}
	if _, ok := pred.Target(); ok {
		t.Error("Expected target cleared")
	}
	last := w.obs.chaseEnds[len(w.obs.chaseEnds)-1]
	if last.reason != ChaseTargetLost {
		t.Errorf("Expected target_lost, got %s", last.reason)
	}
}

// TestInterruptedChaseRescans verifies a chase cut short by an external
// transition leaves no stale target, so the predator re-acquires its prey.
func TestInterruptedChaseRescans(t *testing.T) {
	for _, to := range []State{StateMoving, StateIdle} {
		t.Run(to.String(), func(t *testing.T) {
			w, pred, _, prey, _ := chaseSetup(t, 10)
			w.step()
			if pred.State() != StateChase {
				t.Fatalf("Expected chase, got %s", pred.State())
			}

			pred.SetState(to)
			if _, ok := pred.Target(); ok {
				t.Fatal("Expected target cleared on leaving chase")
			}

			// From Idle the predator first waits, then walks and scans again.
			ticks := w.stepUntil(1000, func() bool { return pred.State() == StateChase })
			if ticks < 0 {
				t.Fatalf("Expected predator to chase again, state=%s preyDead=%v", pred.State(), prey.Dead())
			}
			if target, ok := pred.Target(); !ok || target != prey.Entity() {
				t.Errorf("Expected target %v, got %v", prey.Entity(), target)
			}
		})
	}
}

// TestChaseWithoutTargetGoesIdle verifies entering Chase with no target falls back to Idle.
func TestChaseWithoutTargetGoesIdle(t *testing.T) {
	w := newTestWorld(t)
	pred, _ := w.spawn(components.KindPredator, r3.Vec{})

	pred.SetState(StateChase)

	if pred.State() != StateIdle {
		t.Errorf("Expected idle, got %s", pred.State())
	}
}
