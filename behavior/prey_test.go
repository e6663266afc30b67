package behavior

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
)

// fleeSetup alerts a prey at the origin with an idle predator at predX.
func fleeSetup(t *testing.T, predX float64) (*testWorld, *Agent, *fakeNav, *Agent, *fakeNav) {
	t.Helper()
	w := newTestWorld(t)
	prey, preyNav := w.spawn(components.KindPrey, r3.Vec{})
	pred, predNav := w.spawn(components.KindPredator, r3.Vec{X: predX})
	prey.AlertPrey(pred.Entity())
	return w, prey, preyNav, pred, predNav
}

func fleePhaseOf(t *testing.T, a *Agent) fleePhase {
	t.Helper()
	l, ok := a.loop.(*fleeLoop)
	if !ok {
		t.Fatalf("Expected flee loop, got %T", a.loop)
	}
	return l.phase
}

// TestPreyWaitsForThreat verifies the prey only runs once the threat is within range.
func TestPreyWaitsForThreat(t *testing.T) {
	w, prey, preyNav, _, predNav := fleeSetup(t, 15)

	w.stepN(5)
	if prey.State() != StateChase {
		t.Fatalf("Expected prey in chase, got %s", prey.State())
	}
	if preyNav.destCalls != 0 {
		t.Fatalf("Expected no escape destination yet, got %d", preyNav.destCalls)
	}

	predNav.pos = r3.Vec{X: 9}
	w.step()

	if preyNav.destCalls != 1 {
		t.Fatalf("Expected 1 escape destination, got %d", preyNav.destCalls)
	}
	// Escape heads directly away from the threat.
	if preyNav.dest.X >= 0 {
		t.Errorf("Expected escape toward -X, got %v", preyNav.dest)
	}
	if preyNav.dest.Z != 0 {
		t.Errorf("Expected escape along X axis, got %v", preyNav.dest)
	}
}

// TestAlertAbortsIdleWait verifies the interrupted idle wait never fires:
// past the longest possible idle deadline the prey has picked no wander
// destination and is still waiting on its threat.
func TestAlertAbortsIdleWait(t *testing.T) {
	w, prey, preyNav, _, _ := fleeSetup(t, 15)

	p := prey.Params()
	w.stepN(int(math.Ceil(p.IdleTime*2/testDT)) + 10)

	if preyNav.destCalls != 0 {
		t.Errorf("Expected no destinations, got %d", preyNav.destCalls)
	}
	if prey.State() != StateChase {
		t.Errorf("Expected prey in chase, got %s", prey.State())
	}
	if got := prey.Stats().Transitions; got != 1 {
		t.Errorf("Expected only the alert transition, got %d", got)
	}
}

// TestFleeRepathsOnArrival verifies a new escape point is chosen only
// after the current one is reached.
func TestFleeRepathsOnArrival(t *testing.T) {
	w, _, preyNav, _, predNav := fleeSetup(t, 5)

	w.step()
	if preyNav.destCalls != 1 {
		t.Fatalf("Expected 1 destination, got %d", preyNav.destCalls)
	}

	w.stepN(5)
	if preyNav.destCalls != 1 {
		t.Errorf("Expected no re-path while travelling, got %d", preyNav.destCalls)
	}

	preyNav.pos = preyNav.dest
	// Keep the threat close so the prey keeps running.
	predNav.pos = r3.Add(preyNav.pos, r3.Vec{X: 5})
	w.step()
	if preyNav.destCalls != 2 {
		t.Errorf("Expected re-path after arrival, got %d", preyNav.destCalls)
	}
}

// TestFleeContinuation verifies the running phase continues only while the
// threat is alive and within detection range.
func TestFleeContinuation(t *testing.T) {
	tests := []struct {
		name      string
		change    func(w *testWorld, pred *Agent, predNav *fakeNav)
		wantPhase fleePhase
	}{
		{
			name:      "alive and in range",
			change:    func(*testWorld, *Agent, *fakeNav) {},
			wantPhase: fleeRunning,
		},
		{
			name: "out of range",
			change: func(_ *testWorld, _ *Agent, n *fakeNav) {
				n.pos = r3.Vec{X: 50}
			},
			wantPhase: fleeSettling,
		},
		{
			name: "dead",
			change: func(w *testWorld, pred *Agent, _ *fakeNav) {
				pred.Die()
				w.remove(pred)
			},
			wantPhase: fleeSettling,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, prey, _, pred, predNav := fleeSetup(t, 5)
			w.step()
			if got := fleePhaseOf(t, prey); got != fleeRunning {
				t.Fatalf("Expected running, got %d", got)
			}

			tt.change(w, pred, predNav)
			w.step()

			if got := fleePhaseOf(t, prey); got != tt.wantPhase {
				t.Errorf("Expected phase %d, got %d", tt.wantPhase, got)
			}
		})
	}
}

// TestFleeSettlesThenIdles verifies the prey finishes its escape path and clears the threat.
func TestFleeSettlesThenIdles(t *testing.T) {
	w, prey, preyNav, _, predNav := fleeSetup(t, 5)
	w.step()

	predNav.pos = r3.Vec{X: 100}
	w.step()
	if prey.State() != StateChase {
		t.Fatalf("Expected prey still settling, got %s", prey.State())
	}

	preyNav.pos = preyNav.dest
	w.step()

	if prey.State() != StateIdle {
		t.Errorf("Expected idle, got %s", prey.State())
	}
	if _, ok := prey.Threat(); ok {
		t.Error("Expected threat cleared")
	}
	if preyNav.speed != 5 {
		t.Errorf("Expected walk speed after flee, got %f", preyNav.speed)
	}
}

// TestFleeSettleTimesOut verifies settling is bounded by MaxWalkTime.
func TestFleeSettleTimesOut(t *testing.T) {
	w, prey, _, _, predNav := fleeSetup(t, 5)
	w.step()
	predNav.pos = r3.Vec{X: 100}

	limit := int(math.Round(prey.Params().MaxWalkTime/testDT)) + 2
	ticks := w.stepUntil(limit, func() bool { return prey.State() == StateIdle })

	if ticks < 0 {
		t.Fatalf("Expected idle within %d ticks", limit)
	}
}

// TestFleeResumesWhenThreatReturns verifies a returning threat restarts running.
func TestFleeResumesWhenThreatReturns(t *testing.T) {
	w, prey, _, _, predNav := fleeSetup(t, 5)
	w.step()

	predNav.pos = r3.Vec{X: 100}
	w.step()
	if got := fleePhaseOf(t, prey); got != fleeSettling {
		t.Fatalf("Expected settling, got %d", got)
	}

	predNav.pos = r3.Vec{X: 3}
	w.step()
	if got := fleePhaseOf(t, prey); got != fleeRunning {
		t.Errorf("Expected running, got %d", got)
	}
}

// TestWaitingPreyIdlesWhenThreatDies verifies a dead threat before contact releases the prey.
func TestWaitingPreyIdlesWhenThreatDies(t *testing.T) {
	w, prey, _, pred, _ := fleeSetup(t, 15)
	w.step()

	pred.Die()
	w.remove(pred)
	w.step()

	if prey.State() != StateIdle {
		t.Errorf("Expected idle, got %s", prey.State())
	}
	if _, ok := prey.Threat(); ok {
		t.Error("Expected threat cleared")
	}
}

// TestRepeatAlertRestartsFlee verifies an alert while fleeing replaces the loop
// without a state transition.
func TestRepeatAlertRestartsFlee(t *testing.T) {
	w, prey, _, pred, _ := fleeSetup(t, 5)
	w.step()
	before := prey.Stats()

	prey.AlertPrey(pred.Entity())

	after := prey.Stats()
	if after.Transitions != before.Transitions {
		t.Errorf("Expected no transition, got %d -> %d", before.Transitions, after.Transitions)
	}
	if after.LoopsStarted != before.LoopsStarted+1 || after.LoopsCancelled != before.LoopsCancelled+1 {
		t.Errorf("Expected one loop replaced, got %+v -> %+v", before, after)
	}
	if got := fleePhaseOf(t, prey); got != fleeWaiting {
		t.Errorf("Expected fresh flee loop, got phase %d", got)
	}
}

// TestFleeInactiveNavigator verifies a disabled navigator gets no escape destinations.
func TestFleeInactiveNavigator(t *testing.T) {
	w, _, preyNav, _, _ := fleeSetup(t, 5)
	preyNav.inactive = true

	w.stepN(3)

	if preyNav.destCalls != 0 {
		t.Errorf("Expected no destinations, got %d", preyNav.destCalls)
	}
}
