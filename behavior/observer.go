package behavior

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/wilds/components"
)

// ChaseEnd describes why a chase ended.
type ChaseEnd uint8

const (
	ChaseContact    ChaseEnd = iota // Predator reached the target and bit
	ChaseTargetLost                 // Target died or was removed
	ChaseTimeout                    // MaxChaseTime elapsed
)

// String returns a human-readable reason.
func (c ChaseEnd) String() string {
	switch c {
	case ChaseContact:
		return "contact"
	case ChaseTargetLost:
		return "target_lost"
	case ChaseTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Observer receives behavior events. Calls happen synchronously inside
// the agent that produced them and must not call back into agents.
type Observer interface {
	StateChanged(e ecs.Entity, kind components.Kind, from, to State)
	ChaseStarted(predator, prey ecs.Entity)
	ChaseEnded(predator ecs.Entity, reason ChaseEnd, duration float64)
	Alerted(prey, predator ecs.Entity)
	Bitten(predator, prey ecs.Entity, damage int, killed bool)
	Died(e ecs.Entity, kind components.Kind)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) StateChanged(ecs.Entity, components.Kind, State, State) {}
func (NopObserver) ChaseStarted(ecs.Entity, ecs.Entity)                    {}
func (NopObserver) ChaseEnded(ecs.Entity, ChaseEnd, float64)               {}
func (NopObserver) Alerted(ecs.Entity, ecs.Entity)                         {}
func (NopObserver) Bitten(ecs.Entity, ecs.Entity, int, bool)               {}
func (NopObserver) Died(ecs.Entity, components.Kind)                       {}
