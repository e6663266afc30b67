package game

import (
	"context"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/wilds/behavior"
	"github.com/pthm-cable/wilds/components"
	"github.com/pthm-cable/wilds/telemetry"
)

// telemetryObserver forwards behavior events to the collector and lifetime
// tracker, and traces them at debug level.
type telemetryObserver struct {
	g *Game
}

func (o *telemetryObserver) id(e ecs.Entity) uint32 {
	if !o.g.world.Alive(e) {
		return 0
	}
	if org := o.g.orgMap.Get(e); org != nil {
		return org.ID
	}
	return 0
}

func (o *telemetryObserver) debug(msg string, args ...any) {
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(msg, append(args, "tick", o.g.Tick())...)
	}
}

func (o *telemetryObserver) StateChanged(e ecs.Entity, kind components.Kind, from, to behavior.State) {
	id := o.id(e)
	o.g.collector.Record(telemetry.NewTransitionEvent(o.g.Tick(), id, kind))
	o.debug("transition", "id", id, "kind", kind.String(), "from", from.String(), "to", to.String())
}

func (o *telemetryObserver) ChaseStarted(predator, prey ecs.Entity) {
	predID, preyID := o.id(predator), o.id(prey)
	o.g.collector.Record(telemetry.NewChaseStartEvent(o.g.Tick(), predID, preyID))
	o.g.lifetimeTracker.RecordChase(predID)
	o.debug("chase started", "predator", predID, "prey", preyID)
}

func (o *telemetryObserver) ChaseEnded(predator ecs.Entity, reason behavior.ChaseEnd, duration float64) {
	predID := o.id(predator)
	o.g.collector.Record(telemetry.NewChaseEndEvent(o.g.Tick(), predID, chaseOutcome(reason), duration))
	o.debug("chase ended", "predator", predID, "reason", reason.String(), "duration", duration)
}

func (o *telemetryObserver) Alerted(prey, predator ecs.Entity) {
	preyID, predID := o.id(prey), o.id(predator)
	o.g.collector.Record(telemetry.NewAlertEvent(o.g.Tick(), preyID, predID))
	o.g.lifetimeTracker.RecordAlert(preyID)
	o.debug("alerted", "prey", preyID, "predator", predID)
}

func (o *telemetryObserver) Bitten(predator, prey ecs.Entity, damage int, killed bool) {
	predID, preyID := o.id(predator), o.id(prey)
	tick := o.g.Tick()
	o.g.collector.Record(telemetry.NewBiteEvent(tick, predID, preyID, damage))
	o.g.lifetimeTracker.RecordBite(predID, preyID, damage)
	if killed {
		o.g.collector.Record(telemetry.NewKillEvent(tick, predID, preyID))
		o.g.lifetimeTracker.RecordKill(predID)
	}
	o.debug("bite", "predator", predID, "prey", preyID, "damage", damage, "killed", killed)
}

func (o *telemetryObserver) Died(e ecs.Entity, kind components.Kind) {
	id := o.id(e)
	o.g.collector.Record(telemetry.NewDeathEvent(o.g.Tick(), id, kind))
	o.debug("died", "id", id, "kind", kind.String())
}

func chaseOutcome(reason behavior.ChaseEnd) telemetry.ChaseOutcome {
	switch reason {
	case behavior.ChaseContact:
		return telemetry.OutcomeContact
	case behavior.ChaseTimeout:
		return telemetry.OutcomeTimeout
	default:
		return telemetry.OutcomeLost
	}
}

// LogWorldState logs a census of the world.
func (g *Game) LogWorldState() {
	pop := g.samplePopulation()
	slog.Info("world",
		"tick", g.Tick(),
		"sim_time", g.SimTime(),
		"prey", pop.Prey,
		"pred", pop.Pred,
		"wanderers", pop.Wanderers,
		"idle", pop.Idle,
		"moving", pop.Moving,
		"chase", pop.Chase,
		"sampler_misses", pop.SamplerMisses,
		"plan_failures", pop.PlanFailures,
	)
}
