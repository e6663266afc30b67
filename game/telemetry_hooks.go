package game

import (
	"log/slog"

	"github.com/pthm-cable/wilds/behavior"
	"github.com/pthm-cable/wilds/components"
	"github.com/pthm-cable/wilds/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.samplePopulation())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// samplePopulation takes a census of the living agents.
func (g *Game) samplePopulation() telemetry.Population {
	pop := telemetry.Population{
		SamplerMisses: g.sampler.Misses(),
		PlanFailures:  g.retiredPlanFailures,
	}

	query := g.animalFilter.Query()
	for query.Next() {
		entity := query.Entity()
		a, ok := g.agents[entity]
		if !ok || a.Dead() {
			continue
		}

		switch a.Kind() {
		case components.KindPrey:
			pop.Prey++
			pop.PreyHealth = append(pop.PreyHealth, float64(a.Health()))
		case components.KindPredator:
			pop.Pred++
			pop.PredHealth = append(pop.PredHealth, float64(a.Health()))
		default:
			pop.Wanderers++
		}

		switch a.State() {
		case behavior.StateIdle:
			pop.Idle++
		case behavior.StateMoving:
			pop.Moving++
		case behavior.StateChase:
			pop.Chase++
		}

		if nav, ok := g.navs[entity]; ok {
			_, failed := nav.Plans()
			pop.PlanFailures += failed
		}
	}

	return pop
}
