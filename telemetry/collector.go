package telemetry

import "github.com/pthm-cable/wilds/components"

// Population is a census of living agents taken at window end.
type Population struct {
	Prey      int
	Pred      int
	Wanderers int

	// Agents per behavioral state, all kinds
	Idle   int
	Moving int
	Chase  int

	PreyHealth []float64
	PredHealth []float64

	// Navigation service counters (cumulative)
	SamplerMisses int
	PlanFailures  int
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawns         [components.NumKinds]int
	deaths         [components.NumKinds]int
	transitions    int
	chasesStarted  int
	outcomes       [numOutcomes]int
	alerts         int
	bites          int
	kills          int
	chaseDurations []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record adds an event to the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventSpawn:
		if ev.Kind < components.NumKinds {
			c.spawns[ev.Kind]++
		}
	case EventDeath:
		if ev.Kind < components.NumKinds {
			c.deaths[ev.Kind]++
		}
	case EventTransition:
		c.transitions++
	case EventChaseStart:
		c.chasesStarted++
	case EventChaseEnd:
		if ev.Outcome < numOutcomes {
			c.outcomes[ev.Outcome]++
		}
		c.chaseDurations = append(c.chaseDurations, ev.Duration)
	case EventAlert:
		c.alerts++
	case EventBite:
		c.bites++
	case EventKill:
		c.kills++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	ended := c.outcomes[OutcomeContact] + c.outcomes[OutcomeLost] + c.outcomes[OutcomeTimeout]

	var contactRate, killRate float64
	if ended > 0 {
		contactRate = float64(c.outcomes[OutcomeContact]) / float64(ended)
	}
	if c.bites > 0 {
		killRate = float64(c.kills) / float64(c.bites)
	}

	chaseMean, chaseStd := ComputeDurationStats(c.chaseDurations)
	preyMean, preyP10, preyP50, preyP90 := ComputeHealthStats(pop.PreyHealth)
	predMean, predP10, predP50, predP90 := ComputeHealthStats(pop.PredHealth)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		PreyCount:     pop.Prey,
		PredCount:     pop.Pred,
		WandererCount: pop.Wanderers,
		IdleCount:     pop.Idle,
		MovingCount:   pop.Moving,
		ChaseCount:    pop.Chase,

		PreySpawns: c.spawns[components.KindPrey],
		PredSpawns: c.spawns[components.KindPredator],
		PreyDeaths: c.deaths[components.KindPrey],
		PredDeaths: c.deaths[components.KindPredator],

		Transitions:   c.transitions,
		ChasesStarted: c.chasesStarted,
		ChasesContact: c.outcomes[OutcomeContact],
		ChasesLost:    c.outcomes[OutcomeLost],
		ChasesTimeout: c.outcomes[OutcomeTimeout],
		Alerts:        c.alerts,
		Bites:         c.bites,
		Kills:         c.kills,
		ContactRate:   contactRate,
		KillRate:      killRate,
		ChaseDurMean:  chaseMean,
		ChaseDurStd:   chaseStd,

		PreyHealthMean: preyMean,
		PreyHealthP10:  preyP10,
		PreyHealthP50:  preyP50,
		PreyHealthP90:  preyP90,

		PredHealthMean: predMean,
		PredHealthP10:  predP10,
		PredHealthP50:  predP50,
		PredHealthP90:  predP90,

		SamplerMisses: pop.SamplerMisses,
		PlanFailures:  pop.PlanFailures,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawns = [components.NumKinds]int{}
	c.deaths = [components.NumKinds]int{}
	c.transitions = 0
	c.chasesStarted = 0
	c.outcomes = [numOutcomes]int{}
	c.alerts = 0
	c.bites = 0
	c.kills = 0
	c.chaseDurations = c.chaseDurations[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
