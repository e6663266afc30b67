package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Phase identifies one stage of the simulation step.
type Phase uint8

// Phases in step order.
const (
	PhaseSpatialGrid Phase = iota
	PhaseBehavior
	PhaseNavigation
	PhaseCleanup
	PhaseRespawn
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{
	"spatial_grid", "behavior", "navigation", "cleanup", "respawn", "telemetry",
}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickSample is the timing of one step, split by phase.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times simulation steps over a rolling window of ticks.
type PerfCollector struct {
	now func() time.Time

	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 50
	}
	return &PerfCollector{now: time.Now, ring: make([]tickSample, window)}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.cur = tickSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	t := p.now()
	p.closePhase(t)
	p.phase, p.phaseStart, p.inPhase = phase, t, true
}

// EndTick closes the step and stores it in the window.
func (p *PerfCollector) EndTick() {
	t := p.now()
	p.closePhase(t)
	p.inPhase = false
	p.cur.total = t.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

func (p *PerfCollector) closePhase(t time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.cur.phases[p.phase] += t.Sub(p.phaseStart)
	}
}

// PerfStats summarizes the ticks in the window.
type PerfStats struct {
	Ticks          int
	AvgTick        time.Duration
	MinTick        time.Duration
	MaxTick        time.Duration
	P95Tick        time.Duration
	TicksPerSecond float64

	// Mean time per phase and its share of the mean tick (percent)
	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.count}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	var sum time.Duration
	var phaseSum [numPhases]time.Duration
	for i, smp := range p.ring[:p.count] {
		totals[i] = float64(smp.total)
		sum += smp.total
		for ph, d := range smp.phases {
			phaseSum[ph] += d
		}
	}
	sort.Float64s(totals)

	n := time.Duration(p.count)
	s.AvgTick = sum / n
	s.MinTick = time.Duration(totals[0])
	s.MaxTick = time.Duration(totals[len(totals)-1])
	s.P95Tick = time.Duration(Percentile(totals, 0.95))
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if s.PhasePct[ph] >= 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(s.PhasePct[ph]*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	P95TickUS      int64   `csv:"p95_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	SpatialGridPct float64 `csv:"spatial_grid_pct"`
	BehaviorPct    float64 `csv:"behavior_pct"`
	NavigationPct  float64 `csv:"navigation_pct"`
	CleanupPct     float64 `csv:"cleanup_pct"`
	RespawnPct     float64 `csv:"respawn_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTick.Microseconds(),
		MinTickUS:      s.MinTick.Microseconds(),
		MaxTickUS:      s.MaxTick.Microseconds(),
		P95TickUS:      s.P95Tick.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		SpatialGridPct: s.PhasePct[PhaseSpatialGrid],
		BehaviorPct:    s.PhasePct[PhaseBehavior],
		NavigationPct:  s.PhasePct[PhaseNavigation],
		CleanupPct:     s.PhasePct[PhaseCleanup],
		RespawnPct:     s.PhasePct[PhaseRespawn],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
