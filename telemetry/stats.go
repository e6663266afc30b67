package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	PreyCount     int `csv:"prey"`
	PredCount     int `csv:"pred"`
	WandererCount int `csv:"wanderers"`

	// State occupancy at window end
	IdleCount   int `csv:"idle"`
	MovingCount int `csv:"moving"`
	ChaseCount  int `csv:"chase"`

	// Events during window
	PreySpawns int `csv:"prey_spawns"`
	PredSpawns int `csv:"pred_spawns"`
	PreyDeaths int `csv:"prey_deaths"`
	PredDeaths int `csv:"pred_deaths"`

	// Hunting
	Transitions   int     `csv:"transitions"`
	ChasesStarted int     `csv:"chases_started"`
	ChasesContact int     `csv:"chases_contact"`
	ChasesLost    int     `csv:"chases_lost"`
	ChasesTimeout int     `csv:"chases_timeout"`
	Alerts        int     `csv:"alerts"`
	Bites         int     `csv:"bites"`
	Kills         int     `csv:"kills"`
	ContactRate   float64 `csv:"contact_rate"`
	KillRate      float64 `csv:"kill_rate"`
	ChaseDurMean  float64 `csv:"chase_dur_mean"`
	ChaseDurStd   float64 `csv:"chase_dur_std"`

	// Health distribution (sampled at window end)
	PreyHealthMean float64 `csv:"prey_health_mean"`
	PreyHealthP10  float64 `csv:"prey_health_p10"`
	PreyHealthP50  float64 `csv:"prey_health_p50"`
	PreyHealthP90  float64 `csv:"prey_health_p90"`

	PredHealthMean float64 `csv:"pred_health_mean"`
	PredHealthP10  float64 `csv:"pred_health_p10"`
	PredHealthP50  float64 `csv:"pred_health_p50"`
	PredHealthP90  float64 `csv:"pred_health_p90"`

	// Navigation
	SamplerMisses int `csv:"sampler_misses"`
	PlanFailures  int `csv:"plan_failures"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeHealthStats calculates mean and percentiles from health values.
func ComputeHealthStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeDurationStats returns the mean and sample standard deviation.
// The deviation is zero for fewer than two values.
func ComputeDurationStats(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("wanderers", s.WandererCount),
		slog.Int("idle", s.IdleCount),
		slog.Int("moving", s.MovingCount),
		slog.Int("chase", s.ChaseCount),
		slog.Int("prey_spawns", s.PreySpawns),
		slog.Int("pred_spawns", s.PredSpawns),
		slog.Int("prey_deaths", s.PreyDeaths),
		slog.Int("pred_deaths", s.PredDeaths),
		slog.Int("transitions", s.Transitions),
		slog.Int("chases_started", s.ChasesStarted),
		slog.Int("chases_contact", s.ChasesContact),
		slog.Int("chases_lost", s.ChasesLost),
		slog.Int("chases_timeout", s.ChasesTimeout),
		slog.Int("alerts", s.Alerts),
		slog.Int("bites", s.Bites),
		slog.Int("kills", s.Kills),
		slog.Float64("contact_rate", s.ContactRate),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("chase_dur_mean", s.ChaseDurMean),
		slog.Float64("chase_dur_std", s.ChaseDurStd),
		slog.Float64("prey_health_mean", s.PreyHealthMean),
		slog.Float64("prey_health_p50", s.PreyHealthP50),
		slog.Float64("pred_health_mean", s.PredHealthMean),
		slog.Float64("pred_health_p50", s.PredHealthP50),
		slog.Int("sampler_misses", s.SamplerMisses),
		slog.Int("plan_failures", s.PlanFailures),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"wanderers", s.WandererCount,
		"chase", s.ChaseCount,
		"prey_deaths", s.PreyDeaths,
		"pred_deaths", s.PredDeaths,
		"chases_started", s.ChasesStarted,
		"chases_contact", s.ChasesContact,
		"chases_lost", s.ChasesLost,
		"chases_timeout", s.ChasesTimeout,
		"alerts", s.Alerts,
		"bites", s.Bites,
		"kills", s.Kills,
		"contact_rate", s.ContactRate,
		"kill_rate", s.KillRate,
		"chase_dur_mean", s.ChaseDurMean,
		"prey_health_mean", s.PreyHealthMean,
		"pred_health_mean", s.PredHealthMean,
	)
}
