package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/wilds/config"
	"github.com/pthm-cable/wilds/game"
	"github.com/pthm-cable/wilds/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	last        RunSummary // seed-averaged outcome of the most recent Evaluate call
}

// RunSummary is the seed-averaged outcome of one evaluation.
type RunSummary struct {
	SurvivalSec float64 // sim-seconds until functional prey extinction
	Quality     float64
	ContactRate float64 // chases ending in contact / chases ended
	KillRate    float64 // kills / bites
	Chases      float64 // chases started per run
	Kills       float64 // kills per run
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0, // 10 seconds per window
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the telemetry windows of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastSummary returns the outcome of the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() RunSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Prey below minViablePop for extinctionGraceSec counts as functionally extinct.
const (
	minViablePop       = 3
	extinctionGraceSec = 30.0
	warmupSec          = 5.0

	// qualityBonus scales how much hunting quality can add on top of survival.
	qualityBonus = 1.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32 // ticks before functional prey extinction (or maxTicks if survived)
	dt            float64
	windowStats   []telemetry.WindowStats
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	summary RunSummary
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			summary := summarizeHunting(result.windowStats)
			summary.SurvivalSec = float64(result.survivalTicks) * result.dt
			summary.Quality = fe.computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result),
				summary: summary,
				windows: result.windowStats,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness float64
	var total RunSummary
	bestSeedFitness := math.Inf(1)
	var bestSeedWindows []telemetry.WindowStats

	for _, r := range results {
		totalFitness += r.fitness
		total.SurvivalSec += r.summary.SurvivalSec
		total.Quality += r.summary.Quality
		total.ContactRate += r.summary.ContactRate
		total.KillRate += r.summary.KillRate
		total.Chases += r.summary.Chases
		total.Kills += r.summary.Kills
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedWindows = r.windows
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = bestSeedWindows
	}
	fe.last = RunSummary{
		SurvivalSec: total.SurvivalSec / n,
		Quality:     total.Quality / n,
		ContactRate: total.ContactRate / n,
		KillRate:    total.KillRate / n,
		Chases:      total.Chases / n,
		Kills:       total.Kills / n,
	}
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
// Runs until functional prey extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	dt := cfg.Physics.DT
	result := &runResult{dt: dt}

	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	defer g.Unload()

	graceTicks := int32(extinctionGraceSec / dt)
	warmupTicks := int32(warmupSec / dt)
	var belowTicks int32

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()

		tick := g.Tick()
		if tick < warmupTicks {
			continue
		}

		prey := g.PreyCount()
		if prey == 0 {
			result.survivalTicks = tick
			return result
		}

		if prey < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= graceTicks {
			result.survivalTicks = tick
			return result
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// copyConfig copies the base config with respawning disabled, so losses
// to predation are permanent and survival is measurable.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Population.MinPrey = 0
	cfg.Population.MinPredators = 0
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1 + qualityBonus × quality))
// Without the quality term the optimum is a predator that never hunts.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := fe.computeQuality(r.windowStats)
	return -(survival * (1.0 + qualityBonus*quality))
}

// Quality component weights.
const (
	qualityWeightContact  = 0.35
	qualityWeightActivity = 0.30
	qualityWeightStrikes  = 0.20
	qualityWeightHealth   = 0.15

	qualityWarmupWindows = 1 // skip first N windows (warmup)
	qualityMinPrey       = 3 // exclude windows with fewer prey
)

// computeQuality computes hunting quality in [0, 1] from window stats.
// It rewards chases that end in contact some of the time, steady chase
// activity per predator, and prey that take several bites to bring down.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	valid := windows[qualityWarmupWindows:]

	var contactSum, activitySum, strikeSum, healthSum float64
	var contactCount, activityCount, strikeCount int
	chases := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.PreyCount < qualityMinPrey || w.PredCount == 0 {
			continue
		}

		// 1. Contact rate near 0.3: predators win some chases, not all
		ended := w.ChasesContact + w.ChasesLost + w.ChasesTimeout
		if ended > 0 {
			contactSum += math.Exp(-math.Pow((w.ContactRate-0.30)/0.15, 2))
			contactCount++
		}

		// 2. Chase activity per predator
		perPred := float64(w.ChasesStarted) / float64(w.PredCount)
		activitySum += 1.0 - math.Exp(-perPred/2.0)
		activityCount++
		chases = append(chases, float64(w.ChasesStarted))

		// 3. Kills should need several bites
		if w.Bites > 0 {
			strikeSum += math.Exp(-math.Pow((w.KillRate-0.25)/0.15, 2))
			strikeCount++
		}
	}

	if activityCount == 0 {
		return 0
	}

	contactScore := 0.0
	if contactCount > 0 {
		contactScore = contactSum / float64(contactCount)
	}
	activityScore := activitySum / float64(activityCount)
	if len(chases) >= 2 {
		c := cv(chases)
		activityScore *= math.Exp(-c * c)
	}
	strikeScore := 0.0
	if strikeCount > 0 {
		strikeScore = strikeSum / float64(strikeCount)
	}

	// 4. Some prey carry wounds at the last valid window (median below p90)
	for i := len(valid) - 1; i >= 0; i-- {
		w := valid[i]
		if w.PreyCount >= qualityMinPrey && w.PreyHealthP90 > 0 {
			healthSum = 1.0 - clamp01(w.PreyHealthP10/w.PreyHealthP90)
			break
		}
	}

	quality := qualityWeightContact*contactScore +
		qualityWeightActivity*activityScore +
		qualityWeightStrikes*strikeScore +
		qualityWeightHealth*healthSum

	return clamp01(quality)
}

// summarizeHunting totals the hunting counters of a run.
func summarizeHunting(windows []telemetry.WindowStats) RunSummary {
	var started, contact, ended, bites, kills int
	for _, w := range windows {
		started += w.ChasesStarted
		contact += w.ChasesContact
		ended += w.ChasesContact + w.ChasesLost + w.ChasesTimeout
		bites += w.Bites
		kills += w.Kills
	}

	s := RunSummary{Chases: float64(started), Kills: float64(kills)}
	if ended > 0 {
		s.ContactRate = float64(contact) / float64(ended)
	}
	if bites > 0 {
		s.KillRate = float64(kills) / float64(bites)
	}
	return s
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
