// Package game drives the simulation: it owns the ECS world, spawns animals,
// advances their behavior and navigation each tick and feeds telemetry.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/wilds/behavior"
	"github.com/pthm-cable/wilds/components"
	"github.com/pthm-cable/wilds/config"
	"github.com/pthm-cable/wilds/systems"
	"github.com/pthm-cable/wilds/telemetry"
)

// Options configures a new Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string

	// Config overrides the global configuration when set.
	Config *config.Config

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	world *ecs.World

	animalMapper *ecs.Map2[components.Position, components.Organism]
	animalFilter *ecs.Filter2[components.Position, components.Organism]
	orgMap       *ecs.Map1[components.Organism]

	// Per-entity behavior and navigation
	agents map[ecs.Entity]*behavior.Agent
	navs   map[ecs.Entity]*systems.Navigator

	clock *behavior.Clock
	env   *behavior.Env

	// World services
	terrain     *systems.Terrain
	navGrid     *systems.NavGrid
	planner     *systems.AStarPlanner
	sampler     *systems.PositionSampler
	spatialGrid *systems.SpatialGrid

	// Entities queued by Die, removed after the behavior phase
	despawnQueue []ecs.Entity

	// Population
	nextID       uint32
	numPrey      int
	numPred      int
	numWanderers int

	// Plan counters of removed navigators
	retiredPlanFailures int

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
}

// NewGameWithOptions creates a simulation and spawns the initial population.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:   cfg,
		seed:  opts.Seed,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		world: world,

		animalMapper: ecs.NewMap2[components.Position, components.Organism](world),
		animalFilter: ecs.NewFilter2[components.Position, components.Organism](world),
		orgMap:       ecs.NewMap1[components.Organism](world),

		agents: make(map[ecs.Entity]*behavior.Agent),
		navs:   make(map[ecs.Entity]*systems.Navigator),
		clock:  behavior.NewClock(cfg.Physics.DT),

		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	g.terrain = systems.NewTerrain(systems.TerrainParams{
		Width:       cfg.World.Width,
		Depth:       cfg.World.Depth,
		CellSize:    cfg.World.NavCellSize,
		Scale:       cfg.World.ObstacleScale,
		Threshold:   cfg.World.ObstacleThreshold,
		HeightScale: cfg.World.HeightScale,
	}, opts.Seed)
	g.navGrid = systems.NewNavGrid(g.terrain, cfg.World.NavCellSize, 0)
	g.planner = systems.NewAStarPlanner(g.navGrid, cfg.Nav.MaxPlanIterations)
	g.sampler = systems.NewPositionSampler(g.navGrid, g.terrain,
		rand.New(rand.NewSource(opts.Seed+2)), cfg.Sampler.MaxAttempts)
	g.spatialGrid = systems.NewSpatialGrid(world, cfg.World.Width, cfg.World.Depth, cfg.Physics.GridCellSize)

	g.env = &behavior.Env{
		Clock:    g.clock,
		Registry: g,
		Spatial:  g.spatialGrid,
		Sampler:  g.sampler,
		Rand:     g.rng,
		Observer: &telemetryObserver{g: g},
		Despawn:  g.queueDespawn,
	}

	// Telemetry
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.lifetimeTracker = telemetry.NewLifetimeTracker()
	g.bookmarkDetector = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
		}
	}

	slog.Debug("terrain generated",
		"seed", opts.Seed,
		"blocked_fraction", g.terrain.BlockedFraction(),
		"open_nav_cells", g.navGrid.OpenCells(),
	)

	g.spawnInitialPopulation()

	return g
}

// UpdateHeadless runs a single simulation step.
func (g *Game) UpdateHeadless() {
	g.Step()
}

// Step runs one tick of the simulation.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSpatialGrid)
	g.updateSpatialGrid()

	g.clock.Advance()

	g.perfCollector.StartPhase(telemetry.PhaseBehavior)
	g.updateBehavior()

	g.perfCollector.StartPhase(telemetry.PhaseNavigation)
	g.updateNavigation()

	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()

	g.perfCollector.StartPhase(telemetry.PhaseRespawn)
	g.respawnToMinimums()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// Lookup resolves an entity to its live agent.
func (g *Game) Lookup(e ecs.Entity) (*behavior.Agent, bool) {
	if e.IsZero() || !g.world.Alive(e) {
		return nil, false
	}
	a, ok := g.agents[e]
	if !ok || a.Dead() {
		return nil, false
	}
	return a, true
}

// Agent returns the agent bound to e, including dead agents awaiting removal.
func (g *Game) Agent(e ecs.Entity) *behavior.Agent {
	return g.agents[e]
}

// Agents returns the live agents of the given kind in ECS query order.
func (g *Game) Agents(kind components.Kind) []*behavior.Agent {
	var out []*behavior.Agent
	query := g.animalFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if org.Kind != kind {
			continue
		}
		if a, ok := g.Lookup(query.Entity()); ok {
			out = append(out, a)
		}
	}
	return out
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return int32(g.clock.Tick())
}

// SimTime returns the elapsed simulation time in seconds.
func (g *Game) SimTime() float64 {
	return g.clock.Now()
}

// PreyCount returns the number of living prey.
func (g *Game) PreyCount() int {
	return g.numPrey
}

// PredCount returns the number of living predators.
func (g *Game) PredCount() int {
	return g.numPred
}

// WandererCount returns the number of living wanderers.
func (g *Game) WandererCount() int {
	return g.numWanderers
}

// Terrain returns the world terrain.
func (g *Game) Terrain() *systems.Terrain {
	return g.terrain
}

// Unload releases resources and flushes output files.
func (g *Game) Unload() {
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}

func (g *Game) config() *config.Config {
	return g.cfg
}
