// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	World      WorldConfig      `yaml:"world"`
	Nav        NavConfig        `yaml:"nav"`
	Sampler    SamplerConfig    `yaml:"sampler"`
	Animal     AnimalConfig     `yaml:"animal"`
	Predator   PredatorConfig   `yaml:"predator"`
	Prey       PreyConfig       `yaml:"prey"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds simulation stepping parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`             // seconds per tick
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial grid cell size
}

// WorldConfig holds the dimensions of the navigable surface (XZ plane).
type WorldConfig struct {
	Width             float64 `yaml:"width"`
	Depth             float64 `yaml:"depth"`
	NavCellSize       float64 `yaml:"nav_cell_size"`
	ObstacleScale     float64 `yaml:"obstacle_scale"`     // noise frequency for obstacle generation
	ObstacleThreshold float64 `yaml:"obstacle_threshold"` // normalized noise above this is blocked (>=1 disables)
	HeightScale       float64 `yaml:"height_scale"`       // peak terrain height (Y)
}

// NavConfig holds parameters of the navigation agents.
type NavConfig struct {
	StoppingDistance  float64 `yaml:"stopping_distance"`
	PlanDelayTicks    int     `yaml:"plan_delay_ticks"`    // ticks a path stays pending after SetDestination
	MaxPlanIterations int     `yaml:"max_plan_iterations"` // A* expansion cap (0 = grid size)
}

// SamplerConfig holds reachable-point sampling parameters.
type SamplerConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// AnimalConfig holds the wander/idle parameters shared by every kind.
type AnimalConfig struct {
	WanderDistance float64 `yaml:"wander_distance"` // how far an animal moves in one go
	WalkSpeed      float64 `yaml:"walk_speed"`
	MaxWalkTime    float64 `yaml:"max_walk_time"`
	IdleTime       float64 `yaml:"idle_time"` // wait is sampled from [idle/2, idle*2]
	Health         int     `yaml:"health"`
}

// PredatorConfig holds predator-only parameters.
type PredatorConfig struct {
	RunSpeed       float64 `yaml:"run_speed"`
	DetectionRange float64 `yaml:"detection_range"`
	MaxChaseTime   float64 `yaml:"max_chase_time"`
	BiteDamage     int     `yaml:"bite_damage"`
	BiteCooldown   float64 `yaml:"bite_cooldown"`
	Health         int     `yaml:"health"`
}

// PreyConfig holds prey-only parameters.
type PreyConfig struct {
	RunSpeed          float64 `yaml:"run_speed"`
	DetectionRange    float64 `yaml:"detection_range"`
	EscapeMaxDistance float64 `yaml:"escape_max_distance"`
	Health            int     `yaml:"health"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	InitialPrey      int     `yaml:"initial_prey"`
	InitialPredators int     `yaml:"initial_predators"`
	InitialWanderers int     `yaml:"initial_wanderers"`
	MinPrey          int     `yaml:"min_prey"`      // respawn prey when below (0 = never)
	MinPredators     int     `yaml:"min_predators"` // respawn predators when below (0 = never)
	RespawnAfter     float64 `yaml:"respawn_after"` // seconds of sim time before respawning starts
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	HuntBreakthrough HuntBreakthroughConfig `yaml:"hunt_breakthrough"`
	PredatorRecovery PredatorRecoveryConfig `yaml:"predator_recovery"`
	PreyCrash        PreyCrashConfig        `yaml:"prey_crash"`
	StableEcosystem  StableEcosystemConfig  `yaml:"stable_ecosystem"`
}

// HuntBreakthroughConfig holds hunt breakthrough detection parameters.
type HuntBreakthroughConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinKills   int     `yaml:"min_kills"`
}

// PredatorRecoveryConfig holds predator recovery detection parameters.
type PredatorRecoveryConfig struct {
	MinPopulation      int `yaml:"min_population"`
	RecoveryMultiplier int `yaml:"recovery_multiplier"`
	MinFinal           int `yaml:"min_final"`
}

// PreyCrashConfig holds prey crash detection parameters.
type PreyCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StableEcosystemConfig holds stable ecosystem detection parameters.
type StableEcosystemConfig struct {
	MinPrey       int     `yaml:"min_prey"`
	MinPred       int     `yaml:"min_pred"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TicksPerSecond   float64 // 1 / Physics.DT
	StatsWindowTicks int32   // Telemetry.StatsWindow in ticks
	RespawnAfterTick int64   // Population.RespawnAfter in ticks
	NavCols          int     // World.Width / World.NavCellSize
	NavRows          int     // World.Depth / World.NavCellSize
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the simulation cannot run with.
func (c *Config) validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Physics.GridCellSize <= 0 {
		return fmt.Errorf("physics.grid_cell_size must be positive, got %v", c.Physics.GridCellSize)
	}
	if c.World.Width <= 0 || c.World.Depth <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %vx%v", c.World.Width, c.World.Depth)
	}
	if c.World.NavCellSize <= 0 {
		return fmt.Errorf("world.nav_cell_size must be positive, got %v", c.World.NavCellSize)
	}
	if c.Animal.IdleTime < 0 || c.Animal.MaxWalkTime <= 0 {
		return fmt.Errorf("animal timings must be positive (idle_time=%v, max_walk_time=%v)",
			c.Animal.IdleTime, c.Animal.MaxWalkTime)
	}
	if c.Predator.MaxChaseTime <= 0 {
		return fmt.Errorf("predator.max_chase_time must be positive, got %v", c.Predator.MaxChaseTime)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TicksPerSecond = 1.0 / c.Physics.DT

	windowTicks := int32(c.Telemetry.StatsWindow / c.Physics.DT)
	if windowTicks < 1 {
		windowTicks = 1
	}
	c.Derived.StatsWindowTicks = windowTicks
	c.Derived.RespawnAfterTick = int64(c.Population.RespawnAfter / c.Physics.DT)

	c.Derived.NavCols = int(c.World.Width / c.World.NavCellSize)
	c.Derived.NavRows = int(c.World.Depth / c.World.NavCellSize)

	if c.Sampler.MaxAttempts < 1 {
		c.Sampler.MaxAttempts = 1
	}
	if c.Nav.PlanDelayTicks < 0 {
		c.Nav.PlanDelayTicks = 0
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
