package game

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/components"
	"github.com/pthm-cable/wilds/config"
	"github.com/pthm-cable/wilds/telemetry"
)

func init() {
	config.MustInit("")
}

// emptyWorldConfig returns defaults with no obstacles, flat ground and no
// initial or respawned animals.
func emptyWorldConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	cfg.World.ObstacleThreshold = 1
	cfg.World.HeightScale = 0
	cfg.Population.InitialPrey = 0
	cfg.Population.InitialPredators = 0
	cfg.Population.InitialWanderers = 0
	cfg.Population.MinPrey = 0
	cfg.Population.MinPredators = 0
	return cfg
}

// TestNewGameSpawnsInitialPopulation verifies initial counts come from config.
func TestNewGameSpawnsInitialPopulation(t *testing.T) {
	cfg := config.Cfg()
	g := NewGameWithOptions(Options{Seed: 1})
	defer g.Unload()

	if g.PreyCount() != cfg.Population.InitialPrey {
		t.Errorf("Expected %d prey, got %d", cfg.Population.InitialPrey, g.PreyCount())
	}
	if g.PredCount() != cfg.Population.InitialPredators {
		t.Errorf("Expected %d predators, got %d", cfg.Population.InitialPredators, g.PredCount())
	}
	if g.WandererCount() != cfg.Population.InitialWanderers {
		t.Errorf("Expected %d wanderers, got %d", cfg.Population.InitialWanderers, g.WandererCount())
	}
	if got := len(g.Agents(components.KindPrey)); got != g.PreyCount() {
		t.Errorf("Expected %d live prey agents, got %d", g.PreyCount(), got)
	}

	for _, a := range g.Agents(components.KindPredator) {
		pos := a.Position()
		if g.Terrain().IsSolid(pos.X, pos.Z) {
			t.Errorf("Predator spawned inside an obstacle at %v", pos)
		}
	}
}

// TestGameDeterministic verifies equal seeds produce equal runs.
func TestGameDeterministic(t *testing.T) {
	run := func() []r3.Vec {
		g := NewGameWithOptions(Options{Seed: 99})
		defer g.Unload()
		for i := 0; i < 400; i++ {
			g.Step()
		}
		var out []r3.Vec
		for _, kind := range []components.Kind{components.KindPrey, components.KindPredator, components.KindWanderer} {
			for _, a := range g.Agents(kind) {
				out = append(out, a.Position())
			}
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("Expected equal populations, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Agent %d diverged: %v vs %v", i, a[i], b[i])
		}
	}
}

// TestPredatorCatchesPrey verifies a full hunt: detection, chase, bite, death and removal.
func TestPredatorCatchesPrey(t *testing.T) {
	cfg := emptyWorldConfig(t)
	cfg.Animal.IdleTime = 0.1
	cfg.Animal.WalkSpeed = 1
	cfg.Prey.RunSpeed = 0.1
	cfg.Prey.Health = 1

	var windows []telemetry.WindowStats
	g := NewGameWithOptions(Options{
		Seed:           5,
		Config:         cfg,
		StatsWindowSec: 1,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	defer g.Unload()

	g.SpawnAnimal(components.KindPredator, r3.Vec{X: 200, Z: 200})
	prey := g.SpawnAnimal(components.KindPrey, r3.Vec{X: 205, Z: 200})

	for i := 0; i < 1500 && g.PreyCount() > 0; i++ {
		g.Step()
	}

	if g.PreyCount() != 0 {
		t.Fatal("Expected prey to be caught")
	}
	if _, ok := g.Lookup(prey); ok {
		t.Error("Expected dead prey unresolvable")
	}
	if g.Agent(prey) != nil {
		t.Error("Expected dead prey removed from agent table")
	}
	if g.world.Alive(prey) {
		t.Error("Expected dead prey entity removed from world")
	}

	// Flush the current window
	for i := 0; i < 60; i++ {
		g.Step()
	}

	var chases, kills, deaths int
	for _, w := range windows {
		chases += w.ChasesStarted
		kills += w.Kills
		deaths += w.PreyDeaths
	}
	if chases < 1 || kills != 1 || deaths != 1 {
		t.Errorf("Expected at least one chase, one kill and one death, got %d, %d, %d", chases, kills, deaths)
	}
}

// TestRespawnToMinimums verifies populations are topped up after the warmup.
func TestRespawnToMinimums(t *testing.T) {
	cfg := emptyWorldConfig(t)
	cfg.Population.MinPrey = 3
	cfg.Population.MinPredators = 1
	cfg.Population.RespawnAfter = 1
	cfg.Derived.RespawnAfterTick = int64(cfg.Population.RespawnAfter / cfg.Physics.DT)

	g := NewGameWithOptions(Options{Seed: 3, Config: cfg})
	defer g.Unload()

	for i := int64(1); i < cfg.Derived.RespawnAfterTick; i++ {
		g.Step()
	}
	if g.PreyCount() != 0 || g.PredCount() != 0 {
		t.Fatalf("Expected no respawn before warmup, got %d prey, %d predators", g.PreyCount(), g.PredCount())
	}

	g.Step()
	if g.PreyCount() != 3 || g.PredCount() != 1 {
		t.Errorf("Expected 3 prey and 1 predator, got %d and %d", g.PreyCount(), g.PredCount())
	}
}

// TestPositionsFollowNavigators verifies ECS positions are synced from navigation.
func TestPositionsFollowNavigators(t *testing.T) {
	cfg := emptyWorldConfig(t)
	cfg.Animal.IdleTime = 0.1

	g := NewGameWithOptions(Options{Seed: 8, Config: cfg})
	defer g.Unload()

	e := g.SpawnAnimal(components.KindWanderer, r3.Vec{X: 100, Z: 100})
	for i := 0; i < 200; i++ {
		g.Step()
	}
	g.updateSpatialGrid()

	nav := g.navs[e].Position()
	pos, _ := g.animalMapper.Get(e)
	if pos == nil {
		t.Fatal("Expected position component")
	}
	got := r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z}
	if got != nav {
		t.Errorf("Expected position %v, got %v", nav, got)
	}
	if nav == (r3.Vec{X: 100, Z: 100}) {
		t.Error("Expected wanderer to have moved")
	}
}

// TestOutputFiles verifies CSV output and the config snapshot are written.
func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	g := NewGameWithOptions(Options{Seed: 2, OutputDir: dir, StatsWindowSec: 1})

	for i := 0; i < 120; i++ {
		g.Step()
	}
	g.Unload()

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bookmarks.csv", "deaths.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := telemetry.ReadTelemetry(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 telemetry windows, got %d", len(rows))
	}
}

// TestBookmarksUseGameConfig verifies bookmark thresholds come from the game's own config.
func TestBookmarksUseGameConfig(t *testing.T) {
	cfg := emptyWorldConfig(t)
	cfg.Bookmarks.PreyCrash.DropPercent = 0.9

	g := NewGameWithOptions(Options{Seed: 4, Config: cfg})
	defer g.Unload()

	for i := 0; i < 5; i++ {
		g.bookmarkDetector.Check(telemetry.WindowStats{WindowEndTick: int32(i * 500), PreyCount: 100, PredCount: 10})
	}
	for _, bm := range g.bookmarkDetector.Check(telemetry.WindowStats{WindowEndTick: 2500, PreyCount: 50, PredCount: 10}) {
		if bm.Type == telemetry.BookmarkPreyCrash {
			t.Errorf("Expected the game's crash threshold to suppress %q", bm.Description)
		}
	}
}
