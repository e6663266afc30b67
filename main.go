package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/wilds/config"
	"github.com/pthm-cable/wilds/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	worldEvery := flag.Int("log-world-every", 0, "Log a world census every N ticks (0 = never)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g := game.NewGameWithOptions(game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	})
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"stats_window", *statsWindow,
		"max_ticks", *maxTicks,
		"prey", g.PreyCount(),
		"pred", g.PredCount(),
		"wanderers", g.WandererCount(),
	)

	for {
		g.UpdateHeadless()

		tick := int(g.Tick())
		if *worldEvery > 0 && tick%*worldEvery == 0 {
			g.LogWorldState()
		}
		if *maxTicks > 0 && tick >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			g.LogWorldState()
			return
		}
	}
}
