// Package main provides CMA-ES optimization for finding behavior parameters
// under which prey persist while predators keep hunting.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/wilds/config"
	"github.com/pthm-cable/wilds/telemetry"
)

type options struct {
	configPath string
	outputDir  string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.IntVar(&opts.maxTicks, "max-ticks", 90000, "Tick cap per run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = 4 + 3 ln n)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(opts); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, int32(opts.maxTicks), evalSeeds(opts.seeds), config.Cfg())

	evals, err := newEvalLog(filepath.Join(opts.outputDir, "evaluations.csv"), params)
	if err != nil {
		return err
	}
	defer evals.Close()

	prog := newProgress(opts.maxEvals)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			used := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(used)
			summary := evaluator.LastSummary()

			n := prog.record(fitness, used)
			if err := evals.Write(n, fitness, summary, used); err != nil {
				slog.Warn("failed to log evaluation", "eval", n, "error", err)
			}
			slog.Info("evaluation",
				"eval", n,
				"of", opts.maxEvals,
				"survival_sec", math.Round(summary.SurvivalSec),
				"quality", summary.Quality,
				"contact_rate", summary.ContactRate,
				"kill_rate", summary.KillRate,
				"best", prog.best,
				"eta", prog.eta().String(),
			)
			return fitness
		},
	}

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(params.Dim())))
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}

	slog.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"max_ticks", opts.maxTicks,
	)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		slog.Info("optimization ended", "reason", err)
	}
	best := prog.bestParams
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluation completed")
	}

	slog.Info("optimization complete",
		"evals", prog.done,
		"elapsed", time.Since(prog.start).Round(time.Second).String(),
		"best_fitness", prog.best,
	)
	for i, spec := range params.Specs {
		slog.Info("best parameter", "name", spec.Name, "path", spec.Path, "value", best[i])
	}

	return saveBest(opts, params, best, evaluator.BestWindows())
}

// evalSeeds returns n fixed, well-separated seeds.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

// saveBest writes best_config.yaml and the best run's telemetry.
func saveBest(opts options, params *ParamVector, best []float64, windows []telemetry.WindowStats) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reloading base config: %w", err)
	}
	params.ApplyToConfig(cfg, best)

	cfgPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(cfgPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best config saved", "path", cfgPath)

	if len(windows) == 0 {
		return nil
	}
	telPath := filepath.Join(opts.outputDir, "best_telemetry.csv")
	f, err := os.Create(telPath)
	if err != nil {
		return fmt.Errorf("creating best telemetry: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&windows, f); err != nil {
		return fmt.Errorf("writing best telemetry: %w", err)
	}
	slog.Info("best run telemetry saved", "path", telPath)
	return nil
}

// progress tracks evaluation count, the best result and timing.
type progress struct {
	start      time.Time
	total      int
	done       int
	best       float64
	bestParams []float64
}

func newProgress(total int) *progress {
	return &progress{start: time.Now(), total: total, best: math.Inf(1)}
}

// record counts one evaluation and returns its 1-based number.
func (p *progress) record(fitness float64, values []float64) int {
	p.done++
	if fitness < p.best {
		p.best = fitness
		p.bestParams = append([]float64(nil), values...)
	}
	return p.done
}

// eta estimates the time left from the mean evaluation time so far.
func (p *progress) eta() time.Duration {
	if p.done == 0 {
		return 0
	}
	per := time.Since(p.start) / time.Duration(p.done)
	return (time.Duration(p.total-p.done) * per).Round(time.Second)
}

// evalLog writes one row per evaluation: the hunting outcome followed by
// the parameter values actually simulated.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

var evalLogColumns = []string{
	"eval", "fitness", "survival_sec", "quality",
	"contact_rate", "kill_rate", "chases", "kills",
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation log: %w", err)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}

	header := append([]string(nil), evalLogColumns...)
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing evaluation log header: %w", err)
	}
	return l, nil
}

// Write appends one evaluation and flushes it.
func (l *evalLog) Write(n int, fitness float64, s RunSummary, values []float64) error {
	row := []string{
		strconv.Itoa(n),
		formatFloat(fitness),
		formatFloat(s.SurvivalSec),
		formatFloat(s.Quality),
		formatFloat(s.ContactRate),
		formatFloat(s.KillRate),
		formatFloat(s.Chases),
		formatFloat(s.Kills),
	}
	for _, v := range values {
		row = append(row, formatFloat(v))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the log file.
func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
