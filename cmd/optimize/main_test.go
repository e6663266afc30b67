package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/wilds/telemetry"
)

func TestEvalLogColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluations.csv")
	pv := NewParamVector()

	l, err := newEvalLog(path, pv)
	if err != nil {
		t.Fatalf("newEvalLog: %v", err)
	}
	summary := RunSummary{SurvivalSec: 120, Quality: 0.5, ContactRate: 0.25, KillRate: 0.3, Chases: 8, Kills: 2}
	if err := l.Write(1, -9000, summary, pv.DefaultVector()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header and 1 row, got %d rows", len(rows))
	}

	want := len(evalLogColumns) + pv.Dim()
	if len(rows[0]) != want || len(rows[1]) != want {
		t.Fatalf("Expected %d columns, got %d and %d", want, len(rows[0]), len(rows[1]))
	}
	col := func(name string) string {
		for i, h := range rows[0] {
			if h == name {
				return rows[1][i]
			}
		}
		t.Fatalf("missing column %q", name)
		return ""
	}
	if got := col("contact_rate"); got != "0.250000" {
		t.Errorf("Expected contact_rate 0.250000, got %s", got)
	}
	if got := col("survival_sec"); got != "120.000000" {
		t.Errorf("Expected survival_sec 120.000000, got %s", got)
	}
	if got := col("prey_health"); got != "10.000000" {
		t.Errorf("Expected prey_health 10.000000, got %s", got)
	}
}

func TestSummarizeHunting(t *testing.T) {
	windows := []telemetry.WindowStats{
		{ChasesStarted: 3, ChasesContact: 1, ChasesLost: 1, Bites: 2, Kills: 1},
		{ChasesStarted: 2, ChasesContact: 1, ChasesTimeout: 2, Bites: 3, Kills: 0},
	}
	s := summarizeHunting(windows)

	if s.Chases != 5 || s.Kills != 1 {
		t.Errorf("Expected 5 chases and 1 kill, got %v and %v", s.Chases, s.Kills)
	}
	if s.ContactRate != 2.0/5.0 {
		t.Errorf("Expected contact rate 0.4, got %v", s.ContactRate)
	}
	if s.KillRate != 1.0/5.0 {
		t.Errorf("Expected kill rate 0.2, got %v", s.KillRate)
	}
	if empty := summarizeHunting(nil); empty != (RunSummary{}) {
		t.Errorf("Expected zero summary, got %+v", empty)
	}
}

func TestProgressTracksBest(t *testing.T) {
	p := newProgress(10)
	vals := []float64{1, 2}

	p.record(-5, vals)
	vals[0] = 99
	if p.bestParams[0] != 1 {
		t.Errorf("Expected best params copied, got %v", p.bestParams)
	}

	p.record(-3, []float64{3, 4})
	n := p.record(-8, []float64{5, 6})

	if n != 3 {
		t.Errorf("Expected 3 evaluations, got %d", n)
	}
	if p.best != -8 || p.bestParams[0] != 5 {
		t.Errorf("Expected best -8 with params [5 6], got %v %v", p.best, p.bestParams)
	}
}

func TestSaveBestFailsOnMissingConfig(t *testing.T) {
	opts := options{configPath: filepath.Join(t.TempDir(), "missing.yaml"), outputDir: t.TempDir()}
	pv := NewParamVector()

	if err := saveBest(opts, pv, pv.DefaultVector(), nil); err == nil {
		t.Fatal("Expected error for a missing base config")
	}
	if _, err := os.Stat(filepath.Join(opts.outputDir, "best_config.yaml")); !os.IsNotExist(err) {
		t.Errorf("Expected no best_config.yaml, stat err = %v", err)
	}
}

func TestSaveBestWritesOutputs(t *testing.T) {
	opts := options{outputDir: t.TempDir()}
	pv := NewParamVector()
	windows := []telemetry.WindowStats{{WindowEndTick: 500, PreyCount: 20, PredCount: 3}}

	if err := saveBest(opts, pv, pv.DefaultVector(), windows); err != nil {
		t.Fatalf("saveBest: %v", err)
	}
	for _, name := range []string{"best_config.yaml", "best_telemetry.csv"} {
		if _, err := os.Stat(filepath.Join(opts.outputDir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}
