package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/wilds/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntBreakthrough BookmarkType = "hunt_breakthrough"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkPreyCrash        BookmarkType = "prey_crash"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
	BookmarkExtinction       BookmarkType = "extinction"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	thresholds config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPredMin      int // minimum predator count in recent history
	recentPreyPeak     int // peak prey count in recent history
	stableWindowsCount int // consecutive windows with stable populations
	preyExtinct        bool
	predExtinct        bool
}

// NewBookmarkDetector creates a detector with the given history size and thresholds.
func NewBookmarkDetector(historySize int, thresholds config.BookmarksConfig) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		thresholds:  thresholds,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkHuntBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPredatorRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPreyCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStableEcosystem(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	bookmarks = append(bookmarks, bd.checkExtinction(stats)...)

	bd.addToHistory(stats)

	// Track predator minimum and prey peak
	if stats.PredCount < bd.recentPredMin || bd.recentPredMin == 0 {
		bd.recentPredMin = stats.PredCount
	}
	if stats.PreyCount > bd.recentPreyPeak {
		bd.recentPreyPeak = stats.PreyCount
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkHuntBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	cfg := bd.thresholds.HuntBreakthrough

	var totalKills, totalBites int
	for _, h := range history {
		totalKills += h.Kills
		totalBites += h.Bites
	}

	if totalBites == 0 || stats.Bites == 0 {
		return nil
	}

	avgKillRate := float64(totalKills) / float64(totalBites)
	if avgKillRate == 0 {
		return nil
	}

	currentKillRate := stats.KillRate
	if currentKillRate > avgKillRate*cfg.Multiplier && stats.Kills >= cfg.MinKills {
		return &Bookmark{
			Type:        BookmarkHuntBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Kill rate %.2f is %.1fx average (%.2f)", currentKillRate, currentKillRate/avgKillRate, avgKillRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	cfg := bd.thresholds.PredatorRecovery
	if bd.recentPredMin == 0 || bd.recentPredMin > cfg.MinPopulation {
		return nil
	}

	threshold := bd.recentPredMin * cfg.RecoveryMultiplier
	if stats.PredCount >= threshold && stats.PredCount >= cfg.MinFinal {
		oldMin := bd.recentPredMin
		bd.recentPredMin = stats.PredCount

		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Predator population recovered from %d to %d", oldMin, stats.PredCount),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPreyCrash(stats WindowStats) *Bookmark {
	if bd.recentPreyPeak == 0 {
		return nil
	}
	cfg := bd.thresholds.PreyCrash

	dropPercent := 1.0 - float64(stats.PreyCount)/float64(bd.recentPreyPeak)
	if dropPercent > cfg.DropPercent && stats.PreyCount <= bd.recentPreyPeak-cfg.MinDrop {
		oldPeak := bd.recentPreyPeak
		bd.recentPreyPeak = stats.PreyCount

		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Prey crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.PreyCount),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	cfg := bd.thresholds.StableEcosystem
	if stats.PreyCount < cfg.MinPrey || stats.PredCount < cfg.MinPred {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	preyCV := coefficientOfVariation(recent, func(s WindowStats) int { return s.PreyCount })
	predCV := coefficientOfVariation(recent, func(s WindowStats) int { return s.PredCount })

	if preyCV < cfg.CVThreshold && predCV < cfg.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	// trigger exactly once per stable run
	if bd.stableWindowsCount == cfg.StableWindows {
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d prey, %d predators over %d+ windows", stats.PreyCount, stats.PredCount, cfg.StableWindows),
		}
	}

	return nil
}

// checkExtinction fires once when a population reaches zero and re-arms when it returns.
func (bd *BookmarkDetector) checkExtinction(stats WindowStats) []Bookmark {
	var out []Bookmark
	if stats.PreyCount == 0 && !bd.preyExtinct {
		out = append(out, Bookmark{
			Type:        BookmarkExtinction,
			Tick:        stats.WindowEndTick,
			Description: "Prey population died out",
		})
	}
	if stats.PredCount == 0 && !bd.predExtinct {
		out = append(out, Bookmark{
			Type:        BookmarkExtinction,
			Tick:        stats.WindowEndTick,
			Description: "Predator population died out",
		})
	}
	bd.preyExtinct = stats.PreyCount == 0
	bd.predExtinct = stats.PredCount == 0
	return out
}

func coefficientOfVariation(history []WindowStats, count func(WindowStats) int) float64 {
	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = float64(count(h))
	}
	mean, std := ComputeDurationStats(values)
	if mean == 0 {
		return 0
	}
	return std / mean
}
