package main

import (
	"math"

	"github.com/pthm-cable/wilds/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Shared wander behavior
			{Name: "walk_speed", Path: "animal.walk_speed", Min: 2.0, Max: 8.0, Default: 5.0},
			{Name: "idle_time", Path: "animal.idle_time", Min: 1.0, Max: 10.0, Default: 5.0},
			{Name: "wander_distance", Path: "animal.wander_distance", Min: 10.0, Max: 100.0, Default: 50.0},
			// Predator
			{Name: "pred_run_speed", Path: "predator.run_speed", Min: 6.0, Max: 16.0, Default: 11.0},
			{Name: "pred_detection_range", Path: "predator.detection_range", Min: 5.0, Max: 40.0, Default: 20.0},
			{Name: "pred_max_chase_time", Path: "predator.max_chase_time", Min: 2.0, Max: 20.0, Default: 10.0},
			{Name: "pred_bite_damage", Path: "predator.bite_damage", Min: 1, Max: 10, Default: 3},
			{Name: "pred_bite_cooldown", Path: "predator.bite_cooldown", Min: 0.2, Max: 5.0, Default: 1.0},
			// Prey
			{Name: "prey_run_speed", Path: "prey.run_speed", Min: 6.0, Max: 16.0, Default: 10.0},
			{Name: "prey_detection_range", Path: "prey.detection_range", Min: 5.0, Max: 40.0, Default: 10.0},
			{Name: "prey_escape_distance", Path: "prey.escape_max_distance", Min: 10.0, Max: 150.0, Default: 80.0},
			{Name: "prey_health", Path: "prey.health", Min: 1, Max: 30, Default: 10},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Animal.WalkSpeed = c[0]
	cfg.Animal.IdleTime = c[1]
	cfg.Animal.WanderDistance = c[2]

	cfg.Predator.RunSpeed = c[3]
	cfg.Predator.DetectionRange = c[4]
	cfg.Predator.MaxChaseTime = c[5]
	cfg.Predator.BiteDamage = int(math.Round(c[6]))
	cfg.Predator.BiteCooldown = c[7]

	cfg.Prey.RunSpeed = c[8]
	cfg.Prey.DetectionRange = c[9]
	cfg.Prey.EscapeMaxDistance = c[10]
	cfg.Prey.Health = int(math.Round(c[11]))
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Animal.WalkSpeed,
		cfg.Animal.IdleTime,
		cfg.Animal.WanderDistance,
		cfg.Predator.RunSpeed,
		cfg.Predator.DetectionRange,
		cfg.Predator.MaxChaseTime,
		float64(cfg.Predator.BiteDamage),
		cfg.Predator.BiteCooldown,
		cfg.Prey.RunSpeed,
		cfg.Prey.DetectionRange,
		cfg.Prey.EscapeMaxDistance,
		float64(cfg.Prey.Health),
	}
}
