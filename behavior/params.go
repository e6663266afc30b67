package behavior

import (
	"github.com/pthm-cable/wilds/components"
	"github.com/pthm-cable/wilds/config"
)

// Params holds the tunables of one agent. They are fixed after spawn.
type Params struct {
	// Wander
	WanderDistance float64
	WalkSpeed      float64
	MaxWalkTime    float64
	IdleTime       float64
	Health         int

	// Shared by predator and prey
	RunSpeed       float64
	DetectionRange float64

	// Predator
	MaxChaseTime float64
	BiteDamage   int
	BiteCooldown float64

	// Prey
	EscapeMaxDistance float64
}

// ParamsFromConfig returns the parameters for an animal of the given kind.
func ParamsFromConfig(cfg *config.Config, kind components.Kind) Params {
	p := Params{
		WanderDistance: cfg.Animal.WanderDistance,
		WalkSpeed:      cfg.Animal.WalkSpeed,
		MaxWalkTime:    cfg.Animal.MaxWalkTime,
		IdleTime:       cfg.Animal.IdleTime,
		Health:         cfg.Animal.Health,
		RunSpeed:       cfg.Animal.WalkSpeed,
	}

	switch kind {
	case components.KindPredator:
		p.Health = cfg.Predator.Health
		p.RunSpeed = cfg.Predator.RunSpeed
		p.DetectionRange = cfg.Predator.DetectionRange
		p.MaxChaseTime = cfg.Predator.MaxChaseTime
		p.BiteDamage = cfg.Predator.BiteDamage
		p.BiteCooldown = cfg.Predator.BiteCooldown
	case components.KindPrey:
		p.Health = cfg.Prey.Health
		p.RunSpeed = cfg.Prey.RunSpeed
		p.DetectionRange = cfg.Prey.DetectionRange
		p.EscapeMaxDistance = cfg.Prey.EscapeMaxDistance
	}

	return p
}
