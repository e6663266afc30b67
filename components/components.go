// Package components defines ECS components for the simulation.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Kind identifies the behavioral role of an animal.
type Kind uint8

const (
	KindWanderer Kind = iota // Idles and wanders only
	KindPrey                 // Flees when alerted by a predator
	KindPredator             // Scans for prey, chases and bites
	NumKinds
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindWanderer:
		return "wanderer"
	case KindPrey:
		return "prey"
	case KindPredator:
		return "predator"
	default:
		return "unknown"
	}
}

// Position represents an entity's world position.
// X and Z span the navigable surface; Y is height above it.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// PositionOf converts a vector to a Position component.
func PositionOf(v r3.Vec) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}

// Organism holds identity data for an animal.
// Behavior state lives in the behavior.Agent bound to the entity.
type Organism struct {
	ID        uint32
	Kind      Kind
	BirthTick int64
}
