// Package telemetry provides ecosystem tracking, bookmarking and CSV output.
package telemetry

import "github.com/pthm-cable/wilds/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventSpawn EventType = iota
	EventDeath
	EventTransition
	EventChaseStart
	EventChaseEnd
	EventAlert
	EventBite
	EventKill
)

// ChaseOutcome describes how a chase ended.
type ChaseOutcome uint8

const (
	OutcomeContact ChaseOutcome = iota
	OutcomeLost
	OutcomeTimeout
	numOutcomes
)

// String returns the outcome name.
func (o ChaseOutcome) String() string {
	switch o {
	case OutcomeContact:
		return "contact"
	case OutcomeLost:
		return "lost"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     int32
	EntityID uint32
	Kind     components.Kind

	// Optional fields depending on event type
	TargetID uint32       // prey for chase/bite/kill, predator for alerts
	Damage   int          // bite damage
	Duration float64      // chase duration in seconds
	Outcome  ChaseOutcome // chase end reason
}

// NewSpawnEvent creates a spawn event.
func NewSpawnEvent(tick int32, id uint32, kind components.Kind) Event {
	return Event{Type: EventSpawn, Tick: tick, EntityID: id, Kind: kind}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int32, id uint32, kind components.Kind) Event {
	return Event{Type: EventDeath, Tick: tick, EntityID: id, Kind: kind}
}

// NewTransitionEvent creates a state transition event.
func NewTransitionEvent(tick int32, id uint32, kind components.Kind) Event {
	return Event{Type: EventTransition, Tick: tick, EntityID: id, Kind: kind}
}

// NewChaseStartEvent creates a chase start event.
func NewChaseStartEvent(tick int32, predatorID, preyID uint32) Event {
	return Event{
		Type:     EventChaseStart,
		Tick:     tick,
		EntityID: predatorID,
		Kind:     components.KindPredator,
		TargetID: preyID,
	}
}

// NewChaseEndEvent creates a chase end event.
func NewChaseEndEvent(tick int32, predatorID uint32, outcome ChaseOutcome, duration float64) Event {
	return Event{
		Type:     EventChaseEnd,
		Tick:     tick,
		EntityID: predatorID,
		Kind:     components.KindPredator,
		Outcome:  outcome,
		Duration: duration,
	}
}

// NewAlertEvent creates an event for a prey alerted by a predator.
func NewAlertEvent(tick int32, preyID, predatorID uint32) Event {
	return Event{
		Type:     EventAlert,
		Tick:     tick,
		EntityID: preyID,
		Kind:     components.KindPrey,
		TargetID: predatorID,
	}
}

// NewBiteEvent creates a bite event.
func NewBiteEvent(tick int32, predatorID, preyID uint32, damage int) Event {
	return Event{
		Type:     EventBite,
		Tick:     tick,
		EntityID: predatorID,
		Kind:     components.KindPredator,
		TargetID: preyID,
		Damage:   damage,
	}
}

// NewKillEvent creates a kill event (prey died from a bite).
func NewKillEvent(tick int32, predatorID, preyID uint32) Event {
	return Event{
		Type:     EventKill,
		Tick:     tick,
		EntityID: predatorID,
		Kind:     components.KindPredator,
		TargetID: preyID,
	}
}
