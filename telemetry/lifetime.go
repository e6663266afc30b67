package telemetry

import "github.com/pthm-cable/wilds/components"

// LifetimeStats tracks per-entity statistics over its lifetime.
type LifetimeStats struct {
	Kind            components.Kind
	BirthTick       int32
	SurvivalTimeSec float64

	// Hunting (predators)
	Chases int
	Bites  int
	Kills  int

	// Evasion (prey)
	TimesAlerted int
	DamageTaken  int
}

// DeathRecord is one row of deaths.csv.
type DeathRecord struct {
	Tick            int32   `csv:"tick"`
	EntityID        uint32  `csv:"id"`
	Kind            string  `csv:"kind"`
	SurvivalTimeSec float64 `csv:"survival_time"`
	Chases          int     `csv:"chases"`
	Bites           int     `csv:"bites"`
	Kills           int     `csv:"kills"`
	TimesAlerted    int     `csv:"times_alerted"`
	DamageTaken     int     `csv:"damage_taken"`
}

// LifetimeTracker manages per-entity lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new entity.
func (lt *LifetimeTracker) Register(entityID uint32, kind components.Kind, birthTick int32) {
	lt.stats[entityID] = &LifetimeStats{
		Kind:      kind,
		BirthTick: birthTick,
	}
}

// Get returns the lifetime stats for an entity, or nil if not found.
func (lt *LifetimeTracker) Get(entityID uint32) *LifetimeStats {
	return lt.stats[entityID]
}

// Remove removes an entity's stats and returns them.
func (lt *LifetimeTracker) Remove(entityID uint32) *LifetimeStats {
	stats := lt.stats[entityID]
	delete(lt.stats, entityID)
	return stats
}

// RecordChase increments the chase count of a predator.
func (lt *LifetimeTracker) RecordChase(entityID uint32) {
	if s := lt.stats[entityID]; s != nil {
		s.Chases++
	}
}

// RecordBite credits the biter and debits the bitten.
func (lt *LifetimeTracker) RecordBite(predatorID, preyID uint32, damage int) {
	if s := lt.stats[predatorID]; s != nil {
		s.Bites++
	}
	if s := lt.stats[preyID]; s != nil {
		s.DamageTaken += damage
	}
}

// RecordKill increments kill count.
func (lt *LifetimeTracker) RecordKill(entityID uint32) {
	if s := lt.stats[entityID]; s != nil {
		s.Kills++
	}
}

// RecordAlert increments the number of times a prey was alerted.
func (lt *LifetimeTracker) RecordAlert(entityID uint32) {
	if s := lt.stats[entityID]; s != nil {
		s.TimesAlerted++
	}
}

// UpdateSurvivalTime updates the survival time based on current tick.
func (lt *LifetimeTracker) UpdateSurvivalTime(entityID uint32, currentTick int32, dt float64) {
	if s := lt.stats[entityID]; s != nil {
		s.SurvivalTimeSec = float64(currentTick-s.BirthTick) * dt
	}
}

// Retire removes an entity and returns its death record.
func (lt *LifetimeTracker) Retire(entityID uint32, tick int32, dt float64) (DeathRecord, bool) {
	lt.UpdateSurvivalTime(entityID, tick, dt)
	s := lt.Remove(entityID)
	if s == nil {
		return DeathRecord{}, false
	}
	return DeathRecord{
		Tick:            tick,
		EntityID:        entityID,
		Kind:            s.Kind.String(),
		SurvivalTimeSec: s.SurvivalTimeSec,
		Chases:          s.Chases,
		Bites:           s.Bites,
		Kills:           s.Kills,
		TimesAlerted:    s.TimesAlerted,
		DamageTaken:     s.DamageTaken,
	}, true
}

// Count returns the number of tracked entities.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
