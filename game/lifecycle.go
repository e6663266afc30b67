package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/wilds/behavior"
	"github.com/pthm-cable/wilds/components"
	"github.com/pthm-cable/wilds/systems"
	"github.com/pthm-cable/wilds/telemetry"
)

// spawnInitialPopulation creates the starting animals.
func (g *Game) spawnInitialPopulation() {
	pop := g.config().Population

	for i := 0; i < pop.InitialPrey; i++ {
		g.spawnAnimal(components.KindPrey, g.randomSpawnPoint())
	}
	for i := 0; i < pop.InitialPredators; i++ {
		g.spawnAnimal(components.KindPredator, g.randomSpawnPoint())
	}
	for i := 0; i < pop.InitialWanderers; i++ {
		g.spawnAnimal(components.KindWanderer, g.randomSpawnPoint())
	}
}

// randomSpawnPoint picks a walkable point anywhere in the world.
func (g *Game) randomSpawnPoint() r3.Vec {
	width, depth := g.terrain.Bounds()
	origin := r3.Vec{X: g.rng.Float64() * width, Z: g.rng.Float64() * depth}
	return g.sampler.FindReachablePoint(origin, g.config().Animal.WanderDistance)
}

// SpawnAnimal creates an animal of the given kind at pos.
func (g *Game) SpawnAnimal(kind components.Kind, pos r3.Vec) ecs.Entity {
	return g.spawnAnimal(kind, pos)
}

// spawnAnimal creates the entity, its navigator and its behavior agent.
func (g *Game) spawnAnimal(kind components.Kind, pos r3.Vec) ecs.Entity {
	cfg := g.config()

	id := g.nextID
	g.nextID++

	nav := systems.NewNavigator(g.planner, g.terrain, systems.NavParams{
		StoppingDistance: cfg.Nav.StoppingDistance,
		PlanDelayTicks:   cfg.Nav.PlanDelayTicks,
	}, pos)

	p := components.PositionOf(nav.Position())
	org := components.Organism{ID: id, Kind: kind, BirthTick: g.clock.Tick()}
	entity := g.animalMapper.NewEntity(&p, &org)

	g.navs[entity] = nav
	g.lifetimeTracker.Register(id, kind, g.Tick())
	g.collector.Record(telemetry.NewSpawnEvent(g.Tick(), id, kind))

	switch kind {
	case components.KindPrey:
		g.numPrey++
	case components.KindPredator:
		g.numPred++
	default:
		g.numWanderers++
	}

	// The agent enters Idle immediately, so register it last.
	g.agents[entity] = behavior.NewAgent(entity, kind, behavior.ParamsFromConfig(cfg, kind), nav, g.env)

	return entity
}

// queueDespawn records a dead entity for removal after the behavior phase.
func (g *Game) queueDespawn(e ecs.Entity) {
	g.despawnQueue = append(g.despawnQueue, e)
}

// cleanupDead removes entities queued by Die.
func (g *Game) cleanupDead() {
	if len(g.despawnQueue) == 0 {
		return
	}

	// First pass: collect identities while every entity is still alive
	type deadInfo struct {
		entity ecs.Entity
		id     uint32
		kind   components.Kind
	}
	toRemove := make([]deadInfo, 0, len(g.despawnQueue))
	for _, e := range g.despawnQueue {
		if !g.world.Alive(e) {
			continue
		}
		org := g.orgMap.Get(e)
		toRemove = append(toRemove, deadInfo{entity: e, id: org.ID, kind: org.Kind})
	}
	g.despawnQueue = g.despawnQueue[:0]

	// Second pass: remove entities (no query is open)
	dt := g.config().Physics.DT
	for _, dead := range toRemove {
		if rec, ok := g.lifetimeTracker.Retire(dead.id, g.Tick(), dt); ok {
			if err := g.outputManager.WriteDeath(rec); err != nil {
				slog.Error("failed to write death", "error", err)
			}
		}

		if nav, ok := g.navs[dead.entity]; ok {
			_, failed := nav.Plans()
			g.retiredPlanFailures += failed
		}
		delete(g.navs, dead.entity)
		delete(g.agents, dead.entity)
		g.world.RemoveEntity(dead.entity)

		switch dead.kind {
		case components.KindPrey:
			g.numPrey--
		case components.KindPredator:
			g.numPred--
		default:
			g.numWanderers--
		}
	}
}

// respawnToMinimums tops populations up to their configured minimums once
// the warmup period has passed.
func (g *Game) respawnToMinimums() {
	cfg := g.config()
	if g.clock.Tick() < cfg.Derived.RespawnAfterTick {
		return
	}

	for g.numPrey < cfg.Population.MinPrey {
		e := g.spawnAnimal(components.KindPrey, g.randomSpawnPoint())
		slog.Debug("respawn", "kind", components.KindPrey.String(), "id", g.orgMap.Get(e).ID, "tick", g.Tick())
	}
	for g.numPred < cfg.Population.MinPredators {
		e := g.spawnAnimal(components.KindPredator, g.randomSpawnPoint())
		slog.Debug("respawn", "kind", components.KindPredator.String(), "id", g.orgMap.Get(e).ID, "tick", g.Tick())
	}
}
