package game

import "github.com/pthm-cable/wilds/components"

// updateSpatialGrid syncs Position components from the navigators and
// rebuilds the spatial index.
func (g *Game) updateSpatialGrid() {
	g.spatialGrid.Clear()

	query := g.animalFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _ := query.Get()

		if nav, ok := g.navs[entity]; ok {
			*pos = components.PositionOf(nav.Position())
		}
		g.spatialGrid.Insert(entity, pos.X, pos.Z)
	}
}

// updateBehavior steps every live agent's active loop once, in query order.
// Agents killed during the phase stay in the world until cleanupDead.
func (g *Game) updateBehavior() {
	query := g.animalFilter.Query()
	for query.Next() {
		if a, ok := g.agents[query.Entity()]; ok {
			a.Tick()
		}
	}
}

// updateNavigation plans pending paths and moves navigators along them.
func (g *Game) updateNavigation() {
	dt := g.config().Physics.DT

	query := g.animalFilter.Query()
	for query.Next() {
		entity := query.Entity()
		a, ok := g.agents[entity]
		if !ok || a.Dead() {
			continue
		}
		if nav, ok := g.navs[entity]; ok {
			nav.Update(dt)
		}
	}
}
