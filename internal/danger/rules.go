package danger

import (
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// isHostile reports whether faction f's forces count toward our danger.
func (c *Cache) isHostile(f *world.Faction) bool {
	if f == nil || !f.Alive || f.ID == c.owner {
		return false
	}
	if f.Team == c.team() {
		return false
	}
	return !c.ignoreFaction(f.ID)
}

// ignoreFaction applies the diplomatic exemptions: peace, friendship
// between a minor and a major, and majors ignoring minors they are not
// fighting.
func (c *Cache) ignoreFaction(id world.FactionID) bool {
	w := c.env.World
	us, them := w.Faction(c.owner), w.Faction(id)
	if us == nil || them == nil {
		return true
	}
	if us.Minor != them.Minor && !us.Barbarian && !them.Barbarian {
		minor, major := them, us
		if us.Minor {
			minor, major = us, them
		}
		if w.IsMinorFriend(minor.ID, major.ID) {
			return true
		}
		if !us.Minor && !w.AtWar(major.Team, minor.Team) {
			return true
		}
	}
	return !w.AtWar(us.Team, them.Team)
}

// ignoreUnit decides whether a hostile unit is left out of the rebuild.
func (c *Cache) ignoreUnit(u *world.Unit, ignoreVisibility bool) bool {
	if c.tiles == nil || c.owner == world.NoFaction || u == nil {
		return true
	}
	w := c.env.World
	if !w.Grid().Valid(u.Tile) || !u.CanAttack() || u.IsDying() {
		return true
	}
	team := c.team()
	if c.env.Vision.IsInvisible(team, u) {
		return true
	}
	// The AI assumes a revealed city or camp is never empty.
	if us := w.Faction(c.owner); us != nil && !us.Human {
		if (w.CityAt(u.Tile) != nil && c.env.Vision.IsRevealed(team, u.Tile)) || c.env.Vision.RevealedImprovement(team, u.Tile) == world.ImprovementCamp {
			ignoreVisibility = true
		}
	}
	return !ignoreVisibility && !c.env.Vision.IsVisible(team, u.Tile)
}

// applyUnit records the tiles u could attack or capture next turn.
// Returns false if the unit was ignored.
func (c *Cache) applyUnit(u *world.Unit, ignoreVisibility bool, flags MoveFlags, exclude TileSet) bool {
	if c.ignoreUnit(u, ignoreVisibility) {
		return false
	}
	w := c.env.World
	ref := u.Ref()
	reachable := c.env.Reach.ReachableTiles(u, u.Tile, flags, PhaseDangerEvaluation, u.Moves, exclude)

	if u.CanAttackRanged() {
		for _, t := range c.env.Targets.AttackableTiles(u, reachable) {
			if r := c.record(t); r != nil {
				r.addAttacker(ref)
			}
		}
		for _, t := range reachable {
			if r := c.record(t); r != nil && nativeDomain(u, w.Tile(t)) {
				r.addCapturer(ref)
			}
		}
		return true
	}

	for _, t := range reachable {
		r := c.record(t)
		if r == nil || !nativeDomain(u, w.Tile(t)) {
			continue
		}
		r.addAttacker(ref)
		if !c.isEnemyCity(t, u.Team) {
			r.addCapturer(ref)
		}
	}
	return true
}

func nativeDomain(u *world.Unit, t *world.Tile) bool {
	return t != nil && u.Domain != world.DomainAir && t.Domain() == u.Domain
}

func (c *Cache) isEnemyCity(tile hexgrid.TileID, team world.TeamID) bool {
	city := c.env.World.CityAt(tile)
	return city != nil && c.env.World.AtWar(city.Team, team)
}

// ignoreCity skips cities whose tile and surroundings we have never seen.
func (c *Cache) ignoreCity(city *world.City) bool {
	if city == nil {
		return true
	}
	team := c.team()
	for _, t := range c.env.World.Grid().Spiral(city.Tile, 1) {
		if c.env.Vision.IsRevealed(team, t) {
			return false
		}
	}
	return true
}

func (c *Cache) applyCity(city *world.City) {
	ref := city.Ref()
	rng := city.BombardRange
	for _, t := range c.env.World.Grid().Spiral(city.Tile, rng) {
		if t == city.Tile {
			continue
		}
		if !city.IndirectFire && !c.env.Targets.CanSee(city.Tile, t, rng) {
			continue
		}
		c.tiles[t].addCity(ref)
	}
}

// addFog assumes enemies may hide on tiles we cannot see near origin, and
// that each of them could strike anything within two tiles in origin's
// domain. With checkOwnership the hidden tile must belong to enemyTeam.
func (c *Cache) addFog(origin hexgrid.TileID, enemyTeam world.TeamID, radius int, checkOwnership bool) {
	if c.tiles == nil {
		return
	}
	radius = min(max(radius, 1), 5)
	w := c.env.World
	g := w.Grid()
	team := c.team()
	domain := w.Tile(origin).Domain()
	for _, hidden := range g.Spiral(origin, radius) {
		if c.env.Vision.IsVisible(team, hidden) || w.IsImpassable(hidden, enemyTeam) {
			continue
		}
		if checkOwnership && c.ownerTeam(hidden) != enemyTeam {
			continue
		}
		for _, t := range g.Spiral(hidden, 2) {
			if w.Tile(t).Domain() == domain {
				c.tiles[t].addFogUnit()
			}
		}
	}
}

func (c *Cache) ownerTeam(tile hexgrid.TileID) world.TeamID {
	t := c.env.World.Tile(tile)
	if t == nil || t.Owner == world.NoFaction {
		return world.NoTeam
	}
	if f := c.env.World.Faction(t.Owner); f != nil {
		return f.Team
	}
	return world.NoTeam
}

// applyStatic records terrain damage and hostile area-damage structures on
// every revealed tile.
func (c *Cache) applyStatic() {
	w := c.env.World
	g := w.Grid()
	team := c.team()
	barbarians := c.barbarianTeam()
	for i := range c.tiles {
		id := hexgrid.TileID(i)
		if !c.env.Vision.IsRevealed(team, id) {
			continue
		}
		t := w.Tile(id)
		damage := t.TurnDamage() + c.deepWaterDamage(t)
		c.tiles[i].setFlatDamage(damage > 0)

		imp := c.env.Vision.RevealedImprovement(team, id)
		if imp == world.ImprovementNone {
			continue
		}
		if d := imp.NearbyEnemyDamage(); d > c.policy.EnemyHealRate && !c.ignoreCitadel(t) {
			// certain damage, so it counts double; never on the structure's own tile
			for _, n := range g.Neighbors(id) {
				c.tiles[n].addImprovementDamage(d * 2)
			}
		}
		if imp == world.ImprovementCamp && !c.env.Vision.IsVisible(team, id) {
			c.addFog(id, barbarians, c.policy.CampFogRange, false)
		}
	}
}

// deepWaterDamage is the damage a hostile city deals to ships on its water
// tiles next to a worked water tile.
func (c *Cache) deepWaterDamage(t *world.Tile) int {
	if !t.IsWater() || t.OwningCity == world.NoCity || t.Owner == c.owner {
		return 0
	}
	w := c.env.World
	city := w.City(t.Owner, t.OwningCity)
	if city == nil || city.DeepWaterDamage <= 0 || !w.AtWar(city.Team, c.team()) {
		return 0
	}
	for _, n := range w.Grid().Neighbors(t.ID) {
		adj := w.Tile(n)
		if adj.IsWater() && adj.Owner == t.Owner && adj.OwningCity == t.OwningCity && adj.Worked {
			return city.DeepWaterDamage
		}
	}
	return 0
}

func (c *Cache) ignoreCitadel(t *world.Tile) bool {
	if t.Pillaged || t.Owner == c.owner {
		return true
	}
	if t.Owner == world.NoFaction {
		return false
	}
	f := c.env.World.Faction(t.Owner)
	return f == nil || !c.env.World.AtWar(c.team(), f.Team)
}

func (c *Cache) barbarianTeam() world.TeamID {
	for _, f := range c.env.World.Factions() {
		if f.Barbarian {
			return f.Team
		}
	}
	return world.NoTeam
}
