package danger

import (
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// Mode is the kind of rebuild, inferred from the last rebuilt turn.
type Mode uint8

const (
	// ModeReload rebuilds tile data after Load and leaves attacker memory untouched.
	ModeReload Mode = iota
	// ModeTurnChanged refreshes known attackers and recomputes vanished ones.
	ModeTurnChanged
	// ModeWarStateChanged refreshes known attackers and keeps vanished ones.
	ModeWarStateChanged
)

func (m Mode) String() string {
	switch m {
	case ModeReload:
		return "reload"
	case ModeTurnChanged:
		return "turn_changed"
	case ModeWarStateChanged:
		return "war_state_changed"
	}
	return "unknown"
}

// maxExtraPasses bounds two-pass rebuilds.
const maxExtraPasses = 1

// Result summarizes a completed rebuild.
type Result struct {
	Mode       Mode
	Passes     int
	Casualties int // own units expected to die, whose ZOC was dropped
	Known      int
	Vanished   int
}

// Mode returns the mode the next rebuild would run in.
func (c *Cache) Mode() Mode {
	switch {
	case c.lastRebuiltTurn == reloadTurn:
		return ModeReload
	case c.lastRebuiltTurn != c.env.World.Turn():
		return ModeTurnChanged
	}
	return ModeWarStateChanged
}

// Rebuild recomputes every tile. Without a simulation token only reload
// rebuilds run; anything else is refused and leaves the cache untouched.
// The bool result is false when the rebuild was refused.
func (c *Cache) Rebuild(tok Token) (Result, bool) {
	if c.owner == world.NoFaction || c.env.World == nil {
		return Result{}, false
	}
	mode := c.Mode()
	if mode != ModeReload && !tok.IsSimulation() {
		return Result{Mode: mode}, false
	}

	if c.tiles == nil {
		n := c.env.World.Grid().Size()
		c.tiles = make([]record, n)
		for i := range c.tiles {
			c.tiles[i].tile = hexgrid.TileID(i)
		}
	}

	trackKnown := mode != ModeReload
	res := Result{Mode: mode}
	exclude := TileSet{}
	c.pass(exclude, trackKnown, mode == ModeTurnChanged)
	res.Passes++

	for extra := 0; c.policy.TwoPass && extra < maxExtraPasses; extra++ {
		exclude = c.likelyCasualties()
		if len(exclude) == 0 {
			break
		}
		res.Casualties = len(exclude)
		// vanished attackers were already settled by the first pass
		c.pass(exclude, trackKnown, false)
		res.Passes++
	}

	res.Known = len(c.known)
	res.Vanished = len(c.vanished)
	return res, true
}

// likelyCasualties returns the tiles of our combat units whose incoming
// danger exceeds their health.
func (c *Cache) likelyCasualties() TileSet {
	out := TileSet{}
	for _, u := range c.env.World.UnitsOf(c.owner) {
		if !u.IsCombat() || u.IsDying() {
			continue
		}
		if c.UnitDanger(u.Tile, u, nil, 0, AirAttack) > u.HP {
			out.Add(u.Tile)
		}
	}
	return out
}

// pass wipes every record and repopulates it from the current world.
func (c *Cache) pass(exclude TileSet, trackKnown, refreshVanished bool) {
	for i := range c.tiles {
		c.tiles[i].reset()
	}

	prevKnown := c.known.sorted()
	if refreshVanished {
		c.vanished = make(unitSet)
	}
	if trackKnown {
		c.known = make(unitSet)
	}

	c.dirty = false
	c.lastRebuiltTurn = c.env.World.Turn()

	flags := MoveIgnoreStacking | MoveIgnoreEnemies | MoveSelectiveZOC
	for _, f := range c.env.World.Factions() {
		if !c.isHostile(f) {
			continue
		}
		for _, u := range c.env.World.UnitsOf(f.ID) {
			if !c.applyUnit(u, false, flags, exclude) {
				continue
			}
			if trackKnown {
				c.known[u.Ref()] = struct{}{}
			}
			c.addFog(u.Tile, f.Team, c.policy.UnitFogRange, false)
		}
		for _, city := range c.env.World.CitiesOf(f.ID) {
			if c.ignoreCity(city) {
				continue
			}
			c.applyCity(city)
			c.addFog(city.Tile, f.Team, c.policy.CityFogRange, true)
		}
	}

	if refreshVanished {
		// Attackers that moved out of sight still count this turn, at the
		// position we last saw them. They are not carried into known, so
		// they are forgotten next turn unless sighted again.
		for _, ref := range prevKnown {
			if c.known.has(ref) || c.ignoreFaction(ref.Owner) {
				continue
			}
			u := c.env.World.Unit(ref.Owner, ref.ID)
			if u != nil && c.applyUnit(u, true, flags, exclude) {
				c.vanished[ref] = struct{}{}
			}
		}
	} else {
		c.replay(c.vanished.sorted(), flags, exclude)
	}
	if !trackKnown {
		// after a load some known attackers may be out of sight
		c.replay(c.known.sorted(), flags, exclude)
	}

	c.applyStatic()
}

// replay re-applies remembered attackers without regard to visibility.
// Records dedupe, so attackers already applied this pass add nothing.
func (c *Cache) replay(refs []world.UnitRef, flags MoveFlags, exclude TileSet) {
	for _, ref := range refs {
		if c.ignoreFaction(ref.Owner) {
			continue
		}
		if u := c.env.World.Unit(ref.Owner, ref.ID); u != nil {
			c.applyUnit(u, true, flags, exclude)
		}
	}
}
