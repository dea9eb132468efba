// Package danger keeps, for one faction, an estimate of how much damage
// hostile forces could deal at every tile next turn.
//
// A Cache is written only by Rebuild, AddKnownAttacker and Load, which the
// caller serializes with the rest of turn processing. Queries never rebuild
// and read nothing but the per-tile records and the world, so they are safe
// between rebuilds from any goroutine that holds the world read lock.
package danger

import (
	"math"
	"slices"

	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// MaxDanger means certain loss: a capturable civilian or a garrison in a
// city about to fall.
const MaxDanger = math.MaxInt

// reloadTurn marks a cache that was loaded and not rebuilt since.
const reloadTurn = -1

type unitSet map[world.UnitRef]struct{}

func (s unitSet) has(r world.UnitRef) bool {
	_, ok := s[r]
	return ok
}

func (s unitSet) sorted() []world.UnitRef {
	out := make([]world.UnitRef, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b world.UnitRef) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return out
}

// Cache is the threat map of one faction.
type Cache struct {
	env    Env
	policy Policy

	owner           world.FactionID
	tiles           []record
	dirty           bool
	lastRebuiltTurn int
	known           unitSet
	vanished        unitSet
}

// New creates an unbound cache. Call Init before use.
func New(env Env, policy Policy) *Cache {
	c := &Cache{env: env, policy: policy}
	c.Uninit()
	return c
}

// Init binds the cache to a faction. The tile array is not allocated until
// the first rebuild since the map may not exist yet.
func (c *Cache) Init(owner world.FactionID) {
	c.Uninit()
	c.owner = owner
}

// Uninit clears everything.
func (c *Cache) Uninit() {
	c.owner = world.NoFaction
	c.dirty = false
	c.lastRebuiltTurn = 0
	c.tiles = nil
	c.known = make(unitSet)
	c.vanished = make(unitSet)
}

// Owner returns the faction this cache serves.
func (c *Cache) Owner() world.FactionID { return c.owner }

// Policy returns the heuristics in use.
func (c *Cache) Policy() Policy { return c.policy }

// MarkDirty flags the cache for a rebuild at the caller's next convenient
// point. The cache itself never checks the flag.
func (c *Cache) MarkDirty() { c.dirty = true }

// IsDirty reports whether war state changed since the last rebuild.
func (c *Cache) IsDirty() bool { return c.dirty }

// LastRebuiltTurn returns the turn of the last rebuild, or -1 after Load.
func (c *Cache) LastRebuiltTurn() int { return c.lastRebuiltTurn }

// Allocated reports whether a rebuild has run at least once.
func (c *Cache) Allocated() bool { return c.tiles != nil }

// IsKnownAttacker reports whether u was tracked as a visible attacker in
// the latest turn or war-state rebuild.
func (c *Cache) IsKnownAttacker(u *world.Unit) bool {
	if c.tiles == nil || u == nil || !u.CanAttack() {
		return false
	}
	return c.known.has(u.Ref())
}

// AddKnownAttacker registers an attacker inferred by another subsystem and
// applies its threat immediately, with the same movement flags a rebuild
// uses so a reload replays it identically. Returns false if nothing changed.
func (c *Cache) AddKnownAttacker(u *world.Unit) bool {
	if c.tiles == nil || u == nil || !u.CanAttack() {
		return false
	}
	if c.known.has(u.Ref()) {
		return false
	}
	c.applyUnit(u, true, MoveIgnoreStacking|MoveIgnoreEnemies|MoveSelectiveZOC, nil)
	c.known[u.Ref()] = struct{}{}
	return true
}

// KnownAttackers returns the known attacker set in (owner, id) order.
func (c *Cache) KnownAttackers() []world.UnitRef { return c.known.sorted() }

// VanishedAttackers returns the attackers remembered from last turn.
func (c *Cache) VanishedAttackers() []world.UnitRef { return c.vanished.sorted() }

// Contents returns a copy of one tile's aggregate. ok is false before the
// first rebuild or for an off-map tile.
func (c *Cache) Contents(tile hexgrid.TileID) (Contents, bool) {
	r := c.record(tile)
	if r == nil {
		return Contents{}, false
	}
	return r.contents(), true
}

// Overlay returns the generic danger of every tile, indexed by tile id, or
// nil before the first rebuild.
func (c *Cache) Overlay() []int {
	if c.tiles == nil {
		return nil
	}
	out := make([]int, len(c.tiles))
	for i := range c.tiles {
		out[i] = c.tiles[i].genericDanger(c, false)
	}
	return out
}

func (c *Cache) record(tile hexgrid.TileID) *record {
	if tile < 0 || int(tile) >= len(c.tiles) {
		return nil
	}
	return &c.tiles[tile]
}

func (c *Cache) team() world.TeamID {
	if f := c.env.World.Faction(c.owner); f != nil {
		return f.Team
	}
	return world.NoTeam
}

// liveUnit resolves a weak reference, treating units pending removal as gone.
func (c *Cache) liveUnit(ref world.UnitRef) *world.Unit {
	u := c.env.World.Unit(ref.Owner, ref.ID)
	if u == nil || u.IsDying() {
		return nil
	}
	return u
}
