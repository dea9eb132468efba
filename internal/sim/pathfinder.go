// Package sim holds the reference movement, targeting, visibility and
// combat rules that the threat cache consults.
package sim

import (
	"slices"

	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// DangerFunc returns the danger u would face at tile.
type DangerFunc func(u *world.Unit, tile hexgrid.TileID) int

// Pathfinder computes reachable tiles by remaining movement points.
type Pathfinder struct {
	World *world.State

	// Danger is consulted with MoveAvoidDanger, and only in PhaseNormal.
	Danger DangerFunc
}

// NewPathfinder returns a pathfinder over w.
func NewPathfinder(w *world.State) *Pathfinder {
	return &Pathfinder{World: w}
}

// ReachableTiles returns the tiles u can end its move on this turn starting
// from origin, origin included. Entering a tile next to a hostile combat
// unit ends movement unless zone of control is ignored or that unit's tile
// is excluded. Air units never move before striking.
func (p *Pathfinder) ReachableTiles(u *world.Unit, origin hexgrid.TileID, flags danger.MoveFlags, phase danger.Phase, moves int, zocExclusions danger.TileSet) []hexgrid.TileID {
	g := p.World.Grid()
	if u == nil || !g.Valid(origin) {
		return nil
	}
	if u.Domain == world.DomainAir || moves <= 0 {
		return []hexgrid.TileID{origin}
	}

	avoid := flags.Has(danger.MoveAvoidDanger) && phase == danger.PhaseNormal && p.Danger != nil
	zoc := p.zocTiles(u, flags, zocExclusions)

	// best[t] is the most movement left on arriving at t, -1 if unreached.
	best := make([]int, g.Size())
	for i := range best {
		best[i] = -1
	}
	best[origin] = moves
	// bucket queue keyed by remaining moves, drained from the top
	buckets := make([][]hexgrid.TileID, moves+1)
	buckets[moves] = append(buckets[moves], origin)

	for left := moves; left > 0; left-- {
		for i := 0; i < len(buckets[left]); i++ {
			cur := buckets[left][i]
			if best[cur] != left || (cur != origin && p.stopsAt(u, cur, flags)) {
				continue
			}
			for _, n := range g.Neighbors(cur) {
				if !p.canEnter(u, n, flags) {
					continue
				}
				if avoid && p.Danger(u, n) >= u.HP {
					continue
				}
				// a unit may always spend its last points to enter
				rem := max(left-p.World.Tile(n).MoveCost(), 0)
				if zoc.Has(n) {
					rem = 0
				}
				if rem > best[n] {
					best[n] = rem
					buckets[rem] = append(buckets[rem], n)
				}
			}
		}
	}

	var out []hexgrid.TileID
	for id, left := range best {
		if left >= 0 {
			out = append(out, hexgrid.TileID(id))
		}
	}
	return out
}

func (p *Pathfinder) canEnter(u *world.Unit, tile hexgrid.TileID, flags danger.MoveFlags) bool {
	w := p.World
	t := w.Tile(tile)
	if t == nil || w.IsImpassable(tile, u.Team) {
		return false
	}
	if t.Domain() != u.Domain {
		// ships may enter a coastal city
		city := w.CityAt(tile)
		if !(u.Domain == world.DomainSea && city != nil) {
			return false
		}
	}
	if flags.Has(danger.MoveIgnoreEnemies) || flags.Has(danger.MoveIgnoreStacking) {
		return true
	}
	// without IgnoreStacking, tiles holding another of our combat units are closed
	for _, o := range w.UnitsAt(tile) {
		if o != u && o.Owner == u.Owner && o.IsCombat() == u.IsCombat() {
			return false
		}
	}
	return true
}

// stopsAt reports whether movement must end on tile: enemy units and
// enemy cities are attack targets, not corridors.
func (p *Pathfinder) stopsAt(u *world.Unit, tile hexgrid.TileID, flags danger.MoveFlags) bool {
	if flags.Has(danger.MoveIgnoreEnemies) {
		return false
	}
	w := p.World
	if c := w.CityAt(tile); c != nil && w.AtWar(c.Team, u.Team) {
		return true
	}
	for _, o := range w.UnitsAt(tile) {
		if w.AtWar(o.Team, u.Team) {
			return true
		}
	}
	return false
}

// zocTiles returns the tiles where u's movement ends due to hostile
// zones of control.
func (p *Pathfinder) zocTiles(u *world.Unit, flags danger.MoveFlags, exclusions danger.TileSet) danger.TileSet {
	if flags.Has(danger.MoveIgnoreZOC) {
		return nil
	}
	w := p.World
	g := w.Grid()
	out := danger.TileSet{}
	for _, f := range w.Factions() {
		if !f.Alive || !w.AtWar(f.Team, u.Team) {
			continue
		}
		for _, o := range w.UnitsOf(f.ID) {
			if !o.IsCombat() || o.IsDying() || o.Domain != u.Domain {
				continue
			}
			if flags.Has(danger.MoveSelectiveZOC) && exclusions.Has(o.Tile) {
				continue
			}
			for _, n := range g.Neighbors(o.Tile) {
				out.Add(n)
			}
		}
	}
	return out
}

// sortedTiles returns the members of s in ascending order.
func sortedTiles(s danger.TileSet) []hexgrid.TileID {
	out := make([]hexgrid.TileID, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
