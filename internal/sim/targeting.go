package sim

import (
	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// Targeting answers ranged coverage and line of sight questions.
type Targeting struct {
	World *world.State
}

func NewTargeting(w *world.State) *Targeting {
	return &Targeting{World: w}
}

// AttackableTiles returns every tile u could shoot at from one of the
// reachable tiles, in ascending order.
func (t *Targeting) AttackableTiles(u *world.Unit, reachable []hexgrid.TileID) []hexgrid.TileID {
	if u == nil || u.Range <= 0 {
		return nil
	}
	g := t.World.Grid()
	needSight := !u.IndirectFire && u.Domain != world.DomainAir
	out := danger.TileSet{}
	for _, base := range reachable {
		for _, target := range g.Spiral(base, u.Range) {
			if target == base || out.Has(target) {
				continue
			}
			if needSight && !t.CanSee(base, target, u.Range) {
				continue
			}
			out.Add(target)
		}
	}
	return sortedTiles(out)
}

// CanSee reports whether to is within rng of from with nothing blocking
// sight in between. The end tiles themselves never block.
func (t *Targeting) CanSee(from, to hexgrid.TileID, rng int) bool {
	g := t.World.Grid()
	if !g.Valid(from) || !g.Valid(to) || g.Distance(from, to) > rng {
		return false
	}
	if from == to {
		return true
	}
	line := g.Line(from, to)
	for _, id := range line[1 : len(line)-1] {
		if t.World.Tile(id).BlocksSight() {
			return false
		}
	}
	return true
}
