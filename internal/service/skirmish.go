package service

import (
	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/internal/sim"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// AdvanceUnits plays a simple AI turn for one faction: each combat unit
// fires at a visible enemy in range if it can, otherwise it walks toward
// the nearest visible enemy along tiles the faction's threat map does not
// consider lethal, then tries again. Returns the number of units that
// moved or attacked.
func (s *TurnService) AdvanceUnits(faction world.FactionID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[faction]
	if !ok {
		return 0, ErrUnknownFaction
	}
	w := s.rules.World
	path := sim.NewPathfinder(w)
	if c.Allocated() {
		path.Danger = func(u *world.Unit, tile hexgrid.TileID) int {
			return c.UnitDanger(tile, u, nil, 0, danger.AirAttack)
		}
	}

	acted := 0
	units := append([]*world.Unit(nil), w.UnitsOf(faction)...)
	for _, u := range units {
		if !u.CanAttack() || u.IsDying() || u.Domain == world.DomainAir {
			continue
		}
		if s.strike(u) {
			acted++
			continue
		}
		goal := s.nearestEnemy(u)
		if goal == hexgrid.NoTile {
			continue
		}
		reach := path.ReachableTiles(u, u.Tile, danger.MoveAvoidDanger, danger.PhaseNormal, u.Moves, nil)
		best, bestDist := u.Tile, w.Grid().Distance(u.Tile, goal)
		for _, t := range reach {
			if len(w.UnitsAt(t)) > 0 || w.CityAt(t) != nil {
				continue
			}
			if d := w.Grid().Distance(t, goal); d < bestDist {
				best, bestDist = t, d
			}
		}
		if best == u.Tile {
			continue
		}
		if err := w.MoveUnit(u, best); err != nil {
			return acted, err
		}
		s.strike(u)
		acted++
	}
	return acted, nil
}

// nearestEnemy returns the closest tile holding a visible hostile unit or
// a hostile city, ties broken by tile id.
func (s *TurnService) nearestEnemy(u *world.Unit) hexgrid.TileID {
	w := s.rules.World
	g := w.Grid()
	best, bestDist := hexgrid.NoTile, 0
	consider := func(t hexgrid.TileID) {
		d := g.Distance(u.Tile, t)
		if best == hexgrid.NoTile || d < bestDist || (d == bestDist && t < best) {
			best, bestDist = t, d
		}
	}
	for _, f := range w.Factions() {
		if !w.AtWar(u.Team, f.Team) {
			continue
		}
		for _, e := range w.UnitsOf(f.ID) {
			if !e.IsDying() && s.rules.Vision.IsVisible(u.Team, e.Tile) && !s.rules.Vision.IsInvisible(u.Team, e) {
				consider(e.Tile)
			}
		}
		for _, city := range w.CitiesOf(f.ID) {
			if s.rules.Vision.IsRevealed(u.Team, city.Tile) {
				consider(city.Tile)
			}
		}
	}
	return best
}

// strike attacks the weakest visible hostile unit u can hit from where it
// stands. Reports whether an attack happened.
func (s *TurnService) strike(u *world.Unit) bool {
	w := s.rules.World
	var target *world.Unit
	for _, f := range w.Factions() {
		if !w.AtWar(u.Team, f.Team) {
			continue
		}
		for _, e := range w.UnitsOf(f.ID) {
			if e.IsDying() || !s.rules.Vision.IsVisible(u.Team, e.Tile) || s.rules.Vision.IsInvisible(u.Team, e) {
				continue
			}
			if !s.inRange(u, e.Tile) {
				continue
			}
			if target == nil || e.HP < target.HP || (e.HP == target.HP && e.Ref().Less(target.Ref())) {
				target = e
			}
		}
	}
	if target == nil {
		return false
	}
	dealt, received := s.rules.Combat.AttackOnUnit(target, u, target.Tile, u.Tile, 0)
	target.HP -= dealt
	u.HP -= received
	if target.HP <= 0 {
		w.Kill(target)
	}
	if u.HP <= 0 {
		w.Kill(u)
	}
	return true
}

func (s *TurnService) inRange(u *world.Unit, tile hexgrid.TileID) bool {
	g := s.rules.World.Grid()
	if u.CanAttackRanged() {
		if u.IndirectFire {
			return g.Distance(u.Tile, tile) <= u.Range
		}
		return s.rules.Targets.CanSee(u.Tile, tile, u.Range)
	}
	return g.Adjacent(u.Tile, tile) && s.rules.World.Tile(tile).Domain() == u.Domain
}
