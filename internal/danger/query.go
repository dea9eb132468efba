package danger

import (
	"slices"

	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// AirAction is what an air defender intends to do this turn.
type AirAction uint8

const (
	AirAttack AirAction = iota
	AirIntercept
	AirSweep
)

// Danger returns the damage a generic unit could take at tile. With
// fixedOnly, only terrain and structure damage count.
func (c *Cache) Danger(tile hexgrid.TileID, fixedOnly bool) int {
	r := c.record(tile)
	if r == nil {
		return 0
	}
	return r.genericDanger(c, fixedOnly)
}

func (r *record) genericDanger(c *Cache, fixedOnly bool) int {
	total := r.improvementDamage
	if r.flatDamage {
		total += c.policy.UnknownTerrainDamage
	}
	if fixedOnly {
		return total
	}
	g := c.env.World.Grid()
	dmg := c.env.Damage
	for _, ref := range r.attackers {
		a := c.liveUnit(ref)
		if a == nil {
			continue
		}
		switch {
		case a.CanAttackRanged() && a.Domain == world.DomainAir:
			total += dmg.AirDamageAt(a, r.tile)
		case a.CanAttackRanged():
			total += dmg.RangedDamageAt(a, r.tile)
		default:
			origin := hexgrid.NoTile
			if g.Adjacent(r.tile, a.Tile) {
				origin = a.Tile
			}
			total += dmg.MeleeDamageAt(a, r.tile, origin)
			if a.RangedSupportFire {
				total += dmg.RangedDamageAt(a, r.tile)
			}
		}
	}
	return total
}

// UnitDanger returns the damage u could take standing at tile next turn.
// Attackers listed in ignore are left out; extraDamage is damage u is
// expected to take before then. MaxDanger means u would be lost.
func (c *Cache) UnitDanger(tile hexgrid.TileID, u *world.Unit, ignore []world.UnitRef, extraDamage int, air AirAction) int {
	r := c.record(tile)
	if r == nil || u == nil {
		return 0
	}
	if u.Domain == world.DomainAir {
		return r.airDanger(c, u, air)
	}

	w := c.env.World
	var friendlyCity *world.City
	if city := w.CityAt(tile); city != nil && city.Team == u.Team {
		friendlyCity = city
	}

	if u.IsCivilian() {
		return r.civilianDanger(c, u, friendlyCity)
	}

	if friendlyCity != nil {
		// losing the city destroys the garrison
		cityDanger := c.CityDanger(friendlyCity, u)
		if cityDanger+friendlyCity.Damage >= friendlyCity.MaxHP+c.policy.CityFallMargin {
			return MaxDanger
		}
		if !u.CanGarrison() || friendlyCity.MaxHP <= 0 {
			return 0
		}
		share := cityDanger * 2 * u.MaxHP / friendlyCity.MaxHP
		return share + r.improvementDamage
	}

	total := 0
	g := w.Grid()
	for _, ref := range r.attackers {
		a := c.liveUnit(ref)
		if a == nil || slices.Contains(ignore, ref) || a.Tile == tile {
			continue
		}
		rng := 1
		if a.CanAttackRanged() {
			rng = a.Range
		}
		// out of range means they must move first, so their origin is unknown
		origin := a.Tile
		if g.Distance(tile, a.Tile) > rng {
			origin = hexgrid.NoTile
		}
		dealt, received := c.env.Damage.AttackOnUnit(u, a, tile, origin, extraDamage)
		if !c.env.Vision.IsKnownVisible(u.Team, a.Tile) {
			dealt = dealt * c.policy.FogDiscountPct / 100
		}
		if received >= a.HP && !a.Suicide {
			dealt = dealt * c.policy.SuicideDiscountPct / 100
		}
		total += dealt
	}
	total += r.cityBombard(c, u, true)
	total += r.fogCount * c.policy.FogDanger
	total += r.improvementDamage
	total += r.terrainDamage(c, u)
	return total
}

func (r *record) civilianDanger(c *Cache, u *world.Unit, friendlyCity *world.City) int {
	w := c.env.World
	for _, other := range w.UnitsAt(r.tile) {
		if other.IsCombat() && !other.IsDying() && w.AtWar(other.Team, u.Team) && c.env.Vision.IsVisible(u.Team, r.tile) {
			return MaxDanger
		}
	}
	if friendlyCity != nil {
		// can't hide in a city forever
		if friendlyCity.InDangerOfFalling() {
			return MaxDanger
		}
		return 0
	}
	for _, ref := range r.capturers {
		if c.liveUnit(ref) != nil {
			return MaxDanger
		}
	}

	total := 0
	for _, ref := range r.attackers {
		a := c.liveUnit(ref)
		if a == nil {
			continue
		}
		dealt, _ := c.env.Damage.AttackOnUnit(u, a, r.tile, a.Tile, 0)
		if !c.env.Vision.IsKnownVisible(u.Team, a.Tile) {
			dealt = dealt * c.policy.FogDiscountPct / 100
		}
		total += dealt
	}
	total += r.improvementDamage
	total += r.terrainDamage(c, u)
	total += r.fogCount * c.policy.FogDanger
	total += r.cityBombard(c, u, false)
	return total
}

// cityBombard sums bombardment from threatening cities. With doubleHidden,
// a city we cannot see counts twice since it may hold a garrison.
func (r *record) cityBombard(c *Cache, u *world.Unit, doubleHidden bool) int {
	total := 0
	for _, ref := range r.cities {
		city := c.env.World.City(ref.Owner, ref.ID)
		if city == nil || city.Team == u.Team {
			continue
		}
		d := c.env.Damage.CityBombard(city, u, r.tile)
		if doubleHidden && !c.env.Vision.IsVisible(u.Team, city.Tile) {
			d *= 2
		}
		total += d
	}
	return total
}

func (r *record) terrainDamage(c *Cache, u *world.Unit) int {
	if !r.flatDamage {
		return 0
	}
	return c.env.Damage.TerrainDamage(u, r.tile)
}

// airDanger is the damage an air unit takes. Air units are only hurt by
// interception, or by enemy sweeps when they intercept themselves.
func (r *record) airDanger(c *Cache, u *world.Unit, air AirAction) int {
	if u.Suicide {
		return 0
	}
	dmg := c.env.Damage
	if air == AirIntercept {
		best := 0
		for _, ref := range r.attackers {
			a := c.liveUnit(ref)
			if a == nil || !a.AirSweep {
				continue
			}
			toUs, toThem := dmg.AirSweep(a, u)
			toUs = lethalTieBreak(toUs, u, toThem, a)
			best = max(best, toUs)
		}
		return best
	}

	interceptor := dmg.BestInterceptor(r.tile, u)
	if interceptor == nil {
		return 0
	}
	if air != AirSweep {
		// assume interception always succeeds
		return dmg.InterceptionDamage(interceptor, u)
	}
	if interceptor.Domain != world.DomainAir {
		return dmg.InterceptionDamage(interceptor, u) * (100 + c.policy.AirSweepInterceptionMod) / 100
	}
	toThem, toUs := dmg.AirSweep(u, interceptor)
	return lethalTieBreak(toUs, u, toThem, interceptor)
}

// lethalTieBreak resolves a dogfight in which both sides would die: the
// side that would lose more in total survives with 1 HP instead. The result
// never exceeds our current health.
func lethalTieBreak(toUs int, us *world.Unit, toThem int, them *world.Unit) int {
	if toUs >= us.HP && toThem >= them.HP {
		if toUs+us.Damage() > toThem+them.Damage() {
			toUs = us.HP - 1
		}
	}
	return min(toUs, us.HP)
}

// CityDanger returns the damage city could take next turn. A non-nil
// pretend unit stands in for the current garrison.
func (c *Cache) CityDanger(city *world.City, pretend *world.Unit) int {
	if city == nil {
		return 0
	}
	r := c.record(city.Tile)
	if r == nil {
		return 0
	}
	w := c.env.World
	garrison := pretend
	if garrison == nil && city.Garrison != world.NoUnit {
		garrison = w.Unit(city.Owner, city.Garrison)
	}
	garrisonMaxHP, garrisonHPLeft := 0, 0
	if garrison != nil {
		garrisonMaxHP, garrisonHPLeft = garrison.MaxHP, garrison.HP
	}

	dmg := c.env.Damage
	total := 0
	for _, ref := range r.attackers {
		a := c.liveUnit(ref)
		if a == nil {
			continue
		}
		gmax := garrisonMaxHP
		if garrisonHPLeft <= 0 {
			gmax = 0
		}
		origin := hexgrid.NoTile
		interception := 0
		switch {
		case a.CanAttackRanged() && a.Domain == world.DomainAir:
			if in := dmg.BestInterceptor(city.Tile, a); in != nil {
				interception = dmg.InterceptionDamage(in, a)
			}
		case !a.CanAttackRanged() && w.Grid().Distance(city.Tile, a.Tile) == 1:
			origin = a.Tile
		}
		cityDamage, garrisonDamage := dmg.AttackOnCity(a, city, gmax, origin, interception)
		total += cityDamage
		garrisonHPLeft -= garrisonDamage
	}
	return total
}

// PossibleAttackers returns the live units that could attack tile. With a
// team other than world.NoTeam, only attackers on tiles that team can see
// are returned.
func (c *Cache) PossibleAttackers(tile hexgrid.TileID, team world.TeamID) []*world.Unit {
	r := c.record(tile)
	if r == nil {
		return nil
	}
	var out []*world.Unit
	for _, ref := range r.attackers {
		a := c.liveUnit(ref)
		if a == nil {
			continue
		}
		if team == world.NoTeam || c.env.Vision.IsVisible(team, a.Tile) {
			out = append(out, a)
		}
	}
	return out
}
