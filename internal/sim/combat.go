package sim

import (
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

const (
	// baseDamage is dealt between equally strong units.
	baseDamage       = 30
	airSweepBonusPct = 50
	highGroundPct    = 25
)

// Combat estimates combat results from strength ratios. It uses no
// randomness so estimates can be read from any goroutine.
type Combat struct {
	World *world.State
}

func NewCombat(w *world.State) *Combat {
	return &Combat{World: w}
}

// effective scales strength down with missing health, to half at zero HP.
func effective(strength, hp, maxHP int) int {
	if maxHP <= 0 {
		return strength
	}
	hp = max(hp, 0)
	return strength * (maxHP + hp) / (2 * maxHP)
}

// exchange is the damage a side with strength att deals to one with def.
func exchange(att, def int) int {
	if att <= 0 {
		return 0
	}
	if def <= 0 {
		return 100
	}
	return min(baseDamage*att/def, 100)
}

func (c *Combat) defense(strength int, tile hexgrid.TileID) int {
	t := c.World.Tile(tile)
	if t == nil {
		return strength
	}
	return strength * (100 + t.DefenseMod()) / 100
}

func (c *Combat) attackStrength(a *world.Unit, ranged bool, origin hexgrid.TileID) int {
	s := a.Strength
	if ranged {
		s = a.RangedStrength
	}
	s = effective(s, a.HP, a.MaxHP)
	if t := c.World.Tile(origin); t != nil && t.IsHighGround() {
		s = s * (100 + highGroundPct) / 100
	}
	return s
}

// RangedDamageAt assumes a defender as strong as the attacker.
func (c *Combat) RangedDamageAt(a *world.Unit, target hexgrid.TileID) int {
	return exchange(c.attackStrength(a, true, hexgrid.NoTile), c.defense(a.RangedStrength, target))
}

func (c *Combat) AirDamageAt(a *world.Unit, target hexgrid.TileID) int {
	return c.RangedDamageAt(a, target)
}

// MeleeDamageAt assumes a defender as strong as the attacker.
func (c *Combat) MeleeDamageAt(a *world.Unit, target, origin hexgrid.TileID) int {
	return exchange(c.attackStrength(a, false, origin), c.defense(a.Strength, target))
}

// AttackOnUnit simulates a attacking def at target. Civilians offer no
// resistance. Ranged attackers take no counter damage.
func (c *Combat) AttackOnUnit(def, a *world.Unit, target, origin hexgrid.TileID, extraDamage int) (dealt, received int) {
	ranged := a.CanAttackRanged()
	att := c.attackStrength(a, ranged, origin)
	hp := def.HP - extraDamage
	if def.IsCivilian() {
		return max(hp, 0), 0
	}
	d := c.defense(effective(def.Strength, hp, def.MaxHP), target)
	dealt = min(exchange(att, d), max(hp, 0))
	if !ranged {
		received = exchange(d, att)
	}
	return dealt, received
}

func (c *Combat) CityBombard(city *world.City, def *world.Unit, target hexgrid.TileID) int {
	att := effective(city.Strength, city.MaxHP-city.Damage, city.MaxHP)
	d := c.defense(effective(max(def.Strength, def.RangedStrength), def.HP, def.MaxHP), target)
	return exchange(att, d)
}

// AttackOnCity splits damage between the city and its garrison in
// proportion to their maximum health.
func (c *Combat) AttackOnCity(a *world.Unit, city *world.City, garrisonMaxHP int, origin hexgrid.TileID, interception int) (cityDamage, garrisonDamage int) {
	att := c.attackStrength(a, a.CanAttackRanged(), origin)
	total := max(exchange(att, city.Strength)-interception, 0)
	if garrisonMaxHP > 0 {
		garrisonDamage = total * garrisonMaxHP / (garrisonMaxHP + city.MaxHP)
	}
	return total - garrisonDamage, garrisonDamage
}

func (c *Combat) AirSweep(sweeper, def *world.Unit) (toDefender, toSweeper int) {
	s := effective(sweeper.RangedStrength, sweeper.HP, sweeper.MaxHP) * (100 + airSweepBonusPct) / 100
	d := effective(def.RangedStrength, def.HP, def.MaxHP)
	return exchange(s, d), exchange(d, s)
}

func (c *Combat) InterceptionDamage(interceptor, a *world.Unit) int {
	return exchange(effective(interceptor.RangedStrength, interceptor.HP, interceptor.MaxHP),
		max(effective(a.RangedStrength, a.HP, a.MaxHP), 1))
}

// BestInterceptor returns the hostile interceptor covering tile that would
// hurt a the most, ties going to the lowest (owner, id).
func (c *Combat) BestInterceptor(tile hexgrid.TileID, a *world.Unit) *world.Unit {
	w := c.World
	var best *world.Unit
	bestDamage := -1
	for _, f := range w.Factions() {
		if !f.Alive || !w.AtWar(f.Team, a.Team) {
			continue
		}
		for _, u := range w.UnitsOf(f.ID) {
			if u.InterceptRange <= 0 || u.IsDying() || w.Grid().Distance(u.Tile, tile) > u.InterceptRange {
				continue
			}
			if d := c.InterceptionDamage(u, a); d > bestDamage {
				best, bestDamage = u, d
			}
		}
	}
	return best
}

func (c *Combat) TerrainDamage(u *world.Unit, tile hexgrid.TileID) int {
	t := c.World.Tile(tile)
	if t == nil || u.IgnoreTerrainDmg {
		return 0
	}
	return t.TurnDamage()
}
