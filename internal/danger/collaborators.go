package danger

import (
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// World resolves factions, units and cities. Weak references that no longer
// resolve return nil.
type World interface {
	Grid() *hexgrid.Grid
	Turn() int
	Tile(id hexgrid.TileID) *world.Tile
	Factions() []*world.Faction
	Faction(id world.FactionID) *world.Faction
	Unit(owner world.FactionID, id world.UnitID) *world.Unit
	City(owner world.FactionID, id world.CityID) *world.City
	UnitsOf(owner world.FactionID) []*world.Unit
	CitiesOf(owner world.FactionID) []*world.City
	UnitsAt(tile hexgrid.TileID) []*world.Unit
	CityAt(tile hexgrid.TileID) *world.City
	AtWar(a, b world.TeamID) bool
	IsMinorFriend(minor, major world.FactionID) bool
	IsImpassable(tile hexgrid.TileID, team world.TeamID) bool
}

// MoveFlags tune a reachability query.
type MoveFlags uint16

const (
	MoveIgnoreStacking MoveFlags = 1 << iota
	MoveIgnoreEnemies
	MoveSelectiveZOC // ZOC applies except from units on tiles in the exclusion set
	MoveIgnoreZOC
	MoveAvoidDanger
)

// Has reports whether all bits of f are set.
func (m MoveFlags) Has(f MoveFlags) bool { return m&f == f }

// Phase tells the reachability solver who is asking. During
// PhaseDangerEvaluation the solver must not consult danger values,
// otherwise a rebuild would recurse into itself.
type Phase uint8

const (
	PhaseNormal Phase = iota
	PhaseDangerEvaluation
)

func (p Phase) String() string {
	if p == PhaseDangerEvaluation {
		return "danger-evaluation"
	}
	return "normal"
}

// TileSet is a set of tile ids. The nil set is empty.
type TileSet map[hexgrid.TileID]struct{}

func (s TileSet) Has(id hexgrid.TileID) bool {
	_, ok := s[id]
	return ok
}

func (s TileSet) Add(id hexgrid.TileID) {
	s[id] = struct{}{}
}

// Reachability computes where a unit can move this turn.
type Reachability interface {
	ReachableTiles(u *world.Unit, origin hexgrid.TileID, flags MoveFlags, phase Phase, moves int, zocExclusions TileSet) []hexgrid.TileID
}

// Targeting computes ranged attack coverage and line of sight.
type Targeting interface {
	AttackableTiles(u *world.Unit, reachable []hexgrid.TileID) []hexgrid.TileID
	CanSee(from, to hexgrid.TileID, rng int) bool
}

// Visibility is the per-team fog of war oracle.
type Visibility interface {
	IsVisible(team world.TeamID, tile hexgrid.TileID) bool
	// IsKnownVisible is visibility as of the start of the turn, so it does
	// not flicker while units move.
	IsKnownVisible(team world.TeamID, tile hexgrid.TileID) bool
	IsInvisible(team world.TeamID, u *world.Unit) bool
	IsRevealed(team world.TeamID, tile hexgrid.TileID) bool
	RevealedImprovement(team world.TeamID, tile hexgrid.TileID) world.Improvement
}

// DamageEstimator predicts combat outcomes. Implementations must be
// deterministic: danger is read from UI paths and must never consume
// random numbers. An origin of hexgrid.NoTile means the attacker would have
// to move before attacking.
type DamageEstimator interface {
	RangedDamageAt(a *world.Unit, target hexgrid.TileID) int
	AirDamageAt(a *world.Unit, target hexgrid.TileID) int
	MeleeDamageAt(a *world.Unit, target, origin hexgrid.TileID) int
	AttackOnUnit(def, a *world.Unit, target, origin hexgrid.TileID, extraDamage int) (dealt, received int)
	CityBombard(c *world.City, def *world.Unit, target hexgrid.TileID) int
	AttackOnCity(a *world.Unit, c *world.City, garrisonMaxHP int, origin hexgrid.TileID, interception int) (cityDamage, garrisonDamage int)
	AirSweep(sweeper, def *world.Unit) (toDefender, toSweeper int)
	InterceptionDamage(interceptor, a *world.Unit) int
	BestInterceptor(tile hexgrid.TileID, a *world.Unit) *world.Unit
	TerrainDamage(u *world.Unit, tile hexgrid.TileID) int
}

// Env bundles the collaborators a cache reads from.
type Env struct {
	World   World
	Reach   Reachability
	Targets Targeting
	Vision  Visibility
	Damage  DamageEstimator
}
