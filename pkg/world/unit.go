package world

import (
	"fmt"

	"github.com/freeeve/hexwar/api/pkg/hexgrid"
)

// FactionID identifies a player (major, minor or barbarian).
type FactionID int

// TeamID identifies a group of factions sharing vision and diplomacy.
type TeamID int

// UnitID identifies a unit within its owning faction.
type UnitID int

// CityID identifies a city within its owning faction.
type CityID int

const (
	NoFaction FactionID = -1
	NoTeam    TeamID    = -1
	NoUnit    UnitID    = -1
	NoCity    CityID    = -1
)

// UnitRef is a weak reference to a unit. It stays valid as a key after the
// unit is destroyed; resolving it then yields nil.
type UnitRef struct {
	Owner FactionID `json:"owner"`
	ID    UnitID    `json:"id"`
}

func (r UnitRef) String() string {
	return fmt.Sprintf("%d/%d", r.Owner, r.ID)
}

// Less orders refs by owner, then id.
func (r UnitRef) Less(o UnitRef) bool {
	if r.Owner != o.Owner {
		return r.Owner < o.Owner
	}
	return r.ID < o.ID
}

// CityRef is a weak reference to a city.
type CityRef struct {
	Owner FactionID `json:"owner"`
	ID    CityID    `json:"id"`
}

// UnitClass describes how a unit fights.
type UnitClass uint8

const (
	ClassCivilian UnitClass = iota // workers, settlers: capturable, cannot attack
	ClassMelee
	ClassRanged
	ClassAir
)

func (c UnitClass) String() string {
	switch c {
	case ClassCivilian:
		return "civilian"
	case ClassMelee:
		return "melee"
	case ClassRanged:
		return "ranged"
	case ClassAir:
		return "air"
	}
	return "unknown"
}

// Unit is a single piece on the map.
type Unit struct {
	ID     UnitID
	Owner  FactionID
	Team   TeamID
	Name   string
	Tile   hexgrid.TileID
	Domain Domain
	Class  UnitClass

	Strength       int // melee combat strength
	RangedStrength int
	Range          int
	Moves          int
	Sight          int
	HP             int
	MaxHP          int

	Suicide           bool // destroyed by its own attack (missiles)
	Stealth           bool // only visible to adjacent enemies
	IndirectFire      bool // ranged attack ignores line of sight
	RangedSupportFire bool // melee unit that also fires before engaging
	AirSweep          bool
	InterceptRange    int
	IgnoreTerrainDmg  bool
	DelayedDeath      bool // killed this turn, removal pending
}

// Ref returns the weak reference for this unit.
func (u *Unit) Ref() UnitRef {
	return UnitRef{Owner: u.Owner, ID: u.ID}
}

// IsCivilian reports whether the unit is non-combat.
func (u *Unit) IsCivilian() bool {
	return u.Class == ClassCivilian
}

// IsCombat reports whether the unit can fight.
func (u *Unit) IsCombat() bool {
	return u.Class != ClassCivilian
}

// CanAttack reports whether the unit can start an attack at all.
func (u *Unit) CanAttack() bool {
	switch u.Class {
	case ClassMelee:
		return u.Strength > 0
	case ClassRanged, ClassAir:
		return u.RangedStrength > 0 && u.Range > 0
	}
	return false
}

// CanAttackRanged reports whether the unit attacks from a distance.
func (u *Unit) CanAttackRanged() bool {
	return (u.Class == ClassRanged || u.Class == ClassAir) && u.RangedStrength > 0 && u.Range > 0
}

// CanGarrison reports whether the unit can defend a city from inside it.
func (u *Unit) CanGarrison() bool {
	return u.IsCombat() && u.Domain == DomainLand
}

// Damage returns the hit points the unit has already lost.
func (u *Unit) Damage() int {
	return u.MaxHP - u.HP
}

// IsDying reports whether the unit is dead or scheduled for removal.
func (u *Unit) IsDying() bool {
	return u.DelayedDeath || u.HP <= 0
}

// City is a settlement that can bombard nearby tiles.
type City struct {
	ID              CityID
	Owner           FactionID
	Team            TeamID
	Name            string
	Tile            hexgrid.TileID
	Strength        int
	MaxHP           int
	Damage          int
	BombardRange    int
	IndirectFire    bool
	DeepWaterDamage int    // damage to hostile ships next to worked water tiles
	Garrison        UnitID // NoUnit when empty
}

// Ref returns the weak reference for this city.
func (c *City) Ref() CityRef {
	return CityRef{Owner: c.Owner, ID: c.ID}
}

// InDangerOfFalling reports whether the city is close enough to capture
// that nothing inside it should feel safe.
func (c *City) InDangerOfFalling() bool {
	return c.MaxHP-c.Damage <= c.MaxHP/4
}

// Faction is a player in the game.
type Faction struct {
	ID        FactionID
	Team      TeamID
	Name      string
	Alive     bool
	Minor     bool // city-state
	Barbarian bool
	Human     bool

	// friends holds the majors a minor is friends with.
	friends map[FactionID]bool
}
