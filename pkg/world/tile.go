package world

import "github.com/freeeve/hexwar/api/pkg/hexgrid"

// Tile is the static and slowly-changing state of one map cell.
type Tile struct {
	ID          hexgrid.TileID
	Terrain     Terrain
	Feature     Feature
	Improvement Improvement
	Pillaged    bool
	Owner       FactionID // NoFaction if unclaimed
	OwningCity  CityID    // NoCity if not inside a city's borders
	Worked      bool      // a citizen of the owning city works this tile
}

// IsWater reports whether the tile is sea.
func (t *Tile) IsWater() bool {
	return terrainTable[t.Terrain].water
}

// Domain returns the movement domain native to this tile.
func (t *Tile) Domain() Domain {
	if t.IsWater() {
		return DomainSea
	}
	return DomainLand
}

// IsImpassable reports whether no unit may enter the tile.
func (t *Tile) IsImpassable() bool {
	return terrainTable[t.Terrain].impassable
}

// BlocksSight reports whether the tile blocks line of sight through it.
func (t *Tile) BlocksSight() bool {
	return terrainTable[t.Terrain].blocksSight || featureTable[t.Feature].blocksSight
}

// MoveCost returns the movement points needed to enter the tile.
func (t *Tile) MoveCost() int {
	return terrainTable[t.Terrain].moveCost + featureTable[t.Feature].extraMove
}

// TurnDamage returns the damage a unit ending its turn here takes from
// terrain and feature alone.
func (t *Tile) TurnDamage() int {
	return terrainTable[t.Terrain].turnDamage + featureTable[t.Feature].turnDamage
}

// DefenseMod returns the percent defense bonus for a unit standing here.
func (t *Tile) DefenseMod() int {
	mod := terrainTable[t.Terrain].defenseMod + featureTable[t.Feature].defenseMod
	if !t.Pillaged {
		mod += t.Improvement.DefenseMod()
	}
	return mod
}

// IsHighGround reports whether attacking from this tile has an elevation edge.
func (t *Tile) IsHighGround() bool {
	return t.Terrain == TerrainHills
}
