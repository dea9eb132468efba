package danger

import (
	"slices"

	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// record aggregates the threats against one tile.
type record struct {
	tile              hexgrid.TileID
	attackers         []world.UnitRef
	capturers         []world.UnitRef
	cities            []world.CityRef
	fogCount          int
	flatDamage        bool
	improvementDamage int
}

func (r *record) reset() {
	*r = record{tile: r.tile}
}

func (r *record) addAttacker(ref world.UnitRef) {
	if !slices.Contains(r.attackers, ref) {
		r.attackers = append(r.attackers, ref)
	}
}

func (r *record) addCapturer(ref world.UnitRef) {
	if !slices.Contains(r.capturers, ref) {
		r.capturers = append(r.capturers, ref)
	}
}

func (r *record) addCity(ref world.CityRef) {
	r.cities = append(r.cities, ref)
}

func (r *record) addFogUnit() {
	r.fogCount++
}

func (r *record) setFlatDamage(v bool) {
	r.flatDamage = v
}

func (r *record) addImprovementDamage(d int) {
	r.improvementDamage += d
}

// Contents is a read-only copy of one tile's aggregate.
type Contents struct {
	Tile              hexgrid.TileID  `json:"tile"`
	Attackers         []world.UnitRef `json:"attackers"`
	Capturers         []world.UnitRef `json:"capturers"`
	Cities            []world.CityRef `json:"cities"`
	FogCount          int             `json:"fogCount"`
	FlatDamage        bool            `json:"flatDamage"`
	ImprovementDamage int             `json:"improvementDamage"`
}

func (r *record) contents() Contents {
	return Contents{
		Tile:              r.tile,
		Attackers:         slices.Clone(r.attackers),
		Capturers:         slices.Clone(r.capturers),
		Cities:            slices.Clone(r.cities),
		FogCount:          r.fogCount,
		FlatDamage:        r.flatDamage,
		ImprovementDamage: r.improvementDamage,
	}
}
