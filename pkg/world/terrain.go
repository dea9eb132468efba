package world

// Domain is the movement domain of a unit or tile.
type Domain uint8

const (
	DomainLand Domain = iota
	DomainSea
	DomainAir
)

func (d Domain) String() string {
	switch d {
	case DomainLand:
		return "land"
	case DomainSea:
		return "sea"
	case DomainAir:
		return "air"
	}
	return "unknown"
}

// Terrain is the base terrain of a tile.
type Terrain uint8

const (
	TerrainGrassland Terrain = iota
	TerrainPlains
	TerrainDesert
	TerrainTundra
	TerrainSnow
	TerrainHills
	TerrainMountain
	TerrainCoast
	TerrainOcean
)

// Feature is an optional overlay on a tile's terrain.
type Feature uint8

const (
	FeatureNone Feature = iota
	FeatureForest
	FeatureJungle
	FeatureMarsh
	FeatureFallout
)

// Improvement is a built structure on a tile.
type Improvement uint8

const (
	ImprovementNone Improvement = iota
	ImprovementFarm
	ImprovementMine
	ImprovementFort
	ImprovementCitadel // damages adjacent enemies every turn
	ImprovementCamp    // barbarian encampment
)

type terrainInfo struct {
	moveCost    int
	turnDamage  int
	water       bool
	impassable  bool
	blocksSight bool
	defenseMod  int // percent
}

var terrainTable = [...]terrainInfo{
	TerrainGrassland: {moveCost: 1},
	TerrainPlains:    {moveCost: 1},
	TerrainDesert:    {moveCost: 1},
	TerrainTundra:    {moveCost: 1},
	TerrainSnow:      {moveCost: 1},
	TerrainHills:     {moveCost: 2, blocksSight: true, defenseMod: 25},
	TerrainMountain:  {moveCost: 3, impassable: true, blocksSight: true},
	TerrainCoast:     {moveCost: 1, water: true},
	TerrainOcean:     {moveCost: 1, water: true},
}

type featureInfo struct {
	extraMove   int
	turnDamage  int
	blocksSight bool
	defenseMod  int
}

var featureTable = [...]featureInfo{
	FeatureNone:    {},
	FeatureForest:  {extraMove: 1, blocksSight: true, defenseMod: 25},
	FeatureJungle:  {extraMove: 1, blocksSight: true, defenseMod: 25},
	FeatureMarsh:   {extraMove: 1, defenseMod: -15},
	FeatureFallout: {extraMove: 1, turnDamage: 15},
}

// NearbyEnemyDamage returns the damage this improvement deals each turn to
// hostile units on adjacent tiles.
func (i Improvement) NearbyEnemyDamage() int {
	if i == ImprovementCitadel {
		return 30
	}
	return 0
}

// DefenseMod returns the percent defense bonus granted by the improvement.
func (i Improvement) DefenseMod() int {
	switch i {
	case ImprovementFort:
		return 50
	case ImprovementCitadel:
		return 100
	}
	return 0
}

func (t Terrain) String() string {
	switch t {
	case TerrainGrassland:
		return "grassland"
	case TerrainPlains:
		return "plains"
	case TerrainDesert:
		return "desert"
	case TerrainTundra:
		return "tundra"
	case TerrainSnow:
		return "snow"
	case TerrainHills:
		return "hills"
	case TerrainMountain:
		return "mountain"
	case TerrainCoast:
		return "coast"
	case TerrainOcean:
		return "ocean"
	}
	return "unknown"
}
