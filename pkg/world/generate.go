package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Width       int
	Height      int
	Seed        int64   // 0 = random
	SeaLevel    float64 // elevation below which tiles are water (0.0–1.0)
	HillLevel   float64
	MountainLvl float64
	ForestLevel float64 // moisture above which land gets forest
}

// DefaultGenConfig returns a mid-sized continental map.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       40,
		Height:      26,
		SeaLevel:    0.35,
		HillLevel:   0.62,
		MountainLvl: 0.74,
		ForestLevel: 0.6,
	}
}

// Generate creates a new state with terrain from layered simplex noise.
// Factions, units and cities are left for the caller to place.
func Generate(cfg GenConfig) *State {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)

	s := NewState(cfg.Width, cfg.Height)
	cx, cy := float64(cfg.Width)/2, float64(cfg.Height)/2
	for row := range cfg.Height {
		for col := range cfg.Width {
			// odd rows are shifted half a hex to the right
			x := float64(col) + 0.5*float64(row&1)
			y := float64(row) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.09, 0.5)
			moist := octaveNoise(moistNoise, x, y, 3, 0.07, 0.5)
			temp := octaveNoise(tempNoise, x, y, 2, 0.05, 0.5)

			// Fall off toward the map border so the edges are ocean.
			dx := (x - cx) / cx
			dy := (float64(row) - cy) / cy
			falloff := 1.0 - math.Pow(math.Max(math.Abs(dx), math.Abs(dy)), 4)
			elev *= math.Max(falloff, 0)

			lat := math.Abs(float64(row)-cy) / cy
			temp = temp*0.5 + (1.0-lat)*0.5

			t := s.Tile(s.grid.At(col, row))
			t.Terrain, t.Feature = deriveTerrain(elev, moist, temp, cfg)
		}
	}
	markCoast(s)
	return s
}

func deriveTerrain(elev, moist, temp float64, cfg GenConfig) (Terrain, Feature) {
	switch {
	case elev < cfg.SeaLevel*0.7:
		return TerrainOcean, FeatureNone
	case elev < cfg.SeaLevel:
		return TerrainCoast, FeatureNone
	case elev >= cfg.MountainLvl:
		return TerrainMountain, FeatureNone
	case elev >= cfg.HillLevel:
		if moist > cfg.ForestLevel {
			return TerrainHills, FeatureForest
		}
		return TerrainHills, FeatureNone
	}
	var base Terrain
	switch {
	case temp < 0.2:
		base = TerrainSnow
	case temp < 0.35:
		base = TerrainTundra
	case moist < 0.3:
		base = TerrainDesert
	case moist < 0.5:
		base = TerrainPlains
	default:
		base = TerrainGrassland
	}
	switch {
	case moist > cfg.ForestLevel+0.15 && temp > 0.7:
		return base, FeatureJungle
	case moist > cfg.ForestLevel:
		return base, FeatureForest
	case moist > cfg.ForestLevel-0.05 && elev < cfg.SeaLevel+0.03:
		return base, FeatureMarsh
	}
	return base, FeatureNone
}

// markCoast turns ocean tiles next to land into coast.
func markCoast(s *State) {
	for i := range s.tiles {
		t := &s.tiles[i]
		if t.Terrain != TerrainOcean {
			continue
		}
		for _, n := range s.grid.Neighbors(t.ID) {
			if !s.tiles[n].IsWater() {
				t.Terrain = TerrainCoast
				break
			}
		}
	}
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
