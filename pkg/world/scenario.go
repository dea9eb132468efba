package world

import (
	"fmt"
	"math/rand"

	"github.com/freeeve/hexwar/api/pkg/hexgrid"
)

// Unit prototypes used by generated scenarios.
var (
	Warrior  = Unit{Name: "warrior", Class: ClassMelee, Strength: 20, Moves: 2}
	Horseman = Unit{Name: "horseman", Class: ClassMelee, Strength: 28, Moves: 4}
	Archer   = Unit{Name: "archer", Class: ClassRanged, Strength: 5, RangedStrength: 20, Range: 2, Moves: 2}
	Catapult = Unit{Name: "catapult", Class: ClassRanged, Strength: 7, RangedStrength: 28, Range: 2, Moves: 2, IndirectFire: true}
	Scout    = Unit{Name: "scout", Class: ClassMelee, Strength: 5, Moves: 3, Sight: 3}
	Worker   = Unit{Name: "worker", Class: ClassCivilian, Moves: 2}
)

// armyRoster is what each faction starts with around its capital.
var armyRoster = []Unit{Archer, Horseman, Catapult, Scout, Worker, Warrior}

// ScenarioConfig describes the starting position placed on a map.
type ScenarioConfig struct {
	Factions   int
	Barbarians int   // number of barbarian camps
	Spacing    int   // minimum distance between capitals
	Seed       int64 // 0 = random
}

// DefaultScenario returns a four-player free-for-all with two camps.
func DefaultScenario() ScenarioConfig {
	return ScenarioConfig{Factions: 4, Barbarians: 2, Spacing: 8}
}

// Populate adds factions, each on its own team and at war with every other
// one, and gives each a garrisoned capital plus a small army. Barbarian
// camps go last, at war with everyone.
func Populate(s *State, cfg ScenarioConfig) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	g := s.grid

	var land []hexgrid.TileID
	for i := range s.tiles {
		t := &s.tiles[i]
		if !t.IsWater() && !t.IsImpassable() {
			land = append(land, t.ID)
		}
	}
	rng.Shuffle(len(land), func(i, j int) { land[i], land[j] = land[j], land[i] })

	var taken []hexgrid.TileID
	pick := func(spacing int) (hexgrid.TileID, bool) {
		for sp := spacing; sp >= 2; sp-- {
			for _, id := range land {
				ok := true
				for _, o := range taken {
					if g.Distance(id, o) < sp {
						ok = false
						break
					}
				}
				if ok {
					taken = append(taken, id)
					return id, true
				}
			}
		}
		return hexgrid.NoTile, false
	}

	first := TeamID(len(s.factions))
	for i := range cfg.Factions {
		capital, ok := pick(cfg.Spacing)
		if !ok {
			return fmt.Errorf("populate: no room for faction %d", i)
		}
		f := s.AddFaction(fmt.Sprintf("faction-%d", i), first+TeamID(i))
		if _, err := s.SpawnUnit(f.ID, capital, Warrior); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
		if _, err := s.FoundCity(f.ID, capital, City{Name: fmt.Sprintf("capital-%d", i), Strength: 25}); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
		s.placeArmy(f.ID, capital)
	}

	if cfg.Barbarians > 0 {
		barb := s.AddFaction("barbarians", first+TeamID(cfg.Factions))
		barb.Barbarian = true
		for range cfg.Barbarians {
			camp, ok := pick(cfg.Spacing / 2)
			if !ok {
				break
			}
			s.tiles[camp].Improvement = ImprovementCamp
			if _, err := s.SpawnUnit(barb.ID, camp, Warrior); err != nil {
				return fmt.Errorf("populate: %w", err)
			}
			if _, err := s.SpawnUnit(barb.ID, camp, Archer); err != nil {
				return fmt.Errorf("populate: %w", err)
			}
		}
	}

	for _, a := range s.factions {
		for _, b := range s.factions {
			s.SetWar(a.Team, b.Team, true)
		}
	}
	return nil
}

// placeArmy spawns the roster on free land around the capital, one unit
// per tile.
func (s *State) placeArmy(owner FactionID, capital hexgrid.TileID) {
	next := 0
	for _, id := range s.grid.Spiral(capital, 2) {
		if next == len(armyRoster) {
			return
		}
		t := &s.tiles[id]
		if id == capital || t.IsWater() || t.IsImpassable() || len(s.UnitsAt(id)) > 0 || s.CityAt(id) != nil {
			continue
		}
		s.SpawnUnit(owner, id, armyRoster[next])
		next++
	}
}
