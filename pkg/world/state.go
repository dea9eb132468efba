package world

import (
	"fmt"
	"slices"

	"github.com/freeeve/hexwar/api/pkg/hexgrid"
)

// State is a complete snapshot of the map, its factions and their pieces.
// It is mutated only by the simulation goroutine.
type State struct {
	grid     *hexgrid.Grid
	tiles    []Tile
	turn     int
	factions []*Faction
	units    [][]*Unit // per faction, in creation order
	cities   [][]*City
	nextUnit []UnitID
	nextCity []CityID
	war      map[teamPair]bool
}

type teamPair struct{ a, b TeamID }

func pairOf(a, b TeamID) teamPair {
	if a > b {
		a, b = b, a
	}
	return teamPair{a, b}
}

// NewState creates an empty grassland map of the given size.
func NewState(width, height int) *State {
	g := hexgrid.New(width, height)
	s := &State{
		grid:  g,
		tiles: make([]Tile, g.Size()),
		war:   make(map[teamPair]bool),
	}
	for i := range s.tiles {
		s.tiles[i] = Tile{ID: hexgrid.TileID(i), Owner: NoFaction, OwningCity: NoCity}
	}
	return s
}

// Grid returns the map geometry.
func (s *State) Grid() *hexgrid.Grid { return s.grid }

// Turn returns the current game turn.
func (s *State) Turn() int { return s.turn }

// SetTurn sets the current game turn.
func (s *State) SetTurn(turn int) { s.turn = turn }

// AdvanceTurn moves to the next turn and removes units killed last turn.
func (s *State) AdvanceTurn() int {
	s.turn++
	for f := range s.units {
		s.units[f] = slices.DeleteFunc(s.units[f], func(u *Unit) bool { return u.IsDying() })
	}
	return s.turn
}

// Tile returns the tile with the given id, or nil if off the map.
func (s *State) Tile(id hexgrid.TileID) *Tile {
	if !s.grid.Valid(id) {
		return nil
	}
	return &s.tiles[id]
}

// IsImpassable reports whether team cannot move through the tile.
// There is no tech model, so the answer is the same for every team.
func (s *State) IsImpassable(id hexgrid.TileID, _ TeamID) bool {
	t := s.Tile(id)
	return t == nil || t.IsImpassable()
}

// AddFaction registers a new faction on the given team.
func (s *State) AddFaction(name string, team TeamID) *Faction {
	f := &Faction{
		ID:      FactionID(len(s.factions)),
		Team:    team,
		Name:    name,
		Alive:   true,
		friends: make(map[FactionID]bool),
	}
	s.factions = append(s.factions, f)
	s.units = append(s.units, nil)
	s.cities = append(s.cities, nil)
	s.nextUnit = append(s.nextUnit, 0)
	s.nextCity = append(s.nextCity, 0)
	return f
}

// Factions returns every faction in id order.
func (s *State) Factions() []*Faction { return s.factions }

// Faction returns a faction by id, or nil.
func (s *State) Faction(id FactionID) *Faction {
	if id < 0 || int(id) >= len(s.factions) {
		return nil
	}
	return s.factions[id]
}

// TeamOf returns the team of a faction, or NoTeam.
func (s *State) TeamOf(id FactionID) TeamID {
	if f := s.Faction(id); f != nil {
		return f.Team
	}
	return NoTeam
}

// SetWar sets the war state between two teams.
func (s *State) SetWar(a, b TeamID, atWar bool) {
	if a == b {
		return
	}
	if atWar {
		s.war[pairOf(a, b)] = true
	} else {
		delete(s.war, pairOf(a, b))
	}
}

// AtWar reports whether two teams are at war.
func (s *State) AtWar(a, b TeamID) bool {
	if a == b || a == NoTeam || b == NoTeam {
		return false
	}
	return s.war[pairOf(a, b)]
}

// SetMinorFriend records whether a minor faction is friends with a major.
func (s *State) SetMinorFriend(minor, major FactionID, friends bool) {
	f := s.Faction(minor)
	if f == nil {
		return
	}
	if friends {
		f.friends[major] = true
	} else {
		delete(f.friends, major)
	}
}

// IsMinorFriend reports whether the minor faction is friends with the major.
func (s *State) IsMinorFriend(minor, major FactionID) bool {
	f := s.Faction(minor)
	return f != nil && f.friends[major]
}

// SpawnUnit places a copy of proto for owner at tile and returns it.
func (s *State) SpawnUnit(owner FactionID, tile hexgrid.TileID, proto Unit) (*Unit, error) {
	f := s.Faction(owner)
	if f == nil {
		return nil, fmt.Errorf("spawn unit: unknown faction %d", owner)
	}
	if !s.grid.Valid(tile) {
		return nil, fmt.Errorf("spawn unit: tile %d off map", tile)
	}
	u := proto
	u.ID = s.nextUnit[owner]
	u.Owner = owner
	u.Team = f.Team
	u.Tile = tile
	if u.MaxHP == 0 {
		u.MaxHP = 100
	}
	if u.HP == 0 {
		u.HP = u.MaxHP
	}
	if u.Sight == 0 {
		u.Sight = 2
	}
	s.nextUnit[owner]++
	s.units[owner] = append(s.units[owner], &u)
	return &u, nil
}

// FoundCity creates a city for owner at tile and claims the surrounding ring.
func (s *State) FoundCity(owner FactionID, tile hexgrid.TileID, proto City) (*City, error) {
	f := s.Faction(owner)
	if f == nil {
		return nil, fmt.Errorf("found city: unknown faction %d", owner)
	}
	if !s.grid.Valid(tile) {
		return nil, fmt.Errorf("found city: tile %d off map", tile)
	}
	if s.CityAt(tile) != nil {
		return nil, fmt.Errorf("found city: tile %d already has a city", tile)
	}
	c := proto
	c.ID = s.nextCity[owner]
	c.Owner = owner
	c.Team = f.Team
	c.Tile = tile
	if c.MaxHP == 0 {
		c.MaxHP = 200
	}
	if c.BombardRange == 0 {
		c.BombardRange = 2
	}
	c.Garrison = NoUnit
	for _, u := range s.units[owner] {
		if u.Tile == tile && u.CanGarrison() && !u.IsDying() {
			c.Garrison = u.ID
			break
		}
	}
	s.nextCity[owner]++
	s.cities[owner] = append(s.cities[owner], &c)
	for _, id := range s.grid.Spiral(tile, 1) {
		t := &s.tiles[id]
		if t.Owner == NoFaction {
			t.Owner = owner
			t.OwningCity = c.ID
		}
	}
	return &c, nil
}

// Unit resolves a weak unit reference; nil if it no longer exists.
func (s *State) Unit(owner FactionID, id UnitID) *Unit {
	if owner < 0 || int(owner) >= len(s.units) {
		return nil
	}
	for _, u := range s.units[owner] {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// City resolves a weak city reference; nil if it no longer exists.
func (s *State) City(owner FactionID, id CityID) *City {
	if owner < 0 || int(owner) >= len(s.cities) {
		return nil
	}
	for _, c := range s.cities[owner] {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// UnitsOf returns the live units of a faction in creation order.
func (s *State) UnitsOf(owner FactionID) []*Unit {
	if owner < 0 || int(owner) >= len(s.units) {
		return nil
	}
	return s.units[owner]
}

// CitiesOf returns the cities of a faction in founding order.
func (s *State) CitiesOf(owner FactionID) []*City {
	if owner < 0 || int(owner) >= len(s.cities) {
		return nil
	}
	return s.cities[owner]
}

// UnitsAt returns every unit standing on a tile.
func (s *State) UnitsAt(tile hexgrid.TileID) []*Unit {
	var out []*Unit
	for _, units := range s.units {
		for _, u := range units {
			if u.Tile == tile {
				out = append(out, u)
			}
		}
	}
	return out
}

// CityAt returns the city on a tile, or nil.
func (s *State) CityAt(tile hexgrid.TileID) *City {
	for _, cities := range s.cities {
		for _, c := range cities {
			if c.Tile == tile {
				return c
			}
		}
	}
	return nil
}

// MoveUnit relocates a unit. Garrison links follow the unit in and out of cities.
func (s *State) MoveUnit(u *Unit, to hexgrid.TileID) error {
	if !s.grid.Valid(to) {
		return fmt.Errorf("move unit %s: tile %d off map", u.Ref(), to)
	}
	if c := s.CityAt(u.Tile); c != nil && c.Owner == u.Owner && c.Garrison == u.ID {
		c.Garrison = NoUnit
	}
	u.Tile = to
	if c := s.CityAt(to); c != nil && c.Owner == u.Owner && c.Garrison == NoUnit && u.CanGarrison() {
		c.Garrison = u.ID
	}
	return nil
}

// Kill marks a unit for removal at the next turn boundary.
func (s *State) Kill(u *Unit) {
	u.DelayedDeath = true
	if c := s.CityAt(u.Tile); c != nil && c.Owner == u.Owner && c.Garrison == u.ID {
		c.Garrison = NoUnit
	}
}

// RemoveUnit deletes a unit immediately.
func (s *State) RemoveUnit(u *Unit) {
	s.Kill(u)
	s.units[u.Owner] = slices.DeleteFunc(s.units[u.Owner], func(x *Unit) bool { return x == u })
}
