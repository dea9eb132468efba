package danger_test

import (
	"testing"

	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/internal/sim"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var (
	warrior = world.Unit{Name: "warrior", Class: world.ClassMelee, Strength: 20, Moves: 2}
	archer  = world.Unit{Name: "archer", Class: world.ClassRanged, Strength: 5, RangedStrength: 20, Range: 2}
	worker  = world.Unit{Name: "worker", Class: world.ClassCivilian, Moves: 2}
)

// fixture is a 14x10 grassland map with red (the cache owner, team 0) at
// war with blue (team 1). Red has explored the whole map but sees nothing
// until a test says so.
type fixture struct {
	t     *testing.T
	s     *world.State
	rules *sim.Rules
	red   *world.Faction
	blue  *world.Faction
	cache *danger.Cache
}

func newFixture(t *testing.T, pol danger.Policy) *fixture {
	t.Helper()
	s := world.NewState(14, 10)
	red := s.AddFaction("red", 0)
	blue := s.AddFaction("blue", 1)
	s.SetWar(red.Team, blue.Team, true)
	rules := sim.NewRules(s)
	rules.Vision.RevealAll(red.Team)
	c := danger.New(rules.Env(), pol)
	c.Init(red.ID)
	return &fixture{t: t, s: s, rules: rules, red: red, blue: blue, cache: c}
}

func (f *fixture) at(col, row int) hexgrid.TileID {
	return f.s.Grid().At(col, row)
}

func (f *fixture) spawn(owner world.FactionID, col, row int, proto world.Unit) *world.Unit {
	f.t.Helper()
	u, err := f.s.SpawnUnit(owner, f.at(col, row), proto)
	if err != nil {
		f.t.Fatalf("SpawnUnit: %v", err)
	}
	return u
}

// seeAll makes every tile visible to red, now and at turn start.
func (f *fixture) seeAll() {
	for id := range f.s.Grid().Size() {
		f.rules.Vision.SetVisible(f.red.Team, hexgrid.TileID(id), true)
		f.rules.Vision.SetKnownVisible(f.red.Team, hexgrid.TileID(id), true)
	}
}

func (f *fixture) hide(tile hexgrid.TileID) {
	f.rules.Vision.SetVisible(f.red.Team, tile, false)
	f.rules.Vision.SetKnownVisible(f.red.Team, tile, false)
}

func (f *fixture) rebuild() danger.Result {
	f.t.Helper()
	return rebuildCache(f.t, f.cache)
}

func rebuildCache(t *testing.T, c *danger.Cache) danger.Result {
	t.Helper()
	res, ok := c.Rebuild(danger.SimulationToken())
	if !ok {
		t.Fatal("rebuild refused with a simulation token")
	}
	return res
}
