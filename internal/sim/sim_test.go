package sim

import (
	"slices"
	"testing"

	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var warrior = world.Unit{Name: "warrior", Class: world.ClassMelee, Strength: 20, Moves: 3}

func twoSides(t *testing.T) (*world.State, *world.Faction, *world.Faction) {
	t.Helper()
	s := world.NewState(12, 10)
	red := s.AddFaction("red", 0)
	blue := s.AddFaction("blue", 1)
	s.SetWar(red.Team, blue.Team, true)
	return s, red, blue
}

func spawn(t *testing.T, s *world.State, f world.FactionID, col, row int, proto world.Unit) *world.Unit {
	t.Helper()
	u, err := s.SpawnUnit(f, s.Grid().At(col, row), proto)
	if err != nil {
		t.Fatalf("SpawnUnit: %v", err)
	}
	return u
}

const dangerFlags = danger.MoveIgnoreStacking | danger.MoveIgnoreEnemies

func TestReachOpenGround(t *testing.T) {
	s, red, _ := twoSides(t)
	u := spawn(t, s, red.ID, 5, 4, warrior)
	p := NewPathfinder(s)
	got := p.ReachableTiles(u, u.Tile, dangerFlags|danger.MoveIgnoreZOC, danger.PhaseDangerEvaluation, u.Moves, nil)
	if want := hexgrid.RingCount(3); len(got) != want {
		t.Errorf("reachable = %d tiles, want %d", len(got), want)
	}
}

func TestReachZoneOfControl(t *testing.T) {
	s, red, blue := twoSides(t)
	enemy := spawn(t, s, blue.ID, 7, 4, warrior)
	u := spawn(t, s, red.ID, 4, 4, warrior)
	p := NewPathfinder(s)

	cases := []struct {
		name    string
		flags   danger.MoveFlags
		exclude danger.TileSet
		want    bool
	}{
		{"zoc blocks", dangerFlags | danger.MoveSelectiveZOC, nil, false},
		{"excluded source", dangerFlags | danger.MoveSelectiveZOC, danger.TileSet{enemy.Tile: {}}, true},
		{"ignore zoc", dangerFlags | danger.MoveIgnoreZOC, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.ReachableTiles(u, u.Tile, tc.flags, danger.PhaseDangerEvaluation, u.Moves, tc.exclude)
			if reached := slices.Contains(got, enemy.Tile); reached != tc.want {
				t.Errorf("reached enemy tile = %v, want %v", reached, tc.want)
			}
		})
	}
}

func TestReachEnemyTileIsEndpoint(t *testing.T) {
	s, red, blue := twoSides(t)
	enemy := spawn(t, s, blue.ID, 5, 4, warrior)
	u := spawn(t, s, red.ID, 4, 4, world.Unit{Class: world.ClassMelee, Strength: 20, Moves: 2})
	p := NewPathfinder(s)
	got := p.ReachableTiles(u, u.Tile, danger.MoveIgnoreZOC, danger.PhaseNormal, u.Moves, nil)
	if !slices.Contains(got, enemy.Tile) {
		t.Fatal("enemy tile should be reachable as an attack target")
	}
	if slices.Contains(got, s.Grid().At(6, 4)) {
		t.Error("moved through an enemy unit")
	}
}

func TestReachDomain(t *testing.T) {
	s, red, _ := twoSides(t)
	for col := 0; col < 12; col++ {
		s.Tile(s.Grid().At(col, 2)).Terrain = world.TerrainOcean
	}
	u := spawn(t, s, red.ID, 5, 4, warrior)
	p := NewPathfinder(s)
	got := p.ReachableTiles(u, u.Tile, dangerFlags|danger.MoveIgnoreZOC, danger.PhaseNormal, 5, nil)
	for _, id := range got {
		if s.Tile(id).IsWater() {
			t.Fatalf("land unit reached water tile %d", id)
		}
	}
	plane := spawn(t, s, red.ID, 5, 5, world.Unit{Class: world.ClassAir, Domain: world.DomainAir, RangedStrength: 30, Range: 6, Moves: 10})
	if got := p.ReachableTiles(plane, plane.Tile, dangerFlags, danger.PhaseNormal, plane.Moves, nil); len(got) != 1 || got[0] != plane.Tile {
		t.Errorf("air reach = %v, want only its base", got)
	}
}

func TestDangerHookOnlyInNormalPhase(t *testing.T) {
	s, red, _ := twoSides(t)
	u := spawn(t, s, red.ID, 5, 4, warrior)
	calls := 0
	p := NewPathfinder(s)
	p.Danger = func(*world.Unit, hexgrid.TileID) int {
		calls++
		return 0
	}
	p.ReachableTiles(u, u.Tile, danger.MoveAvoidDanger|danger.MoveIgnoreZOC, danger.PhaseDangerEvaluation, u.Moves, nil)
	if calls != 0 {
		t.Fatalf("danger consulted %d times during danger evaluation", calls)
	}
	p.ReachableTiles(u, u.Tile, danger.MoveAvoidDanger|danger.MoveIgnoreZOC, danger.PhaseNormal, u.Moves, nil)
	if calls == 0 {
		t.Error("danger never consulted in the normal phase")
	}
}

func TestAvoidDangerSkipsLethalTiles(t *testing.T) {
	s, red, _ := twoSides(t)
	u := spawn(t, s, red.ID, 5, 4, warrior)
	deadly := s.Grid().At(6, 4)
	p := NewPathfinder(s)
	p.Danger = func(_ *world.Unit, tile hexgrid.TileID) int {
		if tile == deadly {
			return 1000
		}
		return 0
	}
	got := p.ReachableTiles(u, u.Tile, danger.MoveAvoidDanger|danger.MoveIgnoreZOC, danger.PhaseNormal, u.Moves, nil)
	if slices.Contains(got, deadly) {
		t.Error("entered a tile whose danger exceeds the unit's health")
	}
}

func TestLineOfSight(t *testing.T) {
	s, red, _ := twoSides(t)
	s.Tile(s.Grid().At(3, 4)).Terrain = world.TerrainMountain
	tg := NewTargeting(s)
	from, to := s.Grid().At(2, 4), s.Grid().At(4, 4)
	if tg.CanSee(from, to, 2) {
		t.Error("mountain should block sight")
	}
	if !tg.CanSee(from, s.Grid().At(3, 4), 2) {
		t.Error("the blocking tile itself is visible")
	}
	if tg.CanSee(from, s.Grid().At(5, 4), 2) {
		t.Error("target beyond range should not be visible")
	}

	archer := spawn(t, s, red.ID, 2, 4, world.Unit{Class: world.ClassRanged, Strength: 5, RangedStrength: 15, Range: 2, Moves: 2})
	got := tg.AttackableTiles(archer, []hexgrid.TileID{archer.Tile})
	if slices.Contains(got, to) {
		t.Error("direct fire archer can hit behind a mountain")
	}
	if slices.Contains(got, archer.Tile) {
		t.Error("archer targets its own tile")
	}
	archer.IndirectFire = true
	if got := tg.AttackableTiles(archer, []hexgrid.TileID{archer.Tile}); !slices.Contains(got, to) {
		t.Error("indirect fire should ignore line of sight")
	}
}

func TestVisionRefreshAndSnapshot(t *testing.T) {
	s, red, blue := twoSides(t)
	u := spawn(t, s, red.ID, 5, 4, warrior)
	v := NewVision(s)
	v.Refresh()
	v.Snapshot()
	near, far := s.Grid().At(6, 4), s.Grid().At(10, 4)
	if !v.IsVisible(red.Team, near) || !v.IsKnownVisible(red.Team, near) {
		t.Error("tile next to our unit should be visible")
	}
	if v.IsVisible(red.Team, far) || v.IsRevealed(red.Team, far) {
		t.Error("distant tile should be unexplored")
	}

	if err := s.MoveUnit(u, s.Grid().At(9, 4)); err != nil {
		t.Fatal(err)
	}
	v.Refresh()
	if !v.IsVisible(red.Team, far) {
		t.Error("tile should be visible after moving closer")
	}
	if v.IsKnownVisible(red.Team, far) {
		t.Error("known visibility changed before the next snapshot")
	}
	if !v.IsRevealed(red.Team, near) {
		t.Error("revealed tiles must stay revealed")
	}
	if v.IsVisible(blue.Team, near) {
		t.Error("blue has no units and should see nothing")
	}
}

func TestStealth(t *testing.T) {
	s, red, blue := twoSides(t)
	spawn(t, s, red.ID, 2, 4, warrior)
	sub := spawn(t, s, blue.ID, 5, 4, world.Unit{Class: world.ClassMelee, Strength: 20, Stealth: true})
	v := NewVision(s)
	if !v.IsInvisible(red.Team, sub) {
		t.Error("stealth unit should be invisible at distance")
	}
	if v.IsInvisible(blue.Team, sub) {
		t.Error("a team always sees its own units")
	}
	spawn(t, s, red.ID, 6, 4, warrior)
	if v.IsInvisible(red.Team, sub) {
		t.Error("adjacent units reveal stealth units")
	}
}

func TestCombatDeterministic(t *testing.T) {
	s, red, blue := twoSides(t)
	a := spawn(t, s, red.ID, 4, 4, warrior)
	d := spawn(t, s, blue.ID, 5, 4, warrior)
	c := NewCombat(s)

	dealt, received := c.AttackOnUnit(d, a, d.Tile, a.Tile, 0)
	if dealt != 30 || received != 30 {
		t.Errorf("equal melee = %d/%d, want 30/30", dealt, received)
	}
	for range 5 {
		if d2, r2 := c.AttackOnUnit(d, a, d.Tile, a.Tile, 0); d2 != dealt || r2 != received {
			t.Fatal("combat estimate is not deterministic")
		}
	}

	worker := spawn(t, s, blue.ID, 6, 4, world.Unit{Class: world.ClassCivilian})
	if dealt, _ := c.AttackOnUnit(worker, a, worker.Tile, hexgrid.NoTile, 0); dealt != worker.HP {
		t.Errorf("attack on civilian = %d, want %d", dealt, worker.HP)
	}

	s.Tile(d.Tile).Terrain = world.TerrainHills
	if hill, _ := c.AttackOnUnit(d, a, d.Tile, a.Tile, 0); hill >= dealt {
		t.Errorf("attack on hills = %d, want less than %d", hill, dealt)
	}
}

func TestBestInterceptor(t *testing.T) {
	s, red, blue := twoSides(t)
	bomber := spawn(t, s, red.ID, 2, 4, world.Unit{Class: world.ClassAir, Domain: world.DomainAir, RangedStrength: 30, Range: 6})
	weak := spawn(t, s, blue.ID, 6, 4, world.Unit{Class: world.ClassRanged, RangedStrength: 10, Range: 1, InterceptRange: 2})
	strong := spawn(t, s, blue.ID, 7, 4, world.Unit{Class: world.ClassAir, Domain: world.DomainAir, RangedStrength: 40, Range: 6, InterceptRange: 3})
	c := NewCombat(s)
	target := s.Grid().At(6, 5)
	if got := c.BestInterceptor(target, bomber); got != strong {
		t.Errorf("best interceptor = %v, want %v", got.Ref(), strong.Ref())
	}
	if got := c.BestInterceptor(s.Grid().At(0, 0), bomber); got != nil {
		t.Errorf("interceptor %v out of range", got.Ref())
	}
	_ = weak
}
