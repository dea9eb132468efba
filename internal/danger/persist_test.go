package danger_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/savestream"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t, danger.DefaultPolicy())
	f.seeAll()
	f.spawn(f.blue.ID, 6, 4, warrior)
	gone := f.spawn(f.blue.ID, 10, 6, warrior)
	f.spawn(f.blue.ID, 9, 2, archer)
	defender := f.spawn(f.red.ID, 2, 2, warrior)

	f.s.SetTurn(1)
	f.rebuild()
	f.hide(gone.Tile)
	f.s.SetTurn(2)
	f.rebuild()
	if len(f.cache.VanishedAttackers()) != 1 {
		t.Fatalf("vanished = %v, want one attacker", f.cache.VanishedAttackers())
	}

	overlay := f.cache.Overlay()
	var unitDanger []int
	for id := range f.s.Grid().Size() {
		unitDanger = append(unitDanger, f.cache.UnitDanger(hexgrid.TileID(id), defender, nil, 0, danger.AirAttack))
	}

	w := savestream.NewWriter()
	f.cache.Save(w)

	loaded := danger.New(f.rules.Env(), danger.DefaultPolicy())
	if err := loaded.Load(savestream.NewReader(w.Bytes())); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Owner() != f.red.ID {
		t.Errorf("owner = %d, want %d", loaded.Owner(), f.red.ID)
	}
	if !loaded.IsDirty() || loaded.Mode() != danger.ModeReload {
		t.Fatalf("loaded cache dirty=%v mode=%v, want dirty reload", loaded.IsDirty(), loaded.Mode())
	}

	// reload rebuilds need no token
	res, ok := loaded.Rebuild(danger.Token{})
	if !ok {
		t.Fatal("reload rebuild refused")
	}
	if res.Mode != danger.ModeReload {
		t.Errorf("mode = %v, want reload", res.Mode)
	}
	if !slices.Equal(loaded.KnownAttackers(), f.cache.KnownAttackers()) {
		t.Errorf("known = %v, want %v", loaded.KnownAttackers(), f.cache.KnownAttackers())
	}
	if !slices.Equal(loaded.VanishedAttackers(), f.cache.VanishedAttackers()) {
		t.Errorf("vanished = %v, want %v", loaded.VanishedAttackers(), f.cache.VanishedAttackers())
	}
	if got := loaded.Overlay(); !slices.Equal(got, overlay) {
		t.Error("overlay differs after reload")
	}
	for id := range f.s.Grid().Size() {
		tile := hexgrid.TileID(id)
		if got := loaded.UnitDanger(tile, defender, nil, 0, danger.AirAttack); got != unitDanger[id] {
			t.Errorf("tile %d: unit danger = %d, want %d", tile, got, unitDanger[id])
		}
	}

	// a second rebuild in the same turn is a war state rebuild
	if _, ok := loaded.Rebuild(danger.Token{}); ok {
		t.Error("war state rebuild ran without a token")
	}
}

func TestLoadTruncatedLeavesCache(t *testing.T) {
	f := newFixture(t, danger.DefaultPolicy())
	f.seeAll()
	f.spawn(f.blue.ID, 6, 4, warrior)
	f.s.SetTurn(1)
	f.rebuild()
	known := f.cache.KnownAttackers()

	w := savestream.NewWriter()
	w.WriteInt(7)
	w.WritePairs([]savestream.Pair{{A: 1, B: 0}})

	err := f.cache.Load(savestream.NewReader(w.Bytes()))
	if !errors.Is(err, savestream.ErrUnexpectedEOF) {
		t.Fatalf("Load error = %v, want ErrUnexpectedEOF", err)
	}
	if f.cache.Owner() != f.red.ID {
		t.Errorf("owner = %d, want %d", f.cache.Owner(), f.red.ID)
	}
	if !slices.Equal(f.cache.KnownAttackers(), known) {
		t.Errorf("known = %v, want %v", f.cache.KnownAttackers(), known)
	}
	if f.cache.Mode() == danger.ModeReload {
		t.Error("failed load switched the cache to reload mode")
	}
}

func TestAddedAttackerSurvivesReload(t *testing.T) {
	f := newFixture(t, danger.DefaultPolicy())
	f.seeAll()
	f.spawn(f.red.ID, 6, 4, warrior)
	enemy := f.spawn(f.blue.ID, 8, 4, warrior)
	enemy.Moves = 3
	f.hide(enemy.Tile)
	f.s.SetTurn(1)
	f.rebuild()
	if !f.cache.AddKnownAttacker(enemy) {
		t.Fatal("AddKnownAttacker = false, want true")
	}
	overlay := f.cache.Overlay()
	if d := f.cache.Danger(f.at(6, 4), false); d == 0 {
		t.Fatal("registered attacker does not threaten our warrior")
	}
	// our warrior's zone of control stops the attacker short of this tile
	behind := f.at(5, 4)
	want := f.cache.Danger(behind, false)

	w := savestream.NewWriter()
	f.cache.Save(w)
	loaded := danger.New(f.rules.Env(), danger.DefaultPolicy())
	if err := loaded.Load(savestream.NewReader(w.Bytes())); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded.Rebuild(danger.Token{}); !ok {
		t.Fatal("reload rebuild refused")
	}
	if got := loaded.Danger(behind, false); got != want {
		t.Errorf("danger behind our warrior = %d, want %d", got, want)
	}
	got := loaded.Overlay()
	for id := range overlay {
		if got[id] != overlay[id] {
			t.Errorf("tile %d: danger = %d, want %d", id, got[id], overlay[id])
		}
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	f := newFixture(t, danger.DefaultPolicy())
	f.seeAll()
	f.spawn(f.blue.ID, 6, 4, warrior)
	f.s.SetTurn(1)
	f.rebuild()
	known := f.cache.KnownAttackers()

	w := savestream.NewWriter()
	f.cache.Save(w)
	w.WriteInt(9)

	other := danger.New(f.rules.Env(), danger.DefaultPolicy())
	err := other.Load(savestream.NewReader(w.Bytes()))
	if !errors.Is(err, savestream.ErrTrailingData) {
		t.Fatalf("Load error = %v, want ErrTrailingData", err)
	}
	if other.Owner() == f.red.ID {
		t.Error("failed load set the owner")
	}
	if got := other.KnownAttackers(); len(got) != 0 {
		t.Errorf("known = %v, want none", got)
	}
	if !slices.Equal(f.cache.KnownAttackers(), known) {
		t.Errorf("source known = %v, want %v", f.cache.KnownAttackers(), known)
	}
}
