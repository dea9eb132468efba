package sqlite

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/internal/repository"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var _ repository.ThreatArchive = (*Store)(nil)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "threats.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadLatest(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for _, turn := range []int{2, 6, 4} {
		if err := s.SaveMemory(ctx, model.ThreatMemory{GameID: "g", Faction: 1, Turn: turn, Blob: []byte{byte(turn)}}); err != nil {
			t.Fatalf("save turn %d: %v", turn, err)
		}
	}

	got, err := s.LoadMemory(ctx, "g", 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Turn != 6 || !slices.Equal(got.Blob, []byte{6}) {
		t.Fatalf("latest = %+v, want turn 6", got)
	}
	turns, err := s.ListTurns(ctx, "g", 1)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if want := []int{2, 4, 6}; !slices.Equal(turns, want) {
		t.Errorf("turns = %v, want %v", turns, want)
	}
}

func TestMissingIsNil(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if got, err := s.LoadMemory(ctx, "g", 0); err != nil || got != nil {
		t.Errorf("LoadMemory = %v, %v, want nil, nil", got, err)
	}
	if got, err := s.MemoryAt(ctx, "g", 0, 3); err != nil || got != nil {
		t.Errorf("MemoryAt = %v, %v, want nil, nil", got, err)
	}
}

func TestSameTurnReplaces(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	s.SaveMemory(ctx, model.ThreatMemory{GameID: "g", Faction: 0, Turn: 1, Blob: []byte{1}})
	s.SaveMemory(ctx, model.ThreatMemory{GameID: "g", Faction: 0, Turn: 1, Blob: []byte{9}})
	got, err := s.MemoryAt(ctx, "g", 0, 1)
	if err != nil {
		t.Fatalf("memory at: %v", err)
	}
	if !slices.Equal(got.Blob, []byte{9}) {
		t.Errorf("blob = %v, want [9]", got.Blob)
	}
}

func TestDeleteGame(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for f := range world.FactionID(3) {
		s.SaveMemory(ctx, model.ThreatMemory{GameID: "g", Faction: f, Turn: 1, Blob: []byte{1}})
	}
	s.SaveMemory(ctx, model.ThreatMemory{GameID: "other", Faction: 0, Turn: 1, Blob: []byte{1}})

	if err := s.DeleteGame(ctx, "g", []world.FactionID{0, 1}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cases := []struct {
		game    string
		faction world.FactionID
		present bool
	}{
		{"g", 0, false},
		{"g", 1, false},
		{"g", 2, true},
		{"other", 0, true},
	}
	for _, tc := range cases {
		got, _ := s.LoadMemory(ctx, tc.game, tc.faction)
		if (got != nil) != tc.present {
			t.Errorf("%s/%d present = %v, want %v", tc.game, tc.faction, got != nil, tc.present)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threats.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.SaveMemory(context.Background(), model.ThreatMemory{GameID: "g", Faction: 0, Turn: 3, Blob: []byte{7}})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.LoadMemory(context.Background(), "g", 0)
	if err != nil || got == nil || got.Turn != 3 {
		t.Errorf("after reopen = %+v, %v, want turn 3", got, err)
	}
}
