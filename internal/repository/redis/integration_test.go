//go:build integration

package redis

import (
	"context"
	"slices"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/internal/testutil"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return NewClientFromPool(testRDB)
}

func TestMemoryRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	blob := []byte{0x08, 0x02, 0x12, 0x00, 0xff}

	if err := c.SaveMemory(ctx, model.ThreatMemory{GameID: "g1", Faction: 2, Turn: 7, Blob: blob}); err != nil {
		t.Fatalf("save memory: %v", err)
	}
	got, err := c.LoadMemory(ctx, "g1", 2)
	if err != nil {
		t.Fatalf("load memory: %v", err)
	}
	if got == nil {
		t.Fatal("expected saved memory")
	}
	if got.Turn != 7 || !slices.Equal(got.Blob, blob) {
		t.Errorf("memory = turn %d blob %x, want turn 7 blob %x", got.Turn, got.Blob, blob)
	}

	missing, err := c.LoadMemory(ctx, "g1", 3)
	if err != nil {
		t.Fatalf("load missing memory: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for a faction with no memory")
	}
}

func TestOverlayExpiresAndGoesStale(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	o := model.Overlay{GameID: "g2", Faction: 1, Turn: 4, Width: 2, Height: 1, Danger: []int{0, 30}}

	if err := c.SetOverlay(ctx, o, time.Minute); err != nil {
		t.Fatalf("set overlay: %v", err)
	}
	got, err := c.GetOverlay(ctx, "g2", 1)
	if err != nil || got == nil {
		t.Fatalf("get overlay: %v %v", got, err)
	}
	if got.Turn != 4 || !slices.Equal(got.Danger, o.Danger) {
		t.Errorf("overlay = %+v, want %+v", got, o)
	}

	if err := c.MarkStale(ctx, "g2", 1); err != nil {
		t.Fatalf("mark stale: %v", err)
	}
	c.MarkStale(ctx, "g2", 0)
	if got, _ := c.GetOverlay(ctx, "g2", 1); got != nil {
		t.Error("stale overlay still cached")
	}
	stale, err := c.StaleFactions(ctx, "g2")
	if err != nil {
		t.Fatalf("stale factions: %v", err)
	}
	if want := []world.FactionID{0, 1}; !slices.Equal(stale, want) {
		t.Errorf("stale = %v, want %v", stale, want)
	}
	c.ClearStale(ctx, "g2")
	if stale, _ := c.StaleFactions(ctx, "g2"); len(stale) != 0 {
		t.Errorf("stale after clear = %v", stale)
	}
}

func TestTurnTimerTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	if err := c.SetTurnTimer(ctx, "g3", time.Now().Add(30*time.Second)); err != nil {
		t.Fatalf("set turn timer: %v", err)
	}
	ttl, err := testRDB.TTL(ctx, turnTimerKey("g3")).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl < 30*time.Second || ttl > 33*time.Second {
		t.Errorf("ttl = %v, want about 32s", ttl)
	}
	c.ClearTurnTimer(ctx, "g3")
	if n, _ := testRDB.Exists(ctx, turnTimerKey("g3")).Result(); n != 0 {
		t.Error("timer key survived ClearTurnTimer")
	}
}

func TestDeleteGameData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	c.SaveMemory(ctx, model.ThreatMemory{GameID: "g4", Faction: 0, Turn: 1, Blob: []byte{1}})
	c.SetOverlay(ctx, model.Overlay{GameID: "g4", Faction: 0}, time.Minute)
	c.MarkStale(ctx, "g4", 0)

	if err := c.DeleteGameData(ctx, "g4", []world.FactionID{0}); err != nil {
		t.Fatalf("delete game data: %v", err)
	}
	if m, _ := c.LoadMemory(ctx, "g4", 0); m != nil {
		t.Error("memory survived delete")
	}
	if n, _ := testRDB.Exists(ctx, staleKey("g4")).Result(); n != 0 {
		t.Error("stale set survived delete")
	}
}
