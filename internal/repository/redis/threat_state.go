package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/internal/repository"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var (
	_ repository.ThreatMemoryStore = (*Client)(nil)
	_ repository.OverlayCache      = (*Client)(nil)
)

// SaveMemory replaces the faction's live threat memory.
func (c *Client) SaveMemory(ctx context.Context, m model.ThreatMemory) error {
	saved := m.SavedAt
	if saved.IsZero() {
		saved = time.Now()
	}
	err := c.rdb.HSet(ctx, memoryKey(m.GameID, m.Faction),
		"turn", m.Turn,
		"blob", m.Blob,
		"saved_at", saved.Unix(),
	).Err()
	if err != nil {
		return fmt.Errorf("save threat memory: %w", err)
	}
	return nil
}

// LoadMemory returns the faction's live threat memory, or nil if none.
func (c *Client) LoadMemory(ctx context.Context, gameID string, faction world.FactionID) (*model.ThreatMemory, error) {
	vals, err := c.rdb.HGetAll(ctx, memoryKey(gameID, faction)).Result()
	if err != nil {
		return nil, fmt.Errorf("load threat memory: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	turn, err := strconv.Atoi(vals["turn"])
	if err != nil {
		return nil, fmt.Errorf("load threat memory: bad turn %q", vals["turn"])
	}
	savedAt, _ := strconv.ParseInt(vals["saved_at"], 10, 64)
	return &model.ThreatMemory{
		GameID:  gameID,
		Faction: faction,
		Turn:    turn,
		Blob:    []byte(vals["blob"]),
		SavedAt: time.Unix(savedAt, 0),
	}, nil
}

// SetOverlay stores an overlay snapshot that expires after ttl.
func (c *Client) SetOverlay(ctx context.Context, o model.Overlay, ttl time.Duration) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal overlay: %w", err)
	}
	return c.rdb.Set(ctx, overlayKey(o.GameID, o.Faction), data, ttl).Err()
}

// GetOverlay returns the cached overlay, or nil if absent or expired.
func (c *Client) GetOverlay(ctx context.Context, gameID string, faction world.FactionID) (*model.Overlay, error) {
	data, err := c.rdb.Get(ctx, overlayKey(gameID, faction)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get overlay: %w", err)
	}
	var o model.Overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode overlay: %w", err)
	}
	return &o, nil
}

// MarkStale records that a faction's overlay no longer matches the world
// and drops its cached snapshot.
func (c *Client) MarkStale(ctx context.Context, gameID string, faction world.FactionID) error {
	pipe := c.rdb.TxPipeline()
	pipe.SAdd(ctx, staleKey(gameID), factionField(faction))
	pipe.Del(ctx, overlayKey(gameID, faction))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark overlay stale: %w", err)
	}
	return nil
}

// StaleFactions returns the factions marked stale, in ascending order.
func (c *Client) StaleFactions(ctx context.Context, gameID string) ([]world.FactionID, error) {
	members, err := c.rdb.SMembers(ctx, staleKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("stale factions: %w", err)
	}
	out := make([]world.FactionID, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, world.FactionID(id))
	}
	slices.Sort(out)
	return out, nil
}

func (c *Client) ClearStale(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, staleKey(gameID)).Err()
}

// turnGracePeriod is added to the turn deadline before the timer fires.
const turnGracePeriod = 2 * time.Second

// SetTurnTimer creates a key that expires at deadline. Its expiry event
// starts the next turn.
func (c *Client) SetTurnTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, turnTimerKey(gameID), deadline.Unix(), ttl).Err()
}

func (c *Client) ClearTurnTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, turnTimerKey(gameID)).Err()
}

// DeleteGameData removes every key of a game.
func (c *Client) DeleteGameData(ctx context.Context, gameID string, factions []world.FactionID) error {
	keys := []string{staleKey(gameID), turnTimerKey(gameID)}
	for _, f := range factions {
		keys = append(keys, memoryKey(gameID, f), overlayKey(gameID, f))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
