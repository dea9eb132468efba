package repository

import (
	"context"
	"errors"
	"time"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// ErrNotFound is returned by lookups that must find a row.
var ErrNotFound = errors.New("not found")

// ThreatMemoryStore saves and restores per-faction attacker memory.
// LoadMemory returns (nil, nil) when nothing has been saved.
type ThreatMemoryStore interface {
	SaveMemory(ctx context.Context, m model.ThreatMemory) error
	LoadMemory(ctx context.Context, gameID string, faction world.FactionID) (*model.ThreatMemory, error)
}

// ThreatArchive keeps every saved turn for later inspection.
type ThreatArchive interface {
	ThreatMemoryStore
	MemoryAt(ctx context.Context, gameID string, faction world.FactionID, turn int) (*model.ThreatMemory, error)
	ListTurns(ctx context.Context, gameID string, faction world.FactionID) ([]int, error)
	DeleteGame(ctx context.Context, gameID string, factions []world.FactionID) error
}

// OverlayCache holds the latest published overlays (Redis).
type OverlayCache interface {
	SetOverlay(ctx context.Context, o model.Overlay, ttl time.Duration) error
	GetOverlay(ctx context.Context, gameID string, faction world.FactionID) (*model.Overlay, error)
	MarkStale(ctx context.Context, gameID string, faction world.FactionID) error
	StaleFactions(ctx context.Context, gameID string) ([]world.FactionID, error)
	ClearStale(ctx context.Context, gameID string) error
	// DeleteGameData drops every live key of a game.
	DeleteGameData(ctx context.Context, gameID string, factions []world.FactionID) error
}
