package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/pkg/world"
)

type memKey struct {
	gameID  string
	faction world.FactionID
}

// mockMemoryStore keeps every saved turn and serves the latest.
type mockMemoryStore struct {
	saved map[memKey][]model.ThreatMemory
	err   error
}

func newMockMemoryStore() *mockMemoryStore {
	return &mockMemoryStore{saved: make(map[memKey][]model.ThreatMemory)}
}

func (m *mockMemoryStore) SaveMemory(_ context.Context, tm model.ThreatMemory) error {
	if m.err != nil {
		return m.err
	}
	k := memKey{tm.GameID, tm.Faction}
	tm.SavedAt = time.Now()
	m.saved[k] = append(m.saved[k], tm)
	return nil
}

func (m *mockMemoryStore) LoadMemory(_ context.Context, gameID string, faction world.FactionID) (*model.ThreatMemory, error) {
	all := m.saved[memKey{gameID, faction}]
	if len(all) == 0 {
		return nil, nil
	}
	tm := all[len(all)-1]
	return &tm, nil
}

func (m *mockMemoryStore) MemoryAt(_ context.Context, gameID string, faction world.FactionID, turn int) (*model.ThreatMemory, error) {
	for _, tm := range m.saved[memKey{gameID, faction}] {
		if tm.Turn == turn {
			return &tm, nil
		}
	}
	return nil, nil
}

func (m *mockMemoryStore) ListTurns(_ context.Context, gameID string, faction world.FactionID) ([]int, error) {
	var turns []int
	for _, tm := range m.saved[memKey{gameID, faction}] {
		turns = append(turns, tm.Turn)
	}
	return turns, nil
}

func (m *mockMemoryStore) DeleteGame(_ context.Context, gameID string, factions []world.FactionID) error {
	if m.err != nil {
		return m.err
	}
	for _, f := range factions {
		delete(m.saved, memKey{gameID, f})
	}
	return nil
}

// mockOverlayCache stores overlays without expiry.
type mockOverlayCache struct {
	overlays map[memKey]model.Overlay
	stale    map[string]map[world.FactionID]bool
}

func newMockOverlayCache() *mockOverlayCache {
	return &mockOverlayCache{
		overlays: make(map[memKey]model.Overlay),
		stale:    make(map[string]map[world.FactionID]bool),
	}
}

func (m *mockOverlayCache) SetOverlay(_ context.Context, o model.Overlay, _ time.Duration) error {
	o.Danger = slices.Clone(o.Danger)
	m.overlays[memKey{o.GameID, o.Faction}] = o
	return nil
}

func (m *mockOverlayCache) GetOverlay(_ context.Context, gameID string, faction world.FactionID) (*model.Overlay, error) {
	o, ok := m.overlays[memKey{gameID, faction}]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *mockOverlayCache) MarkStale(_ context.Context, gameID string, faction world.FactionID) error {
	if m.stale[gameID] == nil {
		m.stale[gameID] = make(map[world.FactionID]bool)
	}
	m.stale[gameID][faction] = true
	delete(m.overlays, memKey{gameID, faction})
	return nil
}

func (m *mockOverlayCache) StaleFactions(_ context.Context, gameID string) ([]world.FactionID, error) {
	var out []world.FactionID
	for f := range m.stale[gameID] {
		out = append(out, f)
	}
	slices.Sort(out)
	return out, nil
}

func (m *mockOverlayCache) ClearStale(_ context.Context, gameID string) error {
	delete(m.stale, gameID)
	return nil
}

func (m *mockOverlayCache) DeleteGameData(_ context.Context, gameID string, factions []world.FactionID) error {
	delete(m.stale, gameID)
	for _, f := range factions {
		delete(m.overlays, memKey{gameID, f})
	}
	return nil
}

type sentEvent struct {
	faction world.FactionID
	typ     string
	data    any
}

// recordingBroadcaster remembers every event it was asked to send.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) BroadcastFactionEvent(_ string, faction world.FactionID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{faction, eventType, data})
}

func (b *recordingBroadcaster) count(faction world.FactionID, typ string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.faction == faction && e.typ == typ {
			n++
		}
	}
	return n
}

// mockTimers records armed deadlines.
type mockTimers struct {
	mu      sync.Mutex
	armed   []time.Time
	cleared int
	err     error
}

func (m *mockTimers) SetTurnTimer(_ context.Context, gameID string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return fmt.Errorf("arm %s: %w", gameID, m.err)
	}
	m.armed = append(m.armed, deadline)
	return nil
}

func (m *mockTimers) ClearTurnTimer(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	return nil
}
