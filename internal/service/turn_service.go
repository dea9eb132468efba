package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/internal/logger"
	"github.com/freeeve/hexwar/api/internal/metrics"
	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/internal/repository"
	"github.com/freeeve/hexwar/api/internal/sim"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/savestream"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var (
	ErrUnknownFaction = errors.New("unknown faction")
	ErrUnknownUnit    = errors.New("unknown unit")
	ErrTileOffMap     = errors.New("tile off map")
	ErrNotReady       = errors.New("threat map not built yet")
	ErrSameTeam       = errors.New("a team cannot be at war with itself")
	ErrUnknownTeam    = errors.New("unknown team")
)

// TurnService owns the world of one game and a threat cache per faction.
// Turn processing holds the write lock for as long as it mutates the world
// or rebuilds caches; queries take the read lock and never rebuild.
type TurnService struct {
	gameID      string
	rules       *sim.Rules
	broadcaster Broadcaster

	memory     repository.ThreatMemoryStore
	archive    repository.ThreatArchive
	overlays   repository.OverlayCache
	overlayTTL time.Duration

	mu     sync.RWMutex
	caches map[world.FactionID]*danger.Cache
	order  []world.FactionID
}

// NewTurnService creates a cache for every living non-barbarian faction.
func NewTurnService(gameID string, rules *sim.Rules, policy danger.Policy, broadcaster Broadcaster) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	s := &TurnService{
		gameID:      gameID,
		rules:       rules,
		broadcaster: broadcaster,
		caches:      make(map[world.FactionID]*danger.Cache),
	}
	for _, f := range rules.World.Factions() {
		if !f.Alive || f.Barbarian {
			continue
		}
		c := danger.New(rules.Env(), policy)
		c.Init(f.ID)
		s.caches[f.ID] = c
		s.order = append(s.order, f.ID)
	}
	return s
}

// SetMemoryStore sets where attacker memory is saved after each turn.
func (s *TurnService) SetMemoryStore(store repository.ThreatMemoryStore) {
	s.memory = store
}

// SetArchive sets the store that keeps every turn's memory.
func (s *TurnService) SetArchive(archive repository.ThreatArchive) {
	s.archive = archive
}

// SetOverlayCache sets the cache published overlays are written to.
func (s *TurnService) SetOverlayCache(cache repository.OverlayCache, ttl time.Duration) {
	s.overlays = cache
	s.overlayTTL = ttl
}

func (s *TurnService) GameID() string { return s.gameID }

// Factions returns the factions with a threat cache, in id order.
func (s *TurnService) Factions() []world.FactionID {
	return append([]world.FactionID(nil), s.order...)
}

// TeamOf returns the team a faction plays on.
func (s *TurnService) TeamOf(faction world.FactionID) world.TeamID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.World.TeamOf(faction)
}

// Turn returns the current game turn.
func (s *TurnService) Turn() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.World.Turn()
}

// BeginTurn advances the world, snapshots turn-start visibility and
// rebuilds every cache. Overlays are published and memory saved afterwards.
func (s *TurnService) BeginTurn(ctx context.Context) error {
	s.mu.Lock()
	turn := s.rules.World.AdvanceTurn()
	s.rules.Vision.Refresh()
	s.rules.Vision.Snapshot()
	summaries := s.rebuildLocked(func(*danger.Cache) bool { return true })
	s.mu.Unlock()

	log.Info().Str("gameId", s.gameID).Int("turn", turn).Int("rebuilt", len(summaries)).Msg("Turn started")
	s.publish(ctx, summaries, EventTurnStarted)
	if s.overlays != nil {
		if err := s.overlays.ClearStale(ctx, s.gameID); err != nil {
			log.Warn().Err(err).Str("gameId", s.gameID).Msg("Failed to clear stale overlays")
		}
	}
	return s.SaveMemory(ctx)
}

// Step plays one AI move for every faction, then begins the next turn.
func (s *TurnService) Step(ctx context.Context) error {
	for _, f := range s.order {
		if _, err := s.AdvanceUnits(f); err != nil {
			return fmt.Errorf("advance units: %w", err)
		}
	}
	return s.BeginTurn(ctx)
}

// Sync rebuilds the caches marked dirty by a war state change, along with
// any faction the overlay cache lists as stale, and returns how many were
// rebuilt.
func (s *TurnService) Sync(ctx context.Context) (int, error) {
	var stale []world.FactionID
	if s.overlays != nil {
		var err error
		if stale, err = s.overlays.StaleFactions(ctx, s.gameID); err != nil {
			log.Warn().Err(err).Str("gameId", s.gameID).Msg("Failed to read stale overlays")
		}
	}

	s.mu.Lock()
	for _, f := range stale {
		if c, ok := s.caches[f]; ok {
			c.MarkDirty()
		}
	}
	summaries := s.rebuildLocked(func(c *danger.Cache) bool { return c.IsDirty() })
	s.mu.Unlock()

	if len(summaries) == 0 {
		return 0, nil
	}
	s.publish(ctx, summaries, EventWarChanged)
	if s.overlays != nil {
		if err := s.overlays.ClearStale(ctx, s.gameID); err != nil {
			return len(summaries), fmt.Errorf("clear stale overlays: %w", err)
		}
	}
	return len(summaries), nil
}

// EndGame deletes everything stored for the game: live overlays and memory,
// the stale set, the turn timer key and the archived turns.
func (s *TurnService) EndGame(ctx context.Context) error {
	var errs []error
	if s.overlays != nil {
		if err := s.overlays.DeleteGameData(ctx, s.gameID, s.order); err != nil {
			errs = append(errs, fmt.Errorf("delete live game data: %w", err))
		}
	}
	if s.archive != nil {
		if err := s.archive.DeleteGame(ctx, s.gameID, s.order); err != nil {
			errs = append(errs, fmt.Errorf("delete archive: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info().Str("gameId", s.gameID).Int("factions", len(s.order)).Msg("Game data deleted")
	return nil
}

// DeclareWar puts two teams at war and marks their factions' caches dirty.
func (s *TurnService) DeclareWar(ctx context.Context, a, b world.TeamID) error {
	return s.setWar(ctx, a, b, true)
}

// MakePeace ends a war and marks the two teams' caches dirty.
func (s *TurnService) MakePeace(ctx context.Context, a, b world.TeamID) error {
	return s.setWar(ctx, a, b, false)
}

func hasTeam(w *world.State, team world.TeamID) bool {
	for _, f := range w.Factions() {
		if f.Team == team {
			return true
		}
	}
	return false
}

func (s *TurnService) setWar(ctx context.Context, a, b world.TeamID, atWar bool) error {
	if a == b {
		return ErrSameTeam
	}
	s.mu.Lock()
	w := s.rules.World
	if !hasTeam(w, a) || !hasTeam(w, b) {
		s.mu.Unlock()
		return ErrUnknownTeam
	}
	if w.AtWar(a, b) == atWar {
		s.mu.Unlock()
		return nil
	}
	w.SetWar(a, b, atWar)
	var affected []world.FactionID
	for _, f := range s.order {
		if t := w.TeamOf(f); t == a || t == b {
			s.caches[f].MarkDirty()
			affected = append(affected, f)
		}
	}
	s.mu.Unlock()

	log.Info().Str("gameId", s.gameID).Int("teamA", int(a)).Int("teamB", int(b)).
		Bool("atWar", atWar).Int("affected", len(affected)).Msg("War state changed")
	if s.overlays == nil {
		return nil
	}
	for _, f := range affected {
		if err := s.overlays.MarkStale(ctx, s.gameID, f); err != nil {
			return fmt.Errorf("mark overlay stale: %w", err)
		}
	}
	return nil
}

// rebuildLocked rebuilds the caches selected by want. Caller holds mu.
func (s *TurnService) rebuildLocked(want func(*danger.Cache) bool) []model.TurnSummary {
	tok := danger.SimulationToken()
	turn := s.rules.World.Turn()
	var out []model.TurnSummary
	for _, f := range s.order {
		c := s.caches[f]
		if !want(c) {
			continue
		}
		l := logger.ForGame(s.gameID, int(f))
		start := time.Now()
		res, ok := c.Rebuild(tok)
		if !ok {
			metrics.RebuildRefused.Inc()
			l.Warn().Str("mode", res.Mode.String()).Msg("Threat rebuild refused")
			continue
		}
		took := time.Since(start)
		metrics.ObserveRebuild(int(f), res.Mode.String(), res.Passes, res.Known, res.Vanished, took)
		l.Debug().Str("mode", res.Mode.String()).Int("passes", res.Passes).
			Int("casualties", res.Casualties).Int("known", res.Known).
			Int("vanished", res.Vanished).Dur("took", took).Msg("Threat map rebuilt")
		out = append(out, model.TurnSummary{
			GameID:   s.gameID,
			Faction:  f,
			Turn:     turn,
			Mode:     res.Mode.String(),
			Passes:   res.Passes,
			Known:    res.Known,
			Vanished: res.Vanished,
		})
	}
	return out
}

// publish caches and pushes the new overlay of every summarized faction.
func (s *TurnService) publish(ctx context.Context, summaries []model.TurnSummary, event string) {
	for _, sum := range summaries {
		o, err := s.computeOverlay(sum.Faction)
		if err != nil {
			log.Warn().Err(err).Str("gameId", s.gameID).Int("faction", int(sum.Faction)).Msg("No overlay to publish")
			continue
		}
		if s.overlays != nil {
			if err := s.overlays.SetOverlay(ctx, *o, s.overlayTTL); err != nil {
				log.Warn().Err(err).Str("gameId", s.gameID).Int("faction", int(sum.Faction)).Msg("Failed to cache overlay")
			}
		}
		s.broadcaster.BroadcastFactionEvent(s.gameID, sum.Faction, event, sum)
		s.broadcaster.BroadcastFactionEvent(s.gameID, sum.Faction, EventOverlayUpdated, o)
		metrics.OverlayBroadcasts.Inc()
	}
}

// Overlay returns the faction's danger overlay, from the overlay cache when
// it holds the current turn.
func (s *TurnService) Overlay(ctx context.Context, faction world.FactionID) (*model.Overlay, error) {
	if s.overlays != nil {
		o, err := s.overlays.GetOverlay(ctx, s.gameID, faction)
		if err != nil {
			log.Warn().Err(err).Str("gameId", s.gameID).Msg("Overlay cache read failed")
		} else if o != nil && o.Turn == s.Turn() {
			return o, nil
		}
	}
	return s.computeOverlay(faction)
}

func (s *TurnService) computeOverlay(faction world.FactionID) (*model.Overlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caches[faction]
	if !ok {
		return nil, ErrUnknownFaction
	}
	d := c.Overlay()
	if d == nil {
		return nil, ErrNotReady
	}
	g := s.rules.World.Grid()
	return &model.Overlay{
		GameID:  s.gameID,
		Faction: faction,
		Turn:    c.LastRebuiltTurn(),
		Width:   g.Width,
		Height:  g.Height,
		Danger:  d,
	}, nil
}

// TileDanger describes the threats a faction sees against one tile.
func (s *TurnService) TileDanger(faction world.FactionID, tile hexgrid.TileID) (*model.TileDanger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caches[faction]
	if !ok {
		return nil, ErrUnknownFaction
	}
	if !c.Allocated() {
		return nil, ErrNotReady
	}
	contents, ok := c.Contents(tile)
	if !ok {
		return nil, ErrTileOffMap
	}
	w := s.rules.World.Grid().Width
	return &model.TileDanger{
		Tile:              int(tile),
		Col:               int(tile) % w,
		Row:               int(tile) / w,
		Danger:            c.Danger(tile, false),
		FixedDanger:       c.Danger(tile, true),
		Attackers:         contents.Attackers,
		Capturers:         contents.Capturers,
		Cities:            contents.Cities,
		FogCount:          contents.FogCount,
		ImprovementDamage: contents.ImprovementDamage,
	}, nil
}

// UnitDanger returns the danger to one of the faction's own units where it
// stands.
func (s *TurnService) UnitDanger(faction world.FactionID, id world.UnitID) (*model.UnitDanger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caches[faction]
	if !ok {
		return nil, ErrUnknownFaction
	}
	if !c.Allocated() {
		return nil, ErrNotReady
	}
	u := s.rules.World.Unit(faction, id)
	if u == nil {
		return nil, ErrUnknownUnit
	}
	d := c.UnitDanger(u.Tile, u, nil, 0, danger.AirAttack)
	return &model.UnitDanger{
		Unit:   u.Ref(),
		Tile:   int(u.Tile),
		HP:     u.HP,
		Danger: d,
		Lethal: d >= u.HP,
	}, nil
}

// SaveMemory writes every cache's attacker memory to the memory store and
// the archive, whichever are set.
func (s *TurnService) SaveMemory(ctx context.Context) error {
	if s.memory == nil && s.archive == nil {
		return nil
	}
	s.mu.RLock()
	turn := s.rules.World.Turn()
	saves := make([]model.ThreatMemory, 0, len(s.order))
	for _, f := range s.order {
		w := savestream.NewWriter()
		s.caches[f].Save(w)
		saves = append(saves, model.ThreatMemory{GameID: s.gameID, Faction: f, Turn: turn, Blob: w.Bytes()})
	}
	s.mu.RUnlock()

	for _, m := range saves {
		if s.memory != nil {
			if err := s.memory.SaveMemory(ctx, m); err != nil {
				return fmt.Errorf("save memory of faction %d: %w", m.Faction, err)
			}
		}
		if s.archive != nil {
			if err := s.archive.SaveMemory(ctx, m); err != nil {
				return fmt.Errorf("archive memory of faction %d: %w", m.Faction, err)
			}
		}
	}
	return nil
}

// LoadMemory restores every faction's attacker memory from the memory
// store and runs the reload rebuild. Factions with nothing saved are left
// alone. Returns the number of caches restored.
func (s *TurnService) LoadMemory(ctx context.Context) (int, error) {
	if s.memory == nil {
		return 0, nil
	}
	loaded := 0
	for _, f := range s.order {
		m, err := s.memory.LoadMemory(ctx, s.gameID, f)
		if err != nil {
			return loaded, fmt.Errorf("load memory of faction %d: %w", f, err)
		}
		if m == nil {
			continue
		}
		if err := s.restore(f, m.Blob); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// RestoreTurn restores one faction's memory from the archived turn.
func (s *TurnService) RestoreTurn(ctx context.Context, faction world.FactionID, turn int) error {
	if s.archive == nil {
		return fmt.Errorf("restore turn: no archive configured")
	}
	if _, ok := s.caches[faction]; !ok {
		return ErrUnknownFaction
	}
	m, err := s.archive.MemoryAt(ctx, s.gameID, faction, turn)
	if err != nil {
		return fmt.Errorf("restore turn: %w", err)
	}
	if m == nil {
		return fmt.Errorf("restore turn %d: %w", turn, repository.ErrNotFound)
	}
	return s.restore(faction, m.Blob)
}

// ArchivedTurns lists the turns archived for a faction.
func (s *TurnService) ArchivedTurns(ctx context.Context, faction world.FactionID) ([]int, error) {
	if s.archive == nil {
		return nil, nil
	}
	if _, ok := s.caches[faction]; !ok {
		return nil, ErrUnknownFaction
	}
	return s.archive.ListTurns(ctx, s.gameID, faction)
}

func (s *TurnService) restore(f world.FactionID, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.caches[f]
	if err := c.Load(savestream.NewReader(blob)); err != nil {
		return fmt.Errorf("decode memory of faction %d: %w", f, err)
	}
	// A reload rebuild needs no simulation token.
	res, ok := c.Rebuild(danger.Token{})
	if !ok {
		metrics.RebuildRefused.Inc()
		return fmt.Errorf("reload rebuild of faction %d refused", f)
	}
	l := logger.ForGame(s.gameID, int(f))
	l.Info().Int("known", res.Known).Int("vanished", res.Vanished).Msg("Threat memory restored")
	return nil
}
