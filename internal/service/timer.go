package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// TurnTimerStore arms the Redis key whose expiry ends a turn.
type TurnTimerStore interface {
	SetTurnTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTurnTimer(ctx context.Context, gameID string) error
}

// TurnTimer steps the game when its turn deadline passes. It listens for
// Redis keyspace notifications on the expired timer key and also polls, so
// turns keep advancing when notifications are unavailable or Redis is not
// configured at all.
type TurnTimer struct {
	rdb    *redis.Client
	timers TurnTimerStore
	svc    *TurnService
	every  time.Duration

	mu       sync.Mutex
	deadline time.Time
	now      func() time.Time
}

// NewTurnTimer creates a TurnTimer. rdb and timers may be nil.
func NewTurnTimer(rdb *redis.Client, timers TurnTimerStore, svc *TurnService, every time.Duration) *TurnTimer {
	return &TurnTimer{rdb: rdb, timers: timers, svc: svc, every: every, now: time.Now}
}

// Start arms the first deadline and blocks until ctx is cancelled. The
// timer key is removed on the way out.
func (t *TurnTimer) Start(ctx context.Context) {
	t.arm(ctx)
	if t.rdb != nil {
		go t.listenKeyspace(ctx)
	}
	t.pollDeadline(ctx)
	t.disarm()
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *TurnTimer) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Str("gameId", t.svc.GameID()).Msg("Turn timer listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// pollDeadline checks the deadline at a quarter of the turn length. Ticks
// that do not end the turn rebuild caches dirtied by war changes.
func (t *TurnTimer) pollDeadline(ctx context.Context) {
	interval := max(t.every/4, 100*time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Turn deadline poller started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Turn deadline poller stopped")
			return
		case <-ticker.C:
			if t.advanceIfDue(ctx) {
				continue
			}
			if _, err := t.svc.Sync(ctx); err != nil {
				log.Warn().Err(err).Str("gameId", t.svc.GameID()).Msg("Threat sync failed")
			}
		}
	}
}

// handleExpiry processes an expired key. Only acts on this game's timer key.
func (t *TurnTimer) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, "game:") || !strings.HasSuffix(key, ":turn_timer") {
		return
	}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[1] != t.svc.GameID() {
		return
	}
	log.Info().Str("gameId", parts[1]).Msg("Turn timer expired")
	t.advanceIfDue(ctx)
}

// advanceIfDue steps the game once per passed deadline and re-arms the
// timer. Both the listener and the poller call it, so the deadline check
// runs under the mutex.
func (t *TurnTimer) advanceIfDue(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deadline.IsZero() || t.now().Before(t.deadline) {
		return false
	}
	t.deadline = time.Time{}
	if err := t.svc.Step(ctx); err != nil {
		log.Error().Err(err).Str("gameId", t.svc.GameID()).Msg("Turn step failed")
	}
	t.armLocked(ctx)
	return true
}

func (t *TurnTimer) arm(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked(ctx)
}

func (t *TurnTimer) armLocked(ctx context.Context) {
	t.deadline = t.now().Add(t.every)
	if t.timers == nil {
		return
	}
	if err := t.timers.SetTurnTimer(ctx, t.svc.GameID(), t.deadline); err != nil {
		log.Warn().Err(err).Str("gameId", t.svc.GameID()).Msg("Failed to arm turn timer key, relying on poller")
	}
}

func (t *TurnTimer) disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline = time.Time{}
	if t.timers == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := t.timers.ClearTurnTimer(ctx, t.svc.GameID()); err != nil {
		log.Warn().Err(err).Str("gameId", t.svc.GameID()).Msg("Failed to clear turn timer key")
	}
}
