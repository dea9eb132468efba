package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/internal/repository"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var _ repository.ThreatArchive = (*MemoryRepo)(nil)

// MemoryRepo archives threat memory per (game, faction, turn).
type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

// SaveMemory inserts the memory for its turn, replacing an earlier save
// of the same turn.
func (r *MemoryRepo) SaveMemory(ctx context.Context, m model.ThreatMemory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO threat_memory (game_id, faction, turn, blob)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id, faction, turn)
		 DO UPDATE SET blob = EXCLUDED.blob, saved_at = now()`,
		m.GameID, int(m.Faction), m.Turn, m.Blob,
	)
	if err != nil {
		return fmt.Errorf("save threat memory: %w", err)
	}
	return nil
}

// LoadMemory returns the most recent turn saved for the faction.
func (r *MemoryRepo) LoadMemory(ctx context.Context, gameID string, faction world.FactionID) (*model.ThreatMemory, error) {
	return r.scanOne(ctx,
		`SELECT game_id, faction, turn, blob, saved_at FROM threat_memory
		 WHERE game_id = $1 AND faction = $2
		 ORDER BY turn DESC LIMIT 1`, gameID, int(faction))
}

// MemoryAt returns the memory saved at exactly turn.
func (r *MemoryRepo) MemoryAt(ctx context.Context, gameID string, faction world.FactionID, turn int) (*model.ThreatMemory, error) {
	return r.scanOne(ctx,
		`SELECT game_id, faction, turn, blob, saved_at FROM threat_memory
		 WHERE game_id = $1 AND faction = $2 AND turn = $3`, gameID, int(faction), turn)
}

func (r *MemoryRepo) scanOne(ctx context.Context, query string, args ...any) (*model.ThreatMemory, error) {
	var m model.ThreatMemory
	var faction int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&m.GameID, &faction, &m.Turn, &m.Blob, &m.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load threat memory: %w", err)
	}
	m.Faction = world.FactionID(faction)
	return &m, nil
}

// ListTurns returns the archived turns for a faction, oldest first.
func (r *MemoryRepo) ListTurns(ctx context.Context, gameID string, faction world.FactionID) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT turn FROM threat_memory WHERE game_id = $1 AND faction = $2 ORDER BY turn`,
		gameID, int(faction))
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []int
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// DeleteGame removes the archive of the given factions in a game.
func (r *MemoryRepo) DeleteGame(ctx context.Context, gameID string, factions []world.FactionID) error {
	ids := make([]int64, len(factions))
	for i, f := range factions {
		ids[i] = int64(f)
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM threat_memory WHERE game_id = $1 AND faction = ANY($2)`,
		gameID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete threat memory: %w", err)
	}
	return nil
}
