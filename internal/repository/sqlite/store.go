// Package sqlite keeps threat memory in a local save file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// Store is a SQLite-backed threat archive.
type Store struct {
	conn *sqlx.DB
}

type memoryRow struct {
	GameID  string `db:"game_id"`
	Faction int    `db:"faction"`
	Turn    int    `db:"turn"`
	Blob    []byte `db:"blob"`
	SavedAt int64  `db:"saved_at"`
}

func (r memoryRow) model() *model.ThreatMemory {
	return &model.ThreatMemory{
		GameID:  r.GameID,
		Faction: world.FactionID(r.Faction),
		Turn:    r.Turn,
		Blob:    r.Blob,
		SavedAt: time.Unix(r.SavedAt, 0),
	}
}

// Open opens or creates the save file at path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threat_memory (
		game_id TEXT NOT NULL,
		faction INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		blob BLOB NOT NULL,
		saved_at INTEGER NOT NULL,
		PRIMARY KEY (game_id, faction, turn)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *Store) SaveMemory(ctx context.Context, m model.ThreatMemory) error {
	saved := m.SavedAt
	if saved.IsZero() {
		saved = time.Now()
	}
	row := memoryRow{GameID: m.GameID, Faction: int(m.Faction), Turn: m.Turn, Blob: m.Blob, SavedAt: saved.Unix()}
	_, err := s.conn.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO threat_memory (game_id, faction, turn, blob, saved_at)
		 VALUES (:game_id, :faction, :turn, :blob, :saved_at)`, row)
	if err != nil {
		return fmt.Errorf("save threat memory: %w", err)
	}
	return nil
}

// LoadMemory returns the latest turn saved for the faction, or nil.
func (s *Store) LoadMemory(ctx context.Context, gameID string, faction world.FactionID) (*model.ThreatMemory, error) {
	return s.getOne(ctx,
		`SELECT game_id, faction, turn, blob, saved_at FROM threat_memory
		 WHERE game_id = ? AND faction = ? ORDER BY turn DESC LIMIT 1`, gameID, int(faction))
}

func (s *Store) MemoryAt(ctx context.Context, gameID string, faction world.FactionID, turn int) (*model.ThreatMemory, error) {
	return s.getOne(ctx,
		`SELECT game_id, faction, turn, blob, saved_at FROM threat_memory
		 WHERE game_id = ? AND faction = ? AND turn = ?`, gameID, int(faction), turn)
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (*model.ThreatMemory, error) {
	var row memoryRow
	err := s.conn.GetContext(ctx, &row, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load threat memory: %w", err)
	}
	return row.model(), nil
}

func (s *Store) ListTurns(ctx context.Context, gameID string, faction world.FactionID) ([]int, error) {
	var turns []int
	err := s.conn.SelectContext(ctx, &turns,
		`SELECT turn FROM threat_memory WHERE game_id = ? AND faction = ? ORDER BY turn`,
		gameID, int(faction))
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

// DeleteGame removes the given factions' archive in one statement.
func (s *Store) DeleteGame(ctx context.Context, gameID string, factions []world.FactionID) error {
	if len(factions) == 0 {
		return nil
	}
	ids := make([]int, len(factions))
	for i, f := range factions {
		ids[i] = int(f)
	}
	query, args, err := sqlx.In(`DELETE FROM threat_memory WHERE game_id = ? AND faction IN (?)`, gameID, ids)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx, s.conn.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete threat memory: %w", err)
	}
	return nil
}
