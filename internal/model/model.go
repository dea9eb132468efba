package model

import (
	"time"

	"github.com/freeeve/hexwar/api/pkg/world"
)

// ThreatMemory is one faction's saved attacker memory at a turn.
type ThreatMemory struct {
	GameID  string          `json:"game_id" db:"game_id"`
	Faction world.FactionID `json:"faction" db:"faction"`
	Turn    int             `json:"turn" db:"turn"`
	Blob    []byte          `json:"-" db:"blob"`
	SavedAt time.Time       `json:"saved_at" db:"-"`
}

// Overlay is the generic danger of every tile as one faction sees it.
type Overlay struct {
	GameID  string          `json:"game_id"`
	Faction world.FactionID `json:"faction"`
	Turn    int             `json:"turn"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Danger  []int           `json:"danger"` // indexed by tile id
}

// TileDanger describes the threats against one tile.
type TileDanger struct {
	Tile              int             `json:"tile"`
	Col               int             `json:"col"`
	Row               int             `json:"row"`
	Danger            int             `json:"danger"`
	FixedDanger       int             `json:"fixed_danger"`
	Attackers         []world.UnitRef `json:"attackers"`
	Capturers         []world.UnitRef `json:"capturers"`
	Cities            []world.CityRef `json:"cities"`
	FogCount          int             `json:"fog_count"`
	ImprovementDamage int             `json:"improvement_damage"`
}

// UnitDanger is the danger to a unit where it stands.
type UnitDanger struct {
	Unit   world.UnitRef `json:"unit"`
	Tile   int           `json:"tile"`
	HP     int           `json:"hp"`
	Danger int           `json:"danger"`
	Lethal bool          `json:"lethal"` // danger reaches the unit's HP
}

// TurnSummary is broadcast when a faction's threat view changes.
type TurnSummary struct {
	GameID   string          `json:"game_id"`
	Faction  world.FactionID `json:"faction"`
	Turn     int             `json:"turn"`
	Mode     string          `json:"mode"`
	Passes   int             `json:"passes"`
	Known    int             `json:"known"`
	Vanished int             `json:"vanished"`
}
