package sim

import (
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

const citySight = 2

type teamView struct {
	visible      []bool
	known        []bool // visible as of the last Snapshot
	revealed     []bool
	improvements []world.Improvement
}

// Vision tracks what each team can see. Revealed tiles stay revealed and
// keep the improvement last seen on them.
type Vision struct {
	World *world.State
	teams map[world.TeamID]*teamView
}

func NewVision(w *world.State) *Vision {
	return &Vision{World: w, teams: make(map[world.TeamID]*teamView)}
}

func (v *Vision) view(team world.TeamID) *teamView {
	tv, ok := v.teams[team]
	if !ok {
		n := v.World.Grid().Size()
		tv = &teamView{
			visible:      make([]bool, n),
			known:        make([]bool, n),
			revealed:     make([]bool, n),
			improvements: make([]world.Improvement, n),
		}
		v.teams[team] = tv
	}
	return tv
}

// Refresh recomputes live visibility from every unit's and city's sight.
func (v *Vision) Refresh() {
	w := v.World
	g := w.Grid()
	for _, tv := range v.teams {
		clear(tv.visible)
	}
	for _, f := range w.Factions() {
		if !f.Alive {
			continue
		}
		tv := v.view(f.Team)
		for _, u := range w.UnitsOf(f.ID) {
			if u.IsDying() {
				continue
			}
			for _, id := range g.Spiral(u.Tile, u.Sight) {
				v.see(tv, id)
			}
		}
		for _, c := range w.CitiesOf(f.ID) {
			for _, id := range g.Spiral(c.Tile, citySight) {
				v.see(tv, id)
			}
		}
	}
}

func (v *Vision) see(tv *teamView, id hexgrid.TileID) {
	tv.visible[id] = true
	tv.revealed[id] = true
	tv.improvements[id] = v.World.Tile(id).Improvement
}

// Snapshot freezes the current visibility as the known visibility for the
// rest of the turn.
func (v *Vision) Snapshot() {
	for _, tv := range v.teams {
		copy(tv.known, tv.visible)
	}
}

// SetVisible overrides live visibility of a tile. Seeing a tile reveals it.
func (v *Vision) SetVisible(team world.TeamID, id hexgrid.TileID, visible bool) {
	tv := v.view(team)
	if visible {
		v.see(tv, id)
		return
	}
	tv.visible[id] = false
}

// SetKnownVisible overrides turn-start visibility of a tile.
func (v *Vision) SetKnownVisible(team world.TeamID, id hexgrid.TileID, known bool) {
	v.view(team).known[id] = known
}

// Reveal marks a tile as explored without making it visible.
func (v *Vision) Reveal(team world.TeamID, id hexgrid.TileID) {
	tv := v.view(team)
	tv.revealed[id] = true
	tv.improvements[id] = v.World.Tile(id).Improvement
}

// RevealAll reveals the whole map to a team.
func (v *Vision) RevealAll(team world.TeamID) {
	for id := range v.World.Grid().Size() {
		v.Reveal(team, hexgrid.TileID(id))
	}
}

func (v *Vision) IsVisible(team world.TeamID, id hexgrid.TileID) bool {
	tv, ok := v.teams[team]
	return ok && v.World.Grid().Valid(id) && tv.visible[id]
}

func (v *Vision) IsKnownVisible(team world.TeamID, id hexgrid.TileID) bool {
	tv, ok := v.teams[team]
	return ok && v.World.Grid().Valid(id) && tv.known[id]
}

func (v *Vision) IsRevealed(team world.TeamID, id hexgrid.TileID) bool {
	tv, ok := v.teams[team]
	return ok && v.World.Grid().Valid(id) && tv.revealed[id]
}

func (v *Vision) RevealedImprovement(team world.TeamID, id hexgrid.TileID) world.Improvement {
	tv, ok := v.teams[team]
	if !ok || !v.World.Grid().Valid(id) || !tv.revealed[id] {
		return world.ImprovementNone
	}
	return tv.improvements[id]
}

// IsInvisible reports whether team cannot perceive u at all. Stealth units
// are only seen by an adjacent unit of the watching team.
func (v *Vision) IsInvisible(team world.TeamID, u *world.Unit) bool {
	if !u.Stealth || u.Team == team {
		return false
	}
	w := v.World
	for _, f := range w.Factions() {
		if f.Team != team {
			continue
		}
		for _, o := range w.UnitsOf(f.ID) {
			if !o.IsDying() && w.Grid().Distance(o.Tile, u.Tile) <= 1 {
				return false
			}
		}
	}
	return true
}
