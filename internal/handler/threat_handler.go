package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexwar/api/internal/auth"
	"github.com/freeeve/hexwar/api/internal/service"
	"github.com/freeeve/hexwar/api/pkg/hexgrid"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// ThreatHandler serves a faction's view of the threat map. The faction
// always comes from the token, never from the request.
type ThreatHandler struct {
	svc *service.TurnService
}

// NewThreatHandler creates a ThreatHandler.
func NewThreatHandler(svc *service.TurnService) *ThreatHandler {
	return &ThreatHandler{svc: svc}
}

// GetOverlay handles GET /api/v1/overlay
func (h *ThreatHandler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	faction, ok := h.factionOf(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Overlay(r.Context(), faction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// GetTileDanger handles GET /api/v1/tiles/{id}/danger
func (h *ThreatHandler) GetTileDanger(w http.ResponseWriter, r *http.Request) {
	faction, ok := h.factionOf(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tile id")
		return
	}
	td, err := h.svc.TileDanger(faction, hexgrid.TileID(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

// GetUnitDanger handles GET /api/v1/units/{id}/danger
func (h *ThreatHandler) GetUnitDanger(w http.ResponseWriter, r *http.Request) {
	faction, ok := h.factionOf(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit id")
		return
	}
	ud, err := h.svc.UnitDanger(faction, world.UnitID(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ud)
}

// ListTurns handles GET /api/v1/history
func (h *ThreatHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	faction, ok := h.factionOf(w, r)
	if !ok {
		return
	}
	turns, err := h.svc.ArchivedTurns(r.Context(), faction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if turns == nil {
		turns = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

// DeclareWar handles POST /api/v1/war. The caller's team goes to war with
// the team in the body; caches are rebuilt on the next timer tick.
func (h *ThreatHandler) DeclareWar(w http.ResponseWriter, r *http.Request) {
	h.changeWar(w, r, true)
}

// MakePeace handles POST /api/v1/peace
func (h *ThreatHandler) MakePeace(w http.ResponseWriter, r *http.Request) {
	h.changeWar(w, r, false)
}

func (h *ThreatHandler) changeWar(w http.ResponseWriter, r *http.Request, atWar bool) {
	faction, ok := h.factionOf(w, r)
	if !ok {
		return
	}
	var req struct {
		Team *int `json:"team"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Team == nil {
		writeError(w, http.StatusBadRequest, "team is required")
		return
	}
	us := h.svc.TeamOf(faction)
	var err error
	if atWar {
		err = h.svc.DeclareWar(r.Context(), us, world.TeamID(*req.Team))
	} else {
		err = h.svc.MakePeace(r.Context(), us, world.TeamID(*req.Team))
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"team": us, "other": *req.Team, "at_war": atWar})
}

// factionOf returns the caller's faction. It writes the error response and
// returns false when the token is missing or scoped to another game.
func (h *ThreatHandler) factionOf(w http.ResponseWriter, r *http.Request) (world.FactionID, bool) {
	c := auth.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return world.NoFaction, false
	}
	if c.GameID != h.svc.GameID() {
		writeError(w, http.StatusForbidden, "token is for another game")
		return world.NoFaction, false
	}
	return c.Faction, true
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownFaction):
		writeError(w, http.StatusNotFound, "faction not found")
	case errors.Is(err, service.ErrUnknownUnit):
		writeError(w, http.StatusNotFound, "unit not found")
	case errors.Is(err, service.ErrTileOffMap):
		writeError(w, http.StatusNotFound, "tile not found")
	case errors.Is(err, service.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "threat map not built yet")
	case errors.Is(err, service.ErrSameTeam), errors.Is(err, service.ErrUnknownTeam):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Threat query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
