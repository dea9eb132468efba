package handler

import (
	"net/http"
	"os"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexwar/api/internal/auth"
	"github.com/freeeve/hexwar/api/internal/service"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// AuthHandler issues faction tokens.
type AuthHandler struct {
	jwtMgr *auth.JWTManager
	svc    *service.TurnService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(jwtMgr *auth.JWTManager, svc *service.TurnService) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr, svc: svc}
}

// DevLogin handles POST /auth/dev and returns a token for the requested
// faction of the running game. Only available when DEV_MODE=true.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if os.Getenv("DEV_MODE") != "true" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req struct {
		Faction *int `json:"faction"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Faction == nil {
		writeError(w, http.StatusBadRequest, "faction is required")
		return
	}
	faction := world.FactionID(*req.Faction)
	if !slices.Contains(h.svc.Factions(), faction) {
		writeError(w, http.StatusNotFound, "faction not found")
		return
	}

	token, err := h.jwtMgr.IssueFactionToken(h.svc.GameID(), faction)
	if err != nil {
		log.Error().Err(err).Int("faction", int(faction)).Msg("Failed to sign faction token")
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": h.jwtMgr.ExpiresIn(),
		"game_id":    h.svc.GameID(),
		"faction":    faction,
	})
}
