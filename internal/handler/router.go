package handler

import (
	"net/http"

	"github.com/freeeve/hexwar/api/internal/auth"
	"github.com/freeeve/hexwar/api/internal/service"
)

// NewRouter registers the threat API on a fresh mux. Routes under /api/v1/
// require a faction token except the WebSocket endpoint, which carries its
// token in the query string.
func NewRouter(svc *service.TurnService, jwtMgr *auth.JWTManager, hub *Hub) *http.ServeMux {
	threat := NewThreatHandler(svc)
	authH := NewAuthHandler(jwtMgr, svc)
	wsH := NewWSHandler(hub, jwtMgr, svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "turn": svc.Turn()})
	})
	mux.HandleFunc("POST /auth/dev", authH.DevLogin)
	mux.HandleFunc("GET /api/v1/ws", wsH.ServeWS)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/overlay", threat.GetOverlay)
	api.HandleFunc("GET /api/v1/tiles/{id}/danger", threat.GetTileDanger)
	api.HandleFunc("GET /api/v1/units/{id}/danger", threat.GetUnitDanger)
	api.HandleFunc("GET /api/v1/history", threat.ListTurns)
	api.HandleFunc("POST /api/v1/war", threat.DeclareWar)
	api.HandleFunc("POST /api/v1/peace", threat.MakePeace)
	mux.Handle("/api/v1/", auth.Middleware(jwtMgr)(api))

	return mux
}
