package handler

import (
	"github.com/freeeve/hexwar/api/internal/service"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var _ service.Broadcaster = (*Hub)(nil)

// BroadcastFactionEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastFactionEvent(gameID string, faction world.FactionID, eventType string, data any) {
	h.BroadcastToFaction(gameID, faction, WSEvent{
		Type:    eventType,
		GameID:  gameID,
		Faction: faction,
		Data:    data,
	})
}
