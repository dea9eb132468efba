package service

import "github.com/freeeve/hexwar/api/pkg/world"

// Event types pushed to a faction's channel.
const (
	EventTurnStarted    = "turn_started"
	EventOverlayUpdated = "overlay_updated"
	EventWarChanged     = "war_changed"
)

// Broadcaster sends real-time events to the clients of one faction.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastFactionEvent(gameID string, faction world.FactionID, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastFactionEvent(string, world.FactionID, string, any) {}
