package handler

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexwar/api/pkg/world"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type    string          `json:"type"`
	GameID  string          `json:"game_id"`
	Faction world.FactionID `json:"faction"`
	Data    any             `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"` // "overlay" requests the current overlay
}

// WSConn wraps a WebSocket connection with the faction its token grants.
type WSConn struct {
	conn    *websocket.Conn
	gameID  string
	faction world.FactionID
	send    chan []byte
}

// channelKey names the channel carrying one faction's events.
func channelKey(gameID string, faction world.FactionID) string {
	return gameID + ":" + strconv.Itoa(int(faction))
}

// Hub manages WebSocket connections and per-faction channels. A faction's
// overlay is pushed only to connections holding that faction's token.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	channels    map[string]map[*WSConn]bool // gameID:faction -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		channels:    make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub and subscribes it to its faction.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
	key := channelKey(c.gameID, c.faction)
	if h.channels[key] == nil {
		h.channels[key] = make(map[*WSConn]bool)
	}
	h.channels[key][c] = true
}

// Unregister removes a connection from the hub and its channel.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	key := channelKey(c.gameID, c.faction)
	if conns, ok := h.channels[key]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.channels, key)
		}
	}
	close(c.send)
}

// BroadcastToFaction sends an event to every connection of one faction.
func (h *Hub) BroadcastToFaction(gameID string, faction world.FactionID, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.channels[channelKey(gameID, faction)] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("gameId", gameID).Int("faction", int(faction)).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// sendTo queues an event for a single connection.
func (h *Hub) sendTo(c *WSConn, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connections[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// FactionSubscriberCount returns the number of connections on a faction's channel.
func (h *Hub) FactionSubscriberCount(gameID string, faction world.FactionID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelKey(gameID, faction)])
}
