// internal/httpserver/hub.go
//
// Connection registry and outbound event encoding.
// The Hub implements game.Notifier: it turns engine events into wire frames
// and queues them on the target connection without ever blocking.

package httpserver

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/game"
)

// sendBuffer is the per-connection outbound queue length.
const sendBuffer = 64

// frame is the envelope of every websocket message, both directions.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type createdPayload struct {
	GameID    string         `json:"gameId"`
	GameState *game.Snapshot `json:"gameState"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type overPayload struct {
	Players   []game.Player  `json:"players"`
	FinalTime int            `json:"finalTime"`
	Reason    game.EndReason `json:"reason"`
}

type rematchPayload struct {
	NewGameID    string         `json:"newGameId"`
	NewGameState *game.Snapshot `json:"newGameState,omitempty"`
}

// encodeEvent maps an engine event onto its wire frame.
func encodeEvent(ev game.Event) ([]byte, error) {
	var data any
	switch ev.Type {
	case game.EventCreated:
		data = createdPayload{GameID: ev.RoomID, GameState: ev.Snapshot}
	case game.EventState:
		data = ev.Snapshot
	case game.EventError:
		data = errorPayload{Message: ev.Message}
	case game.EventOver:
		if ev.Result != nil {
			data = overPayload{Players: ev.Result.Players, FinalTime: ev.Result.FinalTime, Reason: ev.Result.Reason}
		}
	case game.EventRematchStarted, game.EventRematchOffered:
		data = rematchPayload{NewGameID: ev.RoomID, NewGameState: ev.Snapshot}
	}

	f := frame{Type: string(ev.Type)}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		f.Data = raw
	}
	return json.Marshal(f)
}

// Hub tracks live connections by player id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	dropped atomic.Int64
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Notify queues ev for playerID. Unknown players and full queues drop the frame.
func (h *Hub) Notify(playerID string, ev game.Event) {
	msg, err := encodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("encode event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[playerID]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.dropped.Add(1)
		log.Warn().Str("player", playerID).Str("type", string(ev.Type)).Msg("send buffer full, frame dropped")
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

// unregister removes c and closes its queue. Closing under the write lock
// guarantees no Notify is sending concurrently.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// Connections returns the number of live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many frames were discarded on full queues.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }
