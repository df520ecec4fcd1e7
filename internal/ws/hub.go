package ws

import (
	"sync"

	"github.com/Stackato-Apps/multisweeper/internal/logger"
)

// Hub tracks which connections belong to which game room. Membership is
// ephemeral and exists only for message fan-out; the game store stays the
// single authority for game state.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	roomOf map[*Client]string
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		roomOf: make(map[*Client]string),
	}
}

// Join adds the client to the game's room, leaving any previous room.
func (h *Hub) Join(c *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c)

	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
	h.roomOf[c] = gameID

	logger.Debug("client joined room", "game_id", gameID, "player", c.PlayerName, "room_size", len(room))
}

// Leave removes the client from the given room if it is a member.
func (h *Hub) Leave(c *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.roomOf[c] == gameID {
		h.leaveLocked(c)
	}
}

// Drop removes the client from whatever room it is in. Called on
// disconnect.
func (h *Hub) Drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c)
}

func (h *Hub) leaveLocked(c *Client) {
	gameID, ok := h.roomOf[c]
	if !ok {
		return
	}
	delete(h.roomOf, c)

	room, ok := h.rooms[gameID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// Broadcast queues data to every member of the room except the sender.
func (h *Hub) Broadcast(gameID string, except *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[gameID] {
		if c == except {
			continue
		}
		c.enqueue(data)
	}
}

// RoomSize reports the current member count of a room.
func (h *Hub) RoomSize(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}
