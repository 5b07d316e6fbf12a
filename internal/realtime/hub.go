package realtime

import (
	"encoding/json"
	"sync"
)

// Hub holds the active broadcast connections and their room membership.
// It is constructed once in main and injected into every handler that relays
// events; Shutdown drains all connections on process exit. Membership is
// mutated from one goroutine per connection, so all access goes through the
// mutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	closed  bool
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// Register adds a connection to the hub
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.send)
		return
	}
	h.clients[c] = true
}

// Unregister removes a connection and any room membership it had. The
// implicit disconnect path intentionally broadcasts no offline event; only an
// explicit user:leave does.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	h.removeFromRoomLocked(c)
	close(c.send)
}

// JoinRoom adds a connection to a room, leaving any previous room first
func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	h.removeFromRoomLocked(c)
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Client]bool)
		h.rooms[room] = set
	}
	set[c] = true
	c.room = room
}

// LeaveRoom removes a connection from its room
func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(c)
}

func (h *Hub) removeFromRoomLocked(c *Client) {
	if c.room == "" {
		return
	}
	if set, ok := h.rooms[c.room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

// BroadcastExcept sends a message to every connection except the sender
func (h *Hub) BroadcastExcept(sender *Client, msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c == sender {
			continue
		}
		c.trySend(b)
	}
}

// SendToRoom sends a message to every connection in a room
func (h *Hub) SendToRoom(room string, msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.trySend(b)
	}
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown drains every connection. Further registrations are rejected.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}
