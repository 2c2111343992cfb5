package game

import (
	"fmt"
	"sort"
	"sync"

	"lobby-server/pkg/logger"
)

// Registry owns the mapping from room ID to room. Every operation holds the
// registry lock for its whole duration; none of them re-enter the registry.
type Registry struct {
	mu     sync.Mutex
	rooms  map[int]*Room
	nextID int
	logger *logger.Logger
}

// NewRegistry creates an empty registry. Room IDs start at 1.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		rooms:  make(map[int]*Room),
		nextID: 1,
		logger: log,
	}
}

// CreateRoom adds a room with a fresh ID. A maxPlayers of zero or less means
// DefaultMaxPlayers. IDs are never reused, even after DeleteRoom.
func (r *Registry) CreateRoom(name string, maxPlayers int) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	room := newRoom(id, name, maxPlayers, r.logger)
	r.rooms[id] = room

	r.logger.Info("Created room %d: %s", id, name)
	return room
}

// DeleteRoom removes the room if it exists
func (r *Registry) DeleteRoom(roomID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[roomID]; !exists {
		return false
	}
	delete(r.rooms, roomID)

	r.logger.Info("Deleted room %d", roomID)
	return true
}

// GetRoom returns the room with the given ID, or nil
func (r *Registry) GetRoom(roomID int) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rooms[roomID]
}

// AllRooms returns a snapshot of every room ordered by ascending ID
func (r *Registry) AllRooms() []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sortedLocked()
}

// Count returns the number of rooms
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

// ListRooms logs one line per room
func (r *Registry) ListRooms() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("=== Room List ===")
	for _, room := range r.sortedLocked() {
		r.logger.Info("%s", describeRoom(room))
	}
}

func (r *Registry) sortedLocked() []*Room {
	list := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		list = append(list, room)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].id < list[j].id
	})
	return list
}

func describeRoom(room *Room) string {
	status := ""
	if room.IsStarted() {
		status = " [IN GAME]"
	}
	return fmt.Sprintf("Room %d (%s): %d/%d players%s",
		room.ID(), room.Name(), room.PlayerCount(), room.MaxPlayers(), status)
}
