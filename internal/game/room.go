package game

import (
	"sync"

	"lobby-server/pkg/logger"
)

// Room is a bounded group of players with a started/not-started state.
//
// Rooms are handed out by the Registry as shared references. Each room guards
// its own state, so it may be used from several goroutines; a room never calls
// back into the registry.
type Room struct {
	id         int
	name       string
	maxPlayers int

	mu      sync.RWMutex
	players []*Player
	started bool

	logger *logger.Logger
}

func newRoom(id int, name string, maxPlayers int, log *logger.Logger) *Room {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Room{
		id:         id,
		name:       name,
		maxPlayers: maxPlayers,
		players:    make([]*Player, 0, maxPlayers),
		logger:     log,
	}
}

func (r *Room) ID() int {
	return r.id
}

func (r *Room) Name() string {
	return r.name
}

func (r *Room) MaxPlayers() int {
	return r.maxPlayers
}

func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func (r *Room) IsStarted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

// Players returns the members in join order. The slice is a copy; the
// players themselves are shared.
func (r *Room) Players() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

// AddPlayer appends the player unless the room is full, already started, or
// holds a player with the same ID.
func (r *Room) AddPlayer(player *Player) bool {
	if player == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= r.maxPlayers || r.started {
		return false
	}
	for _, p := range r.players {
		if p.ID == player.ID {
			return false
		}
	}

	r.players = append(r.players, player)
	return true
}

// RemovePlayer removes the first player with the given ID
func (r *Room) RemovePlayer(playerID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

// GetPlayer returns the member with the given ID, or nil
func (r *Room) GetPlayer(playerID int) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// SetPlayerReady updates a member's ready flag. It returns false when the
// player is not in the room.
func (r *Room) SetPlayerReady(playerID int, ready bool) bool {
	p := r.GetPlayer(playerID)
	if p == nil {
		return false
	}
	p.SetReady(ready)
	return true
}

// StartGame marks the room started if it has enough players and is not
// started yet. Otherwise it does nothing.
func (r *Room) StartGame() {
	r.mu.Lock()
	if len(r.players) < MinPlayersToStart || r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.logger.Info("Game started in room %d", r.id)
}

// ResetRoom clears the started flag and every member's ready flag. Members stay.
func (r *Room) ResetRoom() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = false
	for _, p := range r.players {
		p.SetReady(false)
	}
}
