// Package game implements the lobby's room registry: players, rooms and the
// registry that owns them.
package game

import "sync/atomic"

const (
	// DefaultMaxPlayers is the capacity used when a room is created without one
	DefaultMaxPlayers = 4
	// MinPlayersToStart is the fewest players a room needs before its game can start
	MinPlayersToStart = 2
)

// Player is a lobby member. Identifiers are assigned by the caller; a room
// rejects a second player carrying an identifier it already holds.
type Player struct {
	ID    int
	Name  string
	ready atomic.Bool
}

// NewPlayer creates a player that is not ready
func NewPlayer(id int, name string) *Player {
	return &Player{ID: id, Name: name}
}

// IsReady reports the player's ready flag
func (p *Player) IsReady() bool {
	return p.ready.Load()
}

// SetReady updates the player's ready flag
func (p *Player) SetReady(ready bool) {
	p.ready.Store(ready)
}
