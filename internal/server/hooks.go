package server

import (
	"context"
	"time"
)

// Hooks are the per-tick operations the TickDriver runs, in this order
type Hooks interface {
	CleanUpRooms()
	SendUpdatesToClients()
	HandleGameLogic()
	LogServerStats()
}

var _ Hooks = (*Server)(nil)

// CleanUpRooms is reserved for removing finished or abandoned rooms
func (s *Server) CleanUpRooms() {}

// SendUpdatesToClients is reserved for pushing room state to clients through
// the multiplexer's broadcast queue
func (s *Server) SendUpdatesToClients() {}

// HandleGameLogic is reserved for advancing started games
func (s *Server) HandleGameLogic() {}

// LogServerStats publishes a snapshot once per stats interval
func (s *Server) LogServerStats() {
	now := time.Now()
	if now.Sub(s.lastStats) < s.cfg.Tick.StatsInterval {
		return
	}
	s.lastStats = now

	ctx, cancel := context.WithTimeout(context.Background(), statsPublishTimeout)
	defer cancel()
	if err := s.sink.Publish(ctx, s.Snapshot()); err != nil {
		s.logger.Warn("Failed to publish stats: %v", err)
	}
}
