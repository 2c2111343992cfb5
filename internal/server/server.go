// Package server implements the lobby server: it owns the room registry and
// the connection multiplexer and drives the periodic tick hooks.
package server

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"lobby-server/internal/config"
	"lobby-server/internal/game"
	"lobby-server/internal/network"
	"lobby-server/internal/stats"
	"lobby-server/pkg/logger"
)

const statsPublishTimeout = 2 * time.Second

// Server represents the lobby server. The registry and the multiplexer share
// no state; the tick hooks are the only place both are read.
type Server struct {
	cfg    *config.Config
	rooms  *game.Registry
	mux    *network.Multiplexer
	sink   stats.Sink
	logger *logger.Logger

	startedAt time.Time
	lastStats time.Time // tick goroutine only
}

// NewServer creates a lobby server around an existing registry. A nil sink
// logs stats through the server's logger.
func NewServer(cfg *config.Config, rooms *game.Registry, sink stats.Sink, log *logger.Logger) *Server {
	if sink == nil {
		sink = stats.NewLogSink(log.Named("stats"))
	}

	mux := network.NewMultiplexer(network.Options{
		ReadBufferSize:    cfg.Server.ReadBufferSize,
		OutboundQueueSize: cfg.Server.OutboundQueueSize,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}, log.Named("network"))

	now := time.Now()
	return &Server{
		cfg:       cfg,
		rooms:     rooms,
		mux:       mux,
		sink:      sink,
		logger:    log,
		startedAt: now,
		lastStats: now,
	}
}

// Rooms returns the room registry
func (s *Server) Rooms() *game.Registry {
	return s.rooms
}

// Multiplexer returns the connection multiplexer
func (s *Server) Multiplexer() *network.Multiplexer {
	return s.mux
}

// Initialize binds the listening socket on the configured port
func (s *Server) Initialize() error {
	return s.mux.Initialize(s.cfg.Server.Port)
}

// SeedRooms creates the rooms listed in the configuration
func (s *Server) SeedRooms() {
	for _, seed := range s.cfg.Rooms {
		s.rooms.CreateRoom(seed.Name, seed.MaxPlayers)
	}
}

// Run services connections and ticks until ctx is cancelled, Stop is called,
// or the multiplexer fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return s.mux.Run(ctx)
	})
	g.Go(func() error {
		NewTickDriver(s, s.cfg.Tick, s.logger).Run(ctx)
		return nil
	})

	err := g.Wait()
	s.logger.Info("Server stopped")
	return err
}

// Stop asks Run to return
func (s *Server) Stop() {
	s.mux.Stop()
}

// Snapshot collects the current stats
func (s *Server) Snapshot() stats.Snapshot {
	now := time.Now()
	snap := stats.Snapshot{
		Timestamp:   now,
		Uptime:      now.Sub(s.startedAt),
		Connections: s.mux.ConnectionCount(),
	}
	for _, room := range s.rooms.AllRooms() {
		snap.Rooms++
		snap.Players += room.PlayerCount()
		if room.IsStarted() {
			snap.StartedRooms++
		}
	}
	return snap
}
