// Package stats builds server stats snapshots and ships them to sinks
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lobby-server/internal/network"
	"lobby-server/pkg/logger"
)

// Snapshot is a point-in-time view of the lobby
type Snapshot struct {
	Timestamp    time.Time     `json:"timestamp"`
	Uptime       time.Duration `json:"uptime"`
	Rooms        int           `json:"rooms"`
	StartedRooms int           `json:"started_rooms"`
	Players      int           `json:"players"`
	Connections  int           `json:"connections"`
}

// Message wraps the snapshot in the lobby's JSON envelope
func (s Snapshot) Message() *network.Message {
	msg := network.NewMessage(network.MsgServerStats)
	msg.Timestamp = s.Timestamp
	msg.SetData("uptime_seconds", int64(s.Uptime/time.Second))
	msg.SetData("rooms", s.Rooms)
	msg.SetData("started_rooms", s.StartedRooms)
	msg.SetData("players", s.Players)
	msg.SetData("connections", s.Connections)
	return msg
}

// Sink receives snapshots
type Sink interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// LogSink writes each snapshot as a log line
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Publish(_ context.Context, snap Snapshot) error {
	s.logger.Info("Stats: rooms=%d started=%d players=%d connections=%d uptime=%s",
		snap.Rooms, snap.StartedRooms, snap.Players, snap.Connections, snap.Uptime.Round(time.Second))
	return nil
}

// MultiSink publishes to every sink and joins their errors
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, snap Snapshot) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", sink, err))
		}
	}
	return errors.Join(errs...)
}
