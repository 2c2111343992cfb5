package server

import (
	"context"
	"time"

	"lobby-server/internal/config"
	"lobby-server/pkg/logger"
)

// TickDriver calls the hooks every interval and logs a heartbeat line every
// heartbeat interval
type TickDriver struct {
	hooks     Hooks
	interval  time.Duration
	heartbeat time.Duration
	logger    *logger.Logger
}

func NewTickDriver(hooks Hooks, cfg config.TickConfig, log *logger.Logger) *TickDriver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = config.DefaultTickInterval
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = config.DefaultHeartbeatInterval
	}
	return &TickDriver{
		hooks:     hooks,
		interval:  interval,
		heartbeat: heartbeat,
		logger:    log,
	}
}

// Run blocks until ctx is cancelled
func (d *TickDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	lastHeartbeat := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.hooks.CleanUpRooms()
			d.hooks.SendUpdatesToClients()
			d.hooks.HandleGameLogic()
			d.hooks.LogServerStats()

			if now.Sub(lastHeartbeat) >= d.heartbeat {
				d.logger.Info("Server running...")
				lastHeartbeat = now
			}
		}
	}
}
