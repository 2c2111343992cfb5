// Package config loads the lobby server configuration from YAML
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the lobby server
type Config struct {
	Server ServerConfig `yaml:"server"`
	Tick   TickConfig   `yaml:"tick"`
	Log    LogConfig    `yaml:"log"`
	Stats  StatsConfig  `yaml:"stats"`
	Rooms  []RoomSeed   `yaml:"rooms"`
}

// ServerConfig configures the connection multiplexer
type ServerConfig struct {
	Port              int           `yaml:"port"`
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	OutboundQueueSize int           `yaml:"outbound_queue_size"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
}

// TickConfig configures the periodic tick driver
type TickConfig struct {
	Interval          time.Duration `yaml:"interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	StatsInterval     time.Duration `yaml:"stats_interval"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	Color *bool  `yaml:"color"`
}

// StatsConfig configures where server stats snapshots are published
type StatsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// RoomSeed describes a room created at startup
type RoomSeed struct {
	Name       string `yaml:"name"`
	MaxPlayers int    `yaml:"max_players"`
}

const (
	DefaultPort              = 8080
	DefaultReadBufferSize    = 1024
	DefaultOutboundQueueSize = 64
	DefaultWriteTimeout      = 5 * time.Second
	DefaultTickInterval      = 100 * time.Millisecond
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultStatsInterval     = 30 * time.Second
	DefaultLogLevel          = "INFO"
	DefaultStatsSubject      = "lobby.stats"
)

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         DefaultPort,
			WriteTimeout: DefaultWriteTimeout,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads a YAML file and fills in defaults for anything it leaves out.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes into a validated configuration
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults sets zero-valued fields to their defaults. Port and
// WriteTimeout are left alone: port 0 asks the OS for a port and a zero
// write timeout disables it. Parse starts from Default, so they only end up
// zero when the file says so.
func (c *Config) ApplyDefaults() {
	if c.Server.ReadBufferSize == 0 {
		c.Server.ReadBufferSize = DefaultReadBufferSize
	}
	if c.Server.OutboundQueueSize == 0 {
		c.Server.OutboundQueueSize = DefaultOutboundQueueSize
	}
	if c.Tick.Interval == 0 {
		c.Tick.Interval = DefaultTickInterval
	}
	if c.Tick.HeartbeatInterval == 0 {
		c.Tick.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Tick.StatsInterval == 0 {
		c.Tick.StatsInterval = DefaultStatsInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Color == nil {
		enabled := true
		c.Log.Color = &enabled
	}
	if c.Stats.Subject == "" {
		c.Stats.Subject = DefaultStatsSubject
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadBufferSize < 2 {
		return errors.New("server.read_buffer_size must be at least 2")
	}
	if c.Server.OutboundQueueSize < 1 {
		return errors.New("server.outbound_queue_size must be positive")
	}
	if c.Server.WriteTimeout < 0 {
		return errors.New("server.write_timeout must not be negative")
	}
	if c.Tick.Interval <= 0 || c.Tick.HeartbeatInterval <= 0 || c.Tick.StatsInterval <= 0 {
		return errors.New("tick intervals must be positive")
	}
	for i, room := range c.Rooms {
		if room.Name == "" {
			return fmt.Errorf("rooms[%d]: name is required", i)
		}
		if room.MaxPlayers < 0 {
			return fmt.Errorf("rooms[%d]: max_players must not be negative", i)
		}
	}
	return nil
}

// ColorEnabled reports whether console log coloring is on
func (c *Config) ColorEnabled() bool {
	return c.Log.Color == nil || *c.Log.Color
}
