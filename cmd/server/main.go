// Lobby Server - Main Entry Point
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lobby-server/internal/config"
	"lobby-server/internal/game"
	"lobby-server/internal/server"
	"lobby-server/internal/stats"
	"lobby-server/pkg/logger"
)

var (
	version    = "1.0.0"
	buildTime  = "dev"
	configPath = flag.String("config", "", "Path to YAML config file (optional)")
	port       = flag.Int("port", 0, "Server port (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR, FATAL)")
	logFile    = flag.String("log-file", "", "Log file path (optional)")
	demo       = flag.Bool("demo", false, "Create the sample rooms and players on startup")
	help       = flag.Bool("help", false, "Show help information")
	ver        = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *help {
		showHelp()
		return
	}
	if *ver {
		showVersion()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := initLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting Lobby Server v%s", version)

	sink, closeSink := buildStatsSink(cfg, log)
	defer closeSink()

	rooms := game.NewRegistry(log.Named("game"))
	srv := server.NewServer(cfg, rooms, sink, log)
	if err := srv.Initialize(); err != nil {
		log.Fatal("Failed to initialize server: %v", err)
	}

	srv.SeedRooms()
	if *demo {
		server.RunDemo(rooms)
	}

	ctx := setupGracefulShutdown(log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("Server error: %v", err)
	}
	log.Info("Server shut down gracefully")
}

// loadConfig reads the config file and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		}
	})
	return cfg, cfg.Validate()
}

// initLogging builds the process logger from the log section
func initLogging(cfg *config.Config) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	opts := []logger.Option{logger.WithLevel(level)}
	if !cfg.ColorEnabled() {
		opts = append(opts, logger.WithoutColor())
	}
	log := logger.New("server", opts...)

	if cfg.Log.File != "" {
		if err := log.SetFile(cfg.Log.File); err != nil {
			return nil, err
		}
		log.Info("Logging to file: %s", cfg.Log.File)
	}
	return log, nil
}

// buildStatsSink always logs stats and also publishes them to NATS when a URL is configured
func buildStatsSink(cfg *config.Config, log *logger.Logger) (stats.Sink, func()) {
	logSink := stats.NewLogSink(log.Named("stats"))
	if cfg.Stats.NATSURL == "" {
		return logSink, func() {}
	}

	natsSink, err := stats.NewNATSSink(cfg.Stats.NATSURL, cfg.Stats.Subject)
	if err != nil {
		log.Warn("Stats will only be logged: %v", err)
		return logSink, func() {}
	}
	log.Info("Publishing stats to %s on %q", cfg.Stats.NATSURL, cfg.Stats.Subject)
	return stats.MultiSink{logSink, natsSink}, func() { natsSink.Close() }
}

// setupGracefulShutdown returns a context cancelled on interrupt signals
func setupGracefulShutdown(log *logger.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info("Received shutdown signal, stopping server...")
		cancel()
	}()
	return ctx
}

func showHelp() {
	fmt.Printf(`Lobby Server v%s

USAGE:
    %s [OPTIONS]

OPTIONS:
    -config string       YAML config file (optional)
    -port int            Server port (default 8080)
    -log-level string    Log level (DEBUG, INFO, WARN, ERROR, FATAL) (default "INFO")
    -log-file string     Log file path (optional)
    -demo                Create the sample rooms and players on startup
    -help                Show this help message
    -version             Show version information

EXAMPLES:
    # Start server with default settings
    %s

    # Start on a specific port with debug logging
    %s -port 9000 -log-level DEBUG

    # Start from a config file
    %s -config config.yaml
`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func showVersion() {
	fmt.Printf(`Lobby Server
Version: %s
Build Time: %s
`, version, buildTime)
}
