// Lobby Client - Main Entry Point
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"lobby-server/internal/client"
	"lobby-server/pkg/logger"
)

var (
	version    = "1.0.0"
	serverAddr = flag.String("server", "localhost:8080", "Server address (host:port)")
	logLevel   = flag.String("log-level", "WARN", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFile    = flag.String("log-file", "", "Log file path (optional)")
	noColor    = flag.Bool("no-color", false, "Disable colored output")
)

func main() {
	flag.Parse()

	log, err := initLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting Lobby Client v%s", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := client.NewDisplay(color.Output, !*noColor)
	c := client.NewClient(*serverAddr, os.Stdin, display, log)
	if err := c.Start(ctx); err != nil {
		log.Error("Client failed: %v", err)
		os.Exit(1)
	}
}

func initLogging() (*logger.Logger, error) {
	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return nil, err
	}

	opts := []logger.Option{logger.WithLevel(level)}
	if *noColor {
		opts = append(opts, logger.WithoutColor())
	}
	log := logger.New("client", opts...)

	if *logFile != "" {
		if err := log.SetFile(*logFile); err != nil {
			return nil, fmt.Errorf("failed to set log file: %w", err)
		}
	}
	return log, nil
}
