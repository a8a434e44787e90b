// Copyright 2024-2026 Aiku AI

// Command matrix-helpbot is a Matrix chat-room assistant. It replies to
// !help commands with configurable help content and welcomes users who
// join monitored rooms, with staleness-window protection against welcome
// floods after downtime.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.mau.fi/util/exzerolog"

	"github.com/aiku/matrix-helpbot/pkg/helpbot"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath      = flag.StringP("config", "c", "config.yaml", "config file path")
	generateExample = flag.BoolP("generate-example-config", "e", false, "print the example config and exit")
	version         = flag.BoolP("version", "v", false, "print the version and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("matrix-helpbot %s (%s, built %s)\n", Tag, Commit, BuildTime)
		return
	}
	if *generateExample {
		fmt.Print(helpbot.ExampleConfig)
		return
	}

	cfg, err := helpbot.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.Logging.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging config: %v\n", err)
		os.Exit(1)
	}
	exzerolog.SetupDefaults(log)

	bot, err := helpbot.NewBot(cfg, *log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bot")
	}

	if cfg.Metrics.ListenAddress != "" {
		helpbot.ServeMetrics(cfg.Metrics.ListenAddress, *log)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("homeserver", cfg.Homeserver).Msg("Starting matrix-helpbot")
	if err := bot.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Bot exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
