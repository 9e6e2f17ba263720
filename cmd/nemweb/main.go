// Command nemweb parses AEMO MMS report archives and ingests them from NEMweb.
//
// Usage:
//
//	nemweb serve [-poll]              run the HTTP API
//	nemweb parse [-records] FILE...   parse local .zip or .CSV files
//	nemweb fetch [DIR...]             ingest new archives from report directories
//	nemweb schemas [-key K]           list registered datasets
//
// Settings come from the environment and an optional .env file; see
// internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/nemweb/internal/config"
	"github.com/JonMunkholm/nemweb/internal/logging"
)

const usage = `usage: nemweb <command> [flags] [args]

commands:
  serve    run the HTTP API
  parse    parse local .zip or .CSV files and print the result as JSON
  fetch    ingest new archives from NEMweb report directories
  schemas  list registered datasets
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Overload lets a local .env win over the shell environment
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, args)
	case "parse":
		err = runParse(ctx, cfg, args)
	case "fetch":
		err = runFetch(ctx, cfg, args)
	case "schemas":
		err = runSchemas(os.Stdout, args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}
