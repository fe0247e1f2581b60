package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Stevem319/Stevechatravel/config"
	"github.com/Stevem319/Stevechatravel/utils"
)

const usage = `Flight price collection

Usage:
  stevechatravel <command> [flags]

Commands:
  generate   build the key space for a mode and merge it into a checkpoint
  run        resume a checkpoint and look up every pending key
  scrape     generate then run on the same checkpoint
  load       append completed checkpoint records to the flight table
  query      print filtered flights and their price ranges for a route
  export     write filtered flights for a route to CSV
  serve      start the dashboard API

Run "stevechatravel <command> -h" for command flags.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	// ================== Bootstrap ====================
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger}
	commands := map[string]func(context.Context, []string) error{
		"generate": a.generate,
		"run":      a.run,
		"scrape":   a.scrape,
		"load":     a.load,
		"query":    a.query,
		"export":   a.export,
		"serve":    a.serve,
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err := cmd(ctx, args[1:]); err != nil {
		logger.Error("%s failed: %v", args[0], err)
		return 1
	}
	return 0
}
