package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"

	"StockDash/internal/checkpoint"
)

// resetCmd implements the "reset" command.
type resetCmd struct{}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "removes the checkpoint so the next run starts over" }
func (*resetCmd) Usage() string {
	return `reset

Clears the saved checkpoint. Refuses while another run holds the lock file.
`
}

func (*resetCmd) SetFlags(*flag.FlagSet) {}

func (*resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(false)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	lock, err := checkpoint.Acquire(cfg.Checkpoint.LockFile)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer lock.Release()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.checkpoint.Clear(ctx); err != nil {
		log.Printf("[ERROR] clear checkpoint: %v", err)
		return subcommands.ExitFailure
	}
	log.Println("[INFO] checkpoint cleared")
	return subcommands.ExitSuccess
}
