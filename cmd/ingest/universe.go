package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"

	"StockDash/internal/universe"
)

// universeCmd implements the "universe" command.
type universeCmd struct{}

func (*universeCmd) Name() string     { return "universe" }
func (*universeCmd) Synopsis() string { return "refreshes the S&P 500 constituent file" }
func (*universeCmd) Usage() string {
	return `universe

Downloads the S&P 500 constituent list and rewrites storage.universe_file.
`
}

func (*universeCmd) SetFlags(*flag.FlagSet) {}

func (*universeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(true)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if _, err := universe.Refresh(ctx, a.client, a.endpoints, cfg.Storage.UniverseFile); err != nil {
		log.Printf("[ERROR] refresh universe: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
