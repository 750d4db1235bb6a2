package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/google/subcommands"

	"StockDash/internal/checkpoint"
	"StockDash/internal/notifier"
	"StockDash/internal/universe"
)

// runCmd implements the "run" command.
type runCmd struct {
	passes string
	notify bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "ingests every category for the ticker universe" }
func (*runCmd) Usage() string {
	return `run [-passes core,extra,logos] [-notify]

Fetches every data category for each ticker of the universe file in batches,
resuming from the saved checkpoint. The upcoming dividend calendar is fetched
once after the passes, and the checkpoint is removed when the run completes.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.passes, "passes", "", "comma separated passes to run, all by default")
	f.BoolVar(&c.notify, "notify", false, "send the run report to Telegram")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(true)
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

	u, err := universe.Load(cfg.Storage.UniverseFile)
	if err != nil {
		log.Printf("[FATAL] %v (run `universe` first)", err)
		return subcommands.ExitFailure
	}

	var names []string
	if c.passes != "" {
		names = strings.Split(c.passes, ",")
	}
	orch, err := a.orchestrator(names)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	rep, err := orch.Run(ctx, u)
	if c.notify && rep != nil {
		// the run context may already be cancelled
		if serr := a.notifier.Send(context.Background(), notifier.FormatRunReport(rep, err)); serr != nil {
			log.Printf("[ERROR] send notification: %v", serr)
		}
	}
	if err != nil {
		log.Printf("[ERROR] run failed: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
