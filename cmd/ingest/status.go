package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"StockDash/internal/model"
	"StockDash/internal/recorder"
)

// statusCmd implements the "status" command.
type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "shows the checkpoint and the last recorded run" }
func (*statusCmd) Usage() string {
	return `status

Prints the saved checkpoint and a summary of the most recent run.
`
}

func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (*statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(false)
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

	cp := a.checkpoint.Load(ctx)
	if cp.IsZero() {
		fmt.Println("checkpoint: none")
	} else {
		fmt.Printf("checkpoint: pass %s, index %d\n", passLabel(cp), cp.Index)
	}
	if _, err := os.Stat(cfg.Checkpoint.LockFile); err == nil {
		fmt.Printf("lock:       held (%s)\n", cfg.Checkpoint.LockFile)
	}

	last, err := a.recorder.LastRun()
	if err != nil {
		log.Printf("[ERROR] read last run: %v", err)
		return subcommands.ExitFailure
	}
	if last == nil {
		fmt.Println("last run:   none recorded")
		return subcommands.ExitSuccess
	}
	fmt.Printf("last run:   %s %s started %s\n", last.ID, last.Status, last.StartedAt.Format("2006-01-02 15:04:05"))
	if !last.FinishedAt.IsZero() {
		fmt.Printf("duration:   %s\n", last.FinishedAt.Sub(last.StartedAt))
	}
	fmt.Printf("tickers:    %d processed of %d, %d failed, %d global failures\n",
		last.Processed, last.Universe, last.Failed, last.FailedGlobals)
	if last.Error != "" {
		fmt.Printf("error:      %s\n", last.Error)
	}

	if sr, ok := a.recorder.(*recorder.SQLiteRecorder); ok && last.Failed+last.FailedGlobals > 0 {
		failed, err := sr.FailedOutcomes(last.ID)
		if err != nil {
			log.Printf("[ERROR] read failures: %v", err)
			return subcommands.ExitFailure
		}
		fmt.Println("failures:")
		for _, o := range failed {
			fmt.Printf("  %-6s %-8s %-24s %v\n", o.Pass, o.Ticker, o.Category, o.Err)
		}
	}
	return subcommands.ExitSuccess
}

func passLabel(cp model.Checkpoint) string {
	if cp.Pass == "" {
		return "(first)"
	}
	return cp.Pass
}
