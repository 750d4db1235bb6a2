package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"

	"StockDash/internal/checkpoint"
	"StockDash/internal/model"
	"StockDash/internal/scheduler"
	"StockDash/internal/universe"
)

// scheduleCmd implements the "schedule" command.
type scheduleCmd struct{}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "runs ingestion on the configured cron schedule" }
func (*scheduleCmd) Usage() string {
	return `schedule

Runs until interrupted, starting an ingestion run at every tick of schedule.cron.
Set RUN_ON_START=true to run immediately. With Telegram configured, each run
report is sent to the chat and /status and /run commands are answered.
`
}

func (*scheduleCmd) SetFlags(*flag.FlagSet) {}

func (*scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	orch, err := a.orchestrator(nil)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	loadUniverse := func() (model.Universe, error) { return universe.Load(cfg.Storage.UniverseFile) }

	sched := scheduler.NewScheduler(ctx, orch, loadUniverse, a.checkpoint, a.recorder, a.notifier)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()

	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, starting a run now")
		if err := sched.Trigger(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}

	log.Printf("[INFO] ingest scheduled (%s). Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	sched.Stop()
	return subcommands.ExitSuccess
}
