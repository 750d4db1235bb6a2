package main

import (
	"context"
	"fmt"
	"log"

	"StockDash/internal/checkpoint"
	"StockDash/internal/collector"
	"StockDash/internal/config"
	"StockDash/internal/notifier"
	"StockDash/internal/pipeline"
	"StockDash/internal/recorder"
	"StockDash/internal/store"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg        *config.Config
	client     *collector.Client
	endpoints  collector.Endpoints
	store      *store.Store
	checkpoint checkpoint.Store
	recorder   recorder.Recorder
	notifier   notifier.Notifier
	telegram   *notifier.TelegramNotifier

	closers []func() error
}

// loadConfig reads the config file and, if validate is set, rejects an
// incomplete config before any network activity.
func loadConfig(validate bool) (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.client = collector.NewClient(cfg.FMP.Timeout, cfg.Proxy,
		collector.WithRetry(cfg.Pipeline.MaxAttempts, cfg.Pipeline.BackoffBase),
		collector.WithRateLimit(cfg.FMP.RateLimit),
	)
	a.endpoints = collector.Endpoints{
		BaseURL:        cfg.FMP.BaseURL,
		ImageBaseURL:   cfg.FMP.ImageBaseURL,
		APIKey:         cfg.FMP.APIKey,
		Timeseries:     cfg.Pipeline.Timeseries,
		StatementLimit: cfg.Pipeline.StatementLimit,
		AnnualLimit:    cfg.Pipeline.AnnualLimit,
		EarningsLimit:  cfg.Pipeline.EarningsLimit,
	}
	a.store = store.New(cfg.Storage.DataDir, cfg.Storage.LogoDir)

	if cfg.Checkpoint.RedisAddr != "" {
		rs, err := checkpoint.NewRedisStore(ctx, cfg.Checkpoint.RedisAddr, cfg.Checkpoint.RedisKey)
		if err != nil {
			return nil, err
		}
		a.checkpoint = rs
		a.closers = append(a.closers, rs.Close)
		log.Printf("[INFO] checkpoint: redis %s", cfg.Checkpoint.RedisAddr)
	} else {
		a.checkpoint = checkpoint.NewFileStore(cfg.Checkpoint.File)
		log.Printf("[INFO] checkpoint: %s", cfg.Checkpoint.File)
	}

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}

	a.notifier = notifier.Noop{}
	if cfg.Telegram.BotToken != "" {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		a.notifier = a.telegram
	}
	return a, nil
}

// orchestrator builds the orchestrator for the named passes (all when empty).
func (a *app) orchestrator(passNames []string) (*pipeline.Orchestrator, error) {
	passes, globals, err := pipeline.DefaultPasses(a.client, a.endpoints)
	if err != nil {
		return nil, err
	}
	if passes, err = pipeline.Select(passes, passNames); err != nil {
		return nil, err
	}
	o := pipeline.New(passes, globals, a.store, a.checkpoint)
	o.Recorder = a.recorder
	o.BatchSize = a.cfg.Pipeline.BatchSize
	o.BatchDelay = a.cfg.Pipeline.BatchDelay
	return o, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
}
