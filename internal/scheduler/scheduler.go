package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"StockDash/internal/checkpoint"
	"StockDash/internal/model"
	"StockDash/internal/notifier"
	"StockDash/internal/recorder"
)

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("a run is already in progress")

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context, u model.Universe) (*model.RunReport, error)
}

// UniverseFunc loads the tickers for a run. It is called before every run
// so a refreshed constituent file is picked up without a restart.
type UniverseFunc func() (model.Universe, error)

// Scheduler triggers ingestion runs from cron and from Telegram commands.
type Scheduler struct {
	Cron       *cron.Cron
	Runner     Runner
	Universe   UniverseFunc
	Checkpoint checkpoint.Store
	Recorder   recorder.Recorder
	Notifier   notifier.Notifier
	Ctx        context.Context

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r Runner, u UniverseFunc, cp checkpoint.Store, rec recorder.Recorder, n notifier.Notifier) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.Noop{}
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Runner:     r,
		Universe:   u,
		Checkpoint: cp,
		Recorder:   rec,
		Notifier:   n,
		Ctx:        ctx,
	}
}

// Register schedules the ingestion run.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scheduledRun); err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow executes a run immediately and blocks until it returns.
func (s *Scheduler) RunNow() (*model.RunReport, error) {
	if !s.begin() {
		return nil, ErrBusy
	}
	defer s.end()
	return s.run()
}

// Trigger starts a run in the background.
func (s *Scheduler) Trigger() error {
	if !s.begin() {
		return ErrBusy
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.end()
		s.run()
	}()
	return nil
}

func (s *Scheduler) scheduledRun() {
	log.Println("[INFO] running scheduled ingest")
	if _, err := s.RunNow(); errors.Is(err, ErrBusy) {
		log.Println("[WARN] scheduled ingest skipped: previous run still in progress")
	}
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) run() (*model.RunReport, error) {
	u, err := s.Universe()
	if err != nil {
		log.Printf("[ERROR] load universe: %v", err)
		s.trySend(fmt.Sprintf("❌ Ingest not started: %v", err))
		return nil, err
	}
	rep, err := s.Runner.Run(s.Ctx, u)
	if rep != nil {
		s.trySend(notifier.FormatRunReport(rep, err))
	}
	if err != nil {
		log.Printf("[ERROR] ingest run: %v", err)
	}
	return rep, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/status":
		return s.Status(ctx)
	case "/run":
		if err := s.Trigger(); err != nil {
			return "⏳ " + err.Error()
		}
		return "🚀 Ingest started. A report follows when it finishes."
	default:
		return "Available commands:\n• /status\n• /run"
	}
}

// Status formats the checkpoint and the last recorded run.
func (s *Scheduler) Status(ctx context.Context) string {
	last, err := s.Recorder.LastRun()
	if err != nil {
		log.Printf("[WARN] read last run: %v", err)
	}
	return notifier.FormatStatus(s.Checkpoint.Load(ctx), last, s.Running())
}

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

func (s *Scheduler) trySend(text string) {
	var err error
	if rs, ok := s.Notifier.(retrySender); ok {
		err = rs.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(s.Ctx, text)
	}
	if err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
