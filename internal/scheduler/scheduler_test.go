package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"StockDash/internal/checkpoint"
	"StockDash/internal/model"
	"StockDash/internal/recorder"
)

type stubRunner struct {
	mu       sync.Mutex
	calls    int
	universe model.Universe
	block    chan struct{}
	err      error
}

func (r *stubRunner) Run(ctx context.Context, u model.Universe) (*model.RunReport, error) {
	r.mu.Lock()
	r.calls++
	r.universe = u
	block := r.block
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	rep := model.NewRunReport(len(u), model.Checkpoint{})
	rep.FinishedAt = rep.StartedAt
	rep.Status = model.RunCompleted
	if r.err != nil {
		rep.Status = model.RunAborted
	}
	return rep, r.err
}

func (r *stubRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureNotifier) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *captureNotifier) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func fixedUniverse() (model.Universe, error) { return model.Universe{"AAA", "BBB"}, nil }

func newTestScheduler(r Runner, n *captureNotifier) *Scheduler {
	return NewScheduler(context.Background(), r, fixedUniverse, &checkpoint.MemoryStore{}, nil, n)
}

func TestRunNow_SendsReport(t *testing.T) {
	r := &stubRunner{}
	n := &captureNotifier{}
	s := newTestScheduler(r, n)

	rep, err := s.RunNow()
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if rep.Universe != 2 || r.Calls() != 1 {
		t.Errorf("universe=%d calls=%d", rep.Universe, r.Calls())
	}
	sent := n.Sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "COMPLETED") {
		t.Errorf("sent = %q", sent)
	}
}

func TestRunNow_ReportsRunError(t *testing.T) {
	r := &stubRunner{err: context.Canceled}
	n := &captureNotifier{}
	s := newTestScheduler(r, n)

	if _, err := s.RunNow(); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if sent := n.Sent(); len(sent) != 1 || !strings.Contains(sent[0], "context canceled") {
		t.Errorf("sent = %q", sent)
	}
}

func TestRunNow_UniverseError(t *testing.T) {
	r := &stubRunner{}
	n := &captureNotifier{}
	s := NewScheduler(context.Background(), r, func() (model.Universe, error) {
		return nil, errors.New("sp500.json missing")
	}, &checkpoint.MemoryStore{}, nil, n)

	if _, err := s.RunNow(); err == nil {
		t.Fatal("expected universe error")
	}
	if r.Calls() != 0 {
		t.Error("runner must not be called without a universe")
	}
	if sent := n.Sent(); len(sent) != 1 || !strings.Contains(sent[0], "sp500.json missing") {
		t.Errorf("sent = %q", sent)
	}
}

func TestTrigger_SingleRunAtATime(t *testing.T) {
	r := &stubRunner{block: make(chan struct{})}
	n := &captureNotifier{}
	s := newTestScheduler(r, n)

	if reply := s.HandleCommand(context.Background(), "/run"); !strings.Contains(reply, "started") {
		t.Fatalf("first /run reply = %q", reply)
	}
	deadline := time.Now().Add(2 * time.Second)
	for r.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !s.Running() {
		t.Fatal("expected a run in progress")
	}
	if reply := s.HandleCommand(context.Background(), "/run"); !strings.Contains(reply, ErrBusy.Error()) {
		t.Errorf("second /run reply = %q", reply)
	}
	if _, err := s.RunNow(); !errors.Is(err, ErrBusy) {
		t.Errorf("RunNow while busy: %v", err)
	}
	if status := s.HandleCommand(context.Background(), "/status"); !strings.Contains(status, "in progress") {
		t.Errorf("status = %q", status)
	}

	close(r.block)
	s.Stop()
	if s.Running() {
		t.Error("run should have finished")
	}
	if r.Calls() != 1 {
		t.Errorf("calls = %d, want 1", r.Calls())
	}
}

func TestHandleCommand_Status(t *testing.T) {
	cp := &checkpoint.MemoryStore{}
	cp.Save(context.Background(), model.Checkpoint{Pass: "extra", Index: 120})
	s := NewScheduler(context.Background(), &stubRunner{}, fixedUniverse, cp, recorder.NewNoopRecorder(), nil)

	reply := s.HandleCommand(context.Background(), "/status")
	if !strings.Contains(reply, "Checkpoint: extra @ 120") {
		t.Errorf("reply = %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "hello"); !strings.Contains(reply, "/status") {
		t.Errorf("help reply = %q", reply)
	}
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, &captureNotifier{})
	if err := s.Register("0 0 6 * * 1-5"); err != nil {
		t.Errorf("valid cron expression: %v", err)
	}
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
