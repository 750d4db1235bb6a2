package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunAborted   RunStatus = "ABORTED"
)

// Outcome is the result of one (ticker, category) fetch+persist unit.
type Outcome struct {
	Pass     string
	Ticker   string
	Category Category
	Skipped  bool
	Err      error
	Duration time.Duration
}

// OK reports whether the unit succeeded or was skipped.
func (o Outcome) OK() bool { return o.Err == nil }

// BatchReport holds outcomes of one batch of a pass.
type BatchReport struct {
	Pass     string
	Start    int // universe index of the first ticker
	Tickers  []string
	Outcomes []Outcome
}

// FailedTickers returns the tickers with at least one failed category, in batch order.
func (b *BatchReport) FailedTickers() []string {
	return failedTickers(b.Tickers, b.Outcomes)
}

// PassReport aggregates the batches of one pass.
type PassReport struct {
	Name       string
	StartIndex int
	Batches    []BatchReport
}

// Tickers returns every ticker processed by the pass in order.
func (p *PassReport) Tickers() []string {
	var out []string
	for _, b := range p.Batches {
		out = append(out, b.Tickers...)
	}
	return out
}

// Outcomes returns every outcome of the pass.
func (p *PassReport) Outcomes() []Outcome {
	var out []Outcome
	for _, b := range p.Batches {
		out = append(out, b.Outcomes...)
	}
	return out
}

// FailedTickers returns the tickers of the pass with at least one failed category.
func (p *PassReport) FailedTickers() []string {
	return failedTickers(p.Tickers(), p.Outcomes())
}

// RunReport summarizes a full multi-pass run.
type RunReport struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      RunStatus
	ResumedFrom Checkpoint
	Universe    int
	Passes      []PassReport
	Globals     []Outcome
}

// NewRunReport starts a report for a run over n tickers.
func NewRunReport(n int, resumed Checkpoint) *RunReport {
	return &RunReport{
		ID:          uuid.New(),
		StartedAt:   time.Now(),
		Status:      RunRunning,
		ResumedFrom: resumed,
		Universe:    n,
	}
}

// FailedTickers returns the distinct tickers that failed in any pass.
func (r *RunReport) FailedTickers() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range r.Passes {
		for _, t := range r.Passes[i].FailedTickers() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// FailedGlobals counts global fetches that failed.
func (r *RunReport) FailedGlobals() int {
	n := 0
	for _, o := range r.Globals {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Outcomes returns every per-ticker outcome of the run.
func (r *RunReport) Outcomes() []Outcome {
	var out []Outcome
	for i := range r.Passes {
		out = append(out, r.Passes[i].Outcomes()...)
	}
	return out
}

func failedTickers(tickers []string, outcomes []Outcome) []string {
	failed := make(map[string]bool)
	for _, o := range outcomes {
		if !o.OK() {
			failed[o.Ticker] = true
		}
	}
	var out []string
	for _, t := range tickers {
		if failed[t] {
			out = append(out, t)
			delete(failed, t)
		}
	}
	return out
}

// Processed counts the distinct tickers visited by any pass.
func (r *RunReport) Processed() int {
	seen := make(map[string]struct{})
	for i := range r.Passes {
		for _, t := range r.Passes[i].Tickers() {
			seen[t] = struct{}{}
		}
	}
	return len(seen)
}

// Succeeded counts the distinct processed tickers with no failed category.
func (r *RunReport) Succeeded() int {
	return r.Processed() - len(r.FailedTickers())
}
