package recorder

import (
	"time"

	"StockDash/internal/model"
)

// RunSummary is one row of run history.
type RunSummary struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time // zero while running
	Status        model.RunStatus
	Universe      int
	Processed     int
	Failed        int
	FailedGlobals int
	ResumedPass   string
	ResumedIndex  int
	Error         string
}

// Summarize flattens a run report into a history row.
func Summarize(r *model.RunReport, runErr error) RunSummary {
	s := RunSummary{
		ID:            r.ID.String(),
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Status:        r.Status,
		Universe:      r.Universe,
		Processed:     r.Processed(),
		Failed:        len(r.FailedTickers()),
		FailedGlobals: r.FailedGlobals(),
		ResumedPass:   r.ResumedFrom.Pass,
		ResumedIndex:  r.ResumedFrom.Index,
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

// Recorder persists run history for later inspection.
type Recorder interface {
	// RecordRun upserts the run row and replaces its outcomes.
	RecordRun(r *model.RunReport, runErr error) error
	// LastRun returns the most recently started run, or nil if none.
	LastRun() (*RunSummary, error)
	Close() error
}
