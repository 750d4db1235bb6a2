package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"StockDash/internal/checkpoint"
	"StockDash/internal/collector"
	"StockDash/internal/model"
	"StockDash/internal/recorder"
	"StockDash/internal/series"
)

const (
	DefaultBatchSize  = 2
	DefaultBatchDelay = 8 * time.Second

	globalsPass = "globals"
)

// ArtifactStore persists fetched artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, a *model.Artifact) error
	Exists(c model.Category, ticker string) bool
	LoadSeries(ticker string) (model.PriceSeries, error)
}

// Orchestrator drives resumable multi-pass ingestion over a ticker universe.
type Orchestrator struct {
	Passes     []Pass
	Globals    []collector.Fetcher
	Store      ArtifactStore
	Checkpoint checkpoint.Store
	Recorder   recorder.Recorder

	BatchSize  int
	BatchDelay time.Duration
	Sleep      collector.SleepFunc
}

// New creates an Orchestrator with default batching.
func New(passes []Pass, globals []collector.Fetcher, st ArtifactStore, cp checkpoint.Store) *Orchestrator {
	return &Orchestrator{
		Passes:     passes,
		Globals:    globals,
		Store:      st,
		Checkpoint: cp,
		Recorder:   recorder.NewNoopRecorder(),
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		Sleep:      collector.Sleep,
	}
}

// Run processes every pass over u, resuming from the stored checkpoint,
// then fetches the global categories and clears the checkpoint.
// On cancellation the checkpoint is left as last saved and ctx.Err() is returned.
func (o *Orchestrator) Run(ctx context.Context, u model.Universe) (*model.RunReport, error) {
	if len(o.Passes) == 0 {
		return nil, errors.New("no passes configured")
	}
	cp := o.Checkpoint.Load(ctx)
	rep := model.NewRunReport(len(u), cp)
	o.record(rep, nil)

	first, start := o.resumePoint(cp, len(u))
	if !cp.IsZero() {
		log.Printf("[INFO] resuming run %s at pass %s, index %d/%d", rep.ID, o.Passes[first].Name, start, len(u))
	} else {
		log.Printf("[INFO] starting run %s over %d tickers", rep.ID, len(u))
	}

	for i := first; i < len(o.Passes); i++ {
		from := 0
		if i == first {
			from = start
		}
		pr, err := o.runPass(ctx, o.Passes[i], u, from)
		rep.Passes = append(rep.Passes, pr)
		if err != nil {
			return o.finish(rep, err)
		}
	}

	rep.Globals = o.runGlobals(ctx)
	if err := ctx.Err(); err != nil {
		return o.finish(rep, err)
	}
	if err := o.Checkpoint.Clear(ctx); err != nil {
		return o.finish(rep, fmt.Errorf("clear checkpoint: %w", err))
	}
	return o.finish(rep, nil)
}

// resumePoint maps a checkpoint to a pass position and start index.
func (o *Orchestrator) resumePoint(cp model.Checkpoint, n int) (int, int) {
	pass := 0
	if cp.Pass != "" {
		found := false
		for i, p := range o.Passes {
			if p.Name == cp.Pass {
				pass, found = i, true
				break
			}
		}
		if !found {
			log.Printf("[WARN] discarding checkpoint %s/%d: pass %q is not selected for this run (passes %v); starting %s at index 0",
				cp.Pass, cp.Index, cp.Pass, o.passNames(), o.Passes[0].Name)
			return 0, 0
		}
	}
	idx := cp.Index
	if idx > n {
		idx = n
	}
	if idx < 0 {
		idx = 0
	}
	return pass, idx
}

func (o *Orchestrator) passNames() []string {
	names := make([]string, len(o.Passes))
	for i, p := range o.Passes {
		names[i] = p.Name
	}
	return names
}

func (o *Orchestrator) runPass(ctx context.Context, p Pass, u model.Universe, start int) (model.PassReport, error) {
	pr := model.PassReport{Name: p.Name, StartIndex: start}
	if err := o.save(ctx, model.Checkpoint{Pass: p.Name, Index: start}); err != nil {
		return pr, err
	}

	batches := Batches(u, start, o.BatchSize)
	log.Printf("[INFO] pass %s: %d tickers from index %d in %d batches", p.Name, len(u)-start, start, len(batches))

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return pr, err
		}
		br := o.runBatch(ctx, p, b)
		pr.Batches = append(pr.Batches, br)

		// an interrupted batch is not marked complete
		if err := ctx.Err(); err != nil {
			return pr, err
		}
		if p.Checkpointed {
			if err := o.save(ctx, model.Checkpoint{Pass: p.Name, Index: b.End()}); err != nil {
				return pr, err
			}
		}
		failed := br.FailedTickers()
		log.Printf("[INFO] pass %s: batch %d/%d done (%d/%d), %d ok, %d failed %v",
			p.Name, i+1, len(batches), b.End(), len(u), len(b.Tickers)-len(failed), len(failed), failed)

		if i < len(batches)-1 {
			if err := o.sleep(ctx, o.BatchDelay); err != nil {
				return pr, err
			}
		}
	}

	failed := pr.FailedTickers()
	log.Printf("[INFO] pass %s complete: %d ok, %d failed", p.Name, len(pr.Tickers())-len(failed), len(failed))
	return pr, nil
}

// runBatch runs one goroutine per ticker; each ticker runs the pass's
// fetchers in order and continues past a failed category.
func (o *Orchestrator) runBatch(ctx context.Context, p Pass, b Batch) model.BatchReport {
	results := make([][]model.Outcome, len(b.Tickers))
	var wg sync.WaitGroup
	for i, ticker := range b.Tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			for _, f := range p.Fetchers {
				if ctx.Err() != nil {
					return
				}
				results[i] = append(results[i], o.runUnit(ctx, p.Name, f, ticker))
			}
		}(i, ticker)
	}
	wg.Wait()

	br := model.BatchReport{Pass: p.Name, Start: b.Start, Tickers: b.Tickers}
	for _, r := range results {
		br.Outcomes = append(br.Outcomes, r...)
	}
	return br
}

func (o *Orchestrator) runGlobals(ctx context.Context) []model.Outcome {
	var out []model.Outcome
	for _, f := range o.Globals {
		if ctx.Err() != nil {
			break
		}
		res := o.runUnit(ctx, globalsPass, f, "")
		if res.OK() {
			log.Printf("[INFO] global %s saved", f.Category())
		}
		out = append(out, res)
	}
	return out
}

// runUnit fetches and persists one (ticker, category) artifact.
func (o *Orchestrator) runUnit(ctx context.Context, pass string, f collector.Fetcher, ticker string) (out model.Outcome) {
	c := f.Category()
	started := time.Now()
	out = model.Outcome{Pass: pass, Ticker: ticker, Category: c}
	defer func() { out.Duration = time.Since(started) }()

	if c.SkipIfExists() && o.Store.Exists(c, ticker) {
		out.Skipped = true
		return out
	}

	a, err := f.Fetch(ctx, ticker)
	if err != nil {
		out.Err = err
		log.Printf("[WARN] %s %s: %v", c, ticker, err)
		return out
	}
	if c == model.CategoryChart {
		o.mergeSeries(a)
	}
	if err := o.Store.Save(ctx, a); err != nil {
		out.Err = fmt.Errorf("save: %w", err)
		log.Printf("[ERROR] %s %s: %v", c, ticker, out.Err)
	}
	return out
}

// mergeSeries folds the stored series into a freshly fetched chart artifact.
func (o *Orchestrator) mergeSeries(a *model.Artifact) {
	incoming, ok := a.Payload.(model.PriceSeries)
	if !ok {
		return
	}
	existing, err := o.Store.LoadSeries(a.Ticker)
	if err != nil {
		log.Printf("[WARN] chart %s: unreadable stored series, replacing: %v", a.Ticker, err)
		existing = nil
	}
	a.Payload = series.Merge(existing, incoming)
}

func (o *Orchestrator) save(ctx context.Context, cp model.Checkpoint) error {
	if err := o.Checkpoint.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint %s/%d: %w", cp.Pass, cp.Index, err)
	}
	return nil
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep == nil {
		return collector.Sleep(ctx, d)
	}
	return o.Sleep(ctx, d)
}

func (o *Orchestrator) finish(rep *model.RunReport, err error) (*model.RunReport, error) {
	rep.FinishedAt = time.Now()
	if err != nil {
		rep.Status = model.RunAborted
		log.Printf("[ERROR] run %s aborted after %s: %v", rep.ID, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second), err)
	} else {
		rep.Status = model.RunCompleted
		log.Printf("[INFO] run %s complete in %s: %d/%d tickers ok, %d failed, %d global failures",
			rep.ID, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second),
			rep.Succeeded(), rep.Processed(), len(rep.FailedTickers()), rep.FailedGlobals())
	}
	o.record(rep, err)
	return rep, err
}

func (o *Orchestrator) record(rep *model.RunReport, err error) {
	if o.Recorder == nil {
		return
	}
	if rerr := o.Recorder.RecordRun(rep, err); rerr != nil {
		log.Printf("[WARN] record run %s: %v", rep.ID, rerr)
	}
}
