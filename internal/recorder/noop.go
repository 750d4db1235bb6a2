package recorder

import "StockDash/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.RunReport, _ error) error { return nil }
func (n *NoopRecorder) LastRun() (*RunSummary, error)               { return nil, nil }
func (n *NoopRecorder) Close() error                                { return nil }
