package collector

import (
	"context"
	"errors"

	"StockDash/internal/model"
)

var (
	// ErrEmptyPayload means the upstream answered with no usable data.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrUnexpectedShape means the payload did not have the expected structure.
	ErrUnexpectedShape = errors.New("unexpected payload shape")
)

// Fetcher maps a ticker to one upstream request and one normalized artifact.
// Global categories ignore the ticker.
type Fetcher interface {
	Category() model.Category
	Fetch(ctx context.Context, ticker string) (*model.Artifact, error)
}

// Source is the subset of Client used by fetchers.
type Source interface {
	FetchJSON(ctx context.Context, rawURL string) (any, error)
	FetchBinary(ctx context.Context, rawURL string) ([]byte, error)
}
