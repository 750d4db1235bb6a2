package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"StockDash/internal/model"
)

// Store persists the single resumable progress record of a run.
type Store interface {
	// Load returns the saved checkpoint. A missing or unreadable record
	// yields the zero checkpoint.
	Load(ctx context.Context) model.Checkpoint
	Save(ctx context.Context, cp model.Checkpoint) error
	// Clear removes the record. Clearing an absent record is not an error.
	Clear(ctx context.Context) error
}

// decode parses a stored record. A legacy record without "pass" decodes
// with an empty Pass, which resumes the first pass.
func decode(data []byte) (model.Checkpoint, error) {
	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return model.Checkpoint{}, err
	}
	if cp.Index < 0 {
		return model.Checkpoint{}, fmt.Errorf("negative index %d", cp.Index)
	}
	return cp, nil
}
