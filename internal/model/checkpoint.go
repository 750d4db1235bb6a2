package model

// Checkpoint marks resumable progress: every ticker before Index has
// completed the pass named Pass.
type Checkpoint struct {
	Pass  string `json:"pass,omitempty"`
	Index int    `json:"index"`
}

// IsZero reports whether the checkpoint carries no progress.
func (c Checkpoint) IsZero() bool {
	return c.Pass == "" && c.Index == 0
}
