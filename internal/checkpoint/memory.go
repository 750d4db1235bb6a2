package checkpoint

import (
	"context"
	"sync"

	"StockDash/internal/model"
)

// MemoryStore is an in-process Store. It records every saved value.
type MemoryStore struct {
	mu      sync.Mutex
	cp      model.Checkpoint
	set     bool
	History []model.Checkpoint
	SaveErr error
}

func (m *MemoryStore) Load(ctx context.Context) model.Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return model.Checkpoint{}
	}
	return m.cp
}

func (m *MemoryStore) Save(ctx context.Context, cp model.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.cp, m.set = cp, true
	m.History = append(m.History, cp)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cp, m.set = model.Checkpoint{}, false
	return nil
}

// Present reports whether a checkpoint is currently stored.
func (m *MemoryStore) Present() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}
