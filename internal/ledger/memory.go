package ledger

import (
	"context"
	"sync"
)

// Memory is a process-local Store.
type Memory struct {
	mu    sync.RWMutex
	set   Set
	saves int
}

// NewMemory returns a store seeded with a copy of seed, which may be nil.
func NewMemory(seed Set) *Memory {
	if seed == nil {
		seed = NewSet()
	}
	return &Memory{set: seed.Clone()}
}

func (m *Memory) Load(ctx context.Context) (Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, s Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = s.Clone()
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

var _ Store = (*Memory)(nil)
