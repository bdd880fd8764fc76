package cursor

import (
	"context"
	"sync"

	"github.com/hedeqiang/anchor/position"
)

// Memory is an in-memory Store implementation.
// Suitable for development and testing; data is lost on restart.
type Memory struct {
	mu        sync.RWMutex
	positions map[string]position.Position
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		positions: make(map[string]position.Position),
	}
}

// Load returns the last saved position for the key, or nil if none exists.
func (m *Memory) Load(_ context.Context, key string) (position.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[key], nil
}

// Save stores the position for the key.
func (m *Memory) Save(_ context.Context, key string, pos position.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[key] = pos
	return nil
}
