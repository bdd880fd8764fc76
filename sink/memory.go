package sink

import (
	"context"
	"sync"

	"github.com/hedeqiang/anchor/event"
)

// Memory is a keyed in-memory Sink. Re-applying a payload with a key
// that is already present overwrites it in place, so replay after a
// reconnect leaves the sink state unchanged.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	order   []string // first-seen key order
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string][]byte),
	}
}

// Apply stores the payload under its key.
func (m *Memory) Apply(_ context.Context, p event.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, seen := m.entries[p.Key]; !seen {
		m.order = append(m.order, p.Key)
	}
	m.entries[p.Key] = append([]byte(nil), p.Data...)
	return nil
}

// Get returns the payload stored under key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.entries[key]
	return b, ok
}

// Keys returns all stored keys in first-application order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of distinct payloads applied.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
