package sink

import (
	"context"
	"sync"

	"github.com/hedeqiang/anchor/event"
)

// Broadcast fans a committed payload out to multiple sinks. Apply stops
// at the first failing sink so the commit is retried as a whole; each
// member must therefore be idempotent, same as any other sink.
type Broadcast struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewBroadcast creates a broadcast sink over the given members.
func NewBroadcast(sinks ...Sink) *Broadcast {
	return &Broadcast{sinks: sinks}
}

// Add registers another member sink.
func (b *Broadcast) Add(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Apply delivers the payload to every member in registration order.
func (b *Broadcast) Apply(ctx context.Context, p event.Payload) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.sinks {
		if err := s.Apply(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of member sinks.
func (b *Broadcast) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks)
}
