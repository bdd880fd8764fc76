package stream

import (
	"context"
	"sync"

	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
)

// Replay is a bounded Source over a fixed, already-ordered set of
// events. Unlike a live subscription it runs once and completes,
// which is useful for backfilling a sink from captured history.
type Replay struct {
	events []event.Event
}

// NewReplay creates a replay source over the given events. The slice
// must already be in stream order.
func NewReplay(events ...event.Event) *Replay {
	return &Replay{events: events}
}

// Subscribe streams the recorded events whose position lies after from,
// then completes. With a nil from, OriginEarliest replays everything
// and OriginLatest completes immediately.
func (r *Replay) Subscribe(ctx context.Context, q Query, from position.Position) (Stream, error) {
	rs := &replayStream{
		ch:   make(chan event.Event, 64),
		done: make(chan struct{}),
	}

	start := from
	if start == nil && q.Origin == OriginLatest {
		// Nothing stored and the caller wants the tip: a bounded
		// source has no future events to deliver.
		go func() {
			defer close(rs.ch)
			select {
			case rs.ch <- event.Complete():
			case <-ctx.Done():
			case <-rs.done:
			}
		}()
		return rs, nil
	}

	go func() {
		defer close(rs.ch)
		for _, ev := range r.events {
			if ev.Kind == event.KindData || ev.Kind == event.KindProgress {
				if start != nil && !position.After(ev.Position, start) {
					continue
				}
			}
			select {
			case rs.ch <- ev:
			case <-ctx.Done():
				return
			case <-rs.done:
				return
			}
		}
		select {
		case rs.ch <- event.Complete():
		case <-ctx.Done():
		case <-rs.done:
		}
	}()
	return rs, nil
}

type replayStream struct {
	ch   chan event.Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	marked position.Position
}

func (s *replayStream) Events() <-chan event.Event {
	return s.ch
}

func (s *replayStream) Mark(pos position.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = pos
	return nil
}

func (s *replayStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
