package stream

import (
	"context"
	"sync"

	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
)

// Channel is an in-process Source and Stream fed through a Go channel.
// Useful for tests and for bridging events produced elsewhere in the
// same process.
type Channel struct {
	ch   chan event.Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	marked position.Position
	from   position.Position
}

// NewChannel creates a channel stream with the given buffer size.
func NewChannel(bufSize int) *Channel {
	if bufSize <= 0 {
		bufSize = 128
	}
	return &Channel{
		ch:   make(chan event.Event, bufSize),
		done: make(chan struct{}),
	}
}

// Subscribe returns the channel itself as the live stream, recording
// the requested resume position.
func (c *Channel) Subscribe(_ context.Context, _ Query, from position.Position) (Stream, error) {
	c.mu.Lock()
	c.from = from
	c.mu.Unlock()
	return c, nil
}

// Events returns the inbound event channel.
func (c *Channel) Events() <-chan event.Event {
	return c.ch
}

// Push delivers an event to the consumer. No-op once closed.
func (c *Channel) Push(ev event.Event) {
	select {
	case <-c.done:
	case c.ch <- ev:
	}
}

// Complete delivers a completion marker and ends the stream.
func (c *Channel) Complete() {
	c.Push(event.Complete())
	c.end()
}

// Fail delivers an error event. A terminal failure ends the stream.
func (c *Channel) Fail(err error, terminal bool) {
	c.Push(event.Errorf(&TransportError{Err: err, Terminal: terminal}, terminal))
	if terminal {
		c.end()
	}
}

// Mark records the resume position.
func (c *Channel) Mark(pos position.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marked = pos
	return nil
}

// Marked returns the most recently marked position, nil if none.
func (c *Channel) Marked() position.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.marked
}

// ResumedFrom returns the position passed to Subscribe.
func (c *Channel) ResumedFrom() position.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.from
}

// Close ends the stream.
func (c *Channel) Close() error {
	c.end()
	return nil
}

func (c *Channel) end() {
	c.once.Do(func() {
		close(c.done)
		close(c.ch)
	})
}
