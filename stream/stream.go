// Package stream defines the boundary between a transport and the
// checkpoint engine: sources produce ordered, resumable event streams,
// and the adapter serializes their delivery into the engine.
package stream

import (
	"context"
	"fmt"

	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
)

// Origin selects where consumption starts when no position has been
// stored yet.
type Origin int

const (
	// OriginLatest starts at the tip of the stream.
	OriginLatest Origin = iota
	// OriginEarliest starts from the beginning of the stream.
	OriginEarliest
)

// Query selects which events a subscription delivers. The expression
// syntax belongs to the transport; this core passes it through opaquely.
type Query struct {
	Expression string
	Origin     Origin
}

// Source establishes subscriptions. from is the last committed
// position, nil when no progress exists (the query's Origin applies).
type Source interface {
	Subscribe(ctx context.Context, q Query, from position.Position) (Stream, error)
}

// Stream is one live subscription.
//
// Events delivers normalized notifications in arrival order and is
// closed once the stream ends (completion or terminal error). After a
// transport-level reconnect the stream must deliver a KindReconnect
// event strictly before the first redelivered event; redelivery resumes
// inclusively from the last marked position.
type Stream interface {
	Events() <-chan event.Event

	// Mark sets the position redelivery resumes from after the next
	// reconnect. Called only by the checkpoint engine, after a commit.
	Mark(pos position.Position) error

	Close() error
}

// TransportError wraps a transport failure. Non-terminal errors are
// expected to self-heal through the transport's own reconnect logic;
// terminal errors end the stream.
type TransportError struct {
	Err      error
	Terminal bool
}

func (e *TransportError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("stream: terminal transport error: %v", e.Err)
	}
	return fmt.Sprintf("stream: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
