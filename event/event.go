// Package event defines the normalized notifications a stream source
// delivers to the checkpoint engine.
package event

import (
	"github.com/hedeqiang/anchor/position"
)

// Kind enumerates the notification variants.
type Kind int

const (
	// KindData carries a domain payload and the position it occurred at.
	KindData Kind = iota

	// KindProgress asserts that everything at or before Position has been
	// observed; it carries no payload.
	KindProgress

	// KindReconnect signals that the transport has reconnected and will
	// redeliver from the last marked position. It is delivered in-band,
	// strictly before the first redelivered event.
	KindReconnect

	// KindError reports a transport error. Terminal errors end the stream.
	KindError

	// KindComplete signals that a bounded source has no more data.
	KindComplete
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindProgress:
		return "progress"
	case KindReconnect:
		return "reconnect"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Payload is the domain content of a data event. Key identifies the
// payload for idempotent re-application; sinks treat applying the same
// Key twice as applying it once.
type Payload struct {
	Key  string
	Data []byte
}

// Event is the tagged variant passed from a stream source to the engine.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind       Kind
	Payload    Payload           // KindData
	Position   position.Position // KindData, KindProgress
	EndOfBlock bool              // KindData: last payload within its block
	Err        error             // KindError
	Terminal   bool              // KindError: the stream will not recover
}

// Data builds a data event.
func Data(p Payload, pos position.Position) Event {
	return Event{Kind: KindData, Payload: p, Position: pos}
}

// Progress builds a progress event.
func Progress(pos position.Position) Event {
	return Event{Kind: KindProgress, Position: pos}
}

// Reconnect builds a reconnect marker.
func Reconnect() Event {
	return Event{Kind: KindReconnect}
}

// Errorf builds an error event.
func Errorf(err error, terminal bool) Event {
	return Event{Kind: KindError, Err: err, Terminal: terminal}
}

// Complete builds a completion marker.
func Complete() Event {
	return Event{Kind: KindComplete}
}
