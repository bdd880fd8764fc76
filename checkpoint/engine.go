// Package checkpoint implements the commit state machine for a
// resumable event stream: it buffers observed payloads, decides when to
// flush them to the sink, persists the corresponding position, and
// marks the transport's resume point.
//
// Delivery from the transport is at-least-once; the engine turns that
// into effectively-once sink state by never marking a position ahead of
// what the sink durably holds, and by relying on keyed, idempotent
// sink applies to absorb redelivery.
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
	"github.com/hedeqiang/anchor/sink"
)

// Marker is the engine's view of the transport's resume primitive:
// after a commit, Mark tells the transport where redelivery should
// start on the next reconnect.
type Marker interface {
	Mark(pos position.Position) error
}

// MarkerFunc adapts a function to the Marker interface.
type MarkerFunc func(pos position.Position) error

// Mark invokes the function.
func (f MarkerFunc) Mark(pos position.Position) error { return f(pos) }

// Config configures an Engine.
type Config struct {
	// Policy decides when data events trigger a commit.
	// Defaults to EveryEvent.
	Policy Policy

	// FinalCommit flushes any remaining buffered payloads when the
	// source completes.
	FinalCommit bool

	// Logger receives structured engine logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// Engine owns the checkpoint state for one stream. It is the sole
// caller of Store.Save and Marker.Mark for its key.
//
// Handle must be called from a single goroutine, one event at a time,
// in arrival order; the stream adapter guarantees this.
type Engine struct {
	key    string
	store  cursor.Store
	sink   sink.Sink
	marker Marker
	policy Policy
	final  bool
	logger *slog.Logger

	last     position.Position // last committed
	observed position.Position // highest position seen
	pending  buffer
	stopped  bool
}

// New creates an engine for the given stream key. The caller loads the
// starting position from the store and passes it as start; nil means no
// prior progress.
func New(key string, store cursor.Store, snk sink.Sink, marker Marker, start position.Position, cfg Config) *Engine {
	if cfg.Policy == nil {
		cfg.Policy = EveryEvent()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		key:      key,
		store:    store,
		sink:     snk,
		marker:   marker,
		policy:   cfg.Policy,
		final:    cfg.FinalCommit,
		logger:   cfg.Logger,
		last:     start,
		observed: start,
	}
}

// Handle dispatches one inbound event. It returns a non-nil error when
// the event could not be fully absorbed:
//
//   - *SinkWriteError: the in-flight commit is blocked; nothing
//     advanced, and the next trigger retries the identical commit. The
//     engine keeps accepting events.
//   - *CursorPersistError or a terminal stream error: fatal, the engine
//     stops accepting events (see Stopped).
func (e *Engine) Handle(ctx context.Context, ev event.Event) error {
	if e.stopped {
		return ErrStopped
	}

	switch ev.Kind {
	case event.KindData:
		return e.onData(ctx, ev)
	case event.KindProgress:
		return e.onProgress(ctx, ev)
	case event.KindReconnect:
		e.onReconnect()
		return nil
	case event.KindError:
		return e.onError(ev)
	case event.KindComplete:
		return e.onComplete(ctx)
	default:
		return fmt.Errorf("checkpoint: unknown event kind %d", ev.Kind)
	}
}

func (e *Engine) onData(ctx context.Context, ev event.Event) error {
	e.pending.append(ev.Payload)
	if position.After(ev.Position, e.observed) {
		e.observed = ev.Position
	}
	if e.policy.CommitAfter(e.pending.len(), ev) {
		return e.commit(ctx, ev.Position)
	}
	return nil
}

// onProgress commits unconditionally, buffer empty or not: a progress
// signal is the transport's assertion that everything at or before the
// position has been observed, and is what bounds staleness on
// low-traffic streams.
func (e *Engine) onProgress(ctx context.Context, ev event.Event) error {
	if position.After(ev.Position, e.observed) {
		e.observed = ev.Position
	}
	return e.commit(ctx, ev.Position)
}

// onReconnect clears the buffer. Redelivery after resume is inclusive
// of the marked position, so anything still pending (by definition not
// committed) arrives again; keeping it would duplicate it downstream.
// The observed watermark rewinds to the last commit for the same
// reason: positions seen only through dropped payloads must not be
// flushed ahead of the sink.
func (e *Engine) onReconnect() {
	if n := e.pending.len(); n > 0 {
		e.logger.Debug("flushing pending on reconnect", "key", e.key, "dropped", n)
	}
	e.pending.clear()
	e.observed = e.last
}

func (e *Engine) onError(ev event.Event) error {
	if !ev.Terminal {
		// The transport reconnects on its own; pending stays intact
		// until its reconnect notification arrives.
		e.logger.Warn("stream error, awaiting transport recovery", "key", e.key, "err", ev.Err)
		return nil
	}
	e.stopped = true
	return fmt.Errorf("checkpoint: terminal stream error: %w", ev.Err)
}

func (e *Engine) onComplete(ctx context.Context) error {
	var err error
	if e.final {
		err = e.Flush(ctx)
	}
	e.stopped = true
	return err
}

// Flush commits any outstanding progress at the highest observed
// position. No-op when nothing is buffered and the observed position is
// already committed.
func (e *Engine) Flush(ctx context.Context) error {
	if e.observed == nil {
		return nil
	}
	if e.pending.len() == 0 {
		// Tokens carry no ordering, so After alone cannot tell "same
		// position" from "ahead"; the encoding can.
		if e.last != nil && e.observed.Encode() == e.last.Encode() {
			return nil
		}
		if !position.After(e.observed, e.last) {
			return nil
		}
	}
	return e.commit(ctx, e.observed)
}

// commit is the durability boundary: drain the buffer into the sink in
// arrival order, persist the position, mark the transport, advance.
// A crash between sink writes and the position save redelivers the
// already-sunk payloads on the next start; the idempotent sink absorbs
// them.
func (e *Engine) commit(ctx context.Context, pos position.Position) error {
	for _, p := range e.pending.items {
		if err := e.sink.Apply(ctx, p); err != nil {
			// Nothing advanced; the whole commit is retried on the
			// next trigger with the same idempotent effect.
			return &SinkWriteError{Key: p.Key, Err: err}
		}
	}
	flushed := e.pending.len()
	e.pending.clear()

	if err := e.store.Save(ctx, e.key, pos); err != nil {
		e.stopped = true
		return &CursorPersistError{Key: e.key, Err: err}
	}

	if e.marker != nil {
		if err := e.marker.Mark(pos); err != nil {
			// A failed mark only widens redelivery after the next
			// reconnect; the persisted cursor is already correct.
			e.logger.Warn("mark failed", "key", e.key, "position", pos.Encode(), "err", err)
		}
	}

	e.last = pos
	e.logger.Debug("committed", "key", e.key, "position", pos.Encode(), "flushed", flushed)
	return nil
}

// LastCommitted returns the last committed position, nil if none.
func (e *Engine) LastCommitted() position.Position {
	return e.last
}

// PendingLen returns the number of buffered, uncommitted payloads.
func (e *Engine) PendingLen() int {
	return e.pending.len()
}

// Stopped reports whether the engine has stopped accepting events,
// either after completion or after a fatal error.
func (e *Engine) Stopped() bool {
	return e.stopped
}
