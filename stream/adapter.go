package stream

import (
	"context"
	"sync"

	"github.com/hedeqiang/anchor/checkpoint"
)

// Adapter drives a checkpoint engine from a stream. It owns the consume
// loop: events are read from the stream and handed to the engine one at
// a time on a single goroutine, so a commit always finishes before the
// next event is processed.
type Adapter struct {
	engine *checkpoint.Engine
	stream Stream

	mu      sync.Mutex
	onError func(error)
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewAdapter creates an adapter binding the engine to the stream.
func NewAdapter(engine *checkpoint.Engine, s Stream) *Adapter {
	return &Adapter{
		engine:  engine,
		stream:  s,
		stopped: make(chan struct{}),
	}
}

// OnError registers a callback for surfaced non-fatal errors, such as a
// blocked commit awaiting retry. Must be called before Run.
func (a *Adapter) OnError(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onError = fn
}

// Run consumes the stream until it ends, a fatal engine error occurs,
// or Stop is called. Returns nil on clean completion or stop.
func (a *Adapter) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	defer close(a.stopped)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			// Graceful drain: flush what the engine has observed, then
			// release the transport. Anything not flushed is redelivered
			// on the next start from the last persisted position.
			if !a.engine.Stopped() {
				if err := a.engine.Flush(context.WithoutCancel(ctx)); err != nil {
					a.emitError(err)
				}
			}
			return nil
		case ev, ok := <-a.stream.Events():
			if !ok {
				return nil
			}
			if err := a.engine.Handle(ctx, ev); err != nil {
				if a.engine.Stopped() {
					return err
				}
				a.emitError(err)
			}
		}
	}
}

// Stop cancels the consume loop and waits for it to finish, allowing an
// in-flight commit to complete. The context bounds the wait: on
// deadline, shutdown proceeds regardless and uncommitted pending
// payloads are discarded (they will be redelivered on the next start).
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel == nil {
		// Never ran; still release the subscription.
		return a.stream.Close()
	}
	cancel()

	select {
	case <-a.stopped:
		return a.stream.Close()
	case <-ctx.Done():
		a.stream.Close()
		return ctx.Err()
	}
}

func (a *Adapter) emitError(err error) {
	a.mu.Lock()
	fn := a.onError
	a.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
