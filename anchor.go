// Package anchor provides checkpointed, reconnect-safe consumption of
// ordered event streams.
//
// Anchor — never lose your place in the stream.
//
// A long-lived subscription over an unreliable transport disconnects
// and reconnects; on resume, the transport redelivers from the last
// acknowledged position, inclusive. Anchor turns that at-least-once
// delivery into effectively-once sink state: payloads are buffered,
// flushed to an idempotent sink, the position is persisted, and only
// then is the transport told where to resume.
//
// Usage:
//
//	c := anchor.New(
//	    anchor.WithSource(transport.NewWebSocket(url, transport.DefaultConfig())),
//	    anchor.WithCursor(cursor.NewFile("anchor.cursor")),
//	    anchor.WithSink(db),
//	    anchor.WithPolicy(checkpoint.AtBlockBoundary()),
//	)
//
//	c.Consume(ctx, "transfers", stream.Query{Expression: "actions(transfer)"})
package anchor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/middleware"
	"github.com/hedeqiang/anchor/sink"
	"github.com/hedeqiang/anchor/stream"
)

// Consumer is the main SDK entry point: it ties a stream source, a
// cursor store, and a sink together under one checkpoint engine per
// stream key.
type Consumer struct {
	source      stream.Source
	store       cursor.Store
	sink        sink.Sink
	middlewares []middleware.Middleware
	config      Config
	logger      *slog.Logger

	mu       sync.Mutex
	runs     map[string]*run
	shutdown bool
}

type run struct {
	adapter *stream.Adapter
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// New creates a Consumer with the given options.
func New(opts ...Option) *Consumer {
	c := &Consumer{
		store:  cursor.NewMemory(),
		config: DefaultConfig(),
		logger: slog.Default(),
		runs:   make(map[string]*run),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume begins consuming the stream selected by the query, committing
// progress under the given key. Exactly one checkpoint engine processes
// the stream's events, one at a time, in arrival order. This method
// launches a background goroutine and returns immediately.
func (c *Consumer) Consume(ctx context.Context, key string, q stream.Query) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return ErrShutdown
	}
	if _, exists := c.runs[key]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, key)
	}
	c.mu.Unlock()

	if c.source == nil {
		return ErrNoSource
	}
	if c.sink == nil {
		return ErrNoSink
	}

	from, err := c.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("anchor: load cursor for %q: %w", key, err)
	}

	strm, err := c.source.Subscribe(ctx, q, from)
	if err != nil {
		return fmt.Errorf("anchor: subscribe %q: %w", key, err)
	}

	engine := checkpoint.New(key, c.store, c.buildSink(), strm, from, checkpoint.Config{
		Policy:      c.config.Policy,
		FinalCommit: c.config.FinalCommit,
		Logger:      c.logger,
	})

	adapter := stream.NewAdapter(engine, strm)
	r := &run{adapter: adapter, done: make(chan struct{})}
	adapter.OnError(func(err error) {
		c.logger.Error("stream error", "key", key, "err", err)
	})

	c.mu.Lock()
	if _, exists := c.runs[key]; exists {
		c.mu.Unlock()
		strm.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, key)
	}
	c.runs[key] = r
	c.mu.Unlock()

	go func() {
		defer close(r.done)
		if err := adapter.Run(ctx); err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			c.logger.Error("stream stopped", "key", key, "err", err)
		}
	}()

	return nil
}

// Done returns a channel closed when the stream for key stops, whether
// by completion, fatal error, or Stop.
func (c *Consumer) Done(key string) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.runs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRunning, key)
	}
	return r.done, nil
}

// Err returns the fatal error the stream for key stopped with, if any.
func (c *Consumer) Err(key string) error {
	c.mu.Lock()
	r, ok := c.runs[key]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stop gracefully stops the stream for key, letting an in-flight commit
// finish. The context bounds the wait.
func (c *Consumer) Stop(ctx context.Context, key string) error {
	c.mu.Lock()
	r, ok := c.runs[key]
	if ok {
		delete(c.runs, key)
	}
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, key)
	}
	return r.adapter.Stop(ctx)
}

// Shutdown gracefully stops all streams. After Shutdown the Consumer
// accepts no new streams.
func (c *Consumer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.shutdown = true
	runs := make(map[string]*run, len(c.runs))
	for k, v := range c.runs {
		runs[k] = v
	}
	c.runs = make(map[string]*run)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, r := range runs {
			r.adapter.Stop(ctx)
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Use appends middleware to the committed-payload pipeline.
// Must be called before Consume.
func (c *Consumer) Use(mw ...middleware.Middleware) {
	c.middlewares = append(c.middlewares, mw...)
}

// buildSink wraps the configured sink in the middleware pipeline. The
// engine calls Apply from a single goroutine per key, but sinks may be
// shared across keys, so the pipeline carries no per-call state beyond
// the holder owned by this closure chain.
func (c *Consumer) buildSink() sink.Sink {
	if len(c.middlewares) == 0 {
		return c.sink
	}
	p := &pipeline{base: c.sink}
	p.handler = middleware.Chain(p.terminal, c.middlewares...)
	return p
}

// pipeline adapts the middleware chain to the Sink interface.
type pipeline struct {
	base    sink.Sink
	handler middleware.Handler

	mu  sync.Mutex
	ctx context.Context
	err error
}

func (p *pipeline) terminal(pl event.Payload) *event.Payload {
	if err := p.base.Apply(p.ctx, pl); err != nil {
		p.err = err
		return nil
	}
	return &pl
}

// Apply runs the payload through the middleware chain; the terminal
// handler performs the real sink write. A payload dropped by middleware
// is not an error: it simply never reaches the sink.
func (p *pipeline) Apply(ctx context.Context, pl event.Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx, p.err = ctx, nil
	p.handler(pl)
	return p.err
}
