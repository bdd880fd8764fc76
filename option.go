package anchor

import (
	"log/slog"

	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/middleware"
	"github.com/hedeqiang/anchor/sink"
	"github.com/hedeqiang/anchor/stream"
)

// Option configures a Consumer.
type Option func(*Consumer)

// WithSource sets the stream source subscriptions are established on.
func WithSource(s stream.Source) Option {
	return func(c *Consumer) {
		c.source = s
	}
}

// WithCursor sets the store used to persist committed positions.
func WithCursor(s cursor.Store) Option {
	return func(c *Consumer) {
		c.store = s
	}
}

// WithSink sets where committed payloads are applied.
func WithSink(s sink.Sink) Option {
	return func(c *Consumer) {
		c.sink = s
	}
}

// WithPolicy sets the commit-trigger policy for data events.
func WithPolicy(p checkpoint.Policy) Option {
	return func(c *Consumer) {
		c.config.Policy = p
	}
}

// WithFinalCommit controls whether remaining buffered payloads are
// flushed when a bounded stream completes.
func WithFinalCommit(on bool) Option {
	return func(c *Consumer) {
		c.config.FinalCommit = on
	}
}

// WithMiddleware adds middleware to the committed-payload pipeline.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(c *Consumer) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = l
	}
}
