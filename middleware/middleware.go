// Package middleware provides interceptors for the committed-payload
// pipeline between the checkpoint engine and the sink.
package middleware

import (
	"github.com/hedeqiang/anchor/event"
)

// Handler processes a payload and returns a (possibly modified) payload.
// Returning a nil pointer signals that the payload should be dropped
// before it reaches the sink.
type Handler func(p event.Payload) *event.Payload

// Middleware wraps a Handler, adding cross-cutting behavior (logging, metrics, etc.).
type Middleware interface {
	// Wrap returns a new Handler that decorates the given inner handler.
	Wrap(next Handler) Handler
}

// Chain composes multiple middlewares into a single Handler, applying them
// in the order provided (first middleware is outermost).
func Chain(handler Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i].Wrap(handler)
	}
	return handler
}
