// Package sink defines where committed payloads land.
package sink

import (
	"context"

	"github.com/hedeqiang/anchor/event"
)

// Sink receives committed payloads. Apply must be idempotent under
// re-application: after a crash between sink write and cursor save, the
// same payloads are redelivered and applied again, identified by
// Payload.Key. A keyed upsert satisfies this.
type Sink interface {
	Apply(ctx context.Context, p event.Payload) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, p event.Payload) error

// Apply invokes the function.
func (f Func) Apply(ctx context.Context, p event.Payload) error {
	return f(ctx, p)
}
