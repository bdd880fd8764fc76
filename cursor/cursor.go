// Package cursor provides durable persistence of stream positions,
// allowing consumption to resume where it left off.
package cursor

import (
	"context"

	"github.com/hedeqiang/anchor/position"
)

// Store persists the last committed position for each stream key.
//
// Load returns (nil, nil) when no position has been saved for the key.
// A Save that returns nil must be durably visible to a subsequent Load,
// even across a crash; a Save that fails must leave the previously
// stored value intact. The checkpoint engine is the only writer for a
// given key and issues saves sequentially.
type Store interface {
	Load(ctx context.Context, key string) (position.Position, error)
	Save(ctx context.Context, key string, pos position.Position) error
}
