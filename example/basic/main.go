// Example: basic — consume an in-process stream with commit-on-every-event.
//
// Usage:
//
//	go run ./example/basic
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hedeqiang/anchor"
	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	mw "github.com/hedeqiang/anchor/middleware"
	"github.com/hedeqiang/anchor/position"
	"github.com/hedeqiang/anchor/sink"
	"github.com/hedeqiang/anchor/stream"
)

func main() {
	ctx := context.Background()

	// 1. An in-process channel stands in for a real transport.
	ch := stream.NewChannel(16)

	// 2. Create the consumer: file cursor, in-memory sink.
	snk := sink.NewMemory()
	c := anchor.New(
		anchor.WithSource(ch),
		anchor.WithCursor(cursor.NewFile("./progress_basic.json")),
		anchor.WithSink(snk),
		anchor.WithPolicy(checkpoint.EveryEvent()),
		anchor.WithMiddleware(mw.NewLogger(nil)),
	)

	// 3. Start consuming.
	if err := c.Consume(ctx, "demo", stream.Query{Origin: stream.OriginEarliest}); err != nil {
		log.Fatal(err)
	}

	// 4. Feed a few events, survive a reconnect, finish.
	ch.Push(event.Data(event.Payload{Key: "t1", Data: []byte("hello")}, position.Sequence{Height: 1}))
	ch.Push(event.Data(event.Payload{Key: "t2", Data: []byte("world")}, position.Sequence{Height: 2}))

	ch.Push(event.Reconnect())
	// Inclusive redelivery of t2: the keyed sink absorbs it.
	ch.Push(event.Data(event.Payload{Key: "t2", Data: []byte("world")}, position.Sequence{Height: 2}))
	ch.Push(event.Data(event.Payload{Key: "t3", Data: []byte("again")}, position.Sequence{Height: 3}))
	ch.Complete()

	done, err := c.Done("demo")
	if err != nil {
		log.Fatal(err)
	}
	<-done

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c.Shutdown(shutdownCtx)

	fmt.Printf("sink holds %d distinct payloads: %v\n", snk.Len(), snk.Keys())
}
