// Example: replay — backfill a SQLite sink from a bounded event set.
//
// Usage:
//
//	go run ./example/replay
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hedeqiang/anchor"
	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
	"github.com/hedeqiang/anchor/sink"
	"github.com/hedeqiang/anchor/stream"
)

func main() {
	ctx := context.Background()

	// Captured history: three blocks, the second with two transactions.
	events := []event.Event{
		event.Data(event.Payload{Key: "a", Data: []byte("alpha")}, position.Sequence{Height: 1}),
		event.Data(event.Payload{Key: "b", Data: []byte("bravo")}, position.Sequence{Height: 2, Ordinal: 0}),
		event.Data(event.Payload{Key: "c", Data: []byte("charlie")}, position.Sequence{Height: 2, Ordinal: 1}),
		event.Data(event.Payload{Key: "d", Data: []byte("delta")}, position.Sequence{Height: 3}),
	}

	store, err := cursor.NewSQLite("./replay.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	snk, err := sink.NewSQLite("./replay.db")
	if err != nil {
		log.Fatal(err)
	}
	defer snk.Close()

	c := anchor.New(
		anchor.WithSource(stream.NewReplay(events...)),
		anchor.WithCursor(store),
		anchor.WithSink(snk),
		anchor.WithPolicy(checkpoint.EveryN(2)),
		anchor.WithFinalCommit(true),
	)

	// Rerunning this program resumes past the stored cursor: already
	// backfilled events are skipped.
	if err := c.Consume(ctx, "backfill", stream.Query{Origin: stream.OriginEarliest}); err != nil {
		log.Fatal(err)
	}
	done, _ := c.Done("backfill")
	<-done
	if err := c.Err("backfill"); err != nil {
		log.Fatal(err)
	}

	n, err := snk.Count(ctx)
	if err != nil {
		log.Fatal(err)
	}
	pos, _ := store.Load(ctx, "backfill")
	fmt.Printf("backfilled %d payloads, cursor at %s\n", n, pos.Encode())
}
