package anchor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/middleware"
	"github.com/hedeqiang/anchor/position"
	"github.com/hedeqiang/anchor/sink"
	"github.com/hedeqiang/anchor/stream"
)

func waitDone(t *testing.T, c *Consumer, key string) {
	t.Helper()
	done, err := c.Done(key)
	if err != nil {
		t.Fatalf("Done(%q) error = %v", key, err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("stream %q did not finish", key)
	}
}

func TestConsumeToCompletion(t *testing.T) {
	ctx := context.Background()
	store := cursor.NewMemory()
	snk := sink.NewMemory()
	src := stream.NewReplay(
		event.Data(event.Payload{Key: "T1", Data: []byte("one")}, position.Sequence{Height: 5}),
		event.Data(event.Payload{Key: "T2", Data: []byte("two")}, position.Sequence{Height: 6}),
	)

	c := New(
		WithSource(src),
		WithCursor(store),
		WithSink(snk),
		WithPolicy(checkpoint.EveryEvent()),
	)

	if err := c.Consume(ctx, "transfers", stream.Query{Origin: stream.OriginEarliest}); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	waitDone(t, c, "transfers")

	if err := c.Err("transfers"); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	keys := snk.Keys()
	if len(keys) != 2 || keys[0] != "T1" || keys[1] != "T2" {
		t.Fatalf("sink keys = %v, want [T1 T2]", keys)
	}
	saved, _ := store.Load(ctx, "transfers")
	if saved != (position.Sequence{Height: 6}) {
		t.Errorf("stored position = %v, want height 6", saved)
	}
}

func TestConsumeResumesFromStoredPosition(t *testing.T) {
	ctx := context.Background()
	store := cursor.NewMemory()
	snk := sink.NewMemory()
	store.Save(ctx, "s", position.Sequence{Height: 5})

	src := stream.NewReplay(
		event.Data(event.Payload{Key: "old"}, position.Sequence{Height: 5}),
		event.Data(event.Payload{Key: "new"}, position.Sequence{Height: 6}),
	)

	c := New(WithSource(src), WithCursor(store), WithSink(snk))
	if err := c.Consume(ctx, "s", stream.Query{}); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	waitDone(t, c, "s")

	keys := snk.Keys()
	if len(keys) != 1 || keys[0] != "new" {
		t.Errorf("sink keys = %v, want only the event past the cursor", keys)
	}
}

func TestConsumeValidation(t *testing.T) {
	ctx := context.Background()

	c := New(WithSink(sink.NewMemory()))
	if err := c.Consume(ctx, "k", stream.Query{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("Consume() without source error = %v, want ErrNoSource", err)
	}

	c = New(WithSource(stream.NewReplay()))
	if err := c.Consume(ctx, "k", stream.Query{}); !errors.Is(err, ErrNoSink) {
		t.Errorf("Consume() without sink error = %v, want ErrNoSink", err)
	}
}

func TestConsumeDuplicateKey(t *testing.T) {
	ctx := context.Background()
	ch := stream.NewChannel(4)
	c := New(WithSource(ch), WithSink(sink.NewMemory()))

	if err := c.Consume(ctx, "k", stream.Query{}); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	defer c.Shutdown(ctx)

	if err := c.Consume(ctx, "k", stream.Query{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Consume() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestShutdownRejectsNewStreams(t *testing.T) {
	ctx := context.Background()
	c := New(WithSource(stream.NewReplay()), WithSink(sink.NewMemory()))

	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := c.Consume(ctx, "k", stream.Query{}); !errors.Is(err, ErrShutdown) {
		t.Errorf("Consume() after shutdown error = %v, want ErrShutdown", err)
	}
}

func TestMiddlewareDropsBeforeSink(t *testing.T) {
	ctx := context.Background()
	snk := sink.NewMemory()
	metrics := middleware.NewMetrics()
	src := stream.NewReplay(
		event.Data(event.Payload{Key: "keep", Data: []byte("k")}, position.Sequence{Height: 1}),
		event.Data(event.Payload{Key: "drop", Data: []byte("d")}, position.Sequence{Height: 2}),
	)

	c := New(
		WithSource(src),
		WithSink(snk),
		WithMiddleware(metrics, dropKey("drop")),
	)
	if err := c.Consume(ctx, "s", stream.Query{Origin: stream.OriginEarliest}); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	waitDone(t, c, "s")

	if snk.Len() != 1 {
		t.Errorf("sink has %d payloads, want 1", snk.Len())
	}
	if metrics.Processed() != 1 || metrics.Dropped() != 1 {
		t.Errorf("metrics = %d processed, %d dropped, want 1 and 1",
			metrics.Processed(), metrics.Dropped())
	}
}

type dropKey string

func (d dropKey) Wrap(next middleware.Handler) middleware.Handler {
	return func(p event.Payload) *event.Payload {
		if p.Key == string(d) {
			return nil
		}
		return next(p)
	}
}
