package stream

import (
	"context"
	"testing"
	"time"

	"github.com/hedeqiang/anchor/checkpoint"
	"github.com/hedeqiang/anchor/cursor"
	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
	"github.com/hedeqiang/anchor/sink"
)

func collect(t *testing.T, s Stream) []event.Event {
	t.Helper()
	var out []event.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestReplayDeliversAllThenCompletes(t *testing.T) {
	r := NewReplay(data("A", 1), data("B", 2), data("C", 3))

	s, err := r.Subscribe(context.Background(), Query{Origin: OriginEarliest}, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	evs := collect(t, s)
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 3 data + complete", len(evs))
	}
	for i, key := range []string{"A", "B", "C"} {
		if evs[i].Kind != event.KindData || evs[i].Payload.Key != key {
			t.Errorf("event %d = %v %q, want data %q", i, evs[i].Kind, evs[i].Payload.Key, key)
		}
	}
	if evs[3].Kind != event.KindComplete {
		t.Errorf("last event = %v, want complete", evs[3].Kind)
	}
}

func TestReplaySkipsCommittedPrefix(t *testing.T) {
	r := NewReplay(data("A", 1), data("B", 2), data("C", 3))

	s, err := r.Subscribe(context.Background(), Query{}, position.Sequence{Height: 2})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	evs := collect(t, s)
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 1 data + complete", len(evs))
	}
	if evs[0].Payload.Key != "C" {
		t.Errorf("first event = %q, want C", evs[0].Payload.Key)
	}
}

func TestReplayLatestOriginCompletesImmediately(t *testing.T) {
	r := NewReplay(data("A", 1))

	s, err := r.Subscribe(context.Background(), Query{Origin: OriginLatest}, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	evs := collect(t, s)
	if len(evs) != 1 || evs[0].Kind != event.KindComplete {
		t.Fatalf("got %v, want a single complete event", evs)
	}
}

func TestReplayBackfillsSink(t *testing.T) {
	ctx := context.Background()
	store := cursor.NewMemory()
	snk := sink.NewMemory()

	r := NewReplay(data("A", 1), data("B", 2), data("C", 3))
	s, err := r.Subscribe(ctx, Query{Origin: OriginEarliest}, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	engine := checkpoint.New("backfill", store, snk, s, nil, checkpoint.Config{
		Policy:      checkpoint.OnProgressOnly(),
		FinalCommit: true,
	})
	if err := NewAdapter(engine, s).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if snk.Len() != 3 {
		t.Errorf("sink has %d payloads, want 3", snk.Len())
	}
	saved, _ := store.Load(ctx, "backfill")
	if saved != (position.Sequence{Height: 3}) {
		t.Errorf("stored position = %v, want height 3", saved)
	}
}
