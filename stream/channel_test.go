package stream

import (
	"context"
	"testing"

	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/position"
)

func TestChannelRecordsResumePosition(t *testing.T) {
	ch := NewChannel(4)
	from := position.Sequence{Height: 8}

	s, err := ch.Subscribe(context.Background(), Query{}, from)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if ch.ResumedFrom() != from {
		t.Errorf("ResumedFrom() = %v, want %v", ch.ResumedFrom(), from)
	}

	if err := s.Mark(position.Sequence{Height: 9}); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if ch.Marked() != (position.Sequence{Height: 9}) {
		t.Errorf("Marked() = %v, want height 9", ch.Marked())
	}
}

func TestChannelPushAfterCloseIsNoop(t *testing.T) {
	ch := NewChannel(1)
	ch.Close()
	ch.Push(data("A", 1)) // must not panic or block

	if _, ok := <-ch.Events(); ok {
		t.Errorf("closed channel delivered an event")
	}
}

func TestChannelCompleteEndsStream(t *testing.T) {
	ch := NewChannel(4)
	ch.Push(data("A", 1))
	ch.Complete()

	var kinds []event.Kind
	for ev := range ch.Events() {
		kinds = append(kinds, ev.Kind)
	}
	if len(kinds) != 2 || kinds[0] != event.KindData || kinds[1] != event.KindComplete {
		t.Errorf("kinds = %v, want [data complete]", kinds)
	}
}
