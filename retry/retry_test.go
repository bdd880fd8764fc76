package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffNext(t *testing.T) {
	b := &Backoff{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2,
	}

	tests := []struct {
		attempt int
		want    time.Duration
		ok      bool
	}{
		{attempt: 1, want: 100 * time.Millisecond, ok: true},
		{attempt: 2, want: 200 * time.Millisecond, ok: true},
		{attempt: 3, want: 400 * time.Millisecond, ok: true},
		{attempt: 4, ok: false},
	}

	for _, tt := range tests {
		got, ok := b.Next(tt.attempt)
		if ok != tt.ok {
			t.Errorf("Next(%d) ok = %v, want %v", tt.attempt, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Next(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffCapsAtMaxDelay(t *testing.T) {
	b := Exponential(20)
	b.InitialDelay = 10 * time.Second

	got, ok := b.Next(10)
	if !ok || got != b.MaxDelay {
		t.Errorf("Next(10) = %v, %v, want capped at %v", got, ok, b.MaxDelay)
	}
}

func TestForeverNeverGivesUp(t *testing.T) {
	b := Forever()
	for _, attempt := range []int{1, 100, 100000} {
		if _, ok := b.Next(attempt); !ok {
			t.Errorf("Next(%d) gave up", attempt)
		}
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	var calls int
	err := Do(context.Background(), Constant{MaxAttempts: 5, Delay: time.Millisecond},
		func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	err := Do(context.Background(), Constant{MaxAttempts: 2, Delay: time.Millisecond},
		func(context.Context) error {
			calls++
			return boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("Do() error = %v, want boom", err)
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Constant{MaxAttempts: 10, Delay: time.Hour},
		func(context.Context) error { return errors.New("fail") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)

	if !cb.Allow() {
		t.Fatal("new breaker should allow")
	}

	cb.RecordFailure()
	if cb.CurrentState() != Closed {
		t.Fatalf("state = %v after one failure, want Closed", cb.CurrentState())
	}
	cb.RecordFailure()
	if cb.CurrentState() != Open {
		t.Fatalf("state = %v after threshold failures, want Open", cb.CurrentState())
	}
	if cb.Allow() {
		t.Fatal("open breaker should reject")
	}

	time.Sleep(60 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("breaker should allow a probe after the reset timeout")
	}
	if cb.CurrentState() != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen", cb.CurrentState())
	}

	cb.RecordSuccess()
	if cb.CurrentState() != Closed {
		t.Fatalf("state = %v after success, want Closed", cb.CurrentState())
	}
}
