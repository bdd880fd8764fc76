package retry

import (
	"math"
	"time"
)

// Backoff implements exponential backoff with a configurable maximum
// number of attempts.
type Backoff struct {
	// MaxAttempts is the maximum number of retry attempts.
	// 0 means no retries; negative means retry forever.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows. Defaults to 2.
	Multiplier float64
}

// Exponential creates a Backoff strategy with sensible defaults.
func Exponential(maxAttempts int) *Backoff {
	return &Backoff{
		MaxAttempts:  maxAttempts,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

// Forever creates a Backoff that never gives up, for reconnect loops
// that should outlast any outage.
func Forever() *Backoff {
	b := Exponential(0)
	b.MaxAttempts = -1
	return b
}

// Next returns the delay for the given attempt number.
func (b *Backoff) Next(attempt int) (time.Duration, bool) {
	if b.MaxAttempts >= 0 && attempt > b.MaxAttempts {
		return 0, false
	}

	multiplier := b.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	delay := float64(b.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	d := time.Duration(delay)
	if d > b.MaxDelay || d < 0 {
		d = b.MaxDelay
	}

	return d, true
}

// Constant retries up to maxAttempts times with a fixed delay.
type Constant struct {
	MaxAttempts int
	Delay       time.Duration
}

// Next returns the fixed delay while attempts remain.
func (c Constant) Next(attempt int) (time.Duration, bool) {
	if attempt > c.MaxAttempts {
		return 0, false
	}
	return c.Delay, true
}
