package middleware

import (
	"sync"
	"time"

	"github.com/hedeqiang/anchor/event"
)

// RateLimit limits the rate at which payloads reach the sink. Dropped
// payloads never arrive downstream, so this belongs only in pipelines
// where the sink is a lossy view (dashboards, samplers) rather than the
// system of record.
type RateLimit struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimit creates a rate-limiting middleware that allows at most
// one payload per the given interval.
func NewRateLimit(interval time.Duration) *RateLimit {
	return &RateLimit{
		interval: interval,
	}
}

// Wrap decorates the handler with rate limiting.
func (r *RateLimit) Wrap(next Handler) Handler {
	return func(p event.Payload) *event.Payload {
		r.mu.Lock()
		if time.Since(r.last) < r.interval {
			r.mu.Unlock()
			return nil // drop: rate limited
		}
		r.last = time.Now()
		r.mu.Unlock()

		return next(p)
	}
}
