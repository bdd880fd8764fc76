package middleware

import (
	"sync/atomic"

	"github.com/hedeqiang/anchor/event"
)

// Metrics collects basic counters for committed payloads.
type Metrics struct {
	processed atomic.Uint64
	dropped   atomic.Uint64
	bytes     atomic.Uint64
}

// NewMetrics creates a metrics collection middleware.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Wrap decorates the handler with metrics collection.
func (m *Metrics) Wrap(next Handler) Handler {
	return func(p event.Payload) *event.Payload {
		result := next(p)
		if result != nil {
			m.processed.Add(1)
			m.bytes.Add(uint64(len(result.Data)))
		} else {
			m.dropped.Add(1)
		}
		return result
	}
}

// Processed returns the number of payloads that reached the sink.
func (m *Metrics) Processed() uint64 {
	return m.processed.Load()
}

// Dropped returns the number of payloads dropped by the pipeline.
func (m *Metrics) Dropped() uint64 {
	return m.dropped.Load()
}

// Bytes returns the total payload bytes that reached the sink.
func (m *Metrics) Bytes() uint64 {
	return m.bytes.Load()
}
