package middleware

import (
	"log"

	"github.com/hedeqiang/anchor/event"
)

// Logger logs each payload that passes through the pipeline.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates a logging middleware using the provided logger.
// If logger is nil, the default standard logger is used.
func NewLogger(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{logger: l}
}

// Wrap decorates the handler with payload logging.
func (l *Logger) Wrap(next Handler) Handler {
	return func(p event.Payload) *event.Payload {
		key := p.Key
		if len(key) > 16 {
			key = key[:16]
		}
		l.logger.Printf("[anchor] key=%s bytes=%d", key, len(p.Data))
		return next(p)
	}
}
