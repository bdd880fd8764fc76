// Package transport provides stream sources over real network
// transports.
package transport

import (
	"log/slog"
	"time"

	"github.com/hedeqiang/anchor/retry"
)

// Config tunes connection behavior shared by transports.
type Config struct {
	// Reconnect paces redial attempts after a dropped connection.
	// Defaults to retry.Forever().
	Reconnect retry.Strategy

	// BreakerThreshold is the number of consecutive failed redials
	// after which the stream gives up with a terminal error.
	// 0 disables the breaker.
	BreakerThreshold int

	// BreakerReset is how long the breaker stays open before allowing
	// a probe redial.
	BreakerReset time.Duration

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration

	// Buffer is the size of the delivered-event channel.
	Buffer int

	// Logger receives structured transport logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Reconnect:        retry.Forever(),
		BreakerThreshold: 10,
		BreakerReset:     1 * time.Minute,
		HandshakeTimeout: 10 * time.Second,
		Buffer:           256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Reconnect == nil {
		c.Reconnect = d.Reconnect
	}
	if c.BreakerReset == 0 {
		c.BreakerReset = d.BreakerReset
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.Buffer <= 0 {
		c.Buffer = d.Buffer
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
