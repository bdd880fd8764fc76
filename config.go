package anchor

import (
	"github.com/hedeqiang/anchor/checkpoint"
)

// Config holds the global configuration for a Consumer.
type Config struct {
	// Policy decides when data events trigger a commit.
	Policy checkpoint.Policy

	// FinalCommit flushes remaining buffered payloads when a bounded
	// stream completes.
	FinalCommit bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Policy:      checkpoint.EveryEvent(),
		FinalCommit: true,
	}
}
