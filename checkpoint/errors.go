package checkpoint

import (
	"errors"
	"fmt"
)

// ErrStopped is returned when an event reaches an engine that has
// already stopped accepting events.
var ErrStopped = errors.New("checkpoint: engine stopped")

// SinkWriteError reports a failed sink apply during commit. The commit
// did not advance: the position was not persisted and the stream was
// not marked, so the next trigger redoes the same commit.
type SinkWriteError struct {
	Key string
	Err error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("checkpoint: sink write for payload %q failed: %v", e.Key, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// CursorPersistError reports a failed position save. This is fatal: the
// engine stops rather than mark progress at an unpersisted position.
type CursorPersistError struct {
	Key string
	Err error
}

func (e *CursorPersistError) Error() string {
	return fmt.Sprintf("checkpoint: persist cursor for %q failed: %v", e.Key, e.Err)
}

func (e *CursorPersistError) Unwrap() error { return e.Err }
