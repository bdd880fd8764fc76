package checkpoint

import "github.com/hedeqiang/anchor/event"

// Policy decides when a data event triggers a commit. Progress events
// always commit regardless of policy; the policy only governs how
// eagerly buffered data is flushed between progress signals.
type Policy interface {
	// CommitAfter reports whether the engine should commit now, given
	// the data event just appended and the resulting buffer length.
	CommitAfter(pendingLen int, ev event.Event) bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(pendingLen int, ev event.Event) bool

// CommitAfter invokes the function.
func (f PolicyFunc) CommitAfter(pendingLen int, ev event.Event) bool {
	return f(pendingLen, ev)
}

// EveryEvent commits after every data event. Simplest and safest;
// highest overhead, since each event drains the buffer and marks the
// stream.
func EveryEvent() Policy {
	return PolicyFunc(func(int, event.Event) bool { return true })
}

// EveryN commits once the buffer holds n payloads.
func EveryN(n int) Policy {
	if n < 1 {
		n = 1
	}
	return PolicyFunc(func(pendingLen int, _ event.Event) bool {
		return pendingLen >= n
	})
}

// AtBlockBoundary commits when a data event closes its block, keeping
// sink state aligned to whole blocks.
func AtBlockBoundary() Policy {
	return PolicyFunc(func(_ int, ev event.Event) bool {
		return ev.EndOfBlock
	})
}

// OnProgressOnly never commits on data events; commits ride entirely on
// the transport's progress signals. Lowest overhead, with a replay
// window bounded by the progress interval on crash.
func OnProgressOnly() Policy {
	return PolicyFunc(func(int, event.Event) bool { return false })
}
