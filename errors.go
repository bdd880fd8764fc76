package anchor

import "errors"

var (
	// ErrShutdown is returned when operating on a shut-down Consumer.
	ErrShutdown = errors.New("anchor: consumer has been shut down")

	// ErrAlreadyRunning is returned when consuming a stream key that is already running.
	ErrAlreadyRunning = errors.New("anchor: stream already running")

	// ErrNotRunning is returned when operating on a stream key that is not running.
	ErrNotRunning = errors.New("anchor: stream not running")

	// ErrNoSource is returned when no stream source has been configured.
	ErrNoSource = errors.New("anchor: no source configured")

	// ErrNoSink is returned when no sink has been configured.
	ErrNoSink = errors.New("anchor: no sink configured")
)
