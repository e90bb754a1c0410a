package worker

import "errors"

// Sentinel errors for pool lifecycle.
var (
	ErrNotStarted  = errors.New("worker pool not started")
	ErrPoolStopped = errors.New("worker pool stopped")
)
