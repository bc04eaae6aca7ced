package signalboard

import "context"

// Mirror republishes rendered values to an external sink.
//
// Publish is called from a single goroutine with every successful,
// non-stale [PollResult]. Returned errors are logged and do not affect
// polling. Implementations live in package mirror.
type Mirror interface {
	Publish(ctx context.Context, r PollResult) error
	Close() error
}
