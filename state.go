package signalboard

import (
	"fmt"
	"time"
)

// Poller names used in [PollResult] and [PollFailure].
const (
	PollerNotifications = "notifications"
	PollerSignal        = "signal"
)

// NotificationState is the value produced by one notification poll.
// It lives only for the render call it feeds.
type NotificationState struct {
	Count int
}

// SignalState is the value produced by one signal poll.
// It lives only for the render call it feeds.
type SignalState struct {
	Strength int
}

// FailureKind classifies a [PollFailure].
type FailureKind string

const (
	// FailureTransport covers network errors, timeouts and non-2xx responses.
	FailureTransport FailureKind = "transport"

	// FailureParse covers bodies that do not yield an integer field.
	FailureParse FailureKind = "parse"

	// FailureRender covers a panic inside a [RenderTarget].
	FailureRender FailureKind = "render"
)

// PollFailure is the single error kind produced by a poll.
//
// A PollFailure never escapes the polling loop: it is logged, handed to
// poll callbacks and then discarded. The previously rendered value stays
// on display until the next successful poll.
type PollFailure struct {
	// Poller is [PollerNotifications] or [PollerSignal].
	Poller string

	// URL is the resource that was polled.
	URL string

	// Kind says which stage failed.
	Kind FailureKind

	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (f *PollFailure) Error() string {
	return fmt.Sprintf("%s poll of %s failed (%s): %v", f.Poller, f.URL, f.Kind, f.Err)
}

// Unwrap returns the underlying cause.
func (f *PollFailure) Unwrap() error {
	return f.Err
}

// PollResult is the outcome of one poller invocation, delivered to
// callbacks registered with [WithPollCallback] and to mirrors.
type PollResult struct {
	// Poller is [PollerNotifications] or [PollerSignal].
	Poller string

	// URL is the resource that was polled.
	URL string

	// Seq numbers invocations of one poller, starting at 1.
	Seq uint64

	// Value is the polled count or strength. Zero when Err is set.
	Value int

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// CheckedAt is when the invocation finished.
	CheckedAt time.Time

	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Stale is set when a later invocation of the same poller had already
	// been rendered; the value was discarded.
	Stale bool

	// Err is a *[PollFailure], or nil on success.
	Err error
}

// Notifications returns the result as a [NotificationState].
func (r PollResult) Notifications() NotificationState {
	return NotificationState{Count: r.Value}
}

// Signal returns the result as a [SignalState].
func (r PollResult) Signal() SignalState {
	return SignalState{Strength: r.Value}
}

// Rendered reports whether the result's value reached the render targets.
func (r PollResult) Rendered() bool {
	return r.Err == nil && !r.Stale
}
