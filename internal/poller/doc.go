// Package poller runs the repeating fetch tasks behind SignalBoard.
//
// This package is internal to SignalBoard. Each [Task] names a JSON
// resource, an [Extractor] that reads one integer from it, and an Apply
// function that renders the value. The [Scheduler] runs every task on its
// own ticker under a single cancellable handle and reports each
// invocation as a [Result].
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [Scheduler]: per-task repeating loops with an out-of-order guard
//   - [Failure]: transport, parse and render failures
//
// Users of the signalboard library should not need to interact with this
// package directly.
package poller
