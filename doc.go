// Package signalboard polls a router dashboard's backend for the unread
// notification count and the signal strength, and reflects both into a
// display.
//
// SignalBoard is designed as an SDK-first library. Sources and the board
// are immutable after construction and configured through functional
// options.
//
// # Quick Start
//
//	notif, _ := signalboard.NewSource("http://192.168.8.10:5001/api/notifications")
//	sig, _ := signalboard.NewSource("http://192.168.8.10:5001/api/signal-strength")
//	b, _ := signalboard.New(
//	    signalboard.WithNotifications(notif),
//	    signalboard.WithSignal(sig),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Pollers
//
// The notification poller runs every 5 seconds, reads the integer "count"
// field and writes its decimal string into the element "notif-count". The
// signal poller runs every second, reads "strength" and marks indicator i
// of "#signal-bars .bar" active iff i < strength. Both run once
// immediately on [Board.Start].
//
// A poll that fails in transport or parsing leaves the display untouched.
// The failure is logged and handed to [WithPollCallback] callbacks as a
// [PollFailure], then discarded. Polling continues on schedule.
//
// Invocations of one poller may overlap when a request outlasts the
// interval. Each invocation carries a sequence number and a response that
// arrives after a later one was rendered is discarded as stale.
//
// # Render targets
//
// Values are rendered into every [RenderTarget]: the built-in web page,
// the terminal display in package term, or any caller-supplied target.
// Package mirror republishes rendered values to MQTT or Redis.
//
// # Architecture
//
//   - internal/poller: repeating per-poller tasks and the HTTP client
//   - internal/page: in-memory document with pub/sub of changes
//   - internal/server: dashboard HTTP server with SSE and WebSocket streams
//   - dashboard: embedded web UI assets
package signalboard
