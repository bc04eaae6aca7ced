// Package server provides the HTTP server for the SignalBoard dashboard.
//
// This package is internal to SignalBoard and handles all HTTP concerns:
//
//   - Dashboard serving: renders the embedded page template at "/"
//   - Page snapshot: JSON change list at "/api/page"
//   - Server-Sent Events: live page changes at "/api/sse"
//   - WebSocket: the same stream at "/api/ws"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// The server is started automatically by [signalboard.Board.Start].
package server
