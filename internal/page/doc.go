// Package page holds the server-side model of the dashboard page.
//
// This package is internal to SignalBoard. A [Document] is a minimal
// document object model with two element shapes: text elements addressed
// by id, and ordered indicator groups addressed by a container id and a
// member class. Pollers render into a Document through SetText and
// ToggleClass; every effective mutation is published as a [Change] so
// connected browsers can replay it against their live DOM.
//
// The main components are:
//
//   - [Store]: read side consumed by the HTTP server
//   - [Document]: concurrent in-memory implementation with pub/sub
//   - [Change]: a single text or class mutation
//
// Subscribers receive changes via buffered channels with non-blocking
// sends (slow subscribers miss changes rather than block rendering).
package page
