// Package mirror republishes rendered SignalBoard values to external sinks.
//
// Two mirrors are provided, both implementing [signalboard.Mirror]:
//
//   - [MQTT] publishes retained JSON messages to "<prefix>/notifications"
//     and "<prefix>/signal" via the Eclipse Paho client.
//   - [Redis] writes the latest values into a hash via go-redis.
//
// Mirrors publish only when a poller's value changes, so a steady signal
// does not produce a message every second. A failed publish is retried on
// the next poll, and a result older than one already seen is skipped.
package mirror

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jpalmerr/signalboard"
)

// Payload is the JSON document published for one poller.
// Exactly one of Count and Strength is set.
type Payload struct {
	Count     *int   `json:"count,omitempty"`
	Strength  *int   `json:"strength,omitempty"`
	Timestamp string `json:"timestamp"`
}

// FormatPayload encodes a rendered result as JSON.
func FormatPayload(r signalboard.PollResult) ([]byte, error) {
	v := r.Value
	p := Payload{Timestamp: r.CheckedAt.UTC().Format(time.RFC3339)}

	switch r.Poller {
	case signalboard.PollerNotifications:
		p.Count = &v
	case signalboard.PollerSignal:
		p.Strength = &v
	default:
		return nil, fmt.Errorf("unknown poller %q", r.Poller)
	}
	return json.Marshal(p)
}

// lastValues remembers, per poller, the last value successfully published
// and the newest invocation seen. Results reach mirrors in completion order,
// which can differ from invocation order.
type lastValues struct {
	mu     sync.Mutex
	seen   map[string]int
	newest map[string]uint64
}

// admit reports whether a result should be published: it must not be older
// than any result already admitted for the poller, and its value must differ
// from the last one published.
func (l *lastValues) admit(poller string, seq uint64, v int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.newest == nil {
		l.newest = make(map[string]uint64)
	}
	if seq < l.newest[poller] {
		return false
	}
	l.newest[poller] = seq

	old, ok := l.seen[poller]
	return !ok || old != v
}

func (l *lastValues) record(poller string, v int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[poller] = v
}
