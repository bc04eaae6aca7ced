package page

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

type groupKey struct {
	container string
	member    string
}

// group holds the class sets of one indicator collection, plus every
// class ever toggled on it so a snapshot can report the off state too.
type group struct {
	elems   []map[string]bool
	classes map[string]struct{}
}

// Document is an in-memory page that pollers render into.
//
// Elements must be declared with [Document.AddText] and
// [Document.AddIndicators] before rendering; writes to undeclared elements
// are ignored, mirroring a DOM lookup that finds nothing. Only mutations
// that actually change state are published to subscribers; a subscriber
// that falls behind is closed so its client reconnects from a snapshot.
type Document struct {
	mu     sync.RWMutex
	texts  map[string]string
	groups map[groupKey]*group

	subMu       sync.Mutex
	subscribers map[chan Change]struct{}
}

// NewDocument creates an empty [Document].
func NewDocument() *Document {
	return &Document{
		texts:       make(map[string]string),
		groups:      make(map[groupKey]*group),
		subscribers: make(map[chan Change]struct{}),
	}
}

// AddText declares a text element with its initial content.
// Re-declaring an element resets its text.
func (d *Document) AddText(id, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts[id] = text
}

// AddIndicators declares n indicator elements with class member beneath
// container. Re-declaring a group replaces it.
func (d *Document) AddIndicators(container, member string, n int) {
	if n < 0 {
		n = 0
	}
	elems := make([]map[string]bool, n)
	for i := range elems {
		elems[i] = make(map[string]bool)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups[groupKey{container, member}] = &group{
		elems:   elems,
		classes: make(map[string]struct{}),
	}
}

// SetText replaces the text of element id. It reports false, and does
// nothing, when no such element exists.
func (d *Document) SetText(id, text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	old, ok := d.texts[id]
	if !ok {
		return false
	}
	if old != text {
		d.texts[id] = text
		d.notify(Change{Kind: KindText, ID: id, Text: text})
	}
	return true
}

// ToggleClass sets class on each member element beneath container for
// which on returns true and clears it otherwise, visiting elements in
// index order. It returns the number of elements visited, zero if the
// group does not exist.
func (d *Document) ToggleClass(container, member, class string, on func(i int) bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[groupKey{container, member}]
	if !ok {
		return 0
	}
	g.classes[class] = struct{}{}

	for i, classes := range g.elems {
		want := on(i)
		if classes[class] == want {
			continue
		}
		if want {
			classes[class] = true
		} else {
			delete(classes, class)
		}
		d.notify(Change{
			Kind:      KindClass,
			Container: container,
			Member:    member,
			Index:     i,
			Class:     class,
			On:        want,
		})
	}
	return len(g.elems)
}

// Text returns the current text of element id.
func (d *Document) Text(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	text, ok := d.texts[id]
	return text, ok
}

// HasClass reports whether indicator i of the group carries class.
func (d *Document) HasClass(container, member string, i int, class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.groups[groupKey{container, member}]
	if !ok || i < 0 || i >= len(g.elems) {
		return false
	}
	return g.elems[i][class]
}

// Snapshot returns the current state as a list of changes, ordered by
// element id, then group, then class, then index.
//
// Every class toggled on a group is reported for every element, on or
// off, so replaying a snapshot over stale client state converges.
func (d *Document) Snapshot() []Change {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.texts))
	for id := range d.texts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	changes := make([]Change, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, Change{Kind: KindText, ID: id, Text: d.texts[id]})
	}

	keys := make([]groupKey, 0, len(d.groups))
	for k := range d.groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].container != keys[j].container {
			return keys[i].container < keys[j].container
		}
		return keys[i].member < keys[j].member
	})

	for _, k := range keys {
		g := d.groups[k]
		names := make([]string, 0, len(g.classes))
		for c := range g.classes {
			names = append(names, c)
		}
		sort.Strings(names)

		for _, c := range names {
			for i, classes := range g.elems {
				changes = append(changes, Change{
					Kind:      KindClass,
					Container: k.container,
					Member:    k.member,
					Index:     i,
					Class:     c,
					On:        classes[c],
				})
			}
		}
	}
	return changes
}

// Subscribe creates a subscription with a buffer of 100 changes. If the
// buffer fills, the subscription is removed and its channel closed.
//
// Caller must call [Document.Unsubscribe] when done.
func (d *Document) Subscribe() <-chan Change {
	ch := make(chan Change, subscriberBuffer)

	d.subMu.Lock()
	d.subscribers[ch] = struct{}{}
	d.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (d *Document) Unsubscribe(ch <-chan Change) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	for subCh := range d.subscribers {
		if subCh == ch {
			delete(d.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (d *Document) Subscribers() int {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	return len(d.subscribers)
}

// notify fans c out without blocking. Called with d.mu held so
// subscribers see changes in the order they were applied.
func (d *Document) notify(c Change) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	for ch := range d.subscribers {
		select {
		case ch <- c:
		default:
			// a gap would leave the client wrong until the element
			// changes again; cut it loose so it resyncs
			delete(d.subscribers, ch)
			close(ch)
		}
	}
}
