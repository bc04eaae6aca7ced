package signalboard

import "strconv"

// RenderTarget is the display capability pollers render into.
//
// It models the two DOM operations the dashboard needs: replacing the
// text of an element found by id, and toggling a class across an ordered
// collection of indicator elements. Implementations must be safe for
// concurrent use; the two pollers render independently.
//
// The web dashboard, the terminal display in package term, and test
// doubles all implement RenderTarget.
type RenderTarget interface {
	// SetText replaces the text of element id. It reports false when no
	// such element exists; that is not an error.
	SetText(id, text string) bool

	// ToggleClass sets class on each element with class member beneath
	// container for which on(i) is true and clears it otherwise, in index
	// order. It returns the number of elements visited.
	ToggleClass(container, member, class string, on func(i int) bool) int
}

// Indicators selects the signal indicator collection: every element with
// class Member beneath the element with id Container. Class is toggled on
// active indicators.
type Indicators struct {
	Container string
	Member    string
	Class     string
}

// DefaultIndicators matches the stock dashboard markup
// (#signal-bars .bar, toggling "active").
var DefaultIndicators = Indicators{
	Container: "signal-bars",
	Member:    "bar",
	Class:     "active",
}

// DefaultCountElement is the id of the stock notification count element.
const DefaultCountElement = "notif-count"

// RenderNotifications writes the decimal count into element id of t.
// It reports whether the element existed.
func RenderNotifications(t RenderTarget, id string, s NotificationState) bool {
	return t.SetText(id, strconv.Itoa(s.Count))
}

// RenderSignal marks indicator i active iff i < s.Strength and returns the
// number of indicators visited. Activation is monotonic in index: exactly
// [ActiveIndicators] leading indicators end up active.
func RenderSignal(t RenderTarget, ind Indicators, s SignalState) int {
	return t.ToggleClass(ind.Container, ind.Member, ind.Class, func(i int) bool {
		return i < s.Strength
	})
}

// ActiveIndicators returns how many of total indicators are active for
// strength: min(max(strength, 0), total).
func ActiveIndicators(strength, total int) int {
	switch {
	case strength < 0:
		return 0
	case strength > total:
		return total
	default:
		return strength
	}
}
