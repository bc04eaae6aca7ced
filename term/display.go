// Package term renders SignalBoard values to a terminal.
//
// A [Display] is a [signalboard.RenderTarget] that prints one status line
// each time a rendered value actually changes:
//
//	Notifications: 3  Signal: ▮▮▯▯▯
//
// Colours are applied with lipgloss and degrade to plain text when the
// writer is not a terminal.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/signalboard"
)

const (
	barOn  = "▮"
	barOff = "▯"
)

// Display is a terminal render target. It is safe for concurrent use.
type Display struct {
	mu  sync.Mutex
	out io.Writer

	countID    string
	indicators signalboard.Indicators

	count string
	bars  []bool

	label lipgloss.Style
	value lipgloss.Style
	on    lipgloss.Style
	off   lipgloss.Style
}

// New creates a Display writing to w. It owns one text element, countID,
// and n indicators selected by ind.
func New(w io.Writer, countID string, ind signalboard.Indicators, n int) *Display {
	if n < 0 {
		n = 0
	}
	r := lipgloss.NewRenderer(w)

	return &Display{
		out:        w,
		countID:    countID,
		indicators: ind,
		count:      "-",
		bars:       make([]bool, n),
		label:      r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		value:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		on:         r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		off:        r.NewStyle().Foreground(lipgloss.Color("#374151")),
	}
}

// SetText implements [signalboard.RenderTarget]. Only the count element
// exists on a Display.
func (d *Display) SetText(id, text string) bool {
	if id != d.countID {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.count != text {
		d.count = text
		d.print()
	}
	return true
}

// ToggleClass implements [signalboard.RenderTarget]. Only the configured
// indicator group exists; toggling any other class on it visits the
// elements without changing what is drawn.
func (d *Display) ToggleClass(container, member, class string, on func(i int) bool) int {
	if container != d.indicators.Container || member != d.indicators.Member {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	changed := false
	for i := range d.bars {
		want := on(i)
		if class != d.indicators.Class || d.bars[i] == want {
			continue
		}
		d.bars[i] = want
		changed = true
	}
	if changed {
		d.print()
	}
	return len(d.bars)
}

// Line returns the current status line without styling.
func (d *Display) Line() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sb strings.Builder
	for _, lit := range d.bars {
		if lit {
			sb.WriteString(barOn)
		} else {
			sb.WriteString(barOff)
		}
	}
	return fmt.Sprintf("Notifications: %s  Signal: %s", d.count, sb.String())
}

// print writes the styled line. Called with d.mu held.
func (d *Display) print() {
	var bars strings.Builder
	for _, lit := range d.bars {
		if lit {
			bars.WriteString(d.on.Render(barOn))
		} else {
			bars.WriteString(d.off.Render(barOff))
		}
	}

	// write errors on a terminal are not actionable
	_, _ = fmt.Fprintf(d.out, "%s %s  %s %s\n",
		d.label.Render("Notifications:"),
		d.value.Render(d.count),
		d.label.Render("Signal:"),
		bars.String(),
	)
}
