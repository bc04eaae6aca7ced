package signalboard

import (
	"errors"
	"log/slog"
	"strings"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title         string
	notifications *Source
	signal        *Source
	port          int
	logger        *slog.Logger
	countElement  string
	indicators    Indicators
	bars          int
	targets       []RenderTarget
	noDashboard   bool
	pollCallbacks []func(PollResult)
	mirrors       []Mirror
}

// Option is a function that configures a [Board] instance during construction.
//
// Options return an error if validation fails.
//
// Built-in options: [WithNotifications], [WithSignal], [WithPort],
// [WithTitle], [WithLogger], [WithCountElement], [WithIndicators],
// [WithBars], [WithRenderTarget], [WithoutDashboard], [WithPollCallback],
// [WithMirror].
type Option func(*boardConfig) error

// WithNotifications enables the notification poller against src.
//
// The poller reads the "count" field every 5 seconds unless src sets its
// own field or interval.
//
// Example:
//
//	src, _ := signalboard.NewSource("http://router.local:5001/api/notifications")
//	b, err := signalboard.New(signalboard.WithNotifications(src))
func WithNotifications(src Source) Option {
	return func(cfg *boardConfig) error {
		if src.url == "" {
			return errors.New("notification source must be created with NewSource")
		}
		cfg.notifications = &src
		return nil
	}
}

// WithSignal enables the signal poller against src.
//
// The poller reads the "strength" field every second unless src sets its
// own field or interval.
func WithSignal(src Source) Option {
	return func(cfg *boardConfig) error {
		if src.url == "" {
			return errors.New("signal source must be created with NewSource")
		}
		cfg.signal = &src
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "SignalBoard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board instance.
//
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	b, err := signalboard.New(
//	    signalboard.WithSignal(src),
//	    signalboard.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithCountElement sets the id of the element that receives the
// notification count. Defaults to [DefaultCountElement].
func WithCountElement(id string) Option {
	return func(cfg *boardConfig) error {
		if strings.TrimSpace(id) == "" {
			return errors.New("count element id cannot be empty")
		}
		cfg.countElement = id
		return nil
	}
}

// WithIndicators selects the signal indicator collection. Defaults to
// [DefaultIndicators].
func WithIndicators(ind Indicators) Option {
	return func(cfg *boardConfig) error {
		if ind.Container == "" || ind.Member == "" || ind.Class == "" {
			return errors.New("indicators require container, member and class")
		}
		cfg.indicators = ind
		return nil
	}
}

// WithBars sets how many indicator elements the built-in dashboard draws.
// Defaults to 5. Must be between 1 and 32.
func WithBars(n int) Option {
	return func(cfg *boardConfig) error {
		if n < 1 || n > 32 {
			return errors.New("bars must be between 1 and 32")
		}
		cfg.bars = n
		return nil
	}
}

// WithRenderTarget adds a [RenderTarget] that receives every rendered
// value alongside the dashboard page.
//
// Targets are called from the poller goroutines and must be safe for
// concurrent use. A panicking target produces a render [PollFailure].
func WithRenderTarget(t RenderTarget) Option {
	return func(cfg *boardConfig) error {
		if t == nil {
			return errors.New("render target cannot be nil")
		}
		cfg.targets = append(cfg.targets, t)
		return nil
	}
}

// WithoutDashboard disables the built-in web dashboard. At least one
// [WithRenderTarget] or [WithMirror] must then be configured.
func WithoutDashboard() Option {
	return func(cfg *boardConfig) error {
		cfg.noDashboard = true
		return nil
	}
}

// WithPollCallback registers a function to be called on every poll completion,
// including failures and stale results.
//
// Multiple callbacks may be registered; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Blocking callbacks will delay
// subsequent poll result processing.
//
// Callbacks are invoked synchronously from a single goroutine. Panics within
// callbacks are recovered and logged.
//
// Example:
//
//	b, err := signalboard.New(
//	    signalboard.WithSignal(src),
//	    signalboard.WithPollCallback(func(r signalboard.PollResult) {
//	        if r.Err != nil {
//	            log.Printf("signal poll failed: %v", r.Err)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithPollCallback(cb func(PollResult)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.pollCallbacks = append(cfg.pollCallbacks, cb)
		return nil
	}
}

// WithMirror adds a [Mirror] that receives every rendered result.
//
// The Board does not close mirrors; the caller owns their lifecycle.
func WithMirror(m Mirror) Option {
	return func(cfg *boardConfig) error {
		if m == nil {
			return errors.New("mirror cannot be nil")
		}
		cfg.mirrors = append(cfg.mirrors, m)
		return nil
	}
}
