package signalboard

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// sourceConfig holds mutable state during source construction.
type sourceConfig struct {
	method    string
	headers   map[string]string
	timeout   time.Duration
	interval  time.Duration
	extractor IntExtractor
}

// SourceOption configures a [Source] during construction.
//
// Built-in options: [WithHeaders], [WithTimeout], [WithInterval],
// [WithField], [WithExtractor], [WithMethod].
type SourceOption func(*sourceConfig) error

// WithHeaders adds custom HTTP headers to every poll of the source.
//
// Accepts variadic key-value pairs. Returns an error if an odd number of
// arguments is provided.
//
// Example:
//
//	src, err := signalboard.NewSource(url,
//	    signalboard.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout bounds each request to the source. A request that exceeds
// it is a transport [PollFailure]. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithInterval overrides the poller's period for this source.
//
// The interval is measured between invocation starts; a slow request does
// not delay the next one. Must be positive and at most 1 hour.
func WithInterval(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithField reads the value from a JSON field given in dot notation
// instead of the poller's default field.
//
// Example:
//
//	src, err := signalboard.NewSource(url, signalboard.WithField("data.unread"))
func WithField(path string) SourceOption {
	return func(cfg *sourceConfig) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return errors.New("field path cannot be empty")
		}
		for _, part := range strings.Split(path, ".") {
			if part == "" {
				return errors.New("field path has an empty segment: " + path)
			}
		}
		cfg.extractor = JSONIntField(path)
		return nil
	}
}

// WithExtractor sets a custom [IntExtractor] for the source.
func WithExtractor(e IntExtractor) SourceOption {
	return func(cfg *sourceConfig) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		cfg.extractor = e
		return nil
	}
}

// WithMethod sets the HTTP method. GET (the default) and POST are
// supported; both return a body to parse.
func WithMethod(method string) SourceOption {
	return func(cfg *sourceConfig) error {
		switch method {
		case http.MethodGet, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET or POST")
		}
	}
}
