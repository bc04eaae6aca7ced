package signalboard

import (
	"errors"
	"net/url"
	"time"
)

const defaultSourceTimeout = 10 * time.Second

// Source is a backend resource a poller reads from.
//
// Source is immutable after creation via [NewSource]. Getters return
// copies of mutable data.
type Source struct {
	url       string
	method    string
	headers   map[string]string
	timeout   time.Duration
	interval  time.Duration
	extractor IntExtractor
}

// URL returns the polled URL.
func (s Source) URL() string {
	return s.url
}

// Method returns the HTTP method, empty meaning GET.
func (s Source) Method() string {
	return s.method
}

// Headers returns a copy of the custom request headers, or nil.
func (s Source) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the per-request timeout. Defaults to 10 seconds.
func (s Source) Timeout() time.Duration {
	return s.timeout
}

// Interval returns the custom polling period, or 0 when the poller's
// default applies (5s for notifications, 1s for signal).
func (s Source) Interval() time.Duration {
	return s.interval
}

// Extractor returns the custom [IntExtractor], or nil when the poller's
// default field ("count" or "strength") applies.
func (s Source) Extractor() IntExtractor {
	return s.extractor
}

// NewSource creates a [Source] for rawURL.
//
// The URL must be absolute with an http or https scheme.
//
// Example:
//
//	src, err := signalboard.NewSource("http://192.168.8.10:5001/api/signal-strength",
//	    signalboard.WithInterval(2*time.Second),
//	    signalboard.WithField("data.strength"),
//	)
func NewSource(rawURL string, opts ...SourceOption) (Source, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Source{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Source{}, errors.New("URL must have an http:// or https:// scheme")
	}
	if parsedURL.Host == "" {
		return Source{}, errors.New("URL must have a host")
	}

	cfg := &sourceConfig{
		headers: make(map[string]string),
		timeout: defaultSourceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Source{}, err
		}
	}

	return Source{
		url:       rawURL,
		method:    cfg.method,
		headers:   cfg.headers,
		timeout:   cfg.timeout,
		interval:  cfg.interval,
		extractor: cfg.extractor,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
