package config

import (
	"fmt"
	"sort"

	"github.com/jpalmerr/signalboard"
)

// Build converts parsed configuration into SDK options for [signalboard.New].
//
// Mirrors are not built here because they hold network connections; see
// [Config.MQTT] and [Config.Redis].
func Build(cfg *Config) ([]signalboard.Option, error) {
	var opts []signalboard.Option

	if cfg.Port != 0 {
		opts = append(opts, signalboard.WithPort(cfg.Port))
	}
	if cfg.Title != "" {
		opts = append(opts, signalboard.WithTitle(cfg.Title))
	}
	if cfg.CountElement != "" {
		opts = append(opts, signalboard.WithCountElement(cfg.CountElement))
	}
	if ind := cfg.Indicators; ind.Container != "" || ind.Member != "" || ind.Class != "" {
		opts = append(opts, signalboard.WithIndicators(signalboard.Indicators{
			Container: ind.Container,
			Member:    ind.Member,
			Class:     ind.Class,
		}))
	}
	if cfg.Bars != 0 {
		opts = append(opts, signalboard.WithBars(cfg.Bars))
	}

	if cfg.Notifications.Enabled() {
		src, err := buildSource(cfg.Notifications)
		if err != nil {
			return nil, fmt.Errorf("notifications: %w", err)
		}
		opts = append(opts, signalboard.WithNotifications(src))
	}

	if cfg.Signal.Enabled() {
		src, err := buildSource(cfg.Signal)
		if err != nil {
			return nil, fmt.Errorf("signal: %w", err)
		}
		opts = append(opts, signalboard.WithSignal(src))
	}

	return opts, nil
}

// buildSource converts a single SourceConfig to an SDK Source.
func buildSource(sc SourceConfig) (signalboard.Source, error) {
	var opts []signalboard.SourceOption

	if sc.Method != "" {
		opts = append(opts, signalboard.WithMethod(sc.Method))
	}

	if sc.Timeout != 0 {
		opts = append(opts, signalboard.WithTimeout(sc.Timeout.Duration()))
	}

	if len(sc.Headers) > 0 {
		opts = append(opts, signalboard.WithHeaders(mapToKeyValuePairs(sc.Headers)...))
	}

	if sc.Field != "" {
		opts = append(opts, signalboard.WithField(sc.Field))
	}

	if sc.Interval != 0 {
		opts = append(opts, signalboard.WithInterval(sc.Interval.Duration()))
	}

	return signalboard.NewSource(sc.URL, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
