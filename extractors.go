package signalboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrFieldMissing is returned when the configured field is absent.
	ErrFieldMissing = errors.New("field missing")

	// ErrNotInteger is returned when the field holds a non-integer value.
	ErrNotInteger = errors.New("field is not an integer")
)

// IntExtractor reads the polled integer from a response body.
//
// Extractors are pure functions. They are called within a panic recovery
// boundary; a panicking extractor produces a parse [PollFailure].
type IntExtractor func(body []byte) (int, error)

// JSONIntField returns an [IntExtractor] that reads an integer from a JSON
// object using dot notation to navigate nested objects.
//
// Accepted values are JSON numbers without a fractional part (3 or 3.0)
// and strings holding a base-10 integer ("3"). Anything else is an error
// wrapping [ErrNotInteger]; an absent field wraps [ErrFieldMissing].
//
// Example:
//
//	// For response: {"data": {"unread": 4}}
//	extractor := signalboard.JSONIntField("data.unread")
func JSONIntField(path string) IntExtractor {
	parts := strings.Split(path, ".")

	return func(body []byte) (int, error) {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()

		var data interface{}
		if err := dec.Decode(&data); err != nil {
			return 0, fmt.Errorf("invalid JSON: %w", err)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return 0, errors.New("invalid JSON: trailing data after value")
		}

		value, ok := walkJSONPath(data, parts)
		if !ok {
			return 0, fmt.Errorf("%q: %w", path, ErrFieldMissing)
		}

		n, err := toInt(value)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", path, err)
		}
		return n, nil
	}
}

// CountExtractor reads the top-level "count" field.
var CountExtractor = JSONIntField("count")

// StrengthExtractor reads the top-level "strength" field.
var StrengthExtractor = JSONIntField("strength")

// walkJSONPath follows parts through nested objects.
func walkJSONPath(data interface{}, parts []string) (interface{}, bool) {
	current := data
	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// toInt converts a decoded JSON value to int.
func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return toIntChecked(n)
		}
		f, err := val.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s", ErrNotInteger, val)
		}
		return toIntChecked(int64(f))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotInteger, val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotInteger, v)
	}
}

// toIntChecked narrows n to int, rejecting values that do not fit.
func toIntChecked(n int64) (int, error) {
	if n > math.MaxInt || n < math.MinInt {
		return 0, fmt.Errorf("%w: %d out of range", ErrNotInteger, n)
	}
	return int(n), nil
}
