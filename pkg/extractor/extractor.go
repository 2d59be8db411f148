// Package extractor reads values out of nested JSON payloads by dotted path.
// Back-office and ATS responses differ per tenant, so callers usually probe a
// list of alternate paths and take the first hit.
package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Extractor handles reading values from decoded JSON structures
type Extractor struct{}

// New creates a new Extractor
func New() *Extractor {
	return &Extractor{}
}

// Extract walks a dotted path ("placement.employmentType") through nested
// maps. Missing keys yield nil without error; an error means a non-map was
// found mid-path.
func (e *Extractor) Extract(data any, path string) (any, error) {
	if path == "" {
		return data, nil
	}

	current := data
	for _, key := range strings.Split(path, ".") {
		if current == nil {
			return nil, nil
		}
		switch v := current.(type) {
		case map[string]any:
			current = v[key]
		case map[string]string:
			current = any(v[key])
		default:
			return nil, fmt.Errorf("cannot extract key %q from type %T", key, current)
		}
	}

	return current, nil
}

// ExtractString extracts a value and converts it to a string
func (e *Extractor) ExtractString(data any, path string) (*string, error) {
	value, err := e.Extract(data, path)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	s := toString(value)
	return &s, nil
}

// FirstString probes the paths in order and returns the first non-empty
// string value
func (e *Extractor) FirstString(data any, paths ...string) (string, bool) {
	for _, path := range paths {
		value, err := e.ExtractString(data, path)
		if err != nil || value == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*value); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}

// FirstFloat probes the paths in order and returns the first value coercible
// to a number
func (e *Extractor) FirstFloat(data any, paths ...string) (float64, bool) {
	for _, path := range paths {
		value, err := e.Extract(data, path)
		if err != nil || value == nil {
			continue
		}
		if f, ok := toFloat(value); ok {
			return f, true
		}
	}
	return 0, false
}

// First probes the paths in order and returns the first non-nil value
func (e *Extractor) First(data any, paths ...string) (any, bool) {
	for _, path := range paths {
		value, err := e.Extract(data, path)
		if err != nil || value == nil {
			continue
		}
		return value, true
	}
	return nil, false
}

// toFloat coerces decoded JSON scalars to a float
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toString converts any value to a string
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%v", val)
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// FromJSON parses JSON data and returns it as a map
func FromJSON(data json.RawMessage) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
