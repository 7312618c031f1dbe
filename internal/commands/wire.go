package commands

import "strconv"

// Helpers for traversing loosely-typed decoded JSON payloads. The cloud
// service is inconsistent about numeric types (JSON numbers, quoted
// numbers) so conversions are permissive.

// intFrom converts a decoded JSON value to an int.
func intFrom(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		i, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// stringFrom converts a decoded JSON value to a string.
// Numbers are formatted without a fractional part.
func stringFrom(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// mapFrom asserts a decoded JSON value to an object.
func mapFrom(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// sliceFrom asserts a decoded JSON value to an array.
func sliceFrom(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// nestedMap returns m[key] as an object, or m itself when the key is
// absent. Mirrors the wire format's habit of flattening single-level
// envelopes on some firmware generations.
func nestedMap(m map[string]any, key string) map[string]any {
	if inner, ok := mapFrom(m[key]); ok {
		return inner
	}
	return m
}
