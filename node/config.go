package node

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is a node's configuration map. Keys are type-specific. Values come
// from JSON documents, so numbers may arrive as float64 or as strings typed
// by the configuration author; the accessors coerce accordingly.
type Config map[string]any

// String returns the trimmed string value for key, or "" when absent or not
// a string.
func (c Config) String(key string) string {
	v, ok := c[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Int returns the integer value for key. The second result reports whether
// the key was present with a non-empty value.
func (c Config) Int(key string) (int, bool, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n != float64(int(n)) {
			return 0, true, fmt.Errorf("%s must be an integer, got %v", key, n)
		}
		return int(n), true, nil
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false, nil
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, true, fmt.Errorf("%s must be a valid integer, got %q", key, n)
		}
		return parsed, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

// Int64 is Int for 64-bit ids such as credential and agent references.
func (c Config) Int64(key string) (int64, bool, error) {
	n, ok, err := c.Int(key)
	return int64(n), ok, err
}

// IntInRange returns the integer value for key, applying def when the key is
// absent or empty and rejecting values outside [min, max].
func (c Config) IntInRange(key string, def, min, max int) (int, error) {
	n, ok, err := c.Int(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, min, max, n)
	}
	return n, nil
}

// Map returns the map value for key, or nil when absent or not a map.
func (c Config) Map(key string) map[string]any {
	v, ok := c[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// StringMap returns the map value for key with all values rendered as
// strings via fmt.Sprint.
func (c Config) StringMap(key string) map[string]string {
	m := c.Map(key)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Slice returns the slice value for key, or nil when absent or not a slice.
func (c Config) Slice(key string) []any {
	v, ok := c[key]
	if !ok {
		return nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}
