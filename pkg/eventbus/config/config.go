package config

import (
	"strconv"
	"strings"
	"time"
)

// Config is a read-only view over a decoded YAML or JSON document.
// Accessors take dotted paths ("pool.workers") and return defaultVal when
// the path is missing or the value has an unusable type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup walks a dotted path through nested maps.
func (c Config) lookup(path string) (any, bool) {
	if v, ok := c.data[path]; ok {
		return v, true
	}

	var cur any = c.data
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// asMap accepts both string-keyed maps and the any-keyed maps some YAML
// documents decode into.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	return nil, false
}

// Sub returns the section at path, or an empty Config.
func (c Config) Sub(path string) Config {
	v, ok := c.lookup(path)
	if !ok {
		return New(nil)
	}
	m, ok := asMap(v)
	if !ok {
		return New(nil)
	}
	return New(m)
}

// get resolves path and converts it, falling back to defaultVal.
func get[T any](c Config, path string, defaultVal T, convert func(any) (T, bool)) T {
	v, ok := c.lookup(path)
	if !ok {
		return defaultVal
	}
	if out, ok := convert(v); ok {
		return out
	}
	return defaultVal
}

// String returns the string at path.
func (c Config) String(path, defaultVal string) string {
	return get(c, path, defaultVal, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
}

// Duration returns the duration at path.
//
// Strings are parsed with time.ParseDuration; numbers are seconds.
func (c Config) Duration(path string, defaultVal time.Duration) time.Duration {
	return get(c, path, defaultVal, toDuration)
}

// Bool returns the boolean at path. Strings such as "true" or "0" are
// parsed, since environment overrides arrive as strings.
func (c Config) Bool(path string, defaultVal bool) bool {
	return get(c, path, defaultVal, toBool)
}

// Int returns the integer at path. Floats are accepted only when whole,
// since JSON decodes every number as float64. Decimal strings are parsed.
func (c Config) Int(path string, defaultVal int) int {
	return get(c, path, defaultVal, toInt)
}

func toDuration(v any) (time.Duration, bool) {
	switch val := v.(type) {
	case time.Duration:
		return val, true
	case string:
		d, err := time.ParseDuration(val)
		return d, err == nil
	case float64:
		return time.Duration(val * float64(time.Second)), true
	case int:
		return time.Duration(val) * time.Second, true
	case int64:
		return time.Duration(val) * time.Second, true
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(val)
		return b, err == nil
	}
	return false, false
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), val == float64(int(val))
	case string:
		n, err := strconv.Atoi(val)
		return n, err == nil
	}
	return 0, false
}
