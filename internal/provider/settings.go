// Package provider holds small helpers shared by the pluggable provider
// packages (llm, tts, notify).
package provider

import (
	"strconv"
	"strings"
)

// Settings is the free-form per-instance configuration block from the
// config file. Values arrive as whatever YAML parsed them into, so the
// accessors normalize across string/int/float representations.
type Settings map[string]any

// String returns the string value for key, or def when absent or empty.
func (s Settings) String(key, def string) string {
	v, ok := s[key]
	if !ok {
		return def
	}
	str, ok := v.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return def
	}
	return str
}

// Int returns the integer value for key, or def when absent or unparseable.
func (s Settings) Int(key string, def int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Float returns the float value for key, or def when absent or unparseable.
func (s Settings) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the boolean value for key, or def when absent or unparseable.
func (s Settings) Bool(key string, def bool) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}
