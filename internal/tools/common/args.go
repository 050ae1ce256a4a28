package common

import (
	"fmt"
	"strings"
	"time"
)

// StringArg returns args[key] trimmed, or "" when absent or not a string.
func StringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// RequireString returns args[key] or an error naming the missing argument.
func RequireString(args map[string]any, key string) (string, error) {
	v := StringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// BoolArg returns args[key], or def when absent.
func BoolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// IntArg returns args[key] as an int, or def when absent. JSON numbers
// arrive as float64.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// ListArg accepts a comma separated string or an array of strings.
func ListArg(args map[string]any, key string) []string {
	var raw []string
	switch v := args[key].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TimeArg parses args[key] as RFC 3339 or a YYYY-MM-DD date. It returns nil
// when the argument is absent.
func TimeArg(args map[string]any, key string) (*time.Time, error) {
	v := StringArg(args, key)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date, got %q", key, v)
}

// ObjectArg returns args[key] when it is a JSON object.
func ObjectArg(args map[string]any, key string) (map[string]any, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", key)
	case map[string]any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", key)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%s must be an object", key)
}
