package api

import (
	"fmt"
	"strings"
)

// Record is a remote record as decoded from JSON.
type Record map[string]any

// ID returns the record's Id field, or the id returned by a create call.
func (r Record) ID() string {
	if v := r.String("Id"); v != "" {
		return v
	}
	return r.String("id")
}

// Type returns attributes.type.
func (r Record) Type() string {
	return r.String("attributes.type")
}

// Value looks up a dotted path such as "Account.Name".
func (r Record) Value(path string) (any, bool) {
	var cur any = map[string]any(r)
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

// String returns the value at path formatted as a string; missing and null
// values yield "".
func (r Record) String(path string) string {
	v, ok := r.Value(path)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprint(s)
	}
}

// Bool returns the boolean at path, false when absent.
func (r Record) Bool(path string) bool {
	v, _ := r.Value(path)
	b, _ := v.(bool)
	return b
}

// Records returns the list at path as records, skipping non-object items.
func (r Record) Records(path string) []Record {
	v, ok := r.Value(path)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := asMap(item); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}
