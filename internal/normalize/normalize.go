// Package normalize coerces loosely structured scrape output into proper
// Go values before it reaches the store.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Coerce turns a raw source value into something storable. Sequences and
// mappings pass through untouched. Nil and blank strings collapse to nil.
// A string that looks like a serialized list or mapping is parsed with a
// strict, non-executing literal parser; if parsing fails the original
// string is returned unchanged so callers can still display it raw.
func Coerce(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case []any, map[string]any, []string, []map[string]any:
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if !looksStructured(trimmed) {
		return v
	}
	if parsed, err := parseStructured(trimmed); err == nil {
		return parsed
	}
	return s
}

func looksStructured(s string) bool {
	switch {
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		return true
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		return true
	}
	return false
}

// parseStructured tries JSON first since most payloads are valid JSON,
// then falls back to the Python-literal grammar the scrape source emits.
func parseStructured(s string) (any, error) {
	var out any
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out, nil
	}
	out, err := ParseLiteral(s)
	if err != nil {
		return nil, fmt.Errorf("parse structured value: %w", err)
	}
	return out, nil
}

// FirstNonEmpty returns the first candidate whose string form is non-nil
// and non-blank, or nil when every candidate is empty. It reconciles the
// multiple spellings the source uses for the same attribute.
func FirstNonEmpty(vals ...any) any {
	for _, v := range vals {
		if v == nil {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(v)) == "" {
			continue
		}
		return v
	}
	return nil
}
