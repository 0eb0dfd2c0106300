package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatPath renders a JSON pointer (as segments) in dot/bracket notation.
// root is the validated document, consulted to tell array indices from
// object keys.
func FormatPath(root any, segments []string) string {
	var b strings.Builder
	cur := root

	for _, seg := range segments {
		if list, ok := cur.([]any); ok {
			b.WriteString("[" + seg + "]")
			cur = nil
			if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(list) {
				cur = list[idx]
			}
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)

		if obj, ok := cur.(map[string]any); ok {
			cur = obj[seg]
		} else {
			cur = nil
		}
	}

	if b.Len() == 0 {
		return RootPath
	}
	return b.String()
}

// Lookup returns the node at segments within root.
func Lookup(root any, segments []string) (any, bool) {
	cur := root
	for _, seg := range segments {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// FormatValue renders an offending value as compact JSON, truncated to
// MaxValueLength runes.
func FormatValue(v any) string {
	var s string
	if str, ok := v.(string); ok {
		s = strconv.Quote(str)
	} else if data, err := json.Marshal(v); err == nil {
		s = string(data)
	} else {
		s = fmt.Sprint(v)
	}
	return Truncate(s, MaxValueLength)
}

// Truncate shortens s to at most limit runes, adding TruncationMarker when
// anything was cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + TruncationMarker
}
