package schema

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatPath(t *testing.T) {
	doc := map[string]any{
		"session": map[string]any{
			"session_1": map[string]any{"duration": "2 hours"},
		},
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
		},
	}

	tests := []struct {
		segments []string
		want     string
	}{
		{nil, "root"},
		{[]string{"session", "session_1", "duration"}, "session.session_1.duration"},
		{[]string{"items", "1", "name"}, "items[1].name"},
		{[]string{"items", "7"}, "items[7]"},
		{[]string{"missing", "child"}, "missing.child"},
	}
	for _, tt := range tests {
		if got := FormatPath(doc, tt.segments); got != tt.want {
			t.Errorf("FormatPath(%v) = %q, want %q", tt.segments, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	doc := map[string]any{"a": []any{map[string]any{"b": 1.0}}}

	if v, ok := Lookup(doc, []string{"a", "0", "b"}); !ok || v != 1.0 {
		t.Errorf("Lookup(a.0.b) = %v, %v", v, ok)
	}
	if _, ok := Lookup(doc, []string{"a", "3"}); ok {
		t.Error("expected out-of-range index to miss")
	}
	if _, ok := Lookup(doc, []string{"x"}); ok {
		t.Error("expected missing key to miss")
	}
}

func TestFormatValue(t *testing.T) {
	if got := FormatValue("2 hours"); got != `"2 hours"` {
		t.Errorf("FormatValue(string) = %q", got)
	}
	if got := FormatValue(3.0); got != "3" {
		t.Errorf("FormatValue(3.0) = %q", got)
	}
	if got := FormatValue(nil); got != "null" {
		t.Errorf("FormatValue(nil) = %q", got)
	}

	long := FormatValue(strings.Repeat("é", 250))
	if !strings.HasSuffix(long, TruncationMarker) {
		t.Fatalf("expected truncation marker, got %q", long)
	}
	body := strings.TrimSuffix(long, TruncationMarker)
	if n := utf8.RuneCountInString(body); n != MaxValueLength {
		t.Errorf("truncated body has %d runes, want %d", n, MaxValueLength)
	}
}

func TestResult_WithWarnings(t *testing.T) {
	r := NewResult(nil)
	if !r.Valid || r.Errors == nil {
		t.Fatalf("unexpected empty result: %+v", r)
	}

	w := r.WithWarnings("first", "second")
	if len(w.Warnings) != 2 {
		t.Errorf("warnings = %v", w.Warnings)
	}
	if len(r.Warnings) != 0 {
		t.Error("WithWarnings must not modify the receiver")
	}
}
