package config

import (
	"testing"

	"github.com/sessionforge/sessionforge/pkg/document"
)

// sampleDoc returns a fresh copy of the embedded sample configuration.
func sampleDoc(t *testing.T) map[string]any {
	t.Helper()
	v, err := document.Parse(SampleConfig, document.FormatYAML)
	if err != nil {
		t.Fatalf("failed to parse sample config: %v", err)
	}
	return v.(map[string]any)
}

func defaultSchema(t *testing.T) any {
	t.Helper()
	v, err := document.Parse(DefaultSchema, document.FormatJSON)
	if err != nil {
		t.Fatalf("failed to parse default schema: %v", err)
	}
	return v
}

// section returns doc[key] as an object.
func section(doc map[string]any, key string) map[string]any {
	return doc[key].(map[string]any)
}
