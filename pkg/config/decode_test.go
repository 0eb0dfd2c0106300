package config

import (
	"errors"
	"strings"
	"testing"
)

func TestDecoder_DecodeSample(t *testing.T) {
	cfg, err := NewDecoder().Decode(sampleDoc(t))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if cfg.Component.Name != "Payment Webhooks" {
		t.Errorf("component name = %q", cfg.Component.Name)
	}
	if cfg.Component.Type != ComponentFeature {
		t.Errorf("component type = %q", cfg.Component.Type)
	}
	if !cfg.Session.Enabled || cfg.Session.Current != 1 || cfg.Session.Total != 2 {
		t.Errorf("unexpected session settings: %+v", cfg.Session)
	}
	if len(cfg.Session.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(cfg.Session.Entries))
	}

	s2, ok := cfg.Session.Entry(2)
	if !ok {
		t.Fatal("expected session 2")
	}
	if s2.Number != 2 || s2.FileCount != 6 || s2.Duration != "2-3 hours" {
		t.Errorf("unexpected session 2: %+v", s2)
	}
	if s2.PlanSections.ComprehensiveVerification == "" {
		t.Error("expected comprehensive verification reference on session 2")
	}

	if cfg.GitHub == nil || cfg.GitHub.Issue != "#142" {
		t.Errorf("unexpected github section: %+v", cfg.GitHub)
	}
	if cfg.PlanMode != nil {
		t.Errorf("expected no plan mode, got %+v", cfg.PlanMode)
	}
	if cfg.Models.FeatureImplementer != TierSonnet || cfg.Models.Researcher != "" {
		t.Errorf("unexpected models: %+v", cfg.Models)
	}
	if !cfg.Context.RequiresMigration || cfg.Context.HasUIChanges {
		t.Errorf("unexpected flags: %+v", cfg.Context)
	}
}

func TestSessionBlock_EntryBounds(t *testing.T) {
	doc := sampleDoc(t)
	s := section(doc, "session")
	s["total"] = float64(4)
	delete(s, "session_2")
	s["session_6"] = section(doc, "session")["session_1"]
	s["session_x"] = map[string]any{}

	cfg, err := NewDecoder().Decode(doc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	block := cfg.Session

	if len(block.Entries) != 6 {
		t.Fatalf("entries length = %d, want 6", len(block.Entries))
	}
	for _, n := range []int{-1, 0, 2, 3, 4, 5, 7, 100} {
		if _, ok := block.Entry(n); ok {
			t.Errorf("Entry(%d) unexpectedly present", n)
		}
	}
	if e, ok := block.Entry(6); !ok || e.Number != 6 {
		t.Errorf("Entry(6) = %+v, %v", e, ok)
	}

	if got := block.Missing(); len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Errorf("Missing() = %v, want [2 3 4]", got)
	}
	if got := block.Stray(); len(got) != 1 || got[0] != 6 {
		t.Errorf("Stray() = %v, want [6]", got)
	}
	if len(block.UnknownKeys) != 1 || block.UnknownKeys[0] != "session_x" {
		t.Errorf("UnknownKeys = %v", block.UnknownKeys)
	}
}

func TestDecoder_StructConstraints(t *testing.T) {
	doc := sampleDoc(t)
	section(doc, "component")["type"] = "epic"
	delete(section(doc, "models"), "feature_implementer")
	section(section(doc, "session"), "session_1")["scope"] = ""

	_, err := NewDecoder().Decode(doc)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}

	want := map[string]string{
		"component.type":             "enum",
		"models.feature_implementer": "required",
		"session.session_1.scope":    "required",
	}
	for _, v := range decodeErr.Violations {
		if constraint, ok := want[v.Path]; ok && constraint == v.Constraint {
			delete(want, v.Path)
		}
	}
	if len(want) > 0 {
		t.Errorf("missing violations %v in %+v", want, decodeErr.Violations)
	}
	if !strings.Contains(err.Error(), "component.type") {
		t.Errorf("error text should name the field: %v", err)
	}
}

func TestParseSessionKey(t *testing.T) {
	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"session_1", 1, true},
		{"session_12", 12, true},
		{"session_0", 0, false},
		{"session_", 0, false},
		{"session_1a", 0, false},
		{"sessions_1", 0, false},
		{"enabled", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseSessionKey(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSessionKey(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
		if ok && SessionKey(got) != tt.key {
			t.Errorf("SessionKey(%d) = %q, want %q", got, SessionKey(got), tt.key)
		}
	}
}
