package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// baseConfig is a minimal configuration that no built-in policy flags.
func baseConfig() map[string]any {
	return map[string]any{
		"component": map[string]any{"name": "Webhooks", "type": "feature"},
		"session": map[string]any{
			"enabled": true,
			"current": 1,
			"total":   2,
			"session_1": map[string]any{
				"scope":      "receiver",
				"duration":   "2-3 hours",
				"file_count": 5,
			},
			"session_2": map[string]any{
				"scope":      "retries",
				"duration":   "3-4 hours",
				"file_count": 4,
			},
		},
		"context": map[string]any{
			"has_api_changes":         true,
			"include_security_review": true,
		},
	}
}

func session(cfg map[string]any, key string) map[string]any {
	return cfg["session"].(map[string]any)[key].(map[string]any)
}

func TestNewEngine(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	expected := []string{
		"api-security-review",
		"next-session-scope",
		"plan-mode-reference",
		"session-duration",
		"session-file-count",
	}

	policies := eng.ListPolicies()
	if len(policies) != len(expected) {
		t.Fatalf("Expected %d built-in policies, got %d", len(expected), len(policies))
	}
	for i, name := range expected {
		if policies[i].Name != name {
			t.Errorf("policy %d = %s, want %s", i, policies[i].Name, name)
		}
	}
}

func TestEvaluate_BuiltinPolicies(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	tests := []struct {
		name       string
		mutate     func(cfg map[string]any)
		wantPolicy string
		wantPath   string
	}{
		{
			name:   "clean config",
			mutate: func(cfg map[string]any) {},
		},
		{
			name: "too many files",
			mutate: func(cfg map[string]any) {
				session(cfg, "session_2")["file_count"] = 22
			},
			wantPolicy: "session-file-count",
			wantPath:   "session.session_2.file_count",
		},
		{
			name: "long session",
			mutate: func(cfg map[string]any) {
				session(cfg, "session_1")["duration"] = "6-10 hours"
			},
			wantPolicy: "session-duration",
			wantPath:   "session.session_1.duration",
		},
		{
			name: "reversed duration",
			mutate: func(cfg map[string]any) {
				session(cfg, "session_1")["duration"] = "4-2 hours"
			},
			wantPolicy: "session-duration",
			wantPath:   "session.session_1.duration",
		},
		{
			name: "next session without scope",
			mutate: func(cfg map[string]any) {
				session(cfg, "session_2")["scope"] = "  "
			},
			wantPolicy: "next-session-scope",
			wantPath:   "session.session_2.scope",
		},
		{
			name: "plan mode without reference",
			mutate: func(cfg map[string]any) {
				cfg["plan_mode"] = map[string]any{}
			},
			wantPolicy: "plan-mode-reference",
			wantPath:   "plan_mode.section_ref",
		},
		{
			name: "api changes without security review",
			mutate: func(cfg map[string]any) {
				cfg["context"].(map[string]any)["include_security_review"] = false
			},
			wantPolicy: "api-security-review",
			wantPath:   "context.include_security_review",
		},
		{
			name: "sessions disabled skip session policies",
			mutate: func(cfg map[string]any) {
				cfg["session"].(map[string]any)["enabled"] = false
				session(cfg, "session_2")["file_count"] = 99
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)

			result, err := eng.Evaluate(context.Background(), &Input{
				Config:  cfg,
				Context: InputContext{Operation: "validate"},
			})
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if len(result.Errors) != 0 {
				t.Fatalf("policy errors: %v", result.Errors)
			}
			if len(result.EvaluatedPolicies) != 5 {
				t.Errorf("evaluated %d policies, want 5", len(result.EvaluatedPolicies))
			}

			if tt.wantPolicy == "" {
				if len(result.Findings) != 0 {
					t.Errorf("expected no findings, got %+v", result.Findings)
				}
				return
			}

			if len(result.Findings) != 1 {
				t.Fatalf("expected 1 finding, got %+v", result.Findings)
			}
			f := result.Findings[0]
			if f.Policy != tt.wantPolicy || f.Path != tt.wantPath {
				t.Errorf("finding = %+v, want policy %s at %s", f, tt.wantPolicy, tt.wantPath)
			}
			if f.Message == "" {
				t.Error("finding has no message")
			}
		})
	}
}

func TestEvaluate_DisabledPolicy(t *testing.T) {
	eng, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if err := eng.DisablePolicy("api-security-review"); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg["context"].(map[string]any)["include_security_review"] = false

	result, err := eng.Evaluate(context.Background(), &Input{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Findings) != 0 {
		t.Errorf("disabled policy produced findings: %+v", result.Findings)
	}
	if len(result.EvaluatedPolicies) != 4 {
		t.Errorf("evaluated %d policies, want 4", len(result.EvaluatedPolicies))
	}

	if err := eng.EnablePolicy("missing"); err == nil {
		t.Error("expected an error enabling an unknown policy")
	}
}

func TestEngine_LoadPolicies(t *testing.T) {
	dir := t.TempDir()
	rego := `# Implementation should not run on the smallest tier.
package team.lint

import rego.v1

deny contains "feature_implementer should not be haiku" if {
	input.config.models.feature_implementer == "haiku"
}
`
	if err := os.WriteFile(filepath.Join(dir, "tiers.rego"), []byte(rego), 0644); err != nil {
		t.Fatal(err)
	}

	eng, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies() error = %v", err)
	}

	p, err := eng.GetPolicy("tiers")
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if p.Description != "Implementation should not run on the smallest tier." {
		t.Errorf("description = %q", p.Description)
	}

	cfg := baseConfig()
	cfg["models"] = map[string]any{"feature_implementer": "haiku"}

	result, err := eng.Evaluate(context.Background(), &Input{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Findings) != 1 || result.Findings[0].Policy != "tiers" {
		t.Fatalf("findings = %+v, want one from tiers", result.Findings)
	}

	warnings := result.Warnings()
	if len(warnings) != 1 || !strings.HasPrefix(warnings[0], "[tiers] ") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestEngine_LoadPolicies_InvalidRego(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.rego")
	if err := os.WriteFile(path, []byte("package broken\n\ndeny contains x if {"), 0644); err != nil {
		t.Fatal(err)
	}

	eng, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.LoadPolicies(context.Background(), []string{path}); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestFinding_String(t *testing.T) {
	f := Finding{Policy: "p", Path: "a.b", Message: "bad", Remediation: "fix it"}
	if got, want := f.String(), "[p] a.b: bad (fix it)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	f = Finding{Policy: "p", Message: "bad"}
	if got, want := f.String(), "[p] bad"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
