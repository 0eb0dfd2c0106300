package config

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sessionforge/sessionforge/pkg/schema"
)

func TestDefaultSchema_OpenAPIEngine(t *testing.T) {
	validator := schema.NewValidator(schema.NewOpenAPIEngine(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name           string
		mutate         func(doc map[string]any)
		wantValid      bool
		wantPath       string
		wantConstraint string
	}{
		{
			name:      "sample config is valid",
			mutate:    func(doc map[string]any) {},
			wantValid: true,
		},
		{
			name: "session disabled without numbering is valid",
			mutate: func(doc map[string]any) {
				doc["session"] = map[string]any{"enabled": false}
			},
			wantValid: true,
		},
		{
			name: "missing feature implementer",
			mutate: func(doc map[string]any) {
				delete(section(doc, "models"), "feature_implementer")
			},
			wantPath:       "models",
			wantConstraint: "required",
		},
		{
			name: "duration without range",
			mutate: func(doc map[string]any) {
				s1 := section(section(doc, "session"), "session_1")
				s1["duration"] = "2 hours"
			},
			wantPath:       "session.session_1.duration",
			wantConstraint: "pattern",
		},
		{
			name: "unknown top-level section",
			mutate: func(doc map[string]any) {
				doc["bogus"] = true
			},
			wantConstraint: "additionalProperties",
		},
		{
			name: "issue reference without hash",
			mutate: func(doc map[string]any) {
				section(doc, "github")["issue"] = "142"
			},
			wantPath:       "github.issue",
			wantConstraint: "pattern",
		},
		{
			name: "unknown component type",
			mutate: func(doc map[string]any) {
				section(doc, "component")["type"] = "epic"
			},
			wantPath:       "component.type",
			wantConstraint: "enum",
		},
		{
			name: "model tier outside the three tiers",
			mutate: func(doc map[string]any) {
				section(doc, "models")["code_reviewer"] = "gpt"
			},
			wantPath:       "models.code_reviewer",
			wantConstraint: "enum",
		},
		{
			name: "file count is not an integer",
			mutate: func(doc map[string]any) {
				s2 := section(section(doc, "session"), "session_2")
				s2["file_count"] = "six"
			},
			wantPath:       "session.session_2.file_count",
			wantConstraint: "type",
		},
		{
			name: "session entry missing plan sections",
			mutate: func(doc map[string]any) {
				s2 := section(section(doc, "session"), "session_2")
				delete(s2, "plan_sections")
			},
			wantPath:       "session.session_2",
			wantConstraint: "required",
		},
		{
			name: "current beyond total is still schema valid",
			mutate: func(doc map[string]any) {
				s := section(doc, "session")
				s["current"] = float64(5)
				s["total"] = float64(3)
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc(t)
			tt.mutate(doc)

			result := validator.Validate(ctx, doc, defaultSchema(t))

			if tt.wantValid {
				if !result.Valid || len(result.Errors) != 0 {
					t.Fatalf("expected valid, got errors: %+v", result.Errors)
				}
				return
			}

			if result.Valid {
				t.Fatal("expected validation to fail")
			}

			found := false
			for _, v := range result.Errors {
				if v.Constraint == tt.wantConstraint && strings.HasPrefix(v.Path, tt.wantPath) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no %q violation under %q in %+v", tt.wantConstraint, tt.wantPath, result.Errors)
			}
		})
	}
}

func TestDefaultSchema_CollectsAllViolations(t *testing.T) {
	engines := []schema.Engine{schema.NewOpenAPIEngine(), schema.NewCUEEngine()}

	for _, engine := range engines {
		t.Run(engine.Name(), func(t *testing.T) {
			validator := schema.NewValidator(engine, zerolog.Nop())

			doc := sampleDoc(t)
			delete(section(doc, "models"), "feature_implementer")
			section(section(doc, "session"), "session_1")["duration"] = "2 hours"
			section(doc, "github")["issue"] = "142"
			doc["bogus"] = true

			result := validator.Validate(context.Background(), doc, defaultSchema(t))
			if result.Valid {
				t.Fatal("expected validation to fail")
			}

			want := map[string]string{
				"models":                     "required",
				"session.session_1.duration": "pattern",
				"github.issue":               "pattern",
				"bogus":                      "additionalProperties",
			}
			for path, constraint := range want {
				found := false
				for _, v := range result.Errors {
					if v.Constraint == constraint && strings.HasPrefix(v.Path, path) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("no %q violation under %q in %+v", constraint, path, result.Errors)
				}
			}
		})
	}
}

func TestDefaultSchema_CUEEngine(t *testing.T) {
	validator := schema.NewValidator(schema.NewCUEEngine(), zerolog.Nop())
	ctx := context.Background()

	t.Run("sample config is valid", func(t *testing.T) {
		result := validator.Validate(ctx, sampleDoc(t), defaultSchema(t))
		if !result.Valid {
			t.Fatalf("expected valid, got %+v", result.Errors)
		}
	})

	t.Run("missing feature implementer", func(t *testing.T) {
		doc := sampleDoc(t)
		delete(section(doc, "models"), "feature_implementer")

		result := validator.Validate(ctx, doc, defaultSchema(t))
		if result.Valid {
			t.Fatal("expected validation to fail")
		}
		found := false
		for _, v := range result.Errors {
			if strings.HasPrefix(v.Path, "models") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a violation under models, got %+v", result.Errors)
		}
	})
}
