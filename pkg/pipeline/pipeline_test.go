package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sessionforge/sessionforge/pkg/config"
	"github.com/sessionforge/sessionforge/pkg/telemetry"
)

var fixedTime = time.Date(2026, 3, 14, 8, 26, 53, 0, time.UTC)

// writeConfig writes the sample configuration, edited by the given
// old/new replacement pairs, and the default schema to a temp dir.
func writeConfig(t *testing.T, replacements ...string) string {
	t.Helper()
	dir := t.TempDir()

	content := string(config.SampleConfig)
	for i := 0; i+1 < len(replacements); i += 2 {
		if !strings.Contains(content, replacements[i]) {
			t.Fatalf("sample config has no %q", replacements[i])
		}
		content = strings.Replace(content, replacements[i], replacements[i+1], 1)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.DefaultSchemaFile), config.DefaultSchema, 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func newPipeline() *Pipeline {
	return New(zerolog.Nop(), WithClock(func() time.Time { return fixedTime }))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		replacements   []string
		opts           Options
		wantValid      bool
		wantConstraint string
		wantWarning    string
	}{
		{
			name:      "sample",
			wantValid: true,
		},
		{
			name:           "bad duration",
			replacements:   []string{"duration: 3-4 hours", "duration: 3 hours"},
			wantConstraint: "pattern",
		},
		{
			name:           "missing feature implementer",
			replacements:   []string{"feature_implementer: sonnet", "researcher: sonnet"},
			wantConstraint: "required",
		},
		{
			name:         "current beyond total",
			replacements: []string{"current: 1", "current: 5"},
			wantValid:    true,
			wantWarning:  "session.current (5) exceeds session.total (2)",
		},
		{
			name:         "lint finding",
			replacements: []string{"file_count: 8", "file_count: 22"},
			opts:         Options{Lint: true},
			wantValid:    true,
			wantWarning:  "[session-file-count] session.session_1.file_count",
		},
		{
			name:         "lint disabled",
			replacements: []string{"file_count: 8", "file_count: 22"},
			wantValid:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.ConfigPath = writeConfig(t, tt.replacements...)

			out, err := newPipeline().Validate(context.Background(), opts)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}

			if out.Result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %+v)", out.Result.Valid, tt.wantValid, out.Result.Errors)
			}

			if tt.wantValid {
				if out.Config == nil {
					t.Error("valid outcome has no typed config")
				}
				if out.Err() != nil {
					t.Errorf("Err() = %v, want nil", out.Err())
				}
			} else {
				found := false
				for _, v := range out.Result.Errors {
					if v.Constraint == tt.wantConstraint {
						found = true
					}
				}
				if !found {
					t.Errorf("no %q violation in %+v", tt.wantConstraint, out.Result.Errors)
				}
				if ExitCode(out.Err()) != ExitInvalid {
					t.Errorf("invalid config exit = %d, want %d", ExitCode(out.Err()), ExitInvalid)
				}
			}

			if tt.wantWarning == "" {
				if len(out.Result.Warnings) != 0 {
					t.Errorf("unexpected warnings: %v", out.Result.Warnings)
				}
				return
			}
			found := false
			for _, w := range out.Result.Warnings {
				if strings.Contains(w, tt.wantWarning) {
					found = true
				}
			}
			if !found {
				t.Errorf("warnings %v do not mention %q", out.Result.Warnings, tt.wantWarning)
			}
		})
	}
}

func TestValidate_SchemaNextToConfig(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := newPipeline().Validate(context.Background(), Options{ConfigPath: cfgPath})
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(filepath.Dir(cfgPath), "config.schema.json")
	if out.SchemaPath != want {
		t.Errorf("SchemaPath = %s, want %s", out.SchemaPath, want)
	}
	if out.Engine != "openapi" {
		t.Errorf("Engine = %s, want openapi", out.Engine)
	}
}

func TestValidate_SelectsEngine(t *testing.T) {
	out, err := newPipeline().Validate(context.Background(), Options{ConfigPath: writeConfig(t), Engine: "cue"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if out.Engine != "cue" {
		t.Errorf("Engine = %s, want cue", out.Engine)
	}
	if out.Result == nil {
		t.Error("no result")
	}
}

func TestValidate_Failures(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("component: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		opts      Options
		wantClass ErrorClass
		wantCode  string
		wantExit  int
	}{
		{
			name:      "missing config",
			opts:      Options{ConfigPath: filepath.Join(dir, "nope.yaml")},
			wantClass: ErrorClassLoad,
			wantCode:  ErrCodeNotFound,
			wantExit:  ExitInvalid,
		},
		{
			name:      "invalid yaml",
			opts:      Options{ConfigPath: badYAML},
			wantClass: ErrorClassLoad,
			wantCode:  ErrCodeInvalidSyntax,
			wantExit:  ExitInvalid,
		},
		{
			name:      "missing schema",
			opts:      Options{ConfigPath: writeConfig(t), SchemaPath: filepath.Join(dir, "none.json")},
			wantClass: ErrorClassLoad,
			wantCode:  ErrCodeNotFound,
			wantExit:  ExitInvalid,
		},
		{
			name:      "unknown engine",
			opts:      Options{ConfigPath: writeConfig(t), Engine: "xsd"},
			wantClass: ErrorClassInternal,
			wantCode:  ErrCodeUnknownEngine,
			wantExit:  ExitInternal,
		},
		{
			name:      "missing policy dir",
			opts:      Options{ConfigPath: writeConfig(t), PolicyPaths: []string{filepath.Join(dir, "policies")}},
			wantClass: ErrorClassLoad,
			wantExit:  ExitInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newPipeline().Validate(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("expected an error")
			}
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a *Error", err)
			}
			if pe.Class != tt.wantClass {
				t.Errorf("Class = %s, want %s", pe.Class, tt.wantClass)
			}
			if tt.wantCode != "" && pe.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", pe.Code, tt.wantCode)
			}
			if got := ExitCode(err); got != tt.wantExit {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantExit)
			}
		})
	}
}

func TestContext(t *testing.T) {
	out, m, err := newPipeline().Context(context.Background(), Options{ConfigPath: writeConfig(t)})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if !out.Result.Valid {
		t.Fatal("sample should be valid")
	}

	want := map[string]string{
		"session_number":        "1",
		"total_sessions":        "2",
		"is_final_session":      "false",
		"next_session":          "2",
		"next_session_scope":    "Retry queue, dead-letter handling and admin endpoints",
		"component_name":        "Payment Webhooks",
		"github_issue":          "#142",
		"models_test_writer":    "haiku",
		"plan_mode_section_ref": "",
		"generated_at":          "2026-03-14 08:26:53 UTC",
	}
	for k, v := range want {
		got, ok := m[k]
		if !ok {
			t.Errorf("context has no key %s", k)
			continue
		}
		if fmt.Sprint(got) != v {
			t.Errorf("%s = %v, want %s", k, got, v)
		}
	}
}

func TestContext_MissingSession(t *testing.T) {
	cfgPath := writeConfig(t, "current: 1", "current: 3", "total: 2", "total: 3")

	out, m, err := newPipeline().Context(context.Background(), Options{ConfigPath: cfgPath})
	if err == nil {
		t.Fatal("expected a missing session error")
	}
	if m != nil {
		t.Error("no context should be built")
	}
	if out == nil || !out.Result.Valid {
		t.Error("the configuration itself is schema-valid")
	}
	if !errors.Is(err, ErrSession) {
		t.Errorf("error %v is not session-class", err)
	}
	if !strings.Contains(err.Error(), "session_3") {
		t.Errorf("error %q does not name session_3", err)
	}
	if ExitCode(err) != ExitInvalid {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitInvalid)
	}
}

func TestContext_InvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "type: feature", "type: chore")

	_, m, err := newPipeline().Context(context.Background(), Options{ConfigPath: cfgPath})
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("error = %v, want schema-class", err)
	}
	if m != nil {
		t.Error("no context should be built")
	}
}

func TestValidate_RecordsMetrics(t *testing.T) {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"
	cfg.Metrics.Enabled = true
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := tel.WithContext(context.Background())

	cfgPath := writeConfig(t, "duration: 3-4 hours", "duration: 3 hours")
	if _, err := newPipeline().Validate(ctx, Options{ConfigPath: cfgPath}); err != nil {
		t.Fatal(err)
	}

	families, err := tel.Metrics.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if strings.HasSuffix(f.GetName(), "schema_violations_total") {
			found = true
		}
	}
	if !found {
		t.Error("no violation metric recorded")
	}
}
