package report

import (
	"fmt"
	"strings"

	"github.com/sessionforge/sessionforge/pkg/pipeline"
	"github.com/sessionforge/sessionforge/pkg/schema"
)

// Validation is the validate command's report.
type Validation struct {
	RunID      string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	ConfigPath string             `json:"config_path" yaml:"config_path"`
	SchemaPath string             `json:"schema_path" yaml:"schema_path"`
	Engine     string             `json:"engine" yaml:"engine"`
	Valid      bool               `json:"valid" yaml:"valid"`
	Errors     []schema.Violation `json:"errors" yaml:"errors"`
	Warnings   []string           `json:"warnings" yaml:"warnings"`
}

// NewValidation builds a report from a pipeline outcome.
func NewValidation(runID string, out *pipeline.Outcome) *Validation {
	v := &Validation{
		RunID:      runID,
		ConfigPath: out.ConfigPath,
		SchemaPath: out.SchemaPath,
		Engine:     out.Engine,
		Errors:     []schema.Violation{},
		Warnings:   []string{},
	}
	if out.Result != nil {
		v.Valid = out.Result.Valid
		v.Errors = out.Result.Errors
		v.Warnings = out.Result.Warnings
	}
	return v
}

// Validation writes a validation report.
func (r *Renderer) Validation(v *Validation) error {
	if r.format != FormatText {
		return r.encode(v)
	}

	var b strings.Builder
	s := r.styles

	if !v.Valid {
		fmt.Fprintf(&b, "%s %s has %d validation error(s)\n",
			s.failure.Render("✗"), v.ConfigPath, len(v.Errors))
		for i, e := range v.Errors {
			fmt.Fprintf(&b, "\n%s %s\n", s.failure.Render(fmt.Sprintf("%d.", i+1)), e.Path)
			fmt.Fprintf(&b, "   %s %s\n", s.label.Render("Problem:   "), e.Message)
			if e.Value != "" {
				fmt.Fprintf(&b, "   %s %s\n", s.label.Render("Value:     "), e.Value)
			}
			if e.Constraint != "" {
				fmt.Fprintf(&b, "   %s %s\n", s.label.Render("Constraint:"), e.Constraint)
			}
		}
		b.WriteString("\n")
		b.WriteString(s.muted.Render("Fix the errors above and run validate again."))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "%s %s is valid %s\n",
			s.success.Render("✓"), v.ConfigPath,
			s.muted.Render(fmt.Sprintf("(schema %s, engine %s)", v.SchemaPath, v.Engine)))
	}

	for _, w := range v.Warnings {
		fmt.Fprintf(&b, "%s %s\n", s.warning.Render("⚠ warning:"), w)
	}

	_, err := fmt.Fprint(r.w, b.String())
	return err
}
