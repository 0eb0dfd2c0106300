package schema

import (
	"context"
)

// MaxValueLength bounds the rendered offending value in a Violation.
const MaxValueLength = 100

// TruncationMarker is appended to offending values cut at MaxValueLength.
const TruncationMarker = "... (truncated)"

// SchemaPath is the Violation path used when the schema itself cannot be
// compiled.
const SchemaPath = "schema"

// RootPath is the Violation path used for violations on the document root.
const RootPath = "root"

// Violation is a single schema constraint failure.
type Violation struct {
	// Path locates the offending node in dot/bracket notation
	// (e.g. "session.session_2.duration", "items[3]"), or "root".
	Path string `json:"path" yaml:"path"`

	// Message is the human-readable problem description.
	Message string `json:"message" yaml:"message"`

	// Value is the rendered offending value, truncated to MaxValueLength.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Constraint is the violated schema keyword (required, pattern, ...).
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

// Result is the outcome of one validation run. It is built fresh per call
// and not modified after it is returned.
type Result struct {
	// Valid is true when Errors is empty.
	Valid bool `json:"valid" yaml:"valid"`

	// Errors lists every schema violation in engine order.
	Errors []Violation `json:"errors" yaml:"errors"`

	// Warnings lists non-fatal findings from later passes.
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// NewResult builds a result from a violation list.
func NewResult(violations []Violation) *Result {
	if violations == nil {
		violations = []Violation{}
	}
	return &Result{
		Valid:    len(violations) == 0,
		Errors:   violations,
		Warnings: []string{},
	}
}

// WithWarnings returns a copy of r with warnings appended.
func (r *Result) WithWarnings(warnings ...string) *Result {
	out := &Result{
		Valid:    r.Valid,
		Errors:   append([]Violation(nil), r.Errors...),
		Warnings: append(append([]string{}, r.Warnings...), warnings...),
	}
	if out.Errors == nil {
		out.Errors = []Violation{}
	}
	return out
}

// Engine compiles JSON Schema documents. Implementations are swappable.
type Engine interface {
	// Name identifies the engine (e.g. "openapi", "cue").
	Name() string

	// Compile prepares a parsed JSON Schema document for validation.
	Compile(schema any) (Compiled, error)
}

// Compiled is a schema ready to validate documents.
type Compiled interface {
	// Validate evaluates value and returns every violation found.
	Validate(ctx context.Context, value any) []Violation
}
