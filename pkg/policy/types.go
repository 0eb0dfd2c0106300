package policy

import (
	"fmt"
	"time"
)

// Severity is the level of a policy finding. Findings never fail
// validation; the severity only changes how they are presented.
type Severity string

const (
	// SeverityInfo is for suggestions.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"
)

// Policy is a Rego module whose deny rules produce findings.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for findings.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is evaluated.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Source is the file the policy came from, empty for built-ins.
	Source string `json:"source,omitempty"`
}

// Finding is one deny result.
type Finding struct {
	// Policy is the name of the policy that produced the finding.
	Policy string `json:"policy" yaml:"policy"`

	// Path locates the configuration node, in dot notation.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Message is a human-readable message.
	Message string `json:"message" yaml:"message"`

	// Severity is the finding severity.
	Severity Severity `json:"severity" yaml:"severity"`

	// Remediation suggests a fix.
	Remediation string `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// String renders the finding as a single warning line.
func (f Finding) String() string {
	s := fmt.Sprintf("[%s] %s", f.Policy, f.Message)
	if f.Path != "" {
		s = fmt.Sprintf("[%s] %s: %s", f.Policy, f.Path, f.Message)
	}
	if f.Remediation != "" {
		s += " (" + f.Remediation + ")"
	}
	return s
}

// Input is the document handed to every policy as `input`.
type Input struct {
	// Config is the raw configuration document.
	Config any `json:"config"`

	// Context describes the evaluation.
	Context InputContext `json:"context"`
}

// InputContext provides information about the evaluation.
type InputContext struct {
	// Operation is the command being run, e.g. "validate".
	Operation string `json:"operation"`

	// ConfigPath is the configuration file being evaluated.
	ConfigPath string `json:"config_path,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of evaluating all enabled policies.
type Result struct {
	// Findings lists all deny results, ordered by policy name.
	Findings []Finding `json:"findings,omitempty"`

	// Errors lists policies that failed to evaluate.
	Errors []string `json:"errors,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Warnings renders findings and evaluation errors as warning lines.
func (r *Result) Warnings() []string {
	out := make([]string, 0, len(r.Findings)+len(r.Errors))
	for _, f := range r.Findings {
		out = append(out, f.String())
	}
	for _, e := range r.Errors {
		out = append(out, "policy evaluation failed: "+e)
	}
	return out
}
