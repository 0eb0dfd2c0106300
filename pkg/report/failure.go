package report

import (
	"fmt"

	"github.com/sessionforge/sessionforge/pkg/pipeline"
)

// Failure is the structured form of a fatal error.
type Failure struct {
	RunID   string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Class   string `json:"class" yaml:"class"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Stage   string `json:"stage,omitempty" yaml:"stage,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Failure reports an error that ended the command. Configuration problems
// and tool faults are worded differently.
func (r *Renderer) Failure(runID string, err error) error {
	pe := pipeline.Classify(err)
	f := &Failure{
		RunID:   runID,
		Class:   string(pe.Class),
		Code:    pe.Code,
		Stage:   pe.Stage,
		Message: err.Error(),
	}

	if r.format != FormatText {
		return r.encode(map[string]any{"error": f})
	}

	s := r.styles
	if pe.Class == pipeline.ErrorClassInternal {
		_, werr := fmt.Fprintf(r.w, "%s %s\n%s\n",
			s.failure.Render("internal error:"), f.Message,
			s.muted.Render("This is a bug in sessionforge, not in your configuration. Re-run with --verbose and report it."))
		return werr
	}
	_, werr := fmt.Fprintf(r.w, "%s %s\n", s.failure.Render("✗ error:"), f.Message)
	return werr
}
