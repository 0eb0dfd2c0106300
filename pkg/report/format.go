// Package report renders command results for the operator: validation
// outcomes, conversion summaries and rendering contexts, as styled text,
// JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: text, json, yaml)", s)
	}
}

// Options configures a Renderer.
type Options struct {
	// Writer is where output is written (defaults to os.Stdout).
	Writer io.Writer

	// Format selects the output encoding.
	Format Format

	// NoColor disables styling in text output. The NO_COLOR environment
	// variable has the same effect.
	NoColor bool
}

// Renderer writes reports in one format.
type Renderer struct {
	w      io.Writer
	format Format
	styles styles
}

// New creates a renderer.
func New(opts Options) *Renderer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		opts.NoColor = true
	}
	return &Renderer{
		w:      opts.Writer,
		format: opts.Format,
		styles: newStyles(opts.Writer, opts.NoColor),
	}
}

// Format returns the renderer's output format.
func (r *Renderer) Format() Format {
	return r.format
}

// encode writes data as JSON or YAML.
func (r *Renderer) encode(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("format %s is not structured", r.format)
	}
}
