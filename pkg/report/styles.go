package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorRed    = lipgloss.Color("#E06C75")
	colorGreen  = lipgloss.Color("#98C379")
	colorYellow = lipgloss.Color("#E5C07B")
	colorMuted  = lipgloss.Color("#828997")
)

type styles struct {
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
}

// newStyles binds styles to w so color is only emitted on a terminal.
func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		plain := r.NewStyle()
		return styles{success: plain, failure: plain, warning: plain, label: plain, muted: plain}
	}
	return styles{
		success: r.NewStyle().Foreground(colorGreen).Bold(true),
		failure: r.NewStyle().Foreground(colorRed).Bold(true),
		warning: r.NewStyle().Foreground(colorYellow),
		label:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}
