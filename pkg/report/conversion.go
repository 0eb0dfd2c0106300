package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sessionforge/sessionforge/pkg/convert"
)

// Conversion writes a conversion summary.
func (r *Renderer) Conversion(sum *convert.Summary) error {
	if r.format != FormatText {
		return r.encode(sum)
	}

	s := r.styles
	mode := "Applied"
	if sum.DryRun {
		mode = "Dry run"
	}
	fmt.Fprintf(r.w, "%s %s (%d file(s))\n", s.label.Render(mode+":"), sum.Dir, len(sum.Files))

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	for _, f := range sum.Files {
		name := filepath.Base(f.Path)
		switch f.Status {
		case convert.StatusFailed:
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.failure.Render(string(f.Status)), name, f.Error)
		case convert.StatusUnchanged:
			fmt.Fprintf(tw, "  %s\t%s\t\n", s.muted.Render(string(f.Status)), name)
		default:
			line := countsLine(f.Counts)
			if f.Backup != "" {
				line += "  backup " + filepath.Base(f.Backup)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.success.Render(string(f.Status)), name, line)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	verb := "converted"
	if sum.DryRun {
		verb = "would convert"
	}
	fmt.Fprintf(r.w, "%d %s, %d unchanged, %d failed\n",
		sum.Changed(), verb, len(sum.Files)-sum.Changed()-sum.Failed(), sum.Failed())
	if sum.Totals.Total() > 0 {
		fmt.Fprintf(r.w, "Totals: %s\n", countsLine(sum.Totals))
	}
	if sum.DryRun && sum.Changed() > 0 {
		fmt.Fprintln(r.w, s.muted.Render("Run with --apply to write the changes."))
	}
	return nil
}

func countsLine(c convert.Counts) string {
	parts := []string{
		fmt.Sprintf("comments=%d", c.Comments),
		fmt.Sprintf("if=%d", c.Opens),
		fmt.Sprintf("else-if=%d", c.ElseIfs),
		fmt.Sprintf("else=%d", c.Elses),
		fmt.Sprintf("endif=%d", c.Closes),
		fmt.Sprintf("variables=%d", c.Variables),
	}
	return strings.Join(parts, " ")
}
