package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sessionforge/sessionforge/pkg/report"
)

func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			info := map[string]string{
				"version":    version,
				"commit":     commit,
				"build_date": buildDate,
				"go":         runtime.Version(),
			}
			if format != report.FormatText {
				r := report.New(report.Options{Writer: cmd.OutOrStdout(), Format: format})
				return r.Context(toMap(info))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sessionforge %s (commit: %s, built: %s, %s)\n",
				version, commit, buildDate, runtime.Version())
			return nil
		},
	}
}

func toMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
