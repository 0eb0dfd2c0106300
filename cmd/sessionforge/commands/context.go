package commands

import (
	"github.com/spf13/cobra"

	"github.com/sessionforge/sessionforge/pkg/pipeline"
	"github.com/sessionforge/sessionforge/pkg/report"
)

func newContextCommand() *cobra.Command {
	var engine string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the rendering context for the current session",
		Long: `Validate the configuration, compute the current session's facts and print
the flat key/value context a template renderer substitutes.

The configuration must be valid and the current session's entry must
exist. Use -o json or -o yaml to feed the context to a renderer.`,
		Example: `  # Show the context as text
  sessionforge context

  # Hand the context to a renderer
  sessionforge context -o json > context.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := startRun(cmd, "context")
			if err != nil {
				return err
			}

			p := pipeline.New(run.logger)
			out, m, err := p.Context(run.ctx, pipeline.Options{
				ConfigPath: configPath,
				SchemaPath: schemaPath,
				Engine:     engine,
			})
			if err != nil {
				// Show every violation, not just the count.
				if out != nil && out.Err() != nil {
					if rerr := run.renderer.Validation(report.NewValidation(run.id, out)); rerr == nil {
						return run.finish(err, true)
					}
				}
				return run.finish(err, false)
			}

			for _, w := range out.Result.Warnings {
				run.logger.Warn().Msg(w)
			}

			if err := run.renderer.Context(m); err != nil {
				return run.finish(pipeline.NewInternalError("failed to write context", err), false)
			}
			return run.finish(nil, false)
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "", "schema engine: openapi, cue")

	return cmd
}
