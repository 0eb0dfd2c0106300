package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessionforge/sessionforge/pkg/convert"
	"github.com/sessionforge/sessionforge/pkg/pipeline"
)

func newConvertCommand() *cobra.Command {
	var (
		dir       string
		dryRun    bool
		apply     bool
		extension string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert legacy templates to the handlebars-style syntax",
		Long: `Rewrite legacy templates ({% if %}, {# #}, {{ var }}) into the syntax the
renderer expects ({{#if}}, {{!-- --}}, {{var}}).

By default nothing is written: each file is reported with the changes it
would receive. With --apply every changed file is first copied to
<file>.bak, the copy is verified, and the original is replaced. A file
that fails is reported and the rest are still processed.`,
		Example: `  # See what would change
  sessionforge convert

  # Convert in place, keeping backups
  sessionforge convert --apply

  # Another directory
  sessionforge convert --dir ./templates --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := startRun(cmd, "convert")
			if err != nil {
				return err
			}

			if apply {
				dryRun = false
			}

			run.logger.Info().
				Str("dir", dir).
				Bool("dry_run", dryRun).
				Msg("Converting templates")

			c := convert.NewConverter(run.logger, convert.Options{
				DryRun:    dryRun,
				Extension: extension,
			})
			sum, err := c.ConvertDir(run.ctx, dir)
			if err != nil {
				return run.finish(pipeline.NewLoadError("cannot convert templates", err).WithStage("convert"), false)
			}

			metrics := run.tel.Metrics
			for _, f := range sum.Files {
				metrics.RecordTemplate(string(f.Status))
			}
			metrics.RecordRewrites("comment", sum.Totals.Comments)
			metrics.RecordRewrites("if", sum.Totals.Opens)
			metrics.RecordRewrites("else_if", sum.Totals.ElseIfs)
			metrics.RecordRewrites("else", sum.Totals.Elses)
			metrics.RecordRewrites("endif", sum.Totals.Closes)
			metrics.RecordRewrites("variable", sum.Totals.Variables)

			if err := run.renderer.Conversion(sum); err != nil {
				return run.finish(pipeline.NewInternalError("failed to write report", err), false)
			}

			if n := sum.Failed(); n > 0 {
				err := fmt.Errorf("%d template(s) could not be converted", n)
				return run.finish(pipeline.NewLoadError("", err).WithStage("convert"), true)
			}
			return run.finish(nil, false)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", convert.DefaultDir, "templates directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "report changes without writing")
	cmd.Flags().BoolVar(&apply, "apply", false, "write changes, keeping a .bak backup of each file")
	cmd.Flags().StringVar(&extension, "ext", convert.DefaultExtension, "extension of legacy templates")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "apply")

	return cmd
}
