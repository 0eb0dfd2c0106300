package commands

import (
	"github.com/spf13/cobra"

	"github.com/sessionforge/sessionforge/pkg/document"
	"github.com/sessionforge/sessionforge/pkg/pipeline"
	"github.com/sessionforge/sessionforge/pkg/report"
	"github.com/sessionforge/sessionforge/pkg/schema"
)

func newValidateCommand() *cobra.Command {
	var (
		engine   string
		lint     bool
		policies []string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration against its schema",
		Long: `Validate the configuration file against its JSON Schema.

Every schema violation is collected and reported together. A valid
configuration is then checked for inconsistent session bookkeeping, which
is reported as warnings and does not fail validation.

With --lint, advisory Rego policies run over the configuration as well.
Their findings are also warnings.`,
		Example: `  # Validate the default configuration
  sessionforge validate

  # Validate another file with the CUE engine
  sessionforge validate -c plans/webhooks.yaml --engine cue

  # Run the built-in and team policies
  sessionforge validate --lint --policy ./policies

  # Re-validate on every save
  sessionforge validate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := startRun(cmd, "validate")
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				ConfigPath:  configPath,
				SchemaPath:  schemaPath,
				Engine:      engine,
				Lint:        lint,
				PolicyPaths: policies,
			}

			run.logger.Info().
				Str("config", configPath).
				Str("engine", engine).
				Bool("lint", opts.Lint || len(policies) > 0).
				Msg("Validating configuration")

			p := pipeline.New(run.logger)

			if watch {
				return run.finish(watchValidate(run, p, opts), false)
			}

			reported, err := validateOnce(run, p, opts)
			return run.finish(err, reported)
		},
	}

	cmd.Flags().StringVar(&engine, "engine", schema.DefaultEngine, "schema engine: openapi, cue")
	cmd.Flags().BoolVar(&lint, "lint", false, "run advisory policies after validation")
	cmd.Flags().StringSliceVar(&policies, "policy", nil, "policy file or directory (implies --lint, repeatable)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate whenever the config or schema changes")

	return cmd
}

// validateOnce runs the pipeline and renders the report. reported says
// whether err has already been shown to the operator.
func validateOnce(run *runContext, p *pipeline.Pipeline, opts pipeline.Options) (bool, error) {
	out, err := p.Validate(run.ctx, opts)
	if err != nil {
		return false, err
	}
	if rerr := run.renderer.Validation(report.NewValidation(run.id, out)); rerr != nil {
		return false, pipeline.NewInternalError("failed to write report", rerr)
	}
	return true, out.Err()
}

// watchValidate validates now and after every change until the context is
// cancelled. Failures are reported and watching continues.
func watchValidate(run *runContext, p *pipeline.Pipeline, opts pipeline.Options) error {
	cfg := opts.ConfigPath
	files := []string{cfg, pipeline.ResolveSchemaPath(cfg, opts.SchemaPath)}

	check := func() {
		reported, err := validateOnce(run, p, opts)
		if err != nil && !reported {
			run.renderFailure(err)
		}
	}

	check()

	w := document.NewWatcher(run.logger, document.DefaultDebounce)
	if err := w.Watch(run.ctx, files, check); err != nil {
		return pipeline.NewInternalError("file watcher failed", err)
	}
	return nil
}
