package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sessionforge/sessionforge/pkg/config"
	"github.com/sessionforge/sessionforge/pkg/fsutil"
	"github.com/sessionforge/sessionforge/pkg/pipeline"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a sample configuration and its schema",
		Long: `Write a sample config.yaml and the default config.schema.json into a
directory (default: sessionforge). Existing files are left alone unless
--force is given.`,
		Example: `  # Scaffold ./sessionforge
  sessionforge init

  # Scaffold elsewhere, replacing existing files
  sessionforge init plans --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := startRun(cmd, "init")
			if err != nil {
				return err
			}

			dir := filepath.Dir(pipeline.DefaultConfigPath)
			if len(args) > 0 {
				dir = args[0]
			}

			run.logger.Info().
				Str("dir", dir).
				Bool("force", force).
				Msg("Initializing configuration")

			files := []struct {
				name string
				data []byte
			}{
				{filepath.Base(pipeline.DefaultConfigPath), config.SampleConfig},
				{config.DefaultSchemaFile, config.DefaultSchema},
			}

			if !force {
				for _, f := range files {
					path := filepath.Join(dir, f.name)
					if _, err := os.Stat(path); err == nil {
						return run.finish(pipeline.NewLoadError(
							fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil,
						).WithCode("EXISTS").WithStage("init"), false)
					}
				}
			}

			if err := os.MkdirAll(dir, 0755); err != nil {
				return run.finish(pipeline.NewInternalError("failed to create directory", err), false)
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				path := filepath.Join(dir, f.name)
				if err := fsutil.AtomicWrite(path, f.data, 0644); err != nil {
					return run.finish(pipeline.NewInternalError(fmt.Sprintf("failed to write %s", path), err), false)
				}
				fmt.Fprintf(out, "✓ Wrote %s\n", path)
			}

			fmt.Fprintf(out, "\nNext steps:\n")
			fmt.Fprintf(out, "  1. Edit %s for your component and sessions\n", filepath.Join(dir, files[0].name))
			fmt.Fprintf(out, "  2. Run 'sessionforge validate -c %s'\n", filepath.Join(dir, files[0].name))

			return run.finish(nil, false)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}
