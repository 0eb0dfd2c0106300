package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sessionforge/sessionforge/pkg/pipeline"
)

// EnvConfig names the environment variable consulted when --config is not
// given.
const EnvConfig = "SESSIONFORGE_CONFIG"

var (
	// Global flags
	configPath   string
	schemaPath   string
	logLevel     string
	verbose      bool
	outputFormat string
	noColor      bool
	metricsFile  string
	traceSpans   bool
)

// Execute runs the root command and returns the process exit status.
func Execute(ctx context.Context, version, commit, buildDate string) (code int) {
	rootCmd := newRootCommand(version, commit, buildDate)
	return execute(ctx, rootCmd)
}

func execute(ctx context.Context, rootCmd *cobra.Command) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Command panicked")
			fmt.Fprintf(rootCmd.ErrOrStderr(), "internal error: %v\n", r)
			code = pipeline.ExitInternal
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return pipeline.ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	// Anything else failed before a command ran: bad flags or arguments.
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\nRun '%s --help' for usage.\n", err, rootCmd.CommandPath())
	return pipeline.ExitInternal
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sessionforge",
		Short: "sessionforge - session-aware configuration for AI-assisted implementation plans",
		Long: `sessionforge validates the configuration that drives plan and prompt
templates for multi-session implementation work, computes the facts for
the current session, and produces the flat context a template renderer
consumes.

Exit status:
  0  success (warnings may have been printed)
  1  the configuration must be fixed (load, schema or session errors)
  2  sessionforge itself failed, or it was invoked incorrectly`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	defaultConfig := pipeline.DefaultConfigPath
	if env := os.Getenv(EnvConfig); env != "" {
		defaultConfig = env
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "configuration file path (env "+EnvConfig+")")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "schema file path (default: config.schema.json next to the config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "export trace spans to stderr")

	// Add subcommands
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newContextCommand())
	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}
