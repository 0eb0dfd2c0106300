package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/sessionforge/sessionforge/pkg/pipeline"
	"github.com/sessionforge/sessionforge/pkg/report"
	"github.com/sessionforge/sessionforge/pkg/telemetry"
)

// exitError carries the exit status of a command that already reported its
// outcome.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// runContext is the per-invocation state shared by every command: run ID,
// telemetry and the report renderer.
type runContext struct {
	id       string
	command  string
	ctx      context.Context
	cmd      *cobra.Command
	tel      *telemetry.Telemetry
	logger   zerolog.Logger
	renderer *report.Renderer
	span     trace.Span
	timer    *telemetry.Timer
}

// startRun sets up logging, metrics and tracing for one command.
func startRun(cmd *cobra.Command, command string) (*runContext, error) {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = resolveLogLevel()
	cfg.Logging.NoColor = noColor
	cfg.Tracing.Enabled = traceSpans
	cfg.Tracing.Writer = cmd.ErrOrStderr()
	cfg.Metrics.Enabled = metricsFile != ""
	cfg.Metrics.TextfilePath = metricsFile
	if v := cmd.Root().Version; v != "" {
		cfg.ServiceVersion = v
	}

	id := uuid.NewString()
	logger := telemetry.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logging).WithRunID(id)

	tel, err := telemetry.NewTelemetryWithLogger(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx := tel.WithContext(cmd.Context())
	ctx, span := tel.Tracer.StartRunSpan(ctx, id, command)

	renderer := report.New(report.Options{
		Writer:  cmd.OutOrStdout(),
		Format:  format,
		NoColor: noColor,
	})

	return &runContext{
		id:       id,
		command:  command,
		ctx:      ctx,
		cmd:      cmd,
		tel:      tel,
		logger:   logger.Zerolog().With().Str("command", command).Logger(),
		renderer: renderer,
		span:     span,
		timer:    telemetry.NewTimer(),
	}, nil
}

// finish ends the run. A non-nil err is rendered unless reported is set,
// recorded in metrics and the span, and returned as an *exitError.
func (r *runContext) finish(err error, reported bool) error {
	status := "success"
	code := pipeline.ExitSuccess

	if err != nil {
		pe := pipeline.Classify(err)
		status = string(pe.Class)
		code = pe.ExitCode()
		r.tel.Metrics.RecordError(string(pe.Class))

		if !reported {
			r.renderFailure(err)
		}
		r.logger.Debug().
			Err(err).
			Str("class", string(pe.Class)).
			Int("exit_code", code).
			Msg("Command failed")
		telemetry.RecordError(r.span, err)
	} else {
		telemetry.RecordSuccess(r.span)
	}

	r.tel.Metrics.RecordRun(r.command, status, r.timer.Duration())
	r.span.End()

	if serr := r.tel.Shutdown(context.Background()); serr != nil {
		r.logger.Warn().Err(serr).Msg("Failed to flush telemetry")
	}

	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// renderFailure writes err for the operator. Structured formats go to
// stdout so they stay machine readable; text goes to stderr.
func (r *runContext) renderFailure(err error) {
	renderer := r.renderer
	if renderer.Format() == report.FormatText {
		renderer = report.New(report.Options{Writer: r.cmd.ErrOrStderr(), NoColor: noColor})
	}
	if werr := renderer.Failure(r.id, err); werr != nil {
		fmt.Fprintf(os.Stderr, "failed to render error: %v\n", werr)
	}
}

func resolveLogLevel() string {
	if verbose {
		return "debug"
	}
	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		return "warn"
	}
}
