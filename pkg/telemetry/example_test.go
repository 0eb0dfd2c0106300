package telemetry_test

import (
	"context"
	"os"

	"github.com/sessionforge/sessionforge/pkg/telemetry"
)

// Example_basicSetup demonstrates telemetry setup for one CLI run.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = "1.0.0"
	cfg.Metrics.TextfilePath = os.TempDir() + "/sessionforge.prom"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	logger := telemetry.FromContext(ctx).WithRunID("run-123").Zerolog()
	logger.Info().Msg("Validation started")

	// Output can vary, so we don't specify output for this example
}

// Example_instrumentedStage demonstrates timing and tracing a stage.
func Example_instrumentedStage() {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	op := telemetry.StartOperation(ctx, "schema")
	// ... validate ...
	op.End(nil)

	tel.Metrics.RecordRun("validate", "success", op.Timer.Duration())

	// Output varies, no output specified
}
