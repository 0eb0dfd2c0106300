// Package telemetry provides the observability plumbing for sessionforge
// commands: structured logging (zerolog), tracing (OpenTelemetry), and
// metrics (Prometheus).
//
// A command run is short-lived, so nothing is served over the network.
// Logs go to stderr, spans are exported to a local writer when --trace is
// set, and metrics are written once at shutdown to a Prometheus textfile
// when --metrics-file is set.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Metrics.TextfilePath = "/var/lib/node_exporter/sessionforge.prom"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx := tel.WithContext(context.Background())
//	op := telemetry.StartOperation(ctx, "schema")
//	result := validator.Validate(op.Ctx, doc, schema)
//	op.End(nil)
//
// Library packages do not import telemetry for logging; they take a
// zerolog.Logger and derive a component logger from it.
package telemetry
