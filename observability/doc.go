// Package observability wires OpenTelemetry tracing and metrics for flow
// runs and the HTTP API, and aggregates component health.
//
// Setup installs the OTLP exporters the config enables:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "nodeflow", version.Version, "production", log)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanFlowRun)
//	defer span.End()
//
//	metrics, err := observability.NewMetrics(observability.Meter("nodeflow"))
//	metrics.RecordNodeExecution(ctx, "math/add", "ok", duration)
package observability
