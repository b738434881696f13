// Package telemetry holds the OpenTelemetry handles used by the execution
// engine. Providers default to noop; embedding applications may swap in
// real providers before executing workflows.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/shivakharbanda/agent-builder"

var (
	// Tracer is the tracer for engine spans.
	Tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	// Meter is the meter for engine metrics.
	Meter metric.Meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
)

// SetTracerProvider replaces the engine tracer.
func SetTracerProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(instrumentationName)
}

// SetMeterProvider replaces the engine meter and re-creates instruments.
func SetMeterProvider(mp metric.MeterProvider) {
	Meter = mp.Meter(instrumentationName)
	initInstruments()
}

var nodeRunCounter metric.Int64Counter

func init() {
	initInstruments()
}

func initInstruments() {
	// The noop meter never returns an error.
	nodeRunCounter, _ = Meter.Int64Counter("workflow.node.runs",
		metric.WithDescription("Number of workflow node runs by type and status."))
}

// StartNodeSpan starts a span for one node run.
func StartNodeSpan(ctx context.Context, nodeID int64, nodeType string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "workflow.node.run",
		trace.WithAttributes(
			attribute.Int64("workflow.node.id", nodeID),
			attribute.String("workflow.node.type", nodeType),
		))
}

// RecordNodeRun counts one finished node run.
func RecordNodeRun(ctx context.Context, nodeType, status string) {
	nodeRunCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow.node.type", nodeType),
		attribute.String("workflow.node.status", status),
	))
}
