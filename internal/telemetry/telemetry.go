// Package telemetry wires OpenTelemetry tracing and metrics around the
// gateway's core operations (resolve, compile, aggregate, execute,
// dispatch), exporting via the go.opentelemetry.io/otel stdout exporters.
package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Shutdown releases the tracer/meter providers' resources (flushing any
// buffered spans/metrics); call it once during host shutdown.
type Shutdown func(ctx context.Context) error

// Setup installs a global TracerProvider and MeterProvider backed by the
// stdout exporters, writing to w. Passing io.Discard is appropriate for
// production hosts that only want span/metric propagation without a local
// sink (an OTLP exporter would replace the stdout one; out of scope here).
func Setup(w io.Writer) (trace.Tracer, metric.Meter, Shutdown, error) {
	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, nil, err
	}
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, nil, nil, err
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
	otel.SetMeterProvider(meterProvider)

	tracer := tracerProvider.Tracer("contextify-gateway")
	meter := meterProvider.Meter("contextify-gateway")

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return tracer, meter, shutdown, nil
}

// StartSpan is a small convenience wrapper used throughout the core so
// callers don't each import go.opentelemetry.io/otel/trace directly.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
