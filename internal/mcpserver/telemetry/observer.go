// Package telemetry records tool call metrics and spans through OpenTelemetry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the meter and tracer scope used by the server.
const InstrumentationName = "github.com/erauner12/uuid-server"

// Observer records tool call signals into OpenTelemetry.
// A nil *Observer is valid and records nothing.
type Observer struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewObserver creates an observer bound to the provided meter/tracer.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	invocations, err := meter.Int64Counter(
		"uuid_server.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"uuid_server.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Observer{
		tracer:      tracer,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// NewGlobalObserver binds an observer to the process-wide otel providers.
// Those are no-ops unless the host installs SDK providers.
func NewGlobalObserver() (*Observer, error) {
	return NewObserver(
		otel.GetMeterProvider().Meter(InstrumentationName),
		otel.GetTracerProvider().Tracer(InstrumentationName),
	)
}

// StartCall opens a tool.call span and returns the function that closes it and
// records the outcome. The returned context carries the span.
func (o *Observer) StartCall(ctx context.Context, toolName, transport string) (context.Context, func(isError bool)) {
	if o == nil {
		return ctx, func(bool) {}
	}

	start := time.Now()
	base := []attribute.KeyValue{
		attribute.String("tool_name", toolName),
		attribute.String("transport", transport),
	}

	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, "tool.call", trace.WithAttributes(base...))
	}

	return ctx, func(isError bool) {
		attrs := append(base, attribute.Bool("success", !isError))
		options := metric.WithAttributes(attrs...)
		o.invocations.Add(ctx, 1, options)
		o.latency.Record(ctx, time.Since(start).Seconds(), options)

		if span == nil {
			return
		}
		span.SetAttributes(attribute.Bool("success", !isError))
		if isError {
			span.SetStatus(codes.Error, "tool returned an error result")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
