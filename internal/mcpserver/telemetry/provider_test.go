package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupTracing_InstallsSDKProvider(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	shutdown, err := SetupTracing(context.Background(), "http://127.0.0.1:4318", "uuid-server", "0.1.0")
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("global tracer provider = %T, want *sdktrace.TracerProvider", otel.GetTracerProvider())
	}

	observer, err := NewGlobalObserver()
	if err != nil {
		t.Fatalf("NewGlobalObserver() error = %v", err)
	}
	ctx, done := observer.StartCall(context.Background(), "get_uuid", "stdio")
	if !trace.SpanFromContext(ctx).IsRecording() {
		t.Error("expected a recording span from the installed provider")
	}
	done(false)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// The collector is not running; shutdown may report the failed export
	_ = shutdown(ctx)
}
