package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	tc := CaptureTraceContext(ctx)
	if tc.Empty() {
		t.Fatal("expected traceparent")
	}

	restored := trace.SpanContextFromContext(tc.Attach(context.Background()))
	if restored.TraceID() != traceID || !restored.IsRemote() {
		t.Fatalf("unexpected restored span context %+v", restored)
	}
}

func TestEmptyTraceContext(t *testing.T) {
	tc := CaptureTraceContext(context.Background())
	if !tc.Empty() {
		t.Fatalf("expected empty trace context, got %+v", tc)
	}
	ctx := context.Background()
	if got := tc.Attach(ctx); got != ctx {
		t.Fatal("empty trace context must return the original context")
	}
}
