package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application service spans
const TracerName = "github.com/onixgym/backend"

// StartServiceSpan starts an internal span named "<service>.<operation>" on
// the global provider. Trailing arguments are attribute key/value pairs.
// The caller ends the span.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "register_payment", "client_id", id)
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, operation string, keyValues ...any) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if kv := pairs(keyValues); len(kv) > 0 {
		opts = append(opts, trace.WithAttributes(kv...))
	}
	return otel.Tracer(TracerName).Start(ctx, service+"."+operation, opts...)
}

// SetAttributes records key/value pairs on span
func SetAttributes(span trace.Span, keyValues ...any) {
	if span.IsRecording() {
		span.SetAttributes(pairs(keyValues)...)
	}
}

// RecordError marks span failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span successful
func SetOK(span trace.Span) {
	if span.IsRecording() {
		span.SetStatus(codes.Ok, "")
	}
}

// pairs turns alternating keys and values into attributes, skipping
// non-string keys and a dangling key.
func pairs(keyValues []any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		out = append(out, attributeOf(key, keyValues[i+1]))
	}
	return out
}

func attributeOf(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	}
	return attribute.String(key, fmt.Sprint(value))
}
