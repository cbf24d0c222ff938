package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// WithContext stores a request scoped logger
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, log)
}

// FromContext returns the logger stored by WithContext, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

func withValue(ctx context.Context, log *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	enriched := log.With(zap.String(string(key), value))
	return WithContext(context.WithValue(ctx, key, value), enriched), enriched
}

// WithRequestID tags both the context and the logger with the request ID
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return withValue(ctx, log, RequestIDKey, requestID)
}

// WithUserID tags both the context and the logger with the acting user
func WithUserID(ctx context.Context, log *zap.Logger, userID string) (context.Context, *zap.Logger) {
	return withValue(ctx, log, UserIDKey, userID)
}

func stringValue(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

func GetRequestID(ctx context.Context) string { return stringValue(ctx, RequestIDKey) }

func GetUserID(ctx context.Context) string { return stringValue(ctx, UserIDKey) }

// GetTraceID is empty unless ctx carries a valid span
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// Fields returns the correlation fields found in ctx: request, user and
// the active span.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetUserID(ctx); id != "" {
		fields = append(fields, zap.String("user_id", id))
	}
	return append(fields, spanFields(ctx)...)
}

func spanFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// ContextLogger writes entries carrying the correlation fields of ctx
type ContextLogger struct {
	ctx context.Context
	log *zap.Logger
}

// L uses the request logger stored in ctx. That logger already carries the
// request and user fields, so only the span is added per entry.
//
//	logger.L(ctx).Info("Payment registered", zap.String("client_id", id))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, log: FromContext(ctx)}
}

// WithLogger is L for code that owns its logger, such as background workers
func WithLogger(ctx context.Context, log *zap.Logger) *ContextLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContextLogger{ctx: ctx, log: log.With(Fields(withoutSpan(ctx))...)}
}

// withoutSpan hides the span so Fields only reports request and user;
// the span is added at write time.
func withoutSpan(ctx context.Context) context.Context {
	return trace.ContextWithSpanContext(ctx, trace.SpanContext{})
}

func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, log: cl.log.With(fields...)}
}

func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.log.With(spanFields(cl.ctx)...)
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
