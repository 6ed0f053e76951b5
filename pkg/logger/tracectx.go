package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type connKey struct{}

// WithConn кладёт id ws-соединения в контекст, AttrsFromCtx отдаст его как conn.
func WithConn(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connKey{}, connID)
}

// AttrsFromCtx: conn (если есть) и trace_id/span_id валидного span.
func AttrsFromCtx(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id, ok := ctx.Value(connKey{}).(string); ok && id != "" {
		attrs = append(attrs, slog.String("conn", id))
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

// ArgsFromCtx: то же для slog.Info(msg, args...).
func ArgsFromCtx(ctx context.Context) []any {
	attrs := AttrsFromCtx(ctx)
	out := make([]any, len(attrs))
	for i, a := range attrs {
		out[i] = a
	}
	return out
}
