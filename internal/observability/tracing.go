package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dbTracerName        = "ingestq/db"
	schedulerTracerName = "ingestq/scheduler"
)

type contextKey string

const (
	ingestionIDKey contextKey = "observability.ingestion_id"
	batchIDKey     contextKey = "observability.batch_id"
	requestIDKey   contextKey = "observability.request_id"
	routeKey       contextKey = "observability.route"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
	SetAttributes(...attribute.KeyValue)
}

type otelSpan struct {
	inner trace.Span
}

// StartDBSpan starts a database tracing span for one query operation.
func StartDBSpan(ctx context.Context, queryName, operation string) (context.Context, Span) {
	queryName = strings.TrimSpace(queryName)
	if queryName == "" {
		queryName = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", "sqlite"),
		attribute.String("db.query_name", queryName),
		attribute.String("db.operation", strings.TrimSpace(operation)),
	}
	attrs = append(attrs, batchAttributes(ctx)...)

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, "db."+queryName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, otelSpan{inner: span}
}

// StartDispatchSpan starts the span covering one batch dispatch and tags the
// context so logs and nested DB spans carry the batch identity.
func StartDispatchSpan(ctx context.Context, ingestionID, batchID, priority string) (context.Context, Span) {
	ctx = WithBatch(ctx, ingestionID, batchID)
	ctx, span := otel.Tracer(schedulerTracerName).Start(ctx, "scheduler.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(batchAttributes(ctx),
			attribute.String("ingestq.priority", priority),
		)...),
	)
	return ctx, otelSpan{inner: span}
}

// WithBatch stores ingestion and batch ids on the context.
func WithBatch(ctx context.Context, ingestionID, batchID string) context.Context {
	if ingestionID = strings.TrimSpace(ingestionID); ingestionID != "" {
		ctx = context.WithValue(ctx, ingestionIDKey, ingestionID)
	}
	if batchID = strings.TrimSpace(batchID); batchID != "" {
		ctx = context.WithValue(ctx, batchIDKey, batchID)
	}
	return ctx
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
	}
	setSpanRequestAttributes(ctx, requestID, route)
	return ctx
}

// IngestionIDFromContext extracts the ingestion being dispatched.
func IngestionIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(ingestionIDKey).(string)
	return value, ok && value != ""
}

// BatchIDFromContext extracts the batch being dispatched.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(batchIDKey).(string)
	return value, ok && value != ""
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(routeKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func batchAttributes(ctx context.Context) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if ingestionID, ok := IngestionIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("ingestq.ingestion_id", ingestionID))
	}
	if batchID, ok := BatchIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("ingestq.batch_id", batchID))
	}
	return attrs
}

func setSpanRequestAttributes(ctx context.Context, requestID, route string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	if s.inner == nil || len(attrs) == 0 {
		return
	}
	s.inner.SetAttributes(attrs...)
}
