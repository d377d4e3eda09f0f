package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceS3Call creates a span for an S3 operation
// Examples: put_object, get_object, delete_object
func TraceS3Call(ctx context.Context, operation, bucket, key string) (context.Context, trace.Span) {
	return otel.Tracer("s3").Start(ctx, "s3."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("s3.operation", operation),
			attribute.String("s3.bucket", bucket),
			attribute.String("s3.key", key),
		),
	)
}

// TraceCacheCall creates a span for a Redis cache operation
func TraceCacheCall(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	return otel.Tracer("redis").Start(ctx, "cache."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
			attribute.String("cache.key", key),
		),
	)
}

// TraceEmailCall creates a span for an SES send
func TraceEmailCall(ctx context.Context, template string) (context.Context, trace.Span) {
	return otel.Tracer("ses").Start(ctx, "ses.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("email.template", template),
		),
	)
}

// SetUserContext tags a span with the acting user
func SetUserContext(span trace.Span, userID string) {
	if userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}
}
