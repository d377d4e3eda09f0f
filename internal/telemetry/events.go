package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents traces domain operations above the HTTP and DB layers,
// such as "a job was published to LinkedIn" or "a plan was generated".
type BusinessEvents struct {
	tracer trace.Tracer
}

// NewBusinessEvents creates a new business events tracer
func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{
		tracer: otel.Tracer("brandcast"),
	}
}

// PublishAttrs describe one publish attempt
type PublishAttrs struct {
	JobID    string
	EntryID  string
	Platform string
	Kind     string
	Attempt  int
}

// TracePublish creates a span around one platform publish call
func (be *BusinessEvents) TracePublish(ctx context.Context, attrs PublishAttrs) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "publish."+attrs.Platform,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("publish.job_id", attrs.JobID),
			attribute.String("publish.entry_id", attrs.EntryID),
			attribute.String("publish.platform", attrs.Platform),
			attribute.String("publish.kind", attrs.Kind),
			attribute.Int("publish.attempt", attrs.Attempt),
		),
	)
}

// TraceTokenRefresh creates a span for an OAuth token refresh
func (be *BusinessEvents) TraceTokenRefresh(ctx context.Context, platform, accountID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "token.refresh",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("token.platform", platform),
			attribute.String("token.account_id", accountID),
		),
	)
}

// TracePlanGeneration creates a span for a content plan request
func (be *BusinessEvents) TracePlanGeneration(ctx context.Context, brandID string, platforms, days int) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "plan.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("plan.brand_id", brandID),
			attribute.Int("plan.platforms", platforms),
			attribute.Int("plan.days", days),
		),
	)
}

// retryable is implemented by upstream errors that know whether a retry can help
type retryable interface {
	Retryable() bool
}

// EndSpan records the outcome and ends the span
func EndSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var r retryable
	if errors.As(err, &r) {
		span.SetAttributes(attribute.Bool("error.retryable", r.Retryable()))
	}
}

var (
	businessEvents     *BusinessEvents
	businessEventsOnce sync.Once
)

// GetBusinessEvents returns the shared business events tracer
func GetBusinessEvents() *BusinessEvents {
	businessEventsOnce.Do(func() {
		businessEvents = NewBusinessEvents()
	})
	return businessEvents
}
