package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentationName is the tracer name spans are reported under
const InstrumentationName = "github.com/GriffinCanCode/hlekernel"

// Tracer opens spans for one component
type Tracer struct {
	service string
	logger  *zap.Logger
	tracer  trace.Tracer
}

// New creates a tracer for service backed by the global provider
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracer{
		service: service,
		logger:  logger,
		tracer:  otel.Tracer(InstrumentationName),
	}
}

// NewWithProvider creates a tracer backed by an explicit provider
func NewWithProvider(service string, logger *zap.Logger, provider trace.TracerProvider) *Tracer {
	t := New(service, logger)
	t.tracer = provider.Tracer(InstrumentationName)
	return t
}

// Service returns the component name
func (t *Tracer) Service() string {
	if t == nil {
		return ""
	}
	return t.service
}

// StartSpan opens a span. A nil tracer returns the span already in ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	attrs = append(attrs, attribute.String("component", t.service))
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Finish records err on span, if any, and ends it
func (t *Tracer) Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	if t != nil && err != nil {
		sc := span.SpanContext()
		t.logger.Debug("span failed",
			zap.String("service", t.service),
			zap.String("trace", FormatTrace(sc.TraceID().String(), sc.SpanID().String())),
			zap.Error(err),
		)
	}
}

// GetTraceID returns the trace ID active in ctx, or "" when there is none
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the span ID active in ctx, or "" when there is none
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}

// FormatTrace returns a formatted trace string for logging
func FormatTrace(traceID, spanID string) string {
	return fmt.Sprintf("[trace:%s span:%s]", traceID, spanID)
}
