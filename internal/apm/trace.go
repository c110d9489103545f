package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans that know how to record apperror failures.
type Tracer struct {
	tracer trace.Tracer
}

func NewTracer(name string) Tracer {
	return Tracer{tracer: otel.Tracer(name)}
}

// Start opens a span carrying attrs.
func (t Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, Span{span}
}

// Span is a thin wrapper over trace.Span.
type Span struct {
	trace.Span
}

// Finish ends the span, marking it failed when err is non-nil.
func (s Span) Finish(err error) {
	if err != nil {
		s.RecordError(err)
		s.SetStatus(codes.Error, err.Error())
	} else {
		s.SetStatus(codes.Ok, "")
	}
	s.End()
}
