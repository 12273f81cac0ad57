// Package apm wraps OpenTelemetry tracing for routing rounds and swap execution.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-router/internal/apperror"
)

// Tracer starts spans on the global provider.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span)
}

// Span is the subset of trace.Span the router uses.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	Event(name string, attrs ...attribute.KeyValue)
	// Fail records err and tags the span with its error code.
	Fail(err error)
	Succeed()
	End()
	SpanContext() trace.SpanContext
}

type tracer struct {
	name string
}

// NewTracer resolves the global provider at span start, so tracers built
// before Setup still export.
func NewTracer(name string) Tracer {
	return tracer{name: name}
}

func (t tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	ctx, s := otel.Tracer(t.name).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span{s}
}

// FromContext returns the span active in ctx, or a no-op span.
func FromContext(ctx context.Context) Span {
	return span{trace.SpanFromContext(ctx)}
}

type span struct {
	trace.Span
}

func (s span) Event(name string, attrs ...attribute.KeyValue) {
	s.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s span) Fail(err error) {
	if err == nil {
		return
	}
	s.Span.SetAttributes(attribute.String("error.code", string(apperror.GetCode(err))))
	s.RecordError(err)
	s.SetStatus(codes.Error, err.Error())
}

func (s span) Succeed() {
	s.SetStatus(codes.Ok, "")
}

func (s span) End() {
	s.Span.End()
}
