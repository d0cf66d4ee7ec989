package telemetry

import (
	"context"
	"io"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Tracer struct {
	trace.Tracer
	provider *sdktrace.TracerProvider
}

// NewTracer creates the traces collection, it returns nil if tracing is disabled.
func NewTracer(ctx context.Context, res *resource.Resource, appName string, writer io.Writer, opts *Options) (*Tracer, error) {
	var exporter sdktrace.SpanExporter

	switch opts.TraceExporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterConsole:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(writer))
		if err != nil {
			return nil, errors.New(err)
		}

		exporter = exp
	default:
		return nil, errors.New(UnsupportedExporterError{Signal: "trace", Exporter: opts.TraceExporter})
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return NewTracerWithProvider(provider, appName), nil
}

// NewTracerWithProvider wraps an already configured provider, used by tests with in-memory exporters.
func NewTracerWithProvider(provider *sdktrace.TracerProvider, appName string) *Tracer {
	return &Tracer{
		Tracer:   provider.Tracer(appName),
		provider: provider,
	}
}

// Trace collects traces for method execution.
func (tracer *Tracer) Trace(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if tracer == nil || tracer.provider == nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	span.SetAttributes(mapToAttributes(attrs)...)

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// StartSpan opens a span that outlives the current call, e.g. a session that finishes on a later loop tick.
// The returned function ends it. It is a no-op if tracing is disabled.
func (tracer *Tracer) StartSpan(ctx context.Context, name string, attrs map[string]any) func() {
	if tracer == nil || tracer.provider == nil {
		return func() {}
	}

	_, span := tracer.Start(ctx, name)
	span.SetAttributes(mapToAttributes(attrs)...)

	return func() { span.End() }
}
