// Package telemetry provides a way to collect telemetry from the pipeline - metrics and traces.
// Every method is safe to call on a nil *Telemeter, in which case nothing is collected.
package telemetry

import (
	"context"
	"io"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

type Telemeter struct {
	*Tracer
	*Meter
}

// NewTelemeter initializes the telemetry collector.
func NewTelemeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Telemeter, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.ServiceVersion(appVersion),
		),
	)
	if err != nil {
		return nil, errors.New(err)
	}

	tracer, err := NewTracer(ctx, res, appName, writer, opts)
	if err != nil {
		return nil, err
	}

	meter, err := NewMeter(ctx, res, appName, writer, opts)
	if err != nil {
		return nil, err
	}

	return &Telemeter{
		Tracer: tracer,
		Meter:  meter,
	}, nil
}

// Shutdown flushes and shuts down the telemetry providers.
func (tlm *Telemeter) Shutdown(ctx context.Context) error {
	if tlm == nil {
		return nil
	}

	if tlm.Tracer != nil && tlm.Tracer.provider != nil {
		if err := tlm.Tracer.provider.Shutdown(ctx); err != nil {
			return errors.New(err)
		}

		tlm.Tracer.provider = nil
	}

	if tlm.Meter != nil && tlm.Meter.provider != nil {
		if err := tlm.Meter.provider.Shutdown(ctx); err != nil {
			return errors.New(err)
		}

		tlm.Meter.provider = nil
	}

	return nil
}

// Collect collects telemetry from function execution metrics and traces.
func (tlm *Telemeter) Collect(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if tlm == nil {
		return fn(ctx)
	}

	return tlm.Trace(ctx, name, attrs, func(ctx context.Context) error {
		return tlm.Time(ctx, name, attrs, fn)
	})
}

// Count increments the named counter.
func (tlm *Telemeter) Count(ctx context.Context, name string, value int64) {
	if tlm == nil {
		return
	}

	tlm.Meter.Count(ctx, name, value)
}

// StartSpan opens a span ended by the returned function.
func (tlm *Telemeter) StartSpan(ctx context.Context, name string, attrs map[string]any) func() {
	if tlm == nil {
		return func() {}
	}

	return tlm.Tracer.StartSpan(ctx, name, attrs)
}
