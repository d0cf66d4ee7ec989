package telemetry

import (
	"context"
	"io"
	"time"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type Meter struct {
	metric.Meter
	provider *sdkmetric.MeterProvider
	counters *xsync.MapOf[string, metric.Int64Counter]
	timers   *xsync.MapOf[string, metric.Int64Histogram]
}

// NewMeter creates the metrics collection, it returns nil if metrics are disabled.
func NewMeter(ctx context.Context, res *resource.Resource, appName string, writer io.Writer, opts *Options) (*Meter, error) {
	var exporter sdkmetric.Exporter

	switch opts.MetricExporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterConsole:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(writer))
		if err != nil {
			return nil, errors.New(err)
		}

		exporter = exp
	default:
		return nil, errors.New(UnsupportedExporterError{Signal: "metric", Exporter: opts.MetricExporter})
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(time.Second))),
	)

	return NewMeterWithProvider(provider, appName), nil
}

// NewMeterWithProvider wraps an already configured provider, used by tests with a manual reader.
func NewMeterWithProvider(provider *sdkmetric.MeterProvider, appName string) *Meter {
	return &Meter{
		Meter:    provider.Meter(appName),
		provider: provider,
		counters: xsync.NewMapOf[string, metric.Int64Counter](),
		timers:   xsync.NewMapOf[string, metric.Int64Histogram](),
	}
}

// Count adds the value to the counter with the given name.
func (meter *Meter) Count(ctx context.Context, name string, value int64) {
	if meter == nil || meter.provider == nil {
		return
	}

	counter, _ := meter.counters.LoadOrCompute(CleanMetricName(name), func() metric.Int64Counter {
		counter, err := meter.Int64Counter(CleanMetricName(name))
		if err != nil {
			return nil
		}

		return counter
	})

	if counter != nil {
		counter.Add(ctx, value)
	}
}

// Time measures the execution time of fn in milliseconds.
func (meter *Meter) Time(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if meter == nil || meter.provider == nil {
		return fn(ctx)
	}

	name = CleanMetricName(name + "_duration")

	histogram, _ := meter.timers.LoadOrCompute(name, func() metric.Int64Histogram {
		histogram, err := meter.Int64Histogram(name, metric.WithUnit("ms"))
		if err != nil {
			return nil
		}

		return histogram
	})

	started := time.Now()
	err := fn(ctx)

	if histogram != nil {
		histogram.Record(ctx, time.Since(started).Milliseconds(), metric.WithAttributes(mapToAttributes(attrs)...))
	}

	return err
}
