package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kbukum/nodeflow/logger"
)

// Setup installs the enabled exporters as the global OpenTelemetry
// providers and returns a function that flushes and stops them. With
// tracing and metrics disabled it installs nothing and the no-op globals
// stay in place.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion, environment string, log *logger.Logger) (func(context.Context) error, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	if !cfg.Tracing && !cfg.Metrics {
		return shutdown, nil
	}

	res, err := newResource(serviceName, serviceVersion, environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	if cfg.Tracing {
		tp, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		shutdowns = append(shutdowns, tp.Shutdown)
		log.Info("Tracing enabled", logger.Fields("endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate))
	}
	if cfg.Metrics {
		mp, err := newMeterProvider(ctx, cfg, res)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
		log.Info("Metrics enabled", logger.Fields("endpoint", cfg.Endpoint, "interval", cfg.MetricInterval))
	}
	return shutdown, nil
}

// newResource describes the process to the collector. The service
// attributes carry no schema URL so merging never conflicts with the SDK
// default resource.
func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("environment", environment),
		),
	)
}

// interval returns the parsed metric export interval. Validate has already
// rejected malformed values.
func (c Config) interval() time.Duration {
	d, _ := time.ParseDuration(c.MetricInterval)
	return d
}
