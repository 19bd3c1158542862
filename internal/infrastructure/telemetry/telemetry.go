// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling for the sales core.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/salescore/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// shutdownTimeout bounds each provider's final flush
const shutdownTimeout = 10 * time.Second

// Config holds the exporter settings shared by traces, metrics and logs.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// Telemetry bundles the providers started for one process.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts every provider enabled in cfg. Disabled providers are no-ops,
// so callers can use the result unconditionally.
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string, logger *zap.Logger) (*Telemetry, error) {
	base := Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}

	t := &Telemetry{}
	var err error
	if t.Tracer, err = NewTracerProvider(ctx, base, logger); err != nil {
		return nil, err
	}

	metricsCfg := base
	metricsCfg.Enabled = cfg.Enabled && cfg.MetricsEnabled
	if t.Meter, err = NewMeterProvider(ctx, metricsCfg, 0, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	logsCfg := base
	logsCfg.Enabled = cfg.Enabled && cfg.LogsEnabled
	if t.Logs, err = NewLoggerProvider(ctx, logsCfg, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	if t.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.ProfilingEndpoint,
		ApplicationName: cfg.ServiceName,
		Version:         version,
		Contention:      cfg.ProfilingContention,
	}, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Profiler.IsEnabled() {
		if err := t.Tracer.EnableSpanProfiles(); err != nil {
			logger.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}
	return t, nil
}

// Shutdown stops every started provider and joins their errors.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// newResource describes this process to the collector
func newResource(serviceName, version string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

// samplerFor honours the caller's sampling decision and samples root
// spans at ratio
func samplerFor(ratio float64) sdktrace.Sampler {
	root := sdktrace.TraceIDRatioBased(ratio)
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(root)
}

func shutdownWithin(ctx context.Context, what string, logger *zap.Logger, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Telemetry shutdown failed", zap.String("component", what), zap.Error(err))
		return fmt.Errorf("%s shutdown: %w", what, err)
	}
	return nil
}
