package observe

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider owns the SDK meter provider and the registry it exports into.
type Provider struct {
	Metrics  *Metrics
	registry *prometheus.Registry
	mp       *sdkmetric.MeterProvider
}

// NewProvider builds a meter provider exporting to a private Prometheus
// registry. version is reported as service.version.
func NewProvider(version string) (*Provider, error) {
	// Attributes stay schemaless; merging two schema URLs fails.
	res, err := resource.New(context.Background(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName("scrollback"),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	metrics, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, fmt.Errorf("create instruments: %w", err)
	}
	return &Provider{Metrics: metrics, registry: registry, mp: mp}, nil
}

// NewNop returns Metrics that record nothing.
func NewNop() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		return nil
	}
	return m
}

// Registry exposes the Prometheus registry, e.g. for an HTTP handler.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// WriteTextfile dumps the current metric values in the Prometheus text
// format, atomically replacing path.
func (p *Provider) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.mp == nil {
		return nil
	}
	return p.mp.Shutdown(ctx)
}
