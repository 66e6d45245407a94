// Package metrics wires the OpenTelemetry metric API to a Prometheus registry
// so that pipeline instruments can be scraped from the debug listener.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds for
// request latency and backoff waits.
var DefaultBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40} //nolint: gochecknoglobals

// MeterName is the instrumentation scope used by the enrichment pipeline.
const MeterName = "enricher"

// Metrics bundles the Prometheus registry and the OpenTelemetry meter
// provider exporting into it.
type Metrics struct {
	// Registry holds every exported collector.
	Registry *prometheus.Registry
	// Provider creates meters whose instruments are exported to Registry.
	Provider *sdkmetric.MeterProvider
}

// New creates a registry with the Go and process collectors and an
// OpenTelemetry meter provider exporting into it.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return &Metrics{
		Registry: reg,
		Provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)),
	}, nil
}

// Meter returns the pipeline meter.
func (m *Metrics) Meter() metric.Meter {
	return m.Provider.Meter(MeterName)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.Provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not shutdown meter provider: %w", err)
	}

	return nil
}
