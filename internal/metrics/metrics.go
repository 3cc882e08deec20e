// Package metrics records SOAP call counts and latencies for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// New creates the collectors and registers them with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sap_soap_calls_total",
				Help: "SAP operation calls by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sap_soap_call_duration_seconds",
				Help:    "Duration of SAP SOAP round trips",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sap_soap_calls_in_flight",
			Help: "SAP SOAP requests currently on the wire",
		}),
	}
	m.registry.MustRegister(
		m.calls, m.duration, m.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCall counts one finished call. elapsed is zero for calls that
// never reached the network.
func (m *Metrics) ObserveCall(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

// CallCounter returns the counter for one operation and outcome.
func (m *Metrics) CallCounter(operation, outcome string) prometheus.Counter {
	return m.calls.WithLabelValues(operation, outcome)
}

// Begin marks a request as in flight and returns the function that ends it.
func (m *Metrics) Begin() func() {
	if m == nil {
		return func() {}
	}
	m.inflight.Inc()
	return m.inflight.Dec
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
