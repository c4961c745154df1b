// Package metrics exposes workflow and HTTP metrics through Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/feecc/internal/ports/secondary"
)

const namespace = "feecc"

// Metrics owns a private registry so tests and multiple apps never share state.
type Metrics struct {
	registry *prometheus.Registry

	unitTransitions     *prometheus.CounterVec
	protocolTransitions *prometheus.CounterVec
	stagesReworked      prometheus.Counter
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		unitTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_status_transitions_total",
			Help:      "Unit status changes by source and target status.",
		}, []string{"from", "to"}),
		protocolTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_status_transitions_total",
			Help:      "Protocol status changes. from is empty when a protocol is created.",
		}, []string{"from", "to"}),
		stagesReworked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_reworked_total",
			Help:      "Stages reopened by revision requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.unitTransitions,
		m.protocolTransitions,
		m.stagesReworked,
		m.requests,
		m.requestDuration,
	)
	return m
}

// UnitTransition records a unit status change.
func (m *Metrics) UnitTransition(from, to string) {
	m.unitTransitions.WithLabelValues(from, to).Inc()
}

// ProtocolTransition records a protocol status change.
func (m *Metrics) ProtocolTransition(from, to string) {
	m.protocolTransitions.WithLabelValues(from, to).Inc()
}

// StagesReworked records how many stages one revision request reopened.
func (m *Metrics) StagesReworked(n int) {
	if n > 0 {
		m.stagesReworked.Add(float64(n))
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ secondary.TransitionRecorder = (*Metrics)(nil)
