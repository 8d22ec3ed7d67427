// Package telemetry exposes the decision core's Prometheus metrics.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricsNamespace prefixes every metric.
const MetricsNamespace = "autoblog"

// pushJob is the Pushgateway job name for batch commands.
const pushJob = "autoblog"

// Metrics holds the counters and gauges. All methods are safe on a nil
// receiver so callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	Selections      *prometheus.CounterVec
	Cooldowns       *prometheus.CounterVec
	BudgetDenials   *prometheus.CounterVec
	IngestEvents    *prometheus.CounterVec
	BlockedEntities prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry. withRuntime adds the
// Go and process collectors, which only make sense for the long-running server.
func NewMetrics(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.Selections = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "selections_total",
		Help:      "Choices made by the selectors",
	}, []string{"dimension", "choice"})

	m.Cooldowns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cooldowns_total",
		Help:      "Entities placed in cooldown",
	}, []string{"dimension"})

	m.BudgetDenials = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "budget_denials_total",
		Help:      "Publish attempts refused by a budget guard",
	}, []string{"guard"})

	m.IngestEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "ingest_events_total",
		Help:      "Tracking events read by ingest",
	}, []string{"kind", "result"})

	m.BlockedEntities = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "blocked_entities",
		Help:      "Cooldown entries currently blocking",
	})

	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "route", "status"})

	m.HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.HTTPInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "active_requests",
		Help:      "HTTP requests currently being served",
	})

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSelection counts one choice.
func (m *Metrics) RecordSelection(dimension, choice string) {
	if m == nil {
		return
	}
	m.Selections.WithLabelValues(dimension, choice).Inc()
}

// RecordCooldown counts one new cooldown.
func (m *Metrics) RecordCooldown(dimension string) {
	if m == nil {
		return
	}
	m.Cooldowns.WithLabelValues(dimension).Inc()
}

// RecordBudgetDenial counts one refusal.
func (m *Metrics) RecordBudgetDenial(guard string) {
	if m == nil {
		return
	}
	m.BudgetDenials.WithLabelValues(guard).Inc()
}

// RecordIngestEvent counts one event outcome.
func (m *Metrics) RecordIngestEvent(kind, result string) {
	if m == nil {
		return
	}
	m.IngestEvents.WithLabelValues(kind, result).Inc()
}

// SetBlockedEntities sets the gauge.
func (m *Metrics) SetBlockedEntities(n int) {
	if m == nil {
		return
	}
	m.BlockedEntities.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push sends the registry to a Pushgateway. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, pushJob).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
