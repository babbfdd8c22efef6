// Package metrics provides Prometheus instrumentation for nmwatch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Watcher metrics
	Notifications *prometheus.CounterVec
	Watchers      *prometheus.GaugeVec

	// Aggregation metrics
	Aggregations prometheus.Counter
	QueryErrors  *prometheus.CounterVec

	// Publisher metrics
	Subscribers prometheus.Gauge
}

// New creates metrics registered on a private registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Change notifications received, by watcher",
		}, []string{"watcher"}),
		Watchers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchers",
			Help:      "Running watchers, by kind",
		}, []string{"kind"}),
		Aggregations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "State recomputations published",
		}),
		QueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed bus queries, by component",
		}, []string{"component"}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Live state subscriptions",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Notification(watcher string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(watcher).Inc()
}

func (m *Metrics) WatcherStarted(kind string) {
	if m == nil {
		return
	}
	m.Watchers.WithLabelValues(kind).Inc()
}

func (m *Metrics) WatcherStopped(kind string) {
	if m == nil {
		return
	}
	m.Watchers.WithLabelValues(kind).Dec()
}

func (m *Metrics) Aggregated() {
	if m == nil {
		return
	}
	m.Aggregations.Inc()
}

func (m *Metrics) QueryFailed(component string) {
	if m == nil {
		return
	}
	m.QueryErrors.WithLabelValues(component).Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}
