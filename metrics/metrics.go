package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the batch runner's prometheus collectors.
// All methods are safe on a nil *Metrics so callers may run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	KeysProcessed   *prometheus.CounterVec
	FlightsFound    prometheus.Counter
	LookupDuration  prometheus.Histogram
	CheckpointSaves prometheus.Counter
	PendingKeys     prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		KeysProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_processed_total",
			Help:      "Work keys looked up, by outcome (resolved, empty, failed)",
		}, []string{"outcome"}),
		FlightsFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_found_total",
			Help:      "The total number of priced itineraries stored",
		}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time taken by one pricing lookup",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		CheckpointSaves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_saves_total",
			Help:      "The total number of checkpoint writes",
		}),
		PendingKeys: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_keys",
			Help:      "Keys still pending in the current run",
		}),
	}
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(d.Seconds())
}

func (m *Metrics) KeyResolved(flights int) {
	if m == nil {
		return
	}
	m.KeysProcessed.WithLabelValues("resolved").Inc()
	m.FlightsFound.Add(float64(flights))
}

func (m *Metrics) KeyEmpty() {
	if m == nil {
		return
	}
	m.KeysProcessed.WithLabelValues("empty").Inc()
}

func (m *Metrics) KeyFailed() {
	if m == nil {
		return
	}
	m.KeysProcessed.WithLabelValues("failed").Inc()
}

func (m *Metrics) CheckpointSaved() {
	if m == nil {
		return
	}
	m.CheckpointSaves.Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingKeys.Set(float64(n))
}
