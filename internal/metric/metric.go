package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters the trip-intent pipeline exposes. A nil
// *Metrics is valid and records nothing, so tests can pass nil.
type Metrics struct {
	Turns          prometheus.Counter
	ResolveResults *prometheus.CounterVec
	DateResults    *prometheus.CounterVec
	TripsCreated   prometheus.Counter
	TurnDuration   prometheus.Histogram

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skitrip", Name: "turns_total", Help: "Conversation turns processed.",
		}),
		ResolveResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skitrip", Name: "resolve_results_total", Help: "Resort resolver outcomes.",
		}, []string{"outcome"}),
		DateResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skitrip", Name: "date_results_total", Help: "Date extraction outcomes.",
		}, []string{"kind"}),
		TripsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skitrip", Name: "trips_created_total", Help: "Trips handed to persistence.",
		}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skitrip", Name: "turn_duration_seconds",
			Help:    "Turn processing duration seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.Turns, m.ResolveResults, m.DateResults, m.TripsCreated, m.TurnDuration)
	return m
}

// Registry exposes the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ObserveTurn(seconds float64) {
	if m == nil {
		return
	}
	m.Turns.Inc()
	m.TurnDuration.Observe(seconds)
}

func (m *Metrics) ObserveResolve(outcome string) {
	if m == nil {
		return
	}
	m.ResolveResults.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDates(kind string) {
	if m == nil {
		return
	}
	m.DateResults.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveTripCreated() {
	if m == nil {
		return
	}
	m.TripsCreated.Inc()
}
