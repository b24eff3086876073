// Package metrics constructs the metrics the application will track.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hashchain"

// Metrics represents the set of request metrics we gather.
type Metrics struct {
	requests prometheus.Counter
	errors   prometheus.Counter
	panics   prometheus.Counter
	latency  *prometheus.HistogramVec
}

// New constructs the request metrics and registers them with the registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests handled.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of requests that returned an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Total number of requests that panicked.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	reg.MustRegister(m.requests, m.errors, m.panics, m.latency)

	return &m
}

// AddRequest increments the request counter.
func (m *Metrics) AddRequest() {
	m.requests.Inc()
}

// AddError increments the error counter.
func (m *Metrics) AddError() {
	m.errors.Inc()
}

// AddPanic increments the panic counter.
func (m *Metrics) AddPanic() {
	m.panics.Inc()
}

// ObserveLatency records how long a request took.
func (m *Metrics) ObserveLatency(method string, status string, seconds float64) {
	m.latency.WithLabelValues(method, status).Observe(seconds)
}
