package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported on /metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	intents          *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New registers the collectors with reg. Registration errors panic, the same
// way promauto does.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "intents_total",
				Help:      "Queries handled, by matched intent.",
			},
			[]string{"intent"},
		),
		providerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "provider_failures_total",
				Help:      "Failed calls to external providers and stores, swallowed into apology replies.",
			},
			[]string{"provider"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "voxgate",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}

	reg.MustRegister(m.intents, m.providerFailures, m.requestDuration)
	return m
}

func (m *Metrics) Intent(name string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(name).Inc()
}

func (m *Metrics) ProviderFailure(provider string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}
