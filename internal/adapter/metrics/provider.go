package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProviderMetrics holds Prometheus metrics for image generation.
type ProviderMetrics struct {
	FetchDuration       *prometheus.HistogramVec
	Failures            *prometheus.CounterVec
	CircuitBreakerState prometheus.Gauge
}

// NewProviderMetrics creates and registers image provider metrics on the given registry.
func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	m := &ProviderMetrics{
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of image generation in seconds, by kind.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "failures_total",
			Help:      "Total number of failed image fetches, by kind and reason.",
		}, []string{"kind", "reason"}),
		CircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "oracle_circuit_breaker_state",
			Help:      "Current oracle circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.FetchDuration, m.Failures, m.CircuitBreakerState)
	return m
}
