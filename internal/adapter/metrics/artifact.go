package metrics

import "github.com/prometheus/client_golang/prometheus"

// ArtifactMetrics holds Prometheus metrics for the artifact store.
type ArtifactMetrics struct {
	Created  *prometheus.CounterVec
	Released prometheus.Counter
	Live     prometheus.Gauge
	Swept    prometheus.Counter
	Errors   *prometheus.CounterVec
}

// NewArtifactMetrics creates and registers artifact store metrics on the given registry.
func NewArtifactMetrics(reg prometheus.Registerer) *ArtifactMetrics {
	m := &ArtifactMetrics{
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "created_total",
			Help:      "Total number of artifacts created, by kind.",
		}, []string{"kind"}),
		Released: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "released_total",
			Help:      "Total number of artifacts released.",
		}),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "live",
			Help:      "Number of artifacts currently live in this process.",
		}),
		Swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "swept_total",
			Help:      "Total number of artifacts removed by namespace sweeps.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "errors_total",
			Help:      "Total number of artifact storage errors, by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.Created, m.Released, m.Live, m.Swept, m.Errors)
	return m
}
