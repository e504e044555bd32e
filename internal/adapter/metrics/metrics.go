package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spotthefake"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves the metrics of reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}

// Set bundles every metric group so main can build them in one place.
type Set struct {
	HTTP      *HTTPMetrics
	Artifacts *ArtifactMetrics
	Game      *GameMetrics
	Provider  *ProviderMetrics
	Redis     *RedisMetrics
}

// NewSet creates and registers all metric groups on reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		HTTP:      NewHTTPMetrics(reg),
		Artifacts: NewArtifactMetrics(reg),
		Game:      NewGameMetrics(reg),
		Provider:  NewProviderMetrics(reg),
		Redis:     NewRedisMetrics(reg),
	}
}
