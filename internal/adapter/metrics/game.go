package metrics

import "github.com/prometheus/client_golang/prometheus"

// GameMetrics holds Prometheus metrics for game sessions and rounds.
type GameMetrics struct {
	SessionsActive  prometheus.Gauge
	SessionsExpired *prometheus.CounterVec
	RoundsStarted   prometheus.Counter
	RoundsAbandoned prometheus.Counter
	Guesses         *prometheus.CounterVec
	GamesFinished   prometheus.Counter
	JanitorRuns     prometheus.Counter
	JanitorDuration prometheus.Histogram
}

// NewGameMetrics creates and registers game metrics on the given registry.
func NewGameMetrics(reg prometheus.Registerer) *GameMetrics {
	m := &GameMetrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "sessions_active",
			Help:      "Number of game sessions held by the registry.",
		}),
		SessionsExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "sessions_expired_total",
			Help:      "Total number of expired game sessions, by reason (idle/ended/shutdown).",
		}, []string{"reason"}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "rounds_started_total",
			Help:      "Total number of rounds started.",
		}),
		RoundsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "rounds_abandoned_total",
			Help:      "Total number of rounds skipped without a guess.",
		}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "guesses_total",
			Help:      "Total number of scored guesses, by result (correct/wrong).",
		}, []string{"result"}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "games_finished_total",
			Help:      "Total number of games that reached their last round.",
		}),
		JanitorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "janitor_runs_total",
			Help:      "Total number of idle-session janitor passes.",
		}),
		JanitorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "janitor_duration_seconds",
			Help:      "Duration of idle-session janitor passes in seconds.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}

	reg.MustRegister(m.SessionsActive, m.SessionsExpired, m.RoundsStarted, m.RoundsAbandoned, m.Guesses, m.GamesFinished, m.JanitorRuns, m.JanitorDuration)
	return m
}
