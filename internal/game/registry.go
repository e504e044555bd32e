package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
)

// Expiry reasons recorded in metrics and logs.
const (
	ReasonEnded    = "ended"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
)

// Registry owns one Machine per session key.
type Registry struct {
	source        ImageSource
	store         domain.ArtifactStore
	defaultRounds int
	clock         clockwork.Clock
	metrics       *metrics.GameMetrics

	mu       sync.Mutex
	machines map[string]*Machine
}

func NewRegistry(source ImageSource, store domain.ArtifactStore, defaultRounds int, clock clockwork.Clock, m *metrics.GameMetrics) *Registry {
	return &Registry{
		source:        source,
		store:         store,
		defaultRounds: defaultRounds,
		clock:         clock,
		metrics:       m,
		machines:      make(map[string]*Machine),
	}
}

// GetOrCreate returns the machine for key, creating a NotStarted one with the
// default round count on first use. Either way the machine is touched.
func (r *Registry) GetOrCreate(key string) *Machine {
	r.mu.Lock()
	m, ok := r.machines[key]
	if !ok {
		m = NewMachine(r.source, r.store, r.defaultRounds, r.clock, r.metrics)
		r.machines[key] = m
		r.metrics.SessionsActive.Inc()
	}
	r.mu.Unlock()

	if ok {
		m.Touch()
	}
	return m
}

// Get returns the machine for key without creating one.
func (r *Registry) Get(key string) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[key]
	return m, ok
}

// Expire removes the machine for key and releases its artifact. It waits for
// an operation already running on that machine to finish.
func (r *Registry) Expire(ctx context.Context, key string) bool {
	r.mu.Lock()
	m, ok := r.machines[key]
	delete(r.machines, key)
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.close(ctx, key, m, ReasonEnded)
	return true
}

// ExpireIdle expires every machine not touched within maxIdle.
func (r *Registry) ExpireIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := r.clock.Now().Add(-maxIdle)

	r.mu.Lock()
	victims := make(map[string]*Machine)
	for key, m := range r.machines {
		if !m.LastActive().After(cutoff) {
			victims[key] = m
			delete(r.machines, key)
		}
	}
	r.mu.Unlock()

	for key, m := range victims {
		r.close(ctx, key, m, ReasonIdle)
	}
	return len(victims)
}

// ExpireAll expires every machine.
func (r *Registry) ExpireAll(ctx context.Context) int {
	r.mu.Lock()
	victims := r.machines
	r.machines = make(map[string]*Machine)
	r.mu.Unlock()

	for key, m := range victims {
		r.close(ctx, key, m, ReasonShutdown)
	}
	return len(victims)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.machines)
}

func (r *Registry) close(ctx context.Context, key string, m *Machine, reason string) {
	m.Close(ctx)
	r.metrics.SessionsActive.Dec()
	r.metrics.SessionsExpired.WithLabelValues(reason).Inc()
	slog.DebugContext(ctx, "Game session expired", "session_key", key, "reason", reason)
}
