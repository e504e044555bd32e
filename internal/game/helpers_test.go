package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/artifact"
	"github.com/pscheid92/spotthefake/internal/domain"
)

var errProviderDown = errors.New("provider down")

// scriptedSource stores artifacts whose labels follow a fixed script, then
// repeats the last label. fetchNextFn overrides the script when set.
type scriptedSource struct {
	store *artifact.MemoryStore

	mu          sync.Mutex
	labels      []bool
	fetchNextFn func(ctx context.Context) (domain.ArtifactID, bool, error)
}

func (s *scriptedSource) FetchNext(ctx context.Context) (domain.ArtifactID, bool, error) {
	if s.fetchNextFn != nil {
		return s.fetchNextFn(ctx)
	}

	s.mu.Lock()
	isFake := false
	if len(s.labels) > 0 {
		isFake = s.labels[0]
		if len(s.labels) > 1 {
			s.labels = s.labels[1:]
		}
	}
	s.mu.Unlock()

	id, err := s.store.Create(ctx, domain.KindOf(isFake), []byte("img"))
	return id, isFake, err
}

type fixture struct {
	store   *artifact.MemoryStore
	source  *scriptedSource
	clock   *clockwork.FakeClock
	metrics *metrics.GameMetrics
}

func newFixture(t *testing.T, labels ...bool) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	store := artifact.NewMemoryStore(metrics.NewArtifactMetrics(reg))
	return &fixture{
		store:   store,
		source:  &scriptedSource{store: store, labels: labels},
		clock:   clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
		metrics: metrics.NewGameMetrics(reg),
	}
}

func (f *fixture) machine(totalRounds int) *Machine {
	return NewMachine(f.source, f.store, totalRounds, f.clock, f.metrics)
}

func (f *fixture) registry(defaultRounds int) *Registry {
	return NewRegistry(f.source, f.store, defaultRounds, f.clock, f.metrics)
}
