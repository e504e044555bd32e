package artifact

import (
	"bytes"
	"context"
	"sync"

	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
)

type memoryArtifact struct {
	kind    domain.Kind
	payload []byte
}

// MemoryStore keeps artifacts in process memory.
type MemoryStore struct {
	metrics *metrics.ArtifactMetrics

	mu   sync.RWMutex
	live map[domain.ArtifactID]memoryArtifact
}

var _ domain.ArtifactStore = (*MemoryStore)(nil)

func NewMemoryStore(m *metrics.ArtifactMetrics) *MemoryStore {
	return &MemoryStore{
		metrics: m,
		live:    make(map[domain.ArtifactID]memoryArtifact),
	}
}

func (s *MemoryStore) Create(_ context.Context, kind domain.Kind, payload []byte) (domain.ArtifactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := allocate(func(id domain.ArtifactID) bool {
		_, taken := s.live[id]
		return taken
	})
	if err != nil {
		return "", err
	}

	s.live[id] = memoryArtifact{kind: kind, payload: bytes.Clone(payload)}
	s.metrics.Created.WithLabelValues(string(kind)).Inc()
	s.metrics.Live.Inc()
	return id, nil
}

func (s *MemoryStore) Read(_ context.Context, id domain.ArtifactID) ([]byte, error) {
	s.mu.RLock()
	a, ok := s.live[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return bytes.Clone(a.payload), nil
}

func (s *MemoryStore) Release(_ context.Context, id domain.ArtifactID) {
	s.mu.Lock()
	_, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()

	if ok {
		s.metrics.Released.Inc()
		s.metrics.Live.Dec()
	}
}

func (s *MemoryStore) SweepAll(_ context.Context) (int, error) {
	s.mu.Lock()
	n := len(s.live)
	clear(s.live)
	s.mu.Unlock()

	s.metrics.Live.Sub(float64(n))
	s.metrics.Swept.Add(float64(n))
	return n, nil
}

// Live returns the number of live artifacts.
func (s *MemoryStore) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live)
}

// KindOf reports the stored label of a live artifact. Test helper for
// asserting that labels and artifacts travel together.
func (s *MemoryStore) KindOf(id domain.ArtifactID) (domain.Kind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.live[id]
	return a.kind, ok
}
