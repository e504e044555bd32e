package artifact

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	m := metrics.NewArtifactMetrics(prometheus.NewRegistry())
	s := NewMemoryStore(m)
	ctx := context.Background()

	payload := []byte("abc")
	id, err := s.Create(ctx, domain.KindReal, payload)
	require.NoError(t, err)

	payload[0] = 'z'
	data, err := s.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data, "store must not alias caller buffers")

	kind, ok := s.KindOf(id)
	require.True(t, ok)
	assert.Equal(t, domain.KindReal, kind)

	s.Release(ctx, id)
	s.Release(ctx, id)
	_, err = s.Read(ctx, id)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Released))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Live))
}

func TestMemoryStore_SweepAll(t *testing.T) {
	m := metrics.NewArtifactMetrics(prometheus.NewRegistry())
	s := NewMemoryStore(m)
	ctx := context.Background()

	for range 5 {
		_, err := s.Create(ctx, domain.KindFake, []byte("x"))
		require.NoError(t, err)
	}

	n, err := s.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, s.Live())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Live))
}

func TestMemoryStore_ConcurrentCreates(t *testing.T) {
	s := NewMemoryStore(metrics.NewArtifactMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 1000 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, domain.KindFake, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, s.Live())
}

func TestNewID_Shape(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)
	assert.Len(t, id.String(), 32)
	assert.True(t, ValidID(id))
	assert.False(t, ValidID("real_"+id))
}
