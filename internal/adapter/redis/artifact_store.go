package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/artifact"
	"github.com/pscheid92/spotthefake/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	artifactKeyPrefix = "artifact:"
	sweepBatchSize    = 500
	maxCreateAttempts = 4
)

// ArtifactStore keeps artifact payloads in Redis. Several server instances can
// share one namespace; the key TTL bounds the lifetime of anything a crashed
// instance failed to release.
//
// The Live gauge counts the artifacts this instance created and has not yet
// released, whether or not their keys have since expired.
type ArtifactStore struct {
	rdb     *goredis.Client
	ttl     time.Duration
	metrics *metrics.ArtifactMetrics

	mu    sync.Mutex
	owned map[domain.ArtifactID]struct{}
}

var _ domain.ArtifactStore = (*ArtifactStore)(nil)

func NewArtifactStore(rdb *goredis.Client, ttl time.Duration, m *metrics.ArtifactMetrics) *ArtifactStore {
	return &ArtifactStore{rdb: rdb, ttl: ttl, metrics: m, owned: make(map[domain.ArtifactID]struct{})}
}

func artifactKey(id domain.ArtifactID) string {
	return artifactKeyPrefix + string(id)
}

func (s *ArtifactStore) Create(ctx context.Context, kind domain.Kind, payload []byte) (domain.ArtifactID, error) {
	for range maxCreateAttempts {
		id, err := artifact.NewID()
		if err != nil {
			return "", err
		}

		ok, err := s.rdb.SetNX(ctx, artifactKey(id), payload, s.ttl).Result()
		if err != nil {
			s.metrics.Errors.WithLabelValues("create").Inc()
			return "", fmt.Errorf("failed to store artifact: %w", err)
		}
		if !ok {
			continue
		}

		s.mu.Lock()
		s.owned[id] = struct{}{}
		s.mu.Unlock()

		s.metrics.Created.WithLabelValues(string(kind)).Inc()
		s.metrics.Live.Inc()
		return id, nil
	}
	return "", fmt.Errorf("failed to allocate a unique artifact id after %d attempts", maxCreateAttempts)
}

func (s *ArtifactStore) Read(ctx context.Context, id domain.ArtifactID) ([]byte, error) {
	if !artifact.ValidID(id) {
		return nil, domain.ErrArtifactNotFound
	}

	data, err := s.rdb.Get(ctx, artifactKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		s.metrics.Errors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

func (s *ArtifactStore) Release(ctx context.Context, id domain.ArtifactID) {
	if !artifact.ValidID(id) {
		return
	}

	n, err := s.rdb.Del(ctx, artifactKey(id)).Result()
	if err != nil {
		s.metrics.Errors.WithLabelValues("release").Inc()
		slog.WarnContext(ctx, "Failed to delete artifact", "artifact_id", id.String(), "error", err)
		return
	}

	// The key may already be gone by TTL; the gauge still has to drop.
	s.mu.Lock()
	_, owned := s.owned[id]
	delete(s.owned, id)
	s.mu.Unlock()

	if owned {
		s.metrics.Live.Dec()
	}
	if owned || n > 0 {
		s.metrics.Released.Inc()
	}
}

// SweepAll deletes every key in the artifact namespace, including keys written
// by other instances.
func (s *ArtifactStore) SweepAll(ctx context.Context) (int, error) {
	removed := 0
	batch := make([]string, 0, sweepBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.rdb.Del(ctx, batch...).Result()
		if err != nil {
			s.metrics.Errors.WithLabelValues("sweep").Inc()
			return fmt.Errorf("failed to delete artifact keys: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	iter := s.rdb.Scan(ctx, 0, artifactKeyPrefix+"*", sweepBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == sweepBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		s.metrics.Errors.WithLabelValues("sweep").Inc()
		return removed, fmt.Errorf("failed to scan artifact keys: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}

	s.mu.Lock()
	clear(s.owned)
	s.mu.Unlock()

	s.metrics.Swept.Add(float64(removed))
	s.metrics.Live.Set(0)
	slog.InfoContext(ctx, "Artifact namespace swept", "backend", "redis", "removed", removed)
	return removed, nil
}
