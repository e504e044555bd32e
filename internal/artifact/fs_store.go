package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
)

const (
	fileExt   = ".jpg"
	tmpPrefix = ".tmp-"
)

// FileStore stores each artifact as <dir>/<id>.jpg. Payloads are written to a
// temp file and renamed into place, so a reader sees the whole file or nothing.
type FileStore struct {
	dir     string
	metrics *metrics.ArtifactMetrics

	mu      sync.RWMutex
	live    map[domain.ArtifactID]domain.Kind
	pending map[domain.ArtifactID]struct{}
}

var _ domain.ArtifactStore = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, m *metrics.ArtifactMetrics) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &FileStore{
		dir:     dir,
		metrics: m,
		live:    make(map[domain.ArtifactID]domain.Kind),
		pending: make(map[domain.ArtifactID]struct{}),
	}, nil
}

func (s *FileStore) Create(ctx context.Context, kind domain.Kind, payload []byte) (domain.ArtifactID, error) {
	id, err := s.reserve()
	if err != nil {
		return "", err
	}

	if err := s.writeAtomic(id, payload); err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		s.metrics.Errors.WithLabelValues("create").Inc()
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	s.mu.Lock()
	delete(s.pending, id)
	s.live[id] = kind
	s.mu.Unlock()

	s.metrics.Created.WithLabelValues(string(kind)).Inc()
	s.metrics.Live.Inc()
	slog.DebugContext(ctx, "Artifact created", "artifact_id", id.String(), "bytes", len(payload))
	return id, nil
}

func (s *FileStore) Read(_ context.Context, id domain.ArtifactID) ([]byte, error) {
	if !ValidID(id) {
		return nil, domain.ErrArtifactNotFound
	}

	s.mu.RLock()
	_, ok := s.live[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}

	// A concurrent Release may unlink the file between the check and the read;
	// that surfaces as NotFound, never as a partial payload.
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		s.metrics.Errors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

func (s *FileStore) Release(ctx context.Context, id domain.ArtifactID) {
	s.mu.Lock()
	_, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()

	if !ok {
		return
	}

	s.metrics.Released.Inc()
	s.metrics.Live.Dec()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.metrics.Errors.WithLabelValues("release").Inc()
		slog.WarnContext(ctx, "Failed to delete artifact file", "artifact_id", id.String(), "error", err)
	}
}

// SweepAll forgets every tracked artifact and deletes every artifact file in the
// directory, including leftovers from a previous process. Files that do not look
// like artifacts are left alone.
func (s *FileStore) SweepAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	tracked := len(s.live)
	clear(s.live)
	s.mu.Unlock()
	s.metrics.Live.Sub(float64(tracked))

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list artifact dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !entry.Type().IsRegular() || !isArtifactFile(entry.Name()) {
			continue
		}
		err := os.Remove(filepath.Join(s.dir, entry.Name()))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.metrics.Errors.WithLabelValues("sweep").Inc()
			slog.WarnContext(ctx, "Failed to sweep artifact file", "file", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	s.metrics.Swept.Add(float64(removed))
	slog.InfoContext(ctx, "Artifact directory swept", "dir", s.dir, "removed", removed, "tracked", tracked)
	return removed, nil
}

// Live returns the number of artifacts currently tracked as live.
func (s *FileStore) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live)
}

func (s *FileStore) reserve() (domain.ArtifactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := allocate(func(id domain.ArtifactID) bool {
		_, live := s.live[id]
		_, pending := s.pending[id]
		return live || pending
	})
	if err != nil {
		return "", err
	}
	s.pending[id] = struct{}{}
	return id, nil
}

func (s *FileStore) writeAtomic(id domain.ArtifactID, payload []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(id))
}

func (s *FileStore) path(id domain.ArtifactID) string {
	return filepath.Join(s.dir, string(id)+fileExt)
}

func isArtifactFile(name string) bool {
	if strings.HasPrefix(name, tmpPrefix) {
		return true
	}
	base, ok := strings.CutSuffix(name, fileExt)
	return ok && ValidID(domain.ArtifactID(base))
}
