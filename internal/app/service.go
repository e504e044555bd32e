package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/pscheid92/spotthefake/internal/game"
	"github.com/pscheid92/spotthefake/internal/platform/correlation"
)

// CorpusChecker reports whether real images are available.
type CorpusChecker interface {
	CheckCorpus(ctx context.Context) error
}

// Config holds the game-level settings of the service.
type Config struct {
	DefaultRounds   int
	MaxRounds       int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	SweepOnShutdown bool
}

// Service is the application layer. It is the only component that touches both
// the session registry and the artifact store.
type Service struct {
	registry *game.Registry
	store    domain.ArtifactStore
	corpus   CorpusChecker
	cfg      Config
	clock    clockwork.Clock
	metrics  *metrics.GameMetrics

	stopCh    chan struct{}
	stopOnce  sync.Once
	janitorWg sync.WaitGroup
}

// NewService creates the service and starts the idle-session janitor.
func NewService(registry *game.Registry, store domain.ArtifactStore, corpus CorpusChecker, cfg Config, clock clockwork.Clock, m *metrics.GameMetrics) *Service {
	s := &Service{
		registry: registry,
		store:    store,
		corpus:   corpus,
		cfg:      cfg,
		clock:    clock,
		metrics:  m,
		stopCh:   make(chan struct{}),
	}

	s.startJanitor()
	return s
}

// Init clears artifacts left over from a previous run and verifies that the
// real-image corpus is not empty.
func (s *Service) Init(ctx context.Context) error {
	n, err := s.store.SweepAll(ctx)
	if err != nil {
		return fmt.Errorf("startup sweep failed: %w", err)
	}
	slog.InfoContext(ctx, "Startup sweep complete", "removed", n)

	if err := s.corpus.CheckCorpus(ctx); err != nil {
		return fmt.Errorf("corpus check failed: %w", err)
	}
	return nil
}

// StartGame (re)starts the player's game. totalRounds of zero selects the default.
func (s *Service) StartGame(ctx context.Context, key string, totalRounds int) (game.Snapshot, error) {
	if totalRounds == 0 {
		totalRounds = s.cfg.DefaultRounds
	}
	if totalRounds < 1 || totalRounds > s.cfg.MaxRounds {
		return game.Snapshot{}, fmt.Errorf("%w: must be between 1 and %d", domain.ErrInvalidRounds, s.cfg.MaxRounds)
	}

	return withMachine(ctx, s, key, func(m *game.Machine) (game.Snapshot, error) {
		if err := m.Start(ctx, totalRounds); err != nil {
			return game.Snapshot{}, err
		}
		slog.InfoContext(ctx, "Game started", "session_key", key, "total_rounds", totalRounds)
		return m.Snapshot(), nil
	})
}

// NextRound advances the player's game.
func (s *Service) NextRound(ctx context.Context, key string) (game.Step, error) {
	return withMachine(ctx, s, key, func(m *game.Machine) (game.Step, error) {
		return m.Advance(ctx)
	})
}

// SubmitGuess parses and scores a guess ("real" or "fake").
func (s *Service) SubmitGuess(ctx context.Context, key, guess string) (game.Outcome, error) {
	label, err := domain.ParseKind(guess)
	if err != nil {
		return game.Outcome{}, err
	}

	return withMachine(ctx, s, key, func(m *game.Machine) (game.Outcome, error) {
		return m.Guess(ctx, label)
	})
}

// State returns the player's session, creating a fresh one if needed.
func (s *Service) State(ctx context.Context, key string) game.Snapshot {
	return s.registry.GetOrCreate(key).Snapshot()
}

// EndGame expires the player's session. Reports whether one existed.
func (s *Service) EndGame(ctx context.Context, key string) bool {
	ended := s.registry.Expire(ctx, key)
	if ended {
		slog.InfoContext(ctx, "Game ended", "session_key", key)
	}
	return ended
}

// Artifact returns the bytes of a live artifact.
func (s *Service) Artifact(ctx context.Context, id string) ([]byte, error) {
	return s.store.Read(ctx, domain.ArtifactID(id))
}

// ActiveSessions returns the number of sessions held by the registry.
func (s *Service) ActiveSessions() int {
	return s.registry.Len()
}

// ExpireIdle runs one janitor pass.
func (s *Service) ExpireIdle(ctx context.Context) int {
	start := s.clock.Now()
	defer func() {
		s.metrics.JanitorRuns.Inc()
		s.metrics.JanitorDuration.Observe(s.clock.Since(start).Seconds())
	}()

	n := s.registry.ExpireIdle(ctx, s.cfg.IdleTimeout)
	if n > 0 {
		slog.InfoContext(ctx, "Expired idle game sessions", "count", n, "remaining", s.registry.Len())
	}
	return n
}

// Stop halts the janitor, expires every session and, if configured, sweeps the
// artifact namespace.
func (s *Service) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.janitorWg.Wait()

	n := s.registry.ExpireAll(ctx)
	slog.InfoContext(ctx, "Game sessions closed", "count", n)

	if !s.cfg.SweepOnShutdown {
		return
	}
	removed, err := s.store.SweepAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Shutdown sweep failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Shutdown sweep complete", "removed", removed)
}

func (s *Service) startJanitor() {
	ticker := s.clock.NewTicker(s.cfg.CleanupInterval)
	s.janitorWg.Go(func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				s.ExpireIdle(correlation.WithID(context.Background(), correlation.NewID()))
			case <-s.stopCh:
				return
			}
		}
	})
	slog.Info("Session janitor started", "interval", s.cfg.CleanupInterval.String(), "idle_timeout", s.cfg.IdleTimeout.String())
}

// withMachine runs fn against the player's machine. A machine closed by a
// concurrent expiry is replaced once with a fresh one.
func withMachine[T any](ctx context.Context, s *Service, key string, fn func(*game.Machine) (T, error)) (T, error) {
	val, err := fn(s.registry.GetOrCreate(key))
	if !errors.Is(err, domain.ErrSessionClosed) {
		return val, err
	}

	slog.DebugContext(ctx, "Session expired mid-request, retrying with a new one", "session_key", key)
	return fn(s.registry.GetOrCreate(key))
}
