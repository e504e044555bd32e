package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
)

// Phase is the lifecycle position of a Machine.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInRound    Phase = "in_round"
	PhaseResolved   Phase = "resolved"
	PhaseAbandoned  Phase = "abandoned"
	PhaseFinished   Phase = "finished"
)

// ImageSource yields a freshly stored artifact and its ground truth.
type ImageSource interface {
	FetchNext(ctx context.Context) (domain.ArtifactID, bool, error)
}

// RoundView is what the player sees of a started round. It never carries the label.
type RoundView struct {
	Round       int
	TotalRounds int
	ArtifactID  domain.ArtifactID
}

// GameOver is the final result.
type GameOver struct {
	Score       int
	TotalRounds int
}

// Step is the result of Advance: exactly one of View or Over is set.
type Step struct {
	View *RoundView
	Over *GameOver
}

// Outcome is the result of a scored guess.
type Outcome struct {
	Correct     bool
	Revealed    domain.Kind
	Score       int
	Round       int
	TotalRounds int
}

// Snapshot is a read-only copy of a machine's state.
type Snapshot struct {
	Phase       Phase
	Round       int
	Score       int
	TotalRounds int
	ArtifactID  domain.ArtifactID // empty unless a round awaits a guess
	LastActive  time.Time
}

type roundState struct {
	artifactID domain.ArtifactID
	isFake     bool
	resolved   bool
}

// Machine is one player's game.
type Machine struct {
	source  ImageSource
	store   domain.ArtifactStore
	clock   clockwork.Clock
	metrics *metrics.GameMetrics

	lastActive atomic.Int64 // unix nanos, readable without mu

	mu          sync.Mutex
	round       int
	score       int
	totalRounds int
	current     *roundState
	phase       Phase
	closed      bool
}

// NewMachine returns a machine in NotStarted with totalRounds rounds.
func NewMachine(source ImageSource, store domain.ArtifactStore, totalRounds int, clock clockwork.Clock, m *metrics.GameMetrics) *Machine {
	mc := &Machine{
		source:      source,
		store:       store,
		clock:       clock,
		metrics:     m,
		totalRounds: totalRounds,
		phase:       PhaseNotStarted,
	}
	mc.Touch()
	return mc
}

// Touch records activity for idle expiry.
func (m *Machine) Touch() {
	m.lastActive.Store(m.clock.Now().UnixNano())
}

// LastActive returns the time of the most recent Touch.
func (m *Machine) LastActive() time.Time {
	return time.Unix(0, m.lastActive.Load())
}

// Start resets the game to round zero with the given number of rounds,
// releasing any image still on screen.
func (m *Machine) Start(ctx context.Context, totalRounds int) error {
	if totalRounds <= 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidRounds, totalRounds)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrSessionClosed
	}

	m.abandonCurrent(ctx)
	m.round = 0
	m.score = 0
	m.totalRounds = totalRounds
	m.phase = PhaseNotStarted
	return nil
}

// Advance moves to the next round, or reports GameOver once every round has
// been played. A provider failure leaves the round counter untouched.
func (m *Machine) Advance(ctx context.Context) (Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Step{}, domain.ErrSessionClosed
	}

	if m.round >= m.totalRounds {
		m.abandonCurrent(ctx)
		if m.phase != PhaseFinished {
			m.phase = PhaseFinished
			m.metrics.GamesFinished.Inc()
		}
		return Step{Over: &GameOver{Score: m.score, TotalRounds: m.totalRounds}}, nil
	}

	m.abandonCurrent(ctx)

	id, isFake, err := m.source.FetchNext(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return Step{}, err
	}

	m.round++
	m.current = &roundState{artifactID: id, isFake: isFake}
	m.phase = PhaseInRound
	m.metrics.RoundsStarted.Inc()

	return Step{View: &RoundView{Round: m.round, TotalRounds: m.totalRounds, ArtifactID: id}}, nil
}

// Guess scores label against the current round. Each round is scored at most once.
func (m *Machine) Guess(ctx context.Context, label domain.Kind) (Outcome, error) {
	if label != domain.KindReal && label != domain.KindFake {
		return Outcome{}, fmt.Errorf("%w: %q", domain.ErrInvalidLabel, label)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Outcome{}, domain.ErrSessionClosed
	}
	if m.current == nil || m.current.resolved {
		return Outcome{}, domain.ErrNoActiveRound
	}

	cur := m.current
	revealed := domain.KindOf(cur.isFake)
	correct := label == revealed
	if correct {
		m.score++
		m.metrics.Guesses.WithLabelValues("correct").Inc()
	} else {
		m.metrics.Guesses.WithLabelValues("wrong").Inc()
	}

	cur.resolved = true
	m.store.Release(ctx, cur.artifactID)
	m.current = nil
	m.phase = PhaseResolved

	return Outcome{
		Correct:     correct,
		Revealed:    revealed,
		Score:       m.score,
		Round:       m.round,
		TotalRounds: m.totalRounds,
	}, nil
}

// Close ends the machine for good and releases its artifact. Safe to call
// more than once.
func (m *Machine) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.abandonCurrent(ctx)
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Phase:       m.phase,
		Round:       m.round,
		Score:       m.score,
		TotalRounds: m.totalRounds,
		LastActive:  m.LastActive(),
	}
	if m.current != nil && !m.current.resolved {
		s.ArtifactID = m.current.artifactID
	}
	return s
}

// abandonCurrent releases an unguessed artifact. Caller holds mu.
func (m *Machine) abandonCurrent(ctx context.Context) {
	if m.current == nil {
		return
	}
	if !m.current.resolved {
		m.store.Release(ctx, m.current.artifactID)
		m.metrics.RoundsAbandoned.Inc()
		m.phase = PhaseAbandoned
		slog.DebugContext(ctx, "Round abandoned", "round", m.round, "artifact_id", m.current.artifactID.String())
	}
	m.current = nil
}
