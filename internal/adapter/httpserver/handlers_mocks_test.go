package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pscheid92/spotthefake/internal/game"
	"github.com/pscheid92/spotthefake/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	startGameFn   func(ctx context.Context, key string, totalRounds int) (game.Snapshot, error)
	nextRoundFn   func(ctx context.Context, key string) (game.Step, error)
	submitGuessFn func(ctx context.Context, key, guess string) (game.Outcome, error)
	stateFn       func(ctx context.Context, key string) game.Snapshot
	endGameFn     func(ctx context.Context, key string) bool
	artifactFn    func(ctx context.Context, id string) ([]byte, error)
}

func (m *mockAppService) StartGame(ctx context.Context, key string, totalRounds int) (game.Snapshot, error) {
	if m.startGameFn != nil {
		return m.startGameFn(ctx, key, totalRounds)
	}
	return game.Snapshot{Phase: game.PhaseNotStarted, TotalRounds: 10}, nil
}

func (m *mockAppService) NextRound(ctx context.Context, key string) (game.Step, error) {
	if m.nextRoundFn != nil {
		return m.nextRoundFn(ctx, key)
	}
	return game.Step{}, errors.New("not implemented")
}

func (m *mockAppService) SubmitGuess(ctx context.Context, key, guess string) (game.Outcome, error) {
	if m.submitGuessFn != nil {
		return m.submitGuessFn(ctx, key, guess)
	}
	return game.Outcome{}, errors.New("not implemented")
}

func (m *mockAppService) State(ctx context.Context, key string) game.Snapshot {
	if m.stateFn != nil {
		return m.stateFn(ctx, key)
	}
	return game.Snapshot{Phase: game.PhaseNotStarted, TotalRounds: 10}
}

func (m *mockAppService) EndGame(ctx context.Context, key string) bool {
	if m.endGameFn != nil {
		return m.endGameFn(ctx, key)
	}
	return false
}

func (m *mockAppService) Artifact(ctx context.Context, id string) ([]byte, error) {
	if m.artifactFn != nil {
		return m.artifactFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "test",
		Port:               "0",
		SessionSecret:      strings.Repeat("s", 32),
		SessionMaxAge:      time.Hour,
		NextRoundRateLimit: 100,
		NextRoundBurst:     100,

		NewSessionRateLimit: 100,
		NewSessionBurst:     100,
	}
}

func newTestServer(t *testing.T, app appService, opts ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return NewServer(cfg, app, nil, nil, nil)
}

func withHealthChecks(srv *Server, checks ...HealthCheck) *Server {
	srv.healthChecks = checks
	return srv
}

// do sends a request through the full middleware stack, replaying cookies.
func do(srv *Server, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return doFrom(srv, "", method, path, body, cookies...)
}

// doFrom is do with an explicit client address.
func doFrom(srv *Server, remoteAddr, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
