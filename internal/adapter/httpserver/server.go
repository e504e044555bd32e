package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/game"
	"github.com/pscheid92/spotthefake/internal/platform/config"
)

type appService interface {
	StartGame(ctx context.Context, key string, totalRounds int) (game.Snapshot, error)
	NextRound(ctx context.Context, key string) (game.Step, error)
	SubmitGuess(ctx context.Context, key, guess string) (game.Outcome, error)
	State(ctx context.Context, key string) game.Snapshot
	EndGame(ctx context.Context, key string) bool
	Artifact(ctx context.Context, id string) ([]byte, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app            appService
	sessionStore   *sessions.CookieStore
	healthChecks   []HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	startTime      time.Time
}

func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck, httpMetrics *metrics.HTTPMetrics, metricsHandler http.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		sessionStore:   setupSessionStore(cfg),
		healthChecks:   healthChecks,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		startTime:      time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName      = "spotthefake-session"
	sessionKeyPlayer = "player"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
