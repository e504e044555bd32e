package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/spotthefake/internal/adapter/httpserver"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/adapter/redis"
	"github.com/pscheid92/spotthefake/internal/app"
	"github.com/pscheid92/spotthefake/internal/artifact"
	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/pscheid92/spotthefake/internal/game"
	"github.com/pscheid92/spotthefake/internal/imagery"
	"github.com/pscheid92/spotthefake/internal/platform/config"
	"github.com/pscheid92/spotthefake/internal/platform/logging"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func runGracefulShutdown(srv *httpserver.Server, appSvc *app.Service, redisClient *goredis.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Sessions and artifacts go after the listener so no request races the sweep.
		appSvc.Stop(shutdownCtx)

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupStore returns the configured artifact store and, for the redis
// backend, the client behind it.
func setupStore(cfg *config.Config, m *metrics.Set) (domain.ArtifactStore, *goredis.Client) {
	switch cfg.ArtifactBackend {
	case config.BackendMemory:
		return artifact.NewMemoryStore(m.Artifacts), nil
	case config.BackendRedis:
		client := setupRedis(context.Background(), cfg, m.Redis)
		return redis.NewArtifactStore(client, cfg.ArtifactTTL, m.Artifacts), client
	default:
		store, err := artifact.NewFileStore(cfg.ArtifactDir, m.Artifacts)
		if err != nil {
			slog.Error("Failed to open artifact directory", "dir", cfg.ArtifactDir, "error", err)
			os.Exit(1)
		}
		return store, nil
	}
}

func setupOracle(cfg *config.Config, m *metrics.ProviderMetrics) domain.Oracle {
	if cfg.OracleURL == "" {
		slog.Info("No ORACLE_URL configured, using the built-in procedural generator")
		return imagery.LocalOracle{}
	}
	return imagery.NewHTTPOracle(imagery.HTTPOracleConfig{
		URL:     cfg.OracleURL,
		Timeout: cfg.OracleTimeout,
		Retry:   imagery.DefaultOracleRetry(),
	}, &http.Client{}, m)
}

func setupHealthChecks(provider *imagery.Provider, redisClient *goredis.Client) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "corpus", Check: provider.CheckCorpus},
	}
	if redisClient != nil {
		checks = append(checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return checks
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "artifact_backend", cfg.ArtifactBackend)

	reg := metrics.NewRegistry()
	m := metrics.NewSet(reg)

	store, redisClient := setupStore(cfg, m)

	corpus := imagery.NewDirCorpus(cfg.CorpusDir, clock, imagery.DefaultCorpusRefresh)
	provider := imagery.NewProvider(
		store,
		setupOracle(cfg, m.Provider),
		corpus,
		imagery.NewDegrader(cfg.DisplaySize),
		imagery.NewRand(cfg.RandomSeed),
		imagery.Config{
			Timeout:      cfg.ProviderTimeout,
			DisplaySize:  cfg.DisplaySize,
			UpscaleFakes: cfg.UpscaleFakes,
		},
		m.Provider,
	)

	registry := game.NewRegistry(provider, store, cfg.TotalRounds, clock, m.Game)
	appSvc := app.NewService(registry, store, provider, app.Config{
		DefaultRounds:   cfg.TotalRounds,
		MaxRounds:       cfg.MaxTotalRounds,
		IdleTimeout:     cfg.SessionIdleTimeout,
		CleanupInterval: cfg.CleanupInterval,
		SweepOnShutdown: cfg.SweepOnShutdown,
	}, clock, m.Game)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := appSvc.Init(initCtx); err != nil {
		cancel()
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	cancel()

	srv := httpserver.NewServer(cfg, appSvc, setupHealthChecks(provider, redisClient), m.HTTP, metrics.Handler(reg))

	done := runGracefulShutdown(srv, appSvc, redisClient)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
