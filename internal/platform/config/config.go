package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Artifact storage backends.
const (
	BackendFS     = "fs"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const minSessionSecretLen = 32

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"24h"`

	TotalRounds    int `env:"TOTAL_ROUNDS" default:"10"`
	MaxTotalRounds int `env:"MAX_TOTAL_ROUNDS" default:"50"`

	ArtifactBackend string        `env:"ARTIFACT_BACKEND" default:"fs"`
	ArtifactDir     string        `env:"ARTIFACT_DIR" default:"data/temp_images"`
	ArtifactTTL     time.Duration `env:"ARTIFACT_TTL" default:"1h"` // redis safety net only
	RedisURL        string        `env:"REDIS_URL"`

	CorpusDir       string        `env:"CORPUS_DIR" default:"data/real_flowers"`
	OracleURL       string        `env:"ORACLE_URL"`
	OracleTimeout   time.Duration `env:"ORACLE_TIMEOUT" default:"10s"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" default:"15s"`
	DisplaySize     int           `env:"DISPLAY_SIZE" default:"400"`
	UpscaleFakes    bool          `env:"UPSCALE_FAKES" default:"false"`
	RandomSeed      uint64        `env:"RANDOM_SEED" default:"0"` // 0 picks a random seed

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`
	CleanupInterval    time.Duration `env:"CLEANUP_INTERVAL" default:"1m"`
	SweepOnShutdown    bool          `env:"SWEEP_ON_SHUTDOWN" default:"true"`

	NextRoundRateLimit float64 `env:"NEXT_ROUND_RATE_LIMIT" default:"2"`
	NextRoundBurst     int     `env:"NEXT_ROUND_BURST" default:"5"`

	NewSessionRateLimit float64 `env:"NEW_SESSION_RATE_LIMIT" default:"0.2"`
	NewSessionBurst     int     `env:"NEW_SESSION_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
	}

	switch cfg.ArtifactBackend {
	case BackendFS:
		if cfg.ArtifactDir == "" {
			return errors.New("ARTIFACT_DIR is required for the fs backend")
		}
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
		if cfg.ArtifactTTL <= 0 {
			return errors.New("ARTIFACT_TTL must be positive")
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be one of fs, memory, redis, got %q", cfg.ArtifactBackend)
	}

	if cfg.CorpusDir == "" {
		return errors.New("CORPUS_DIR is required")
	}
	if cfg.TotalRounds <= 0 {
		return errors.New("TOTAL_ROUNDS must be positive")
	}
	if cfg.MaxTotalRounds < cfg.TotalRounds {
		return errors.New("MAX_TOTAL_ROUNDS must not be smaller than TOTAL_ROUNDS")
	}
	if cfg.DisplaySize < 64 || cfg.DisplaySize > 2048 {
		return errors.New("DISPLAY_SIZE must be between 64 and 2048")
	}
	if cfg.ProviderTimeout <= 0 || cfg.OracleTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT and ORACLE_TIMEOUT must be positive")
	}
	if cfg.SessionIdleTimeout <= 0 || cfg.CleanupInterval <= 0 {
		return errors.New("SESSION_IDLE_TIMEOUT and CLEANUP_INTERVAL must be positive")
	}
	if cfg.NextRoundRateLimit <= 0 || cfg.NextRoundBurst <= 0 {
		return errors.New("NEXT_ROUND_RATE_LIMIT and NEXT_ROUND_BURST must be positive")
	}
	if cfg.NewSessionRateLimit <= 0 || cfg.NewSessionBurst <= 0 {
		return errors.New("NEW_SESSION_RATE_LIMIT and NEW_SESSION_BURST must be positive")
	}

	return nil
}
