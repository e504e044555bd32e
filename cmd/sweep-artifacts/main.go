// Command sweep-artifacts removes leftover round artifacts while the server is
// stopped, for example after a crash skipped the shutdown sweep.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/adapter/redis"
	"github.com/pscheid92/spotthefake/internal/artifact"
	"golang.org/x/sync/errgroup"
)

const sweepTimeout = 5 * time.Minute

func main() {
	var (
		dir      = flag.String("dir", os.Getenv("ARTIFACT_DIR"), "Artifact directory to sweep (or set ARTIFACT_DIR env)")
		redisURL = flag.String("redis", os.Getenv("REDIS_URL"), "Redis URL to sweep (or set REDIS_URL env)")
		verbose  = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *dir == "" && *redisURL == "" {
		log.Fatal("Nothing to sweep (--dir/ARTIFACT_DIR or --redis/REDIS_URL required)")
	}

	// Configure logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	// The stores require metrics; nothing scrapes them in a one-shot run.
	m := metrics.NewSet(metrics.NewRegistry())

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	if *dir != "" {
		g.Go(func() error {
			return sweepDir(ctx, *dir, m.Artifacts)
		})
	}
	if *redisURL != "" {
		g.Go(func() error {
			return sweepRedis(ctx, *redisURL, m)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	slog.Info("Sweep complete", "duration_ms", time.Since(start).Milliseconds())
}

func sweepDir(ctx context.Context, dir string, m *metrics.ArtifactMetrics) error {
	store, err := artifact.NewFileStore(dir, m)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}
	n, err := store.SweepAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep %s: %w", dir, err)
	}
	slog.Info("Swept artifact directory", "dir", dir, "removed", n)
	return nil
}

func sweepRedis(ctx context.Context, redisURL string, m *metrics.Set) error {
	rdb, err := redis.NewClient(ctx, redisURL, m.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()
	slog.Info("Connected to Redis", "url", sanitizeURL(redisURL))

	n, err := redis.NewArtifactStore(rdb, time.Minute, m.Artifacts).SweepAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep redis: %w", err)
	}
	slog.Info("Swept Redis artifacts", "removed", n)
	return nil
}

// sanitizeURL hides the password of a Redis URL.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
