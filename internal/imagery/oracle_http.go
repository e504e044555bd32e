package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/pscheid92/spotthefake/internal/platform/retry"
	"github.com/sony/gobreaker"
)

// latentDim is the generator's noise vector size.
const latentDim = 100

// maxOracleResponse bounds the body we are willing to decode.
const maxOracleResponse = 8 << 20

type synthesizeRequest struct {
	Seed int64 `json:"seed"`
	ZDim int   `json:"z_dim"`
}

// StatusError is a non-200 answer from the model server.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle returned status %d", e.Code)
}

var errUndecodable = errors.New("oracle response is not an image")

// HTTPOracleConfig configures an HTTPOracle.
type HTTPOracleConfig struct {
	URL     string
	Timeout time.Duration // per attempt
	Retry   retry.Policy
}

// DefaultOracleRetry retries transient failures twice with a short backoff.
func DefaultOracleRetry() retry.Policy {
	return retry.Policy{
		MaxAttempts:      3,
		InitialBackoff:   200 * time.Millisecond,
		MaxBackoff:       2 * time.Second,
		RateLimitBackoff: 2 * time.Second,
	}
}

// HTTPOracle asks a remote model server for samples. Each call runs through a
// circuit breaker wrapped around a retry loop.
type HTTPOracle struct {
	client  *http.Client
	cfg     HTTPOracleConfig
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.ProviderMetrics
}

var _ domain.Oracle = (*HTTPOracle)(nil)

func NewHTTPOracle(cfg HTTPOracleConfig, client *http.Client, m *metrics.ProviderMetrics) *HTTPOracle {
	if client == nil {
		client = &http.Client{}
	}
	o := &HTTPOracle{client: client, cfg: cfg, metrics: m}
	o.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "oracle",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up says nothing about the oracle's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			m.CircuitBreakerState.Set(float64(to))
		},
	})
	return o
}

// State returns the breaker state.
func (o *HTTPOracle) State() gobreaker.State {
	return o.breaker.State()
}

func (o *HTTPOracle) Synthesize(ctx context.Context, seed int64) (image.Image, error) {
	res, err := o.breaker.Execute(func() (any, error) {
		return retry.Do(ctx, o.retryPolicy(), classifyOracleError, func(ctx context.Context) (image.Image, error) {
			return o.request(ctx, seed)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("oracle synthesize: %w", err)
	}
	return res.(image.Image), nil
}

func (o *HTTPOracle) retryPolicy() retry.Policy {
	p := o.cfg.Retry
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		o.metrics.Failures.WithLabelValues(string(domain.KindFake), "retry").Inc()
		slog.Debug("Retrying oracle request", "attempt", attempt, "backoff", backoff, "error", err)
	}
	return p
}

func (o *HTTPOracle) request(ctx context.Context, seed int64) (image.Image, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(synthesizeRequest{Seed: seed, ZDim: latentDim})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png, image/jpeg")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxOracleResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUndecodable, err)
	}
	return img, nil
}

func classifyOracleError(err error) retry.Action {
	var statusErr *StatusError
	switch {
	case errors.Is(err, context.Canceled):
		return retry.Stop
	case errors.Is(err, errUndecodable):
		return retry.Stop
	case errors.As(err, &statusErr):
		switch {
		case statusErr.Code == http.StatusTooManyRequests:
			return retry.After
		case statusErr.Code >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	default:
		return retry.Retry
	}
}
