package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/spotthefake/internal/adapter/metrics"
	"github.com/pscheid92/spotthefake/internal/platform/retry"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func newTestOracle(t *testing.T, handler http.HandlerFunc, attempts int) (*HTTPOracle, *metrics.ProviderMetrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.NewProviderMetrics(prometheus.NewRegistry())
	o := NewHTTPOracle(HTTPOracleConfig{URL: srv.URL, Timeout: time.Second, Retry: fastRetry(attempts)}, srv.Client(), m)
	return o, m
}

func writePNG(t *testing.T, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	assert.NoError(t, imaging.Encode(w, gradientImage(64), imaging.PNG))
}

func TestHTTPOracle_Synthesize(t *testing.T) {
	var got synthesizeRequest
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writePNG(t, w)
	}, 1)

	img, err := o.Synthesize(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, int64(99), got.Seed)
	assert.Equal(t, 100, got.ZDim)
}

func TestHTTPOracle_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	o, m := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writePNG(t, w)
	}, 3)

	_, err := o.Synthesize(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Failures.WithLabelValues("fake", "retry")))
}

func TestHTTPOracle_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, 3)

	_, err := o.Synthesize(context.Background(), 1)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPOracle_RejectsNonImageBody(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("definitely not a png"))
	}, 3)

	_, err := o.Synthesize(context.Background(), 1)
	assert.ErrorIs(t, err, errUndecodable)
}

func TestHTTPOracle_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	o, m := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, 1)

	for range 5 {
		_, err := o.Synthesize(context.Background(), 1)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, o.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState))

	before := calls.Load()
	_, err := o.Synthesize(context.Background(), 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, calls.Load(), "open circuit must not reach the server")
}

func TestClassifyOracleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want retry.Action
	}{
		{"rate limited", &StatusError{Code: http.StatusTooManyRequests}, retry.After},
		{"server error", &StatusError{Code: http.StatusBadGateway}, retry.Retry},
		{"client error", &StatusError{Code: http.StatusNotFound}, retry.Stop},
		{"undecodable", errUndecodable, retry.Stop},
		{"cancelled", context.Canceled, retry.Stop},
		{"network", errors.New("connection refused"), retry.Retry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOracleError(tt.err))
		})
	}
}
