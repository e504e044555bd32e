package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRemoteAddr = "1.2.3.4:1234"

func serveLimited(handler echo.HandlerFunc, player string) int {
	return serveLimitedAs(handler, player, false)
}

func serveLimitedAs(handler echo.HandlerFunc, player string, fresh bool) int {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if player != "" {
		c.Set(contextKeyPlayer, player)
	}
	if fresh {
		c.Set(contextKeyNewPlayer, true)
	}
	_ = handler(c)
	return rec.Code
}

func TestRateLimiterAllowsRequestsUnderLimit(t *testing.T) {
	handler := newRateLimiter(10, 3)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for range 3 {
		require.Equal(t, http.StatusOK, serveLimited(handler, ""))
	}
}

func TestRateLimiterBlocksExcessiveRequests(t *testing.T) {
	handler := newRateLimiter(0.01, 1)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serveLimited(handler, ""))
	assert.Equal(t, http.StatusTooManyRequests, serveLimited(handler, ""))
}

func TestRateLimiterKeysByPlayer(t *testing.T) {
	handler := newRateLimiter(0.01, 1)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serveLimited(handler, "alice"))
	assert.Equal(t, http.StatusTooManyRequests, serveLimited(handler, "alice"))
	assert.Equal(t, http.StatusOK, serveLimited(handler, "bob"), "same IP, different player")
}

func TestRateLimiterChargesFreshKeysToIP(t *testing.T) {
	handler := newRateLimiter(0.01, 1)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serveLimitedAs(handler, "fresh-1", true))
	assert.Equal(t, http.StatusTooManyRequests, serveLimitedAs(handler, "fresh-2", true))
	assert.Equal(t, http.StatusOK, serveLimitedAs(handler, "fresh-1", false), "returning player has their own bucket")
}

func TestSessionLimiterOnlyCountsFreshKeys(t *testing.T) {
	handler := newSessionLimiter(0.01, 1)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serveLimitedAs(handler, "fresh-1", true))
	assert.Equal(t, http.StatusTooManyRequests, serveLimitedAs(handler, "fresh-2", true))
	for range 5 {
		assert.Equal(t, http.StatusOK, serveLimitedAs(handler, "known", false))
	}
}
