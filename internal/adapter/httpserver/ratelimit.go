package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

func newLimiterStore(ratePerSecond float64, burst int) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
}

func denyRateLimited(c echo.Context, identifier string, err error) error {
	return c.JSON(http.StatusTooManyRequests, map[string]string{
		"error": "rate limit exceeded",
	})
}

// newRateLimiter limits per player. A key minted on this very request is not
// trusted yet, so such requests share the bucket of their client IP.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if key, ok := c.Get(contextKeyPlayer).(string); ok && key != "" && !isNewPlayer(c) {
				return "player:" + key, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		Store:       newLimiterStore(ratePerSecond, burst),
		DenyHandler: denyRateLimited,
	})
}

// newSessionLimiter caps how fast one client IP can obtain fresh player keys.
// Requests that present a valid cookie pass untouched.
func newSessionLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool { return !isNewPlayer(c) },
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return "ip:" + c.RealIP(), nil
		},
		Store:       newLimiterStore(ratePerSecond, burst),
		DenyHandler: denyRateLimited,
	})
}
