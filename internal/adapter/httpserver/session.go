package httpserver

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/spotthefake/internal/platform/errors"
)

const (
	contextKeyPlayer    = "playerKey"
	contextKeyNewPlayer = "newPlayer"
)

// requirePlayer resolves the player's key from the signed session cookie,
// issuing a fresh one on first contact.
func (s *Server) requirePlayer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			// A cookie signed with an old secret decodes to an error plus a new,
			// empty session. Start over with that one.
			slog.Debug("Discarding unreadable session cookie", "error", err)
		}

		key, _ := session.Values[sessionKeyPlayer].(string)
		if _, parseErr := uuid.Parse(key); parseErr != nil {
			key = uuid.NewString()
			session.Values[sessionKeyPlayer] = key
			if err := session.Save(c.Request(), c.Response()); err != nil {
				return apperrors.InternalError("failed to save session", err)
			}
			c.Set(contextKeyNewPlayer, true)
		}

		c.Set(contextKeyPlayer, key)
		return next(c)
	}
}

func playerKey(c echo.Context) (string, error) {
	key, ok := c.Get(contextKeyPlayer).(string)
	if !ok || key == "" {
		return "", apperrors.InternalError("missing player key in context", errors.New("route not behind requirePlayer"))
	}
	return key, nil
}

// isNewPlayer reports whether the player key was issued by this request.
func isNewPlayer(c echo.Context) bool {
	fresh, _ := c.Get(contextKeyNewPlayer).(bool)
	return fresh
}
