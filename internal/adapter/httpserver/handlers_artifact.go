package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/spotthefake/internal/domain"
	apperrors "github.com/pscheid92/spotthefake/internal/platform/errors"
)

func (s *Server) registerArtifactRoutes() {
	s.echo.GET("/artifacts/:id", s.handleArtifact)
}

// handleArtifact serves image bytes by id. The id itself is the capability:
// it is unguessable and dies with its round.
func (s *Server) handleArtifact(c echo.Context) error {
	id := c.Param("id")

	data, err := s.app.Artifact(c.Request().Context(), id)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return apperrors.NotFoundError("artifact not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to read artifact", err).WithField("artifact_id", id)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	if err := c.Blob(http.StatusOK, "image/jpeg", data); err != nil {
		return fmt.Errorf("failed to send image response: %w", err)
	}
	return nil
}
