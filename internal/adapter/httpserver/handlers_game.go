package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/pscheid92/spotthefake/internal/game"
	apperrors "github.com/pscheid92/spotthefake/internal/platform/errors"
)

type startGameRequest struct {
	TotalRounds int `json:"total_rounds"`
}

type guessRequest struct {
	Guess string `json:"guess"`
}

type snapshotResponse struct {
	Phase  string `json:"phase"`
	Round  int    `json:"round"`
	Score  int    `json:"score"`
	Total  int    `json:"total"`
	ImgURL string `json:"img_url,omitempty"`
}

type roundResponse struct {
	Round  int    `json:"round"`
	Total  int    `json:"total"`
	ImgURL string `json:"img_url"`
}

type gameOverResponse struct {
	GameOver bool `json:"game_over"`
	Score    int  `json:"score"`
	Total    int  `json:"total"`
}

type guessResponse struct {
	Result   string `json:"result"`
	Correct  bool   `json:"correct"`
	Revealed string `json:"revealed"`
	Score    int    `json:"score"`
	Round    int    `json:"round"`
	Total    int    `json:"total"`
}

func (s *Server) registerGameRoutes() {
	api := s.echo.Group("/api/game",
		s.requirePlayer,
		newSessionLimiter(s.config.NewSessionRateLimit, s.config.NewSessionBurst),
	)
	api.POST("", s.handleStartGame)
	api.GET("", s.handleGameState)
	api.DELETE("", s.handleEndGame)
	api.POST("/next", s.handleNextRound, newRateLimiter(s.config.NextRoundRateLimit, s.config.NextRoundBurst))
	api.POST("/guess", s.handleGuess)
}

func (s *Server) handleStartGame(c echo.Context) error {
	key, err := playerKey(c)
	if err != nil {
		return err
	}

	var req startGameRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	snap, err := s.app.StartGame(c.Request().Context(), key, req.TotalRounds)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toSnapshotResponse(snap)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGameState(c echo.Context) error {
	key, err := playerKey(c)
	if err != nil {
		return err
	}

	snap := s.app.State(c.Request().Context(), key)
	if err := c.JSON(http.StatusOK, toSnapshotResponse(snap)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleEndGame(c echo.Context) error {
	key, err := playerKey(c)
	if err != nil {
		return err
	}

	s.app.EndGame(c.Request().Context(), key)
	if err := c.NoContent(http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}
	return nil
}

func (s *Server) handleNextRound(c echo.Context) error {
	key, err := playerKey(c)
	if err != nil {
		return err
	}

	step, err := s.app.NextRound(c.Request().Context(), key)
	if err != nil {
		return err
	}

	var body any
	if step.Over != nil {
		body = gameOverResponse{GameOver: true, Score: step.Over.Score, Total: step.Over.TotalRounds}
	} else {
		body = roundResponse{Round: step.View.Round, Total: step.View.TotalRounds, ImgURL: artifactURL(step.View.ArtifactID)}
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	if err := c.JSON(http.StatusOK, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGuess(c echo.Context) error {
	key, err := playerKey(c)
	if err != nil {
		return err
	}

	var req guessRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	out, err := s.app.SubmitGuess(c.Request().Context(), key, req.Guess)
	if errors.Is(err, domain.ErrNoActiveRound) {
		return apperrors.ConflictError("no active round, request the next image first")
	}
	if err != nil {
		return err
	}

	resp := guessResponse{
		Result:   resultText(out),
		Correct:  out.Correct,
		Revealed: string(out.Revealed),
		Score:    out.Score,
		Round:    out.Round,
		Total:    out.TotalRounds,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func toSnapshotResponse(snap game.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Phase: string(snap.Phase),
		Round: snap.Round,
		Score: snap.Score,
		Total: snap.TotalRounds,
	}
	if snap.ArtifactID != "" {
		resp.ImgURL = artifactURL(snap.ArtifactID)
	}
	return resp
}

func resultText(out game.Outcome) string {
	if out.Correct {
		return "Correct!"
	}
	return "Wrong! It was " + strings.ToUpper(string(out.Revealed)) + "."
}

func artifactURL(id domain.ArtifactID) string {
	return "/artifacts/" + id.String()
}
