// Package api exposes the loaded ensemble over HTTP for ad-hoc
// translation requests.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/nmtgo/beamline/internal/version"
)

// Service decodes raw source lines into post-processed hypotheses.
// *translator.Translator satisfies it.
type Service interface {
	TranslateLines(ctx context.Context, lines []string) ([]string, error)
}

// Server routes translation requests to a Service.
type Server struct {
	service Service
	members int
}

// NewServer wires a Service and the ensemble size reported in responses.
func NewServer(service Service, members int) *Server {
	return &Server{service: service, members: members}
}

// Register mounts the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/translate", s.handleTranslate)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleTranslate(c *echo.Context) error {
	if s.service == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translation service not configured")
	}
	req, err := decodeJSON[TranslateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Lines) == 0 {
		return writeBadRequest(c, "lines must not be empty")
	}

	hyps, err := s.service.TranslateLines(c.Request().Context(), req.Lines)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	return c.JSON(http.StatusOK, TranslateResponse{
		ID:          newTranslationID(),
		Object:      "translation",
		Models:      s.members,
		Hypotheses:  hyps,
		SourceLines: len(req.Lines),
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.String(),
		Models:  s.members,
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
