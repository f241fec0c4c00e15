// Package relay serves the HTTP endpoints the browser extension calls. It
// forwards prompts to a language model so the API key stays on the server.
package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/raine/virtual-closet/internal/llm"
	"github.com/rs/zerolog/log"
)

const healthText = "Completion relay server is running"

type promptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type completionResponse struct {
	Success bool    `json:"success"`
	Result  *string `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Server relays {"prompt"} requests to a Completer. A nil completer means
// no API key is configured; every relay request then fails with 500.
type Server struct {
	echo      *echo.Echo
	completer llm.Completer
}

func New(completer llm.Completer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s := &Server{echo: e, completer: completer}
	e.GET("/", s.health)
	api := e.Group("/api")
	api.POST("/extract-product", s.complete("product extraction"))
	api.POST("/generate-outfit", s.complete("outfit generation"))
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("relay server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, healthText)
}

func (s *Server) complete(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req promptRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, completionResponse{Error: "Invalid request body"})
		}
		req.Prompt = strings.TrimSpace(req.Prompt)
		if err := c.Validate(req); err != nil {
			return c.JSON(http.StatusBadRequest, completionResponse{Error: "Prompt is required"})
		}

		if s.completer == nil {
			return c.JSON(http.StatusInternalServerError, completionResponse{Error: "API key not configured on the server"})
		}

		started := time.Now()
		result, err := s.completer.Complete(c.Request().Context(), req.Prompt)
		if err != nil {
			log.Error().Err(err).Str("kind", kind).Msg("completion failed")
			return c.JSON(http.StatusInternalServerError, completionResponse{Error: errorMessage(err)})
		}

		log.Debug().Str("kind", kind).Dur("took", time.Since(started)).Msg("completion relayed")
		return c.JSON(http.StatusOK, completionResponse{Success: true, Result: &result})
	}
}

func errorMessage(err error) string {
	var svcErr *llm.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return err.Error()
}
