package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CommandRequest struct {
	Text string `json:"text"`
}

type CommandResponse struct {
	Action domain.Action       `json:"action"`
	Result domain.BridgeResult `json:"result"`
}

type VersionResponse struct {
	Version    string    `json:"version"`
	Revision   string    `json:"revision"`
	LastCommit time.Time `json:"last_commit"`
	DirtyBuild bool      `json:"dirty_build"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/version", s.VersionHandler)
	e.POST("/actions", s.ActionHandler)
	e.POST("/commands", s.CommandHandler)
	e.GET("/events", s.EventsHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	response, err := s.dispatcher.Health(10 * time.Second)
	if err != nil || !response.Healthy {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	return c.String(http.StatusOK, "health_check: OK")
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, VersionResponse{
		Version:    versioninfo.Short(),
		Revision:   versioninfo.Revision,
		LastCommit: versioninfo.LastCommit,
		DirtyBuild: versioninfo.DirtyBuild,
	})
}

func (s *Server) ActionHandler(c echo.Context) error {
	var action domain.Action
	if err := json.NewDecoder(c.Request().Body).Decode(&action); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Rejected(malformed(err)))
	}
	return c.JSON(http.StatusOK, s.dispatcher.ExecuteAction(action, domain.SOURCE_HTTP))
}

func (s *Server) CommandHandler(c echo.Context) error {
	var req CommandRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.Rejected(malformed(err)))
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, domain.Rejected(malformed(errors.New("empty text"))))
	}
	action, result := s.dispatcher.ExecuteCommand(req.Text, domain.SOURCE_HTTP)
	return c.JSON(http.StatusOK, CommandResponse{Action: action, Result: result})
}

func malformed(err error) error {
	if errors.Is(err, domain.ErrMalformedRequest) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrMalformedRequest, err)
}
