package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// POST /api/roll
func (s *Server) handlePostRoll(c echo.Context) error {
	req, err := s.Screen.RequestRandomHero(c.Request().Context())
	if err != nil {
		log.Error("roll failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "screen unavailable")
	}
	return c.JSON(http.StatusAccepted, req)
}
