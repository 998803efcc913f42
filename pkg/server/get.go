package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"superhero/pkg/schema"
	"superhero/pkg/screen"
)

type portraitInfo struct {
	URL         string `json:"url,omitempty"`
	Placeholder bool   `json:"placeholder"`
	Pending     bool   `json:"pending"`
}

type screenResponse struct {
	State     string        `json:"state"`
	Name      string        `json:"name"`
	Stats     []screen.Line `json:"stats"`
	Bio       []screen.Line `json:"bio"`
	Pending   int           `json:"pending"`
	Seq       uint64        `json:"seq"`
	RequestID string        `json:"request_id,omitempty"`
	Portrait  *portraitInfo `json:"portrait,omitempty"`
	Hero      *schema.Hero  `json:"hero,omitempty"`
}

func toResponse(s screen.Screen) screenResponse {
	resp := screenResponse{
		State:     s.State.String(),
		Name:      s.Name,
		Stats:     s.Stats[:],
		Bio:       s.Bio[:],
		Pending:   s.Pending,
		Seq:       s.Seq,
		RequestID: s.RequestID,
		Hero:      s.Hero,
	}
	if !s.Portrait.Empty() {
		resp.Portrait = &portraitInfo{
			URL:         s.PortraitURL,
			Placeholder: s.Portrait.Placeholder,
			Pending:     s.PortraitPending,
		}
	}
	return resp
}

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

// GET /api/screen
func (s *Server) handleGetScreen(c echo.Context) error {
	snap, err := s.Screen.Snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "screen unavailable")
	}
	return c.JSON(http.StatusOK, toResponse(snap))
}

// GET /api/portrait
func (s *Server) handleGetPortrait(c echo.Context) error {
	snap, err := s.Screen.Snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "screen unavailable")
	}
	if snap.Portrait.Empty() {
		return echo.NewHTTPError(http.StatusNotFound, "no portrait")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/webp", snap.Portrait.Data)
}

// GET /api/schema
func (s *Server) handleGetSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, schema.HeroSchema)
}
