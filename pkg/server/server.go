package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"superhero/pkg/flight"
	"superhero/pkg/inference"
	"superhero/pkg/schema"
	"superhero/pkg/screen"
	"superhero/pkg/utils"
)

// Server is the web view of the hero screen.
type Server struct {
	Echo       *echo.Echo
	Screen     *screen.Controller
	Inferencer inference.Inferencer
	// Ctx bounds background work such as blurb generation.
	Ctx context.Context

	blurbs      *flight.Cache[string, string]
	blurbHeroes *utils.SyncMap[map[string]schema.Hero, string, schema.Hero]
}

// NewServer wires the routes. inf may be nil, which disables /api/blurb.
func NewServer(ctx context.Context, ctrl *screen.Controller, inf inference.Inferencer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:        e,
		Screen:      ctrl,
		Inferencer:  inf,
		Ctx:         ctx,
		blurbHeroes: utils.NewSyncMap[map[string]schema.Hero](),
	}
	s.blurbs = flight.NewCache(s.generateBlurb)
	e.HTTPErrorHandler = s.handleError

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/screen", s.handleGetScreen)     // current screen state
	api.POST("/roll", s.handlePostRoll)       // request a random hero
	api.GET("/portrait", s.handleGetPortrait) // current portrait as webp
	api.GET("/schema", s.handleGetSchema)     // hero JSON Schema
	api.GET("/blurb", s.handleGetBlurb)       // short description of the current hero
}

// BlurbExpiry sets how long generated blurbs are held. d <= 0 keeps them for
// the life of the server.
func (s *Server) BlurbExpiry(d time.Duration) {
	s.blurbs.Expiry(d)
}

// handleError renders every failed request as {"success": false, "error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		log.Error("request failed", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, utils.ErrJSON(msg))
	}
	if err != nil {
		log.Error("failed to write error response", "error", err)
	}
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}
