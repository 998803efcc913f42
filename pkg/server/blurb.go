package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"superhero/pkg/schema"
	"superhero/pkg/screen"
	"superhero/pkg/utils"
)

const blurbTimeout = time.Minute

type blurbResponse struct {
	Name  string `json:"name"`
	Blurb string `json:"blurb"`
}

// GET /api/blurb
func (s *Server) handleGetBlurb(c echo.Context) error {
	if s.Inferencer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no inference backend configured")
	}

	ctx := c.Request().Context()
	snap, err := s.Screen.Snapshot(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "screen unavailable")
	}
	if snap.State != screen.Displayed || snap.Hero == nil {
		return echo.NewHTTPError(http.StatusConflict, "no hero on screen")
	}

	hero := *snap.Hero
	key := blurbKey(hero)
	s.blurbHeroes.Store(key, hero)

	var blurb string
	if c.QueryParam("force") != "" {
		blurb, err = s.blurbs.Force(ctx, key)
	} else {
		blurb, err = s.blurbs.Get(ctx, key)
	}
	if err != nil {
		log.Error("blurb generation failed", "hero", hero.Name, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "blurb generation failed")
	}

	return c.JSON(http.StatusOK, blurbResponse{Name: hero.Name, Blurb: blurb})
}

func blurbKey(h schema.Hero) string {
	return strings.ToLower(strings.TrimSpace(h.Biography.Publisher + ":" + h.Name))
}

// generateBlurb runs under s.Ctx, not the requester's context. Joined callers
// share its result.
func (s *Server) generateBlurb(_ context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(s.Ctx, blurbTimeout)
	defer cancel()

	hero, ok := s.blurbHeroes.Load(key)
	if !ok {
		return "", errors.New("unknown hero " + key)
	}

	log.Info("generating blurb", "hero", hero.Name)
	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(256),
		Temperature:         openai.Float(0.7),
	}
	out, err := s.Inferencer.Infer(ctx, params, blurbPrompt, utils.PrettyJSON(hero))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(utils.CleanJSON(out))
	if out == "" {
		return "", errors.New("empty blurb")
	}
	log.Debug("blurb generated", "hero", hero.Name, "blurb", utils.LimitStr(out, 60))
	return out, nil
}
