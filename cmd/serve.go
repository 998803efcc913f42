package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	glog "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"superhero/pkg/inference"
	"superhero/pkg/screen"
	"superhero/pkg/server"
	"superhero/pkg/view"
)

func serveCmd() *cobra.Command {
	var mirror bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hero screen over HTTP (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var renderers []screen.Renderer
			if mirror {
				renderers = append(renderers, view.NewTerminal(os.Stdout))
			}
			ctrl := newController(renderers...)
			go func() {
				if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("screen loop stopped", "error", err)
				}
			}()

			inf, err := newInferencer(ctx)
			if err != nil {
				log.Warn("blurbs disabled", "error", err)
			}

			srv := server.NewServer(ctx, ctrl, inf)
			srv.BlurbExpiry(cfg.BlurbTTL)
			if log.GetLevel() <= log.DebugLevel {
				srv.Echo.Logger.SetLevel(glog.DEBUG)
			} else {
				srv.Echo.Logger.SetLevel(glog.INFO)
			}

			finishedShutDown := make(chan struct{})
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error("shutdown failed", "error", err)
				}
				close(finishedShutDown)
			}()

			if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server failed", "error", err)
				return err
			}
			<-finishedShutDown
			return nil
		},
	}
	cmd.Flags().BoolVar(&mirror, "mirror", false, "also render the screen to the terminal")
	return cmd
}

// newInferencer picks the blurb backend from cfg. It returns a nil
// Inferencer when none is configured.
func newInferencer(ctx context.Context) (inference.Inferencer, error) {
	switch cfg.Inference() {
	case "gemini":
		log.Info("blurbs enabled", "backend", "gemini", "model", cfg.GeminiModel)
		inf, err := inference.NewGeminiInferencer(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return inf, nil
	case "openai":
		log.Info("blurbs enabled", "backend", "openai", "model", cfg.OpenAIModel, "base_url", cfg.OpenAIBaseURL)
		return inference.NewOpenAIInferencer(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	default:
		log.Info("blurbs disabled: no inference backend configured")
		return nil, nil
	}
}
