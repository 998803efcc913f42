package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"superhero/pkg/config"
	"superhero/pkg/portrait"
	"superhero/pkg/screen"
	"superhero/pkg/superhero"
)

var cfg config.Config

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:           "superhero",
		Short:         "Show a random superhero from the public hero catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				log.Warn("unknown log level, using info", "level", cfg.LogLevel)
				level = log.InfoLevel
			}
			log.SetLevel(level)
			return nil
		},
		RunE: serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, rollCmd())
	return root
}

// newController wires the hero client and portrait loader from cfg.
func newController(renderers ...screen.Renderer) *screen.Controller {
	client := superhero.New(cfg.APIBase, cfg.HTTPTimeout)
	loader := portrait.NewLoader(cfg.ImageDir, client.HTTP)
	return screen.NewController(client, loader, screen.Options{
		CatalogSize: cfg.CatalogSize,
		Renderers:   renderers,
	})
}
