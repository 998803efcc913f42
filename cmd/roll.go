package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"superhero/pkg/diff"
	"superhero/pkg/screen"
	"superhero/pkg/utils"
	"superhero/pkg/view"
)

func rollCmd() *cobra.Command {
	var (
		count    int
		asJSON   bool
		showDiff bool
	)
	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Roll heroes in the terminal without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var renderers []screen.Renderer
			if !asJSON {
				renderers = append(renderers, view.NewTerminal(os.Stdout))
			}
			ctrl := newController(renderers...)
			loopDone := make(chan error, 1)
			go func() { loopDone <- ctrl.Run(ctx) }()

			var prev *screen.Screen
			for range count {
				req, err := ctrl.RequestRandomHero(ctx)
				if err != nil {
					return err
				}
				snap, err := ctrl.Await(ctx, req.Seq)
				if err != nil {
					return err
				}
				if asJSON {
					printJSON(snap)
				}
				if showDiff && prev != nil {
					fmt.Println("changes since last roll:")
					diff.Print(os.Stdout, diff.Screens(*prev, snap))
				}
				prev = &snap
				if snap.State == screen.Errored {
					log.Warn("roll failed", "hero_id", req.HeroID, "request_id", req.ID)
				}
			}

			cancel()
			if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of heroes to roll, one after another")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print each hero record as JSON instead of the card")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print what changed between consecutive rolls")
	return cmd
}

func printJSON(s screen.Screen) {
	if s.Hero == nil {
		fmt.Println(utils.PrettyJSON(map[string]string{"state": s.State.String(), "error": s.Name}))
		return
	}
	fmt.Println(utils.PrettyJSON(s.Hero))
}
