package main

import (
	"context"

	"github.com/contextmap/contextmap-go/internal/config"
	"github.com/contextmap/contextmap-go/internal/session"
	"github.com/contextmap/contextmap-go/internal/window"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
)

func newWindowCmd(opts *options) *cobra.Command {
	var (
		tps  int
		zoom int
	)

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open the map in a desktop window",
		Long: `Open the map in a desktop window

Mouse wheel zooms at the cursor, dragging pans, hovering a context or marker
shows its tooltip. [0] resets the view, [R] retries a failed stage, [Q] quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := config.InitLogger(cfg.Log, false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, err := window.New(ctx, session.New(cfg, nil, log))
			if err != nil {
				return err
			}

			ebiten.SetTPS(tps)
			ebiten.SetWindowSize(int(cfg.Canvas.Width)*zoom, int(cfg.Canvas.Height)*zoom)
			ebiten.SetWindowTitle("ContextMap")
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			return ebiten.RunGame(g)
		},
	}

	cmd.Flags().IntVar(&tps, "tps", 60, "Ticks per second")
	cmd.Flags().IntVar(&zoom, "window-scale", 2, "Window size as a multiple of the canvas")
	return cmd
}
