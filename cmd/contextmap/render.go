package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/contextmap/contextmap-go/internal/config"
	"github.com/contextmap/contextmap-go/internal/export"
	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/session"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderFormats = []string{"svg", "html", "json", "csv"}

type renderOptions struct {
	scale     float64
	translate string
	formats   []string
	timeout   time.Duration
	quiet     bool
}

func newRenderCmd(opts *options) *cobra.Command {
	ro := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Load every stage headlessly and write the map to files",
		Long: `Load every stage headlessly and write the map to files

The zoom transform defaults to the configured one; --scale and --translate
replace it before export. Scale is clamped to the configured zoom extent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, ro)
		},
	}

	cmd.Flags().Float64Var(&ro.scale, "scale", 0, "Zoom scale to export at")
	cmd.Flags().StringVar(&ro.translate, "translate", "", "Zoom translate as x,y")
	cmd.Flags().StringSliceVar(&ro.formats, "format", []string{"svg", "html", "json"}, "Formats to write: svg, html, json, csv")
	cmd.Flags().DurationVar(&ro.timeout, "timeout", time.Minute, "Give up loading after this long")
	cmd.Flags().BoolVar(&ro.quiet, "quiet", false, "Only log to log.file")
	return cmd
}

func runRender(cmd *cobra.Command, opts *options, ro *renderOptions) error {
	for _, f := range ro.formats {
		if !validFormat(f) {
			return eris.Errorf("unknown format %q (want %s)", f, strings.Join(renderFormats, ", "))
		}
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	transform, err := renderTransform(cfg, ro)
	if err != nil {
		return err
	}

	log, err := config.InitLogger(cfg.Log, ro.quiet)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), ro.timeout)
	defer cancel()

	s := session.New(cfg, nil, log)
	if err := s.Pipeline.Run(ctx); err != nil {
		return eris.Wrap(err, "render")
	}
	s.View.SetTransform(transform)

	log.Info("map rendered",
		zap.Int("primitives", s.Store.Len()),
		zap.Float64("scale", s.View.Transform().Scale),
	)

	dir := cfg.Export.Directory
	exportOpts := s.ExportOptions()
	for _, f := range ro.formats {
		var filename string
		switch f {
		case "svg":
			filename, err = export.ExportSVG(s.Store, exportOpts, dir)
		case "html":
			filename, err = export.ExportHTML(s.Store, exportOpts, dir)
		case "json":
			filename, err = export.ExportJSON(s.Store, exportOpts, dir)
		case "csv":
			filename, err = export.ExportCSV(s.Store, dir)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), filename)
	}
	return nil
}

func validFormat(f string) bool {
	for _, want := range renderFormats {
		if f == want {
			return true
		}
	}
	return false
}

// renderTransform starts from the configured zoom and applies flag overrides
func renderTransform(cfg *config.Config, ro *renderOptions) (geo.State, error) {
	s := geo.State{
		TranslateX: cfg.Zoom.TranslateX,
		TranslateY: cfg.Zoom.TranslateY,
		Scale:      cfg.Zoom.Scale,
	}
	if ro.scale != 0 {
		if math.IsNaN(ro.scale) || ro.scale < 0 {
			return s, eris.Errorf("scale must be positive, got %g", ro.scale)
		}
		s.Scale = ro.scale
	}
	if ro.translate != "" {
		x, y, err := parseTranslate(ro.translate)
		if err != nil {
			return s, err
		}
		s.TranslateX, s.TranslateY = x, y
	}
	return s, nil
}

// parseTranslate reads "x,y"
func parseTranslate(v string) (float64, float64, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("translate must be x,y, got %q", v)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "translate x %q", parts[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "translate y %q", parts[1])
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, 0, eris.Errorf("translate must be finite, got %q", v)
	}
	return x, y, nil
}
