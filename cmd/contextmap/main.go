// Package main provides the entry point for the ContextMap CLI application
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/contextmap/contextmap-go/internal/app"
	"github.com/contextmap/contextmap-go/internal/config"
	"github.com/contextmap/contextmap-go/internal/session"
	"github.com/contextmap/contextmap-go/internal/theme"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the flags shared by every command
type options struct {
	configPath  string
	container   string
	elementType string
	themeName   string
	exportDir   string
	baseDir     string
	listThemes  bool

	boundary    string
	context     string
	connections string
	places      string
	people      string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "contextmap",
		Short: "ContextMap - geographic context and connections map",
		Long: `ContextMap - geographic context and connections map

Draws a boundary map with context locations, influence rings, connection
lines and markers, loaded stage by stage from local files or URLs.
Settings are read from ./contextmap.yaml or ~/.config/contextmap/contextmap.yaml

Controls:
  Mouse wheel / + -               Zoom
  Drag / arrows                   Pan
  [0] Reset view                  [R] Retry a failed stage
  [E] Export SVG + HTML           [J] Export JSON
  [C] Export CSV                  [P] Screenshot (text)

Examples:
  contextmap --base-dir ./data
  contextmap --element-type people --theme paper
  contextmap render --scale 2000 --translate 600,250 --export-dir ./out
  contextmap window`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: ./contextmap.yaml)")
	flags.StringVar(&opts.container, "container", "", "Container selector for the map")
	flags.StringVar(&opts.elementType, "element-type", "", "Marker dataset: places or people")
	flags.StringVar(&opts.themeName, "theme", "", "Color theme")
	flags.StringVar(&opts.exportDir, "export-dir", "", "Directory for export files (default: current directory)")
	flags.StringVar(&opts.baseDir, "base-dir", "", "Directory relative sources are read from")
	flags.StringVar(&opts.boundary, "boundary", "", "Boundary source (GeoJSON, KML/KMZ or shapefile)")
	flags.StringVar(&opts.context, "context", "", "Context locations source")
	flags.StringVar(&opts.connections, "connections", "", "Connections source")
	flags.StringVar(&opts.places, "places", "", "Places source")
	flags.StringVar(&opts.people, "people", "", "People source")

	cmd.Flags().BoolVar(&opts.listThemes, "list-themes", false, "List available themes")

	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newWindowCmd(opts))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command line overrides
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.container != "" {
		cfg.Container = opts.container
	}
	if opts.elementType != "" {
		cfg.ElementType = opts.elementType
	}
	if opts.themeName != "" {
		if !theme.Exists(opts.themeName) {
			return nil, eris.Errorf("unknown theme %q (see --list-themes)", opts.themeName)
		}
		cfg.Display.Theme = opts.themeName
	}
	if opts.exportDir != "" {
		cfg.Export.Directory = absOr(opts.exportDir)
	}
	if opts.baseDir != "" {
		cfg.Fetch.BaseDir = absOr(opts.baseDir)
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{opts.boundary, &cfg.Sources.Boundary},
		{opts.context, &cfg.Sources.Context},
		{opts.connections, &cfg.Sources.Connections},
		{opts.places, &cfg.Sources.Places},
		{opts.people, &cfg.Sources.People},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func absOr(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printThemes(cmd *cobra.Command) {
	cmd.Println("\nAvailable Themes:")
	for _, t := range theme.GetInfo() {
		cmd.Printf("  %-15s %-15s - %s\n", t.Key, t.Name, t.Description)
	}
	cmd.Println()
}

func runTUI(cmd *cobra.Command, opts *options) error {
	if opts.listThemes {
		printThemes(cmd)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs only go to log.file
	log, err := config.InitLogger(cfg.Log, true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s := session.New(cfg, nil, log)
	log.Info("starting terminal map",
		zap.String("container", cfg.Container),
		zap.String("element_type", cfg.ElementType),
		zap.String("theme", cfg.Display.Theme),
	)

	p := tea.NewProgram(app.NewModel(s),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return eris.Wrap(err, "terminal map")
	}

	if f := s.Pipeline.Failure(); f != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", f.Error())
	}
	return nil
}
