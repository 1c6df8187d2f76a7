// Package session wires one map's projection, store, viewport, tooltip and
// loading pipeline together from configuration
package session

import (
	"time"

	"github.com/contextmap/contextmap-go/internal/config"
	"github.com/contextmap/contextmap-go/internal/export"
	"github.com/contextmap/contextmap-go/internal/fetch"
	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/interact"
	"github.com/contextmap/contextmap-go/internal/loader"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/contextmap/contextmap-go/internal/viewport"
	"go.uber.org/zap"
)

// Session is a single map instance. Every front-end drives the same pieces.
type Session struct {
	Config   *config.Config
	Engine   *geo.Engine
	Paths    *geo.PathGenerator
	Store    *scene.Store
	View     *viewport.Controller
	Hover    *interact.Handler
	Pipeline *loader.Pipeline
	Log      *zap.Logger
}

// New builds a session. A nil fetcher gets a Router configured from cfg.
func New(cfg *config.Config, fetcher fetch.Fetcher, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = NewFetcher(cfg, log)
	}

	engine := geo.NewEngine(geo.State{
		TranslateX: cfg.Projection.TranslateX,
		TranslateY: cfg.Projection.TranslateY,
		Scale:      cfg.Projection.Scale,
	})
	paths := geo.NewPathGenerator(engine)
	store := scene.NewStore()
	view := viewport.New(engine, paths, store, ViewportConfig(cfg), log.Named("viewport"))
	hover := interact.NewHandler(TooltipConfig(cfg), store)
	pipeline := loader.New(LoaderOptions(cfg), fetcher, store, view, hover, log.Named("loader"))

	return &Session{
		Config:   cfg,
		Engine:   engine,
		Paths:    paths,
		Store:    store,
		View:     view,
		Hover:    hover,
		Pipeline: pipeline,
		Log:      log,
	}
}

// NewFetcher creates the scheme-dispatching fetcher for cfg.
func NewFetcher(cfg *config.Config, log *zap.Logger) *fetch.Router {
	if log == nil {
		log = zap.NewNop()
	}
	return fetch.New(fetch.Options{
		BaseDir:  cfg.Fetch.BaseDir,
		Timeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		CacheDir: cfg.Fetch.CacheDir,
		CacheTTL: time.Duration(cfg.Fetch.CacheTTLHours) * time.Hour,
		Token:    cfg.Fetch.Token,
		Logger:   log.Named("fetch"),
	})
}

// LoaderOptions maps configuration onto pipeline options.
func LoaderOptions(cfg *config.Config) loader.Options {
	rings := make([]loader.RingTier, 0, len(cfg.Rings))
	for _, r := range cfg.Rings {
		rings = append(rings, loader.RingTier{Tier: r.Tier, Radius: r.Radius, Opacity: r.Opacity})
	}
	return loader.Options{
		Sources: loader.Sources{
			Boundary:    cfg.Sources.Boundary,
			Context:     cfg.Sources.Context,
			Connections: cfg.Sources.Connections,
			Places:      cfg.Sources.Places,
			People:      cfg.Sources.People,
		},
		ElementType: cfg.ElementType,
		Rings:       rings,
		Width:       cfg.Canvas.Width,
		Height:      cfg.Canvas.Height,
		Container:   cfg.Container,
	}
}

// ViewportConfig maps configuration onto the zoom behaviour.
func ViewportConfig(cfg *config.Config) viewport.Config {
	return viewport.Config{
		Initial: geo.State{
			TranslateX: cfg.Zoom.TranslateX,
			TranslateY: cfg.Zoom.TranslateY,
			Scale:      cfg.Zoom.Scale,
		},
		MinScale:       cfg.Zoom.MinScale,
		MaxScale:       cfg.Zoom.MaxScale,
		ReferenceScale: cfg.Zoom.ReferenceScale,
	}
}

// TooltipConfig maps configuration onto the tooltip fades.
func TooltipConfig(cfg *config.Config) interact.Config {
	return interact.Config{
		FadeIn:  time.Duration(cfg.Tooltip.FadeInMs) * time.Millisecond,
		FadeOut: time.Duration(cfg.Tooltip.FadeOutMs) * time.Millisecond,
		Opacity: cfg.Tooltip.Opacity,
		OffsetY: cfg.Tooltip.OffsetY,
	}
}

// ExportOptions describes the current surface for the exporters.
func (s *Session) ExportOptions() export.Options {
	opts := export.Options{
		Width:      s.Config.Canvas.Width,
		Height:     s.Config.Canvas.Height,
		Container:  s.Config.Container,
		Projection: s.Engine.State(),
	}
	if surf := s.Pipeline.Surface(); surf != nil {
		opts.Width = surf.Width
		opts.Height = surf.Height
		opts.Container = surf.Container
	}
	return opts
}
