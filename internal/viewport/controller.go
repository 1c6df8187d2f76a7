// Package viewport owns the zoom/pan transform and keeps every layer in step with it
package viewport

import (
	"math"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"go.uber.org/zap"
)

// Config is the zoom behaviour's initial transform and limits.
type Config struct {
	Initial        geo.State
	MinScale       float64
	MaxScale       float64
	ReferenceScale float64
}

// DefaultConfig matches the map's stock zoom behaviour.
func DefaultConfig() Config {
	return Config{
		Initial:        geo.State{TranslateX: 510, TranslateY: 300, Scale: 1200},
		MinScale:       1000,
		MaxScale:       10000,
		ReferenceScale: 1300,
	}
}

// Gesture is one zoom/pan input. ScaleBy of 0 means no zoom. When Anchor is
// set the zoom keeps that pixel fixed.
type Gesture struct {
	DX, DY  float64
	ScaleBy float64
	Anchor  *geo.Point
}

// Controller is the only writer of projection state.
type Controller struct {
	engine *geo.Engine
	paths  *geo.PathGenerator
	store  *scene.Store
	cfg    Config
	log    *zap.Logger

	transform geo.State
	bound     bool
	passes    int
}

// New creates a controller over a shared engine, path generator and store.
func New(engine *geo.Engine, paths *geo.PathGenerator, store *scene.Store, cfg Config, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		engine:    engine,
		paths:     paths,
		store:     store,
		cfg:       cfg,
		log:       log,
		transform: cfg.Initial,
	}
}

// Bind activates the controller and immediately applies the initial transform.
func (c *Controller) Bind() {
	c.bound = true
	c.SetTransform(c.cfg.Initial)
}

// Bound reports whether Bind has been called.
func (c *Controller) Bound() bool {
	return c.bound
}

// Transform returns the current zoom transform.
func (c *Controller) Transform() geo.State {
	return c.transform
}

// Passes returns how many re-projection passes have run.
func (c *Controller) Passes() int {
	return c.passes
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Clamp limits a requested scale to the configured extent.
func (c *Controller) Clamp(scale float64) float64 {
	if math.IsNaN(scale) {
		return c.cfg.MinScale
	}
	return math.Max(c.cfg.MinScale, math.Min(c.cfg.MaxScale, scale))
}

// SetTransform applies an absolute transform. Gestures before Bind only
// record the transform.
func (c *Controller) SetTransform(s geo.State) geo.State {
	s.Scale = c.Clamp(s.Scale)
	// A non-finite translate keeps the current one
	if math.IsNaN(s.TranslateX) || math.IsInf(s.TranslateX, 0) {
		s.TranslateX = c.transform.TranslateX
	}
	if math.IsNaN(s.TranslateY) || math.IsInf(s.TranslateY, 0) {
		s.TranslateY = c.transform.TranslateY
	}
	c.transform = s
	if c.bound {
		c.apply()
	}
	return c.transform
}

// OnGesture applies a relative zoom/pan.
func (c *Controller) OnGesture(g Gesture) geo.State {
	next := c.transform
	if g.ScaleBy > 0 && g.ScaleBy != 1 {
		scale := c.Clamp(next.Scale * g.ScaleBy)
		if g.Anchor != nil && next.Scale != 0 {
			k := scale / next.Scale
			next.TranslateX = g.Anchor.X - (g.Anchor.X-next.TranslateX)*k
			next.TranslateY = g.Anchor.Y - (g.Anchor.Y-next.TranslateY)*k
		}
		next.Scale = scale
	}
	next.TranslateX += g.DX
	next.TranslateY += g.DY
	return c.SetTransform(next)
}

// Pan moves the map by a pixel offset.
func (c *Controller) Pan(dx, dy float64) geo.State {
	return c.OnGesture(Gesture{DX: dx, DY: dy})
}

// ZoomAt zooms by factor keeping (x, y) fixed.
func (c *Controller) ZoomAt(x, y, factor float64) geo.State {
	return c.OnGesture(Gesture{ScaleBy: factor, Anchor: &geo.Point{X: x, Y: y}})
}

// Reset returns to the initial transform.
func (c *Controller) Reset() geo.State {
	return c.SetTransform(c.cfg.Initial)
}

func (c *Controller) apply() {
	c.engine.SetState(c.transform)
	c.Reproject()
}

// Reproject recomputes every primitive from its source coordinates.
func (c *Controller) Reproject() {
	for _, p := range c.store.All() {
		c.Place(p)
	}
	c.passes++
	c.log.Debug("reprojected",
		zap.Int("primitives", c.store.Len()),
		zap.Float64("scale", c.transform.Scale),
		zap.Float64("translate_x", c.transform.TranslateX),
		zap.Float64("translate_y", c.transform.TranslateY),
	)
}

// Place positions one primitive under the current projection state.
func (c *Controller) Place(p *scene.Primitive) {
	switch p.Kind {
	case scene.KindBoundary:
		if p.Feature != nil {
			p.Rings = c.paths.Rings(p.Feature.Geometry)
			p.Path = geo.FormatPath(p.Rings)
		}
	case scene.KindConnector:
		if p.Connection != nil {
			p.X, p.Y = c.engine.Project(p.Connection.Start)
			p.X2, p.Y2 = c.engine.Project(p.Connection.End)
		}
	case scene.KindRing:
		if pt, ok := p.Anchor(); ok {
			p.X, p.Y = c.engine.Project(pt)
		}
		p.Radius = RingRadius(p.BaseRadius, c.engine.State().Scale, c.cfg.ReferenceScale)
	default:
		if pt, ok := p.Anchor(); ok {
			p.X, p.Y = c.engine.Project(pt)
		}
	}
}

// RingRadius scales a ring's base radius with the zoom scale.
func RingRadius(base, scale, reference float64) float64 {
	if reference == 0 {
		return base
	}
	return base * (scale / reference)
}
