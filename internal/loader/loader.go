// Package loader runs the five dependent dataset loads that build the map's
// layers, bottom to top: boundary, rings, context dots, connectors, markers.
//
// Fetching and decoding (Fetch) touch nothing shared and may run on any
// goroutine. Complete mutates the store and must run on the event loop.
package loader

import (
	"context"
	"time"

	"github.com/contextmap/contextmap-go/internal/fetch"
	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Default styling, matching the original map.
const (
	ContextRadius  = 15
	ContextFill    = "rgba(0, 0, 0, 0.7)"
	ContextStroke  = "#fff"
	MarkerRadius   = 8
	MarkerStroke   = "#000"
	LineStroke     = "#000"
	LineWidth      = 2
	BoundaryStroke = "#000"
	BoundaryWidth  = 1
	BoundaryFill   = "#fff"
	RingStroke     = "#000"
)

// Sources locates each dataset.
type Sources struct {
	Boundary    string
	Context     string
	Connections string
	Places      string
	People      string
}

// Markers picks the marker dataset for an element type. Anything other than
// "people" selects places.
func (s Sources) Markers(elementType string) string {
	if elementType == "people" {
		return s.People
	}
	return s.Places
}

// RingTier is one concentric ring drawn around every context.
type RingTier struct {
	Tier    int
	Radius  float64
	Opacity float64
}

// DefaultRings returns the three stock tiers.
func DefaultRings() []RingTier {
	return []RingTier{
		{Tier: 1, Radius: 25, Opacity: 0.6},
		{Tier: 2, Radius: 35, Opacity: 0.4},
		{Tier: 3, Radius: 45, Opacity: 0.2},
	}
}

// Options configures a Pipeline.
type Options struct {
	Sources     Sources
	ElementType string
	Rings       []RingTier
	Width       float64
	Height      float64
	Container   string
}

// DefaultOptions returns the stock map configuration.
func DefaultOptions() Options {
	return Options{
		Sources: Sources{
			Boundary:    "data/west-coast.json",
			Context:     "data/context.json",
			Connections: "data/combo.json",
			Places:      "data/places.json",
			People:      "data/people.json",
		},
		ElementType: "places",
		Rings:       DefaultRings(),
		Width:       300,
		Height:      500,
		Container:   "body",
	}
}

// Surface is the drawing area created by the boundary stage.
type Surface struct {
	Width     float64
	Height    float64
	Container string
}

// Viewport positions primitives and is activated once the surface exists.
type Viewport interface {
	Bind()
	Place(p *scene.Primitive)
}

// Overlay is the floating tooltip, created alongside the surface.
type Overlay interface {
	Attach(container string)
}

// Request asks for one stage's data.
type Request struct {
	Stage  Stage
	Source string
}

// Payload is the decoded result of a Request.
type Payload struct {
	Stage       Stage
	Source      string
	Features    []*geojson.Feature
	Contexts    []scene.ContextRecord
	Connections []scene.ConnectionRecord
	Markers     []scene.MarkerRecord
	Elapsed     time.Duration
	Err         error
}

// Load fetches and decodes one request. It never touches the store.
func Load(ctx context.Context, f fetch.Fetcher, req Request) Payload {
	start := time.Now()
	pl := Payload{Stage: req.Stage, Source: req.Source}

	switch req.Stage {
	case StageBoundary:
		pl.Features, pl.Err = loadBoundary(ctx, f, req.Source)
	case StageRings:
		var data []byte
		if data, pl.Err = f.Fetch(ctx, req.Source); pl.Err == nil {
			pl.Contexts, pl.Err = DecodeContexts(data)
		}
	case StageContext:
		// Dots reuse the records fetched for the rings.
	case StageLines:
		var data []byte
		if data, pl.Err = f.Fetch(ctx, req.Source); pl.Err == nil {
			pl.Connections, pl.Err = DecodeConnections(data)
		}
	case StageMarkers:
		var data []byte
		if data, pl.Err = f.Fetch(ctx, req.Source); pl.Err == nil {
			pl.Markers, pl.Err = DecodeMarkers(data)
		}
	default:
		pl.Err = eris.Errorf("no data for stage %s", req.Stage)
	}

	pl.Elapsed = time.Since(start)
	return pl
}

func loadBoundary(ctx context.Context, f fetch.Fetcher, source string) ([]*geojson.Feature, error) {
	var (
		features []*geojson.Feature
		err      error
	)
	if geo.DetectFormat(source, nil) == geo.FormatShapefile {
		resolver, ok := f.(fetch.PathResolver)
		if !ok {
			return nil, eris.Errorf("shapefile %s needs a file system source", source)
		}
		path, ok := resolver.Resolve(source)
		if !ok {
			return nil, eris.Errorf("shapefile %s must be a local path", source)
		}
		features, err = geo.LoadShapefile(path)
	} else {
		var data []byte
		if data, err = f.Fetch(ctx, source); err != nil {
			return nil, err
		}
		features, err = geo.ParseBoundary(source, data)
	}
	if err != nil && eris.Is(err, geo.ErrNoFeatures) {
		return nil, nil
	}
	return features, err
}

// Pipeline is the stage machine. All methods except Fetch belong to the
// event loop.
type Pipeline struct {
	opts    Options
	fetcher fetch.Fetcher
	store   *scene.Store
	view    Viewport
	overlay Overlay
	log     *zap.Logger

	stage    Stage
	failure  *LoadFailure
	surface  *Surface
	contexts []scene.ContextRecord
	timings  map[Stage]time.Duration
}

// New creates a pipeline positioned at StageBoundary.
func New(opts Options, fetcher fetch.Fetcher, store *scene.Store, view Viewport, overlay Overlay, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Rings == nil {
		opts.Rings = DefaultRings()
	}
	return &Pipeline{
		opts:    opts,
		fetcher: fetcher,
		store:   store,
		view:    view,
		overlay: overlay,
		log:     log,
		stage:   StageBoundary,
		timings: make(map[Stage]time.Duration),
	}
}

// Stage returns the stage waiting to complete.
func (p *Pipeline) Stage() Stage { return p.stage }

// Done reports whether every stage completed.
func (p *Pipeline) Done() bool { return p.stage == StageDone }

// Failure returns the failure that halted the chain, if any.
func (p *Pipeline) Failure() *LoadFailure { return p.failure }

// Surface returns the drawing area, nil until the boundary stage completes.
func (p *Pipeline) Surface() *Surface { return p.surface }

// Timings returns how long each completed stage took to load.
func (p *Pipeline) Timings() map[Stage]time.Duration {
	out := make(map[Stage]time.Duration, len(p.timings))
	for k, v := range p.timings {
		out[k] = v
	}
	return out
}

// Options returns the pipeline configuration.
func (p *Pipeline) Options() Options { return p.opts }

// Pending returns the request for the current stage, or false once the
// chain has finished or halted.
func (p *Pipeline) Pending() (Request, bool) {
	if p.failure != nil || p.stage == StageDone {
		return Request{}, false
	}
	return Request{Stage: p.stage, Source: p.source(p.stage)}, true
}

func (p *Pipeline) source(s Stage) string {
	switch s {
	case StageBoundary:
		return p.opts.Sources.Boundary
	case StageRings, StageContext:
		return p.opts.Sources.Context
	case StageLines:
		return p.opts.Sources.Connections
	case StageMarkers:
		return p.opts.Sources.Markers(p.opts.ElementType)
	}
	return ""
}

// Fetch loads a request with the pipeline's fetcher. Safe off the event loop.
func (p *Pipeline) Fetch(ctx context.Context, req Request) Payload {
	return Load(ctx, p.fetcher, req)
}

// Complete renders a payload and advances to the next stage. Payloads for
// any other stage are ignored. A payload error halts the chain.
func (p *Pipeline) Complete(pl Payload) error {
	if p.failure != nil || pl.Stage != p.stage {
		p.log.Debug("ignoring stale payload",
			zap.Stringer("stage", pl.Stage),
			zap.Stringer("current", p.stage),
		)
		return nil
	}

	if pl.Err != nil {
		p.failure = &LoadFailure{Stage: pl.Stage, Source: pl.Source, Err: pl.Err}
		p.log.Error("stage failed",
			zap.Stringer("stage", pl.Stage),
			zap.String("source", pl.Source),
			zap.Error(pl.Err),
		)
		return p.failure
	}

	before := p.store.Len()
	switch pl.Stage {
	case StageBoundary:
		p.renderBoundary(pl.Features)
	case StageRings:
		p.contexts = pl.Contexts
		p.renderRings()
	case StageContext:
		p.renderContexts()
	case StageLines:
		p.renderLines(pl.Connections)
	case StageMarkers:
		p.renderMarkers(pl.Markers)
	}

	p.timings[pl.Stage] = pl.Elapsed
	p.log.Info("stage complete",
		zap.Stringer("stage", pl.Stage),
		zap.String("source", pl.Source),
		zap.Int("primitives", p.store.Len()-before),
		zap.Duration("elapsed", pl.Elapsed),
	)
	p.stage = p.stage.Next()
	return nil
}

// Retry clears a failure so the halted stage can be requested again.
func (p *Pipeline) Retry() (Request, bool) {
	if p.failure == nil {
		return Request{}, false
	}
	p.log.Info("retrying stage", zap.Stringer("stage", p.failure.Stage))
	p.failure = nil
	return p.Pending()
}

// Run drives every remaining stage on the calling goroutine.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		req, ok := p.Pending()
		if !ok {
			if p.failure != nil {
				return p.failure
			}
			return nil
		}
		if err := p.Complete(p.Fetch(ctx, req)); err != nil {
			return err
		}
	}
}

func (p *Pipeline) add(prim *scene.Primitive) {
	p.store.Append(prim)
	p.view.Place(prim)
}

func (p *Pipeline) renderBoundary(features []*geojson.Feature) {
	p.surface = &Surface{
		Width:     p.opts.Width,
		Height:    p.opts.Height,
		Container: p.opts.Container,
	}
	p.view.Bind()
	if p.overlay != nil {
		p.overlay.Attach(p.opts.Container)
	}

	for _, f := range features {
		p.add(&scene.Primitive{
			Kind:    scene.KindBoundary,
			Feature: f,
			Opacity: 1,
			Fill:    BoundaryFill,
			Stroke:  BoundaryStroke,
			StrokeW: BoundaryWidth,
		})
	}
}

func (p *Pipeline) renderRings() {
	for _, tier := range p.opts.Rings {
		for i := range p.contexts {
			c := &p.contexts[i]
			p.add(&scene.Primitive{
				Kind:       scene.KindRing,
				Tier:       tier.Tier,
				Context:    c,
				BaseRadius: tier.Radius,
				Radius:     tier.Radius,
				Opacity:    tier.Opacity,
				Fill:       c.Color,
				Stroke:     RingStroke,
				StrokeW:    1,
			})
		}
	}
}

func (p *Pipeline) renderContexts() {
	for i := range p.contexts {
		p.add(&scene.Primitive{
			Kind:       scene.KindContext,
			Context:    &p.contexts[i],
			BaseRadius: ContextRadius,
			Radius:     ContextRadius,
			Opacity:    1,
			Fill:       ContextFill,
			Stroke:     ContextStroke,
			StrokeW:    1,
			Hoverable:  true,
		})
	}
}

func (p *Pipeline) renderLines(records []scene.ConnectionRecord) {
	for i := range records {
		p.add(&scene.Primitive{
			Kind:       scene.KindConnector,
			Connection: &records[i],
			Opacity:    1,
			Stroke:     LineStroke,
			StrokeW:    LineWidth,
		})
	}
}

func (p *Pipeline) renderMarkers(records []scene.MarkerRecord) {
	for i := range records {
		p.add(&scene.Primitive{
			Kind:       scene.KindMarker,
			Marker:     &records[i],
			BaseRadius: MarkerRadius,
			Radius:     MarkerRadius,
			Opacity:    1,
			Fill:       records[i].Color,
			Stroke:     MarkerStroke,
			StrokeW:    1,
			Hoverable:  true,
		})
	}
}
