// Package window draws a ContextMap session in a desktop window with Ebitengine
package window

import (
	"bytes"
	"context"
	"image/color"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/interact"
	"github.com/contextmap/contextmap-go/internal/loader"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/contextmap/contextmap-go/internal/session"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	tooltipFontSize = 12
	tooltipPadding  = 4
)

var (
	background     = color.NRGBA{255, 255, 255, 255}
	tooltipBack    = color.NRGBA{255, 255, 255, 255}
	tooltipBorder  = color.NRGBA{0, 0, 0, 255}
	tooltipText    = color.NRGBA{0, 0, 0, 255}
	statusFailText = color.NRGBA{198, 40, 40, 255}
)

// Game implements ebiten.Game over a session
type Game struct {
	s   *session.Session
	ctx context.Context
	log *zap.Logger

	results  chan loader.Payload
	inflight bool

	face *text.GoTextFace

	dragging         bool
	lastX, lastY     int
	cursorX, cursorY int
	hasCursor        bool

	now func() time.Time
}

// New creates the window game. Stage fetches run on ctx.
func New(ctx context.Context, s *session.Session) (*Game, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, err
	}
	return &Game{
		s:       s,
		ctx:     ctx,
		log:     s.Log.Named("window"),
		results: make(chan loader.Payload, 1),
		face:    &text.GoTextFace{Source: src, Size: tooltipFontSize},
		now:     time.Now,
	}, nil
}

// Update advances loading and applies input. It runs at the fixed TPS.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.pollStages()

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.retry()
	}
	if inpututil.IsKeyJustPressed(ebiten.Key0) {
		g.s.View.Reset()
		g.rehover()
	}

	g.handlePointer()
	return nil
}

// pollStages starts the pending fetch and completes any that arrived
func (g *Game) pollStages() {
	select {
	case pl := <-g.results:
		g.inflight = false
		if err := g.s.Pipeline.Complete(pl); err != nil {
			g.log.Warn("stage failed", zap.Stringer("stage", pl.Stage), zap.Error(err))
			return
		}
		if g.s.Pipeline.Done() {
			g.log.Info("map ready", zap.Int("primitives", g.s.Store.Len()))
			g.rehover()
		}
	default:
	}

	if g.inflight {
		return
	}
	if req, ok := g.s.Pipeline.Pending(); ok {
		g.start(req)
	}
}

func (g *Game) start(req loader.Request) {
	g.inflight = true
	go func() {
		pl := g.s.Pipeline.Fetch(g.ctx, req)
		select {
		case g.results <- pl:
		case <-g.ctx.Done():
		}
	}()
}

func (g *Game) retry() {
	if g.inflight {
		return
	}
	req, ok := g.s.Pipeline.Retry()
	if !ok {
		return
	}
	g.log.Info("retrying stage", zap.Stringer("stage", req.Stage))
	g.start(req)
}

func (g *Game) handlePointer() {
	x, y := ebiten.CursorPosition()
	w, h := g.Layout(0, 0)
	inside := x >= 0 && y >= 0 && x < w && y < h

	if _, wy := ebiten.Wheel(); wy != 0 && inside {
		g.s.View.ZoomAt(float64(x), float64(y), ZoomFactor(wy, g.s.Config.Zoom.WheelStep))
		g.rehover()
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inside:
		g.dragging = true
		g.lastX, g.lastY = x, y
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.dragging = false
	}

	if g.dragging && (x != g.lastX || y != g.lastY) {
		g.s.View.Pan(float64(x-g.lastX), float64(y-g.lastY))
		g.lastX, g.lastY = x, y
	}

	moved := !g.hasCursor || x != g.cursorX || y != g.cursorY
	g.cursorX, g.cursorY = x, y
	switch {
	case !inside:
		if g.hasCursor {
			g.s.Hover.PointerLeft(g.now())
		}
		g.hasCursor = false
	case moved && !g.dragging:
		g.hasCursor = true
		g.s.Hover.PointerMoved(geo.Point{X: float64(x), Y: float64(y)}, g.now())
	}
}

// rehover repeats the hit test after primitives moved under the cursor
func (g *Game) rehover() {
	if g.hasCursor {
		g.s.Hover.PointerMoved(geo.Point{X: float64(g.cursorX), Y: float64(g.cursorY)}, g.now())
	}
}

// Layout fixes the logical screen to the map surface so cursor positions are
// map pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.s.Config.Canvas.Width, g.s.Config.Canvas.Height
	if surf := g.s.Pipeline.Surface(); surf != nil {
		w, h = surf.Width, surf.Height
	}
	return max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
}

// Draw paints every primitive in store order, then the tooltip
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	for _, p := range g.s.Store.All() {
		if !p.Visible() {
			continue
		}
		drawPrimitive(screen, p)
	}

	g.drawTooltip(screen)

	if f := g.s.Pipeline.Failure(); f != nil {
		op := &text.DrawOptions{}
		op.GeoM.Translate(tooltipPadding, tooltipPadding)
		op.ColorScale.ScaleWithColor(statusFailText)
		text.Draw(screen, "Failed: "+f.Stage.String()+" (R to retry)", g.face, op)
	}
}

func drawPrimitive(screen *ebiten.Image, p *scene.Primitive) {
	switch p.Kind {
	case scene.KindBoundary:
		stroke, _ := ParseColor(p.Stroke)
		for _, r := range p.Rings {
			drawRing(screen, r, strokeWidth(p.StrokeW), stroke)
		}
	case scene.KindConnector:
		stroke, _ := ParseColor(p.Stroke)
		vector.StrokeLine(screen, float32(p.X), float32(p.Y), float32(p.X2), float32(p.Y2), strokeWidth(p.StrokeW), stroke, true)
	case scene.KindRing:
		fill, _ := ParseColor(p.Fill)
		stroke, _ := ParseColor(p.Stroke)
		fill = WithOpacity(fill, p.Opacity)
		stroke = WithOpacity(stroke, p.Opacity)
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius), fill, true)
		vector.StrokeCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius), 1, stroke, true)
	default:
		fill, _ := ParseColor(p.Fill)
		stroke, _ := ParseColor(p.Stroke)
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius), fill, true)
		vector.StrokeCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius), strokeWidth(p.StrokeW), stroke, true)
	}
}

// drawRing strokes an outline. Boundaries are drawn as outlines over the
// background, which matches their default white fill.
func drawRing(screen *ebiten.Image, r geo.Ring, width float32, clr color.Color) {
	pts := r.Points
	for i := 1; i < len(pts); i++ {
		vector.StrokeLine(screen, float32(pts[i-1].X), float32(pts[i-1].Y), float32(pts[i].X), float32(pts[i].Y), width, clr, true)
	}
	if r.Closed && len(pts) > 2 {
		last := pts[len(pts)-1]
		vector.StrokeLine(screen, float32(last.X), float32(last.Y), float32(pts[0].X), float32(pts[0].Y), width, clr, true)
	}
}

func (g *Game) drawTooltip(screen *ebiten.Image) {
	tip := g.s.Hover.Tooltip()
	now := g.now()
	if !tip.Visible(now) {
		return
	}
	label := tooltipLabel(tip.Content())
	if label == "" {
		return
	}
	alpha := tip.Opacity(now)
	left, top := tip.Position()

	tw, th := text.Measure(label, g.face, 0)
	bx := float32(left - tooltipPadding)
	by := float32(top - tooltipPadding)
	bw := float32(tw + 2*tooltipPadding)
	bh := float32(th + 2*tooltipPadding)
	vector.DrawFilledRect(screen, bx, by, bw, bh, WithOpacity(tooltipBack, alpha), false)
	vector.StrokeRect(screen, bx, by, bw, bh, 1, WithOpacity(tooltipBorder, alpha), false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(left, top)
	op.ColorScale.ScaleWithColor(tooltipText)
	op.ColorScale.ScaleAlpha(float32(alpha))
	text.Draw(screen, label, g.face, op)
}

func tooltipLabel(c interact.Content) string {
	return strings.TrimSpace(c.Text)
}

func strokeWidth(w float64) float32 {
	if w <= 0 {
		return 1
	}
	return float32(w)
}

// ZoomFactor converts a wheel offset into a scale multiplier of 2^step per
// notch in the wheel's direction.
func ZoomFactor(wheel, step float64) float64 {
	switch {
	case wheel > 0:
		return math.Pow(2, step)
	case wheel < 0:
		return math.Pow(2, -step)
	}
	return 1
}

// WithOpacity multiplies the alpha of c by o, clamped to [0, 1].
func WithOpacity(c color.NRGBA, o float64) color.NRGBA {
	o = math.Max(0, math.Min(1, o))
	c.A = uint8(math.Round(float64(c.A) * o))
	return c
}

// ParseColor reads the CSS colors primitives carry: #rgb, #rrggbb, rgb(),
// rgba(), "none" and a few names. Unknown input is opaque black with ok false.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "none", "transparent":
		return color.NRGBA{}, true
	case "black":
		return color.NRGBA{0, 0, 0, 255}, true
	case "white":
		return color.NRGBA{255, 255, 255, 255}, true
	}

	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{0, 0, 0, 255}, false
		}
		r, g, b := c.RGB255()
		return color.NRGBA{r, g, b, 255}, true
	}

	var args string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		args = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		args = s[len("rgb(") : len(s)-1]
	default:
		return color.NRGBA{0, 0, 0, 255}, false
	}

	parts := strings.Split(args, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{0, 0, 0, 255}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return color.NRGBA{0, 0, 0, 255}, false
		}
		ch[i] = uint8(v)
	}
	alpha := 1.0
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{0, 0, 0, 255}, false
		}
		alpha = a
	}
	return color.NRGBA{ch[0], ch[1], ch[2], uint8(math.Round(alpha * 255))}, true
}
