package interact

import (
	"testing"
	"time"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/contextmap/contextmap-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubicInOut(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.0625},
		{0.5, 0.5},
		{0.75, 0.9375},
		{1, 1},
		{2, 1},
	}
	for _, tt := range tests {
		if got := CubicInOut(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("CubicInOut(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestTransitionAt(t *testing.T) {
	start := time.Unix(1000, 0)
	tr := Transition{From: 0, To: 0.9, Start: start, Duration: 200 * time.Millisecond}

	assert.Equal(t, 0.0, tr.At(start))
	assert.InDelta(t, 0.45, tr.At(start.Add(100*time.Millisecond)), 1e-9)
	assert.Equal(t, 0.9, tr.At(start.Add(200*time.Millisecond)))
	assert.Equal(t, 0.9, tr.At(start.Add(time.Hour)))
	assert.False(t, tr.Done(start.Add(199*time.Millisecond)))
	assert.True(t, tr.Done(start.Add(200*time.Millisecond)))
}

func TestContentFor(t *testing.T) {
	ctx := &scene.Primitive{Kind: scene.KindContext, Context: &scene.ContextRecord{Area: "Bay Area"}}
	assert.Equal(t, Content{Text: "Bay Area"}, ContentFor(ctx))

	marker := &scene.Primitive{Kind: scene.KindMarker, Marker: &scene.MarkerRecord{Name: "Ada <L>", Image: "img/a.png"}}
	c := ContentFor(marker)
	assert.Equal(t, "Ada <L>", c.Text)
	assert.Equal(t, "<img class='avatar' src='img/a.png'/><p>Ada &lt;L&gt;</p>", c.HTML)

	assert.Equal(t, Content{}, ContentFor(nil))
}

func newHandler(t *testing.T) (*Handler, *scene.Primitive, *scene.Primitive) {
	t.Helper()
	store := scene.NewStore()
	dot := &scene.Primitive{
		Kind:      scene.KindContext,
		Context:   &scene.ContextRecord{Area: "San Francisco"},
		X:         100,
		Y:         100,
		Radius:    15,
		Hoverable: true,
	}
	marker := &scene.Primitive{
		Kind:      scene.KindMarker,
		Marker:    &scene.MarkerRecord{Name: "Oakland", Image: "o.png"},
		X:         200,
		Y:         100,
		Radius:    8,
		Hoverable: true,
	}
	store.Append(&scene.Primitive{Kind: scene.KindRing, X: 100, Y: 100, Radius: 40})
	store.Append(dot)
	store.Append(marker)

	h := NewHandler(DefaultConfig(), store)
	h.Attach("body")
	return h, dot, marker
}

func TestHoverTimeline(t *testing.T) {
	h, dot, _ := newHandler(t)
	clock := testutil.NewMockClock(time.Unix(0, 0))
	tip := h.Tooltip()

	assert.Equal(t, 0.0, tip.Opacity(clock.Now()))
	assert.False(t, tip.Visible(clock.Now()))

	h.OnHover(dot, geo.Point{X: 110, Y: 95}, clock.Now())
	assert.Equal(t, Content{Text: "San Francisco"}, tip.Content())
	left, top := tip.Position()
	assert.Equal(t, 110.0, left)
	assert.Equal(t, 67.0, top)

	assert.InDelta(t, 0.45, tip.Opacity(clock.Advance(100*time.Millisecond)), 1e-9)
	assert.Equal(t, 0.9, tip.Opacity(clock.Advance(100*time.Millisecond)))
	assert.False(t, tip.Animating(clock.Now()))

	h.OnUnhover(dot, clock.Now())
	assert.True(t, tip.Animating(clock.Now()))
	assert.InDelta(t, 0.45, tip.Opacity(clock.Advance(250*time.Millisecond)), 1e-9)
	assert.Equal(t, 0.0, tip.Opacity(clock.Advance(250*time.Millisecond)))
	assert.False(t, tip.Visible(clock.Now()))
	assert.Equal(t, "San Francisco", tip.Content().Text)
}

func TestHoverInterruptsFadeOut(t *testing.T) {
	h, dot, marker := newHandler(t)
	clock := testutil.NewMockClock(time.Unix(0, 0))
	tip := h.Tooltip()

	h.OnHover(dot, geo.Point{X: 100, Y: 100}, clock.Now())
	clock.Advance(200 * time.Millisecond)
	h.OnUnhover(dot, clock.Now())
	clock.Advance(250 * time.Millisecond)
	mid := tip.Opacity(clock.Now())

	h.OnHover(marker, geo.Point{X: 200, Y: 100}, clock.Now())
	assert.InDelta(t, mid, tip.Opacity(clock.Now()), 1e-9)
	assert.Equal(t, 0.9, tip.Opacity(clock.Advance(200*time.Millisecond)))
	assert.Contains(t, tip.Content().HTML, "<p>Oakland</p>")
}

func TestPointerMoved(t *testing.T) {
	h, dot, marker := newHandler(t)
	now := time.Unix(0, 0)

	// Over the ring only: rings are not hoverable
	assert.False(t, h.PointerMoved(geo.Point{X: 130, Y: 100}, now))
	assert.Nil(t, h.Hovered())

	assert.True(t, h.PointerMoved(geo.Point{X: 105, Y: 100}, now))
	assert.Same(t, dot, h.Hovered())

	// Still inside the same dot
	assert.False(t, h.PointerMoved(geo.Point{X: 95, Y: 105}, now))

	assert.True(t, h.PointerMoved(geo.Point{X: 201, Y: 101}, now))
	assert.Same(t, marker, h.Hovered())
	assert.Equal(t, "Oakland", h.Tooltip().Content().Text)

	assert.True(t, h.PointerMoved(geo.Point{X: 500, Y: 500}, now))
	assert.Nil(t, h.Hovered())
	assert.True(t, h.Tooltip().Animating(now))
}

func TestPointerLeft(t *testing.T) {
	h, dot, _ := newHandler(t)
	now := time.Unix(0, 0)

	assert.False(t, h.PointerLeft(now))
	h.OnHover(dot, geo.Point{X: 100, Y: 100}, now)
	assert.True(t, h.PointerLeft(now))
	assert.Nil(t, h.Hovered())
}

func TestHoverBeforeAttachIgnored(t *testing.T) {
	store := scene.NewStore()
	dot := &scene.Primitive{Kind: scene.KindContext, Context: &scene.ContextRecord{Area: "x"}, Radius: 15, Hoverable: true}
	store.Append(dot)
	h := NewHandler(DefaultConfig(), store)

	h.OnHover(dot, geo.Point{}, time.Unix(0, 0))
	assert.False(t, h.Tooltip().Attached())
	assert.Nil(t, h.Hovered())
	require.Equal(t, Content{}, h.Tooltip().Content())
}

func TestPointerMovedBeforeAttachReportsNoChange(t *testing.T) {
	store := scene.NewStore()
	dot := &scene.Primitive{Kind: scene.KindContext, Context: &scene.ContextRecord{Area: "x"}, Radius: 15, Hoverable: true}
	store.Append(dot)
	h := NewHandler(DefaultConfig(), store)
	now := time.Unix(0, 0)

	for i := 0; i < 3; i++ {
		assert.False(t, h.PointerMoved(geo.Point{X: float64(i)}, now))
	}
	assert.False(t, h.PointerLeft(now))
	assert.Nil(t, h.Hovered())

	h.Attach("body")
	assert.True(t, h.PointerMoved(geo.Point{}, now))
	assert.False(t, h.PointerMoved(geo.Point{X: 1}, now))
	assert.Same(t, dot, h.Hovered())
}
