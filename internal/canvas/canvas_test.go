package canvas

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/contextmap/contextmap-go/internal/theme"
	"github.com/stretchr/testify/assert"
)

// 100×50 logical units on a 50×25 grid: every cell is 2×2.
func newCanvas() *Canvas {
	return New(50, 25, 100, 50, theme.Get("classic"))
}

func TestToCell(t *testing.T) {
	c := newCanvas()
	tests := []struct {
		x, y     float64
		col, row int
		ok       bool
	}{
		{0, 0, 0, 0, true},
		{1.9, 1.9, 0, 0, true},
		{2, 2, 1, 1, true},
		{99.9, 49.9, 49, 24, true},
		{100, 10, 50, 5, false},
		{-0.1, 10, -1, 5, false},
	}
	for _, tt := range tests {
		col, row, ok := c.ToCell(tt.x, tt.y)
		if col != tt.col || row != tt.row || ok != tt.ok {
			t.Errorf("ToCell(%v, %v) = %d, %d, %v; want %d, %d, %v", tt.x, tt.y, col, row, ok, tt.col, tt.row, tt.ok)
		}
	}

	_, _, ok := c.ToCell(math.NaN(), 1)
	assert.False(t, ok)
}

func TestToLogicalRoundTrip(t *testing.T) {
	c := newCanvas()
	p := c.ToLogical(10, 7)
	assert.Equal(t, geo.Point{X: 21, Y: 15}, p)

	col, row, ok := c.ToCell(p.X, p.Y)
	assert.True(t, ok)
	assert.Equal(t, 10, col)
	assert.Equal(t, 7, row)
}

func TestBresenhamLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           [][2]int
	}{
		{"point", 3, 3, 3, 3, [][2]int{{3, 3}}},
		{"horizontal", 0, 0, 3, 0, [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		{"vertical up", 0, 2, 0, 0, [][2]int{{0, 2}, {0, 1}, {0, 0}}},
		{"diagonal", 0, 0, 2, 2, [][2]int{{0, 0}, {1, 1}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BresenhamLine(tt.x0, tt.y0, tt.x1, tt.y1))
		})
	}
}

func TestLineGlyph(t *testing.T) {
	assert.Equal(t, '─', lineGlyph(0, 0, 10, 1, 1, 1))
	assert.Equal(t, '│', lineGlyph(0, 0, 1, 10, 1, 1))
	assert.Equal(t, '╲', lineGlyph(0, 0, 10, 10, 1, 1))
	assert.Equal(t, '╱', lineGlyph(0, 10, 10, 0, 1, 1))
}

func TestDrawStoreLayers(t *testing.T) {
	c := newCanvas()
	store := scene.NewStore()
	store.Append(&scene.Primitive{
		Kind: scene.KindBoundary,
		Rings: []geo.Ring{{
			Points: []geo.Point{{X: 1, Y: 1}, {X: 41, Y: 1}, {X: 41, Y: 41}},
			Closed: true,
		}},
	})
	store.Append(&scene.Primitive{Kind: scene.KindRing, X: 60, Y: 20, Radius: 10, Fill: "#e41a1c"})
	store.Append(&scene.Primitive{Kind: scene.KindContext, X: 60, Y: 20, Radius: 3})
	store.Append(&scene.Primitive{Kind: scene.KindConnector, X: 60, Y: 40, X2: 90, Y2: 40})
	store.Append(&scene.Primitive{Kind: scene.KindMarker, X: 80, Y: 40, Radius: 8, Fill: "#377eb8"})
	store.Append(&scene.Primitive{Kind: scene.KindMarker, X: math.NaN(), Y: 1})

	c.DrawStore(store)
	th := theme.Get("classic")

	ch, color := c.At(0, 0)
	assert.Equal(t, GlyphLand, ch)
	assert.Equal(t, th.Land, color)
	ch, _ = c.At(20, 10)
	assert.Equal(t, GlyphLand, ch)
	ch, _ = c.At(10, 10)
	assert.Equal(t, GlyphLand, ch, "closing edge of the ring")

	ch, color = c.At(35, 10)
	assert.Equal(t, GlyphRing, ch)
	assert.Equal(t, lipgloss.Color("#e41a1c"), color)

	ch, color = c.At(30, 10)
	assert.Equal(t, GlyphContext, ch)
	assert.Equal(t, th.Context, color)

	ch, color = c.At(35, 20)
	assert.Equal(t, '─', ch)
	assert.Equal(t, th.Connector, color)

	// Markers draw over connectors
	ch, color = c.At(40, 20)
	assert.Equal(t, GlyphMarker, ch)
	assert.Equal(t, lipgloss.Color("#377eb8"), color)
}

func TestDrawStoreFarOffGridIsBounded(t *testing.T) {
	c := newCanvas()
	store := scene.NewStore()
	store.Append(&scene.Primitive{Kind: scene.KindConnector, X: -1e9, Y: -1e9, X2: 1e9, Y2: 1e9})
	c.DrawStore(store)

	ch, _ := c.At(10, 10)
	assert.Equal(t, '╲', ch)
}

func TestDrawStoreFarEndpointKeepsSlope(t *testing.T) {
	c := newCanvas()
	store := scene.NewStore()
	// cell (5,5) heading five columns right for every row down
	store.Append(&scene.Primitive{Kind: scene.KindConnector, X: 10, Y: 10, X2: 10 + 2e6, Y2: 10 + 4e5})
	c.DrawStore(store)

	for _, cell := range [][2]int{{5, 5}, {25, 9}, {30, 10}, {45, 13}} {
		ch, _ := c.At(cell[0], cell[1])
		assert.Equal(t, '─', ch, "cell %v", cell)
	}
	ch, _ := c.At(30, 30)
	assert.NotEqual(t, '─', ch)
	ch, _ = c.At(20, 20)
	assert.NotEqual(t, '─', ch)
}

func TestClipSegment(t *testing.T) {
	tests := []struct {
		name string
		in   [4]float64
		want [4]float64
		ok   bool
	}{
		{"inside", [4]float64{1, 2, 3, 4}, [4]float64{1, 2, 3, 4}, true},
		{"far end", [4]float64{0, 0, 1000, 500}, [4]float64{0, 0, 100, 50}, true},
		{"both ends", [4]float64{-1000, 0, 1000, 0}, [4]float64{-100, 0, 100, 0}, true},
		{"outside", [4]float64{200, 0, 300, 50}, [4]float64{}, false},
		{"misses corner", [4]float64{250, 0, 0, 250}, [4]float64{}, false},
		{"NaN", [4]float64{math.NaN(), 0, 1, 1}, [4]float64{}, false},
		{"infinite", [4]float64{0, 0, math.Inf(1), 1}, [4]float64{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0, y0, x1, y1, ok := clipSegment(tt.in[0], tt.in[1], tt.in[2], tt.in[3], 100)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			got := [4]float64{x0, y0, x1, y1}
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestDrawText(t *testing.T) {
	c := newCanvas()
	c.DrawText(90, 10, "Oakland", "#fff")

	ch, _ := c.At(45, 5)
	assert.Equal(t, 'O', ch)
	ch, _ = c.At(48, 5)
	assert.Equal(t, 'l', ch)
	ch, _ = c.At(49, 5)
	assert.Equal(t, 'a', ch)

	c.DrawText(10, 500, "off", "#fff")
	assert.NotContains(t, c.String(), "off")
}

func TestRender(t *testing.T) {
	c := New(20, 3, 40, 6, theme.Get("classic"))
	c.DrawText(0, 0, "hi", "")

	out := c.Render("1200")
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, out, "1200")
	assert.Contains(t, out, "hi")
	assert.Contains(t, out, "╚")

	plain := c.String()
	assert.Equal(t, 3, strings.Count(plain, "\n")+1)
	assert.True(t, strings.HasPrefix(plain, "hi"))
}

func TestResizeClears(t *testing.T) {
	c := newCanvas()
	c.DrawText(0, 0, "x", "")
	c.Resize(10, 4)

	cols, rows := c.Size()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 4, rows)
	ch, _ := c.At(0, 0)
	assert.Equal(t, ' ', ch)

	c.Resize(0, -1)
	cols, rows = c.Size()
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)
}
