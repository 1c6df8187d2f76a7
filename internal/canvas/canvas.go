// Package canvas rasterises the layer store into a grid of terminal cells
package canvas

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/contextmap/contextmap-go/internal/theme"
)

// Glyphs per layer
const (
	GlyphLand    = '·'
	GlyphRing    = '∘'
	GlyphContext = '◉'
	GlyphDisc    = '░'
	GlyphMarker  = '●'
)

// cell represents a single canvas cell with character and color
type cell struct {
	char  rune
	color lipgloss.Color
}

// Canvas maps a logical drawing surface onto cols×rows terminal cells.
type Canvas struct {
	cells  [][]cell
	cols   int
	rows   int
	width  float64
	height float64
	theme  *theme.Theme
}

// New creates a canvas showing a width×height logical surface.
func New(cols, rows int, width, height float64, t *theme.Theme) *Canvas {
	c := &Canvas{theme: t, width: width, height: height}
	c.Resize(cols, rows)
	return c
}

// Resize changes the grid size and clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols = max(cols, 1)
	c.rows = max(rows, 1)
	c.cells = make([][]cell, c.rows)
	for y := range c.cells {
		c.cells[y] = make([]cell, c.cols)
	}
	c.Clear()
}

// Size returns the grid size in cells.
func (c *Canvas) Size() (cols, rows int) {
	return c.cols, c.rows
}

// Clear blanks every cell
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = cell{char: ' '}
		}
	}
}

// SetTheme updates the theme
func (c *Canvas) SetTheme(t *theme.Theme) {
	c.theme = t
}

func (c *Canvas) cellW() float64 { return c.width / float64(c.cols) }
func (c *Canvas) cellH() float64 { return c.height / float64(c.rows) }

// ToCell converts a logical point to a cell. ok is false off the grid.
func (c *Canvas) ToCell(x, y float64) (col, row int, ok bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	fc := math.Floor(x / c.cellW())
	fr := math.Floor(y / c.cellH())
	if fc < 0 || fr < 0 || fc >= float64(c.cols) || fr >= float64(c.rows) {
		return int(fc), int(fr), false
	}
	return int(fc), int(fr), true
}

// ToLogical returns the logical point at the center of a cell.
func (c *Canvas) ToLogical(col, row int) geo.Point {
	return geo.Point{
		X: (float64(col) + 0.5) * c.cellW(),
		Y: (float64(row) + 0.5) * c.cellH(),
	}
}

// At returns the glyph and color of a cell, for tests and hit previews.
func (c *Canvas) At(col, row int) (rune, lipgloss.Color) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return 0, ""
	}
	ce := c.cells[row][col]
	return ce.char, ce.color
}

func (c *Canvas) set(col, row int, ch rune, color lipgloss.Color) {
	if col >= 0 && col < c.cols && row >= 0 && row < c.rows {
		c.cells[row][col] = cell{char: ch, color: color}
	}
}

// DrawStore draws every visible primitive in store order, so later layers
// cover earlier ones.
func (c *Canvas) DrawStore(store *scene.Store) {
	for _, p := range store.All() {
		if !p.Visible() {
			continue
		}
		switch p.Kind {
		case scene.KindBoundary:
			c.drawBoundary(p)
		case scene.KindRing:
			c.drawCircle(p.X, p.Y, p.Radius, GlyphRing, c.theme.Pick(p.Fill, c.theme.Ring))
		case scene.KindContext:
			c.drawDisc(p.X, p.Y, p.Radius, c.theme.Context)
		case scene.KindConnector:
			c.drawLine(p.X, p.Y, p.X2, p.Y2, c.theme.Connector)
		case scene.KindMarker:
			if col, row, ok := c.ToCell(p.X, p.Y); ok {
				c.set(col, row, GlyphMarker, c.theme.Pick(p.Fill, c.theme.Marker))
			}
		}
	}
}

func (c *Canvas) drawBoundary(p *scene.Primitive) {
	for _, ring := range p.Rings {
		pts := ring.Points
		if len(pts) == 1 {
			if col, row, ok := c.ToCell(pts[0].X, pts[0].Y); ok {
				c.set(col, row, GlyphLand, c.theme.Land)
			}
			continue
		}
		for i := 1; i < len(pts); i++ {
			c.plotLine(pts[i-1], pts[i], GlyphLand, c.theme.Land)
		}
		if ring.Closed && len(pts) > 2 {
			c.plotLine(pts[len(pts)-1], pts[0], GlyphLand, c.theme.Land)
		}
	}
}

func (c *Canvas) drawLine(x0, y0, x1, y1 float64, color lipgloss.Color) {
	c.plotLine(geo.Point{X: x0, Y: y0}, geo.Point{X: x1, Y: y1}, lineGlyph(x0, y0, x1, y1, c.cellW(), c.cellH()), color)
}

// lineGlyph picks a box-drawing rune that follows the line's slope on screen.
func lineGlyph(x0, y0, x1, y1, cw, ch float64) rune {
	dx := (x1 - x0) / cw
	dy := (y1 - y0) / ch
	switch {
	case math.Abs(dy) < math.Abs(dx)*0.4:
		return '─'
	case math.Abs(dx) < math.Abs(dy)*0.4:
		return '│'
	case dx*dy < 0:
		return '╱'
	default:
		return '╲'
	}
}

func (c *Canvas) plotLine(a, b geo.Point, ch rune, color lipgloss.Color) {
	// Ends far off the grid are cut back along the segment so Bresenham
	// stays bounded and the line keeps its slope.
	limit := float64(4 * max(c.cols, c.rows))
	x0, y0, x1, y1, ok := clipSegment(a.X/c.cellW(), a.Y/c.cellH(), b.X/c.cellW(), b.Y/c.cellH(), limit)
	if !ok {
		return
	}
	for _, pt := range BresenhamLine(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Floor(x1)), int(math.Floor(y1))) {
		c.set(pt[0], pt[1], ch, color)
	}
}

// clipSegment clips a segment to the box [-limit, limit] on both axes
// (Liang-Barsky). ok is false when nothing of it lies inside.
func clipSegment(x0, y0, x1, y1, limit float64) (float64, float64, float64, float64, bool) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0 + limit},
		{dx, limit - x0},
		{-dy, y0 + limit},
		{dy, limit - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func (c *Canvas) drawCircle(x, y, r float64, ch rune, color lipgloss.Color) {
	rx := r / c.cellW()
	ry := r / c.cellH()
	steps := int(math.Max(8, math.Ceil(2*math.Pi*math.Max(rx, ry)*2)))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		if col, row, ok := c.ToCell(x+r*math.Cos(a), y+r*math.Sin(a)); ok {
			c.set(col, row, ch, color)
		}
	}
}

func (c *Canvas) drawDisc(x, y, r float64, color lipgloss.Color) {
	col0, row0, _ := c.ToCell(x-r, y-r)
	col1, row1, _ := c.ToCell(x+r, y+r)
	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			center := c.ToLogical(col, row)
			if math.Hypot(center.X-x, center.Y-y) <= r {
				c.set(col, row, GlyphDisc, color)
			}
		}
	}
	if col, row, ok := c.ToCell(x, y); ok {
		c.set(col, row, GlyphContext, color)
	}
}

// DrawText writes text starting at a logical point, clipped to the grid.
func (c *Canvas) DrawText(x, y float64, text string, color lipgloss.Color) {
	col, row, _ := c.ToCell(x, y)
	if row < 0 || row >= c.rows {
		return
	}
	for _, ch := range text {
		c.set(col, row, ch, color)
		col++
	}
}

// String renders the grid without color, one line per row.
func (c *Canvas) String() string {
	var sb strings.Builder
	for y := 0; y < c.rows; y++ {
		for x := 0; x < c.cols; x++ {
			sb.WriteRune(c.cells[y][x].char)
		}
		if y < c.rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Render renders the canvas inside a border with a title
func (c *Canvas) Render(title string) string {
	var sb strings.Builder
	borderStyle := lipgloss.NewStyle().Foreground(c.theme.Border)

	title = " " + title + " "
	if len([]rune(title)) > c.cols {
		title = ""
	}
	pad := (c.cols - len([]rune(title))) / 2

	sb.WriteString(borderStyle.Render("╔" + strings.Repeat("═", pad) + title +
		strings.Repeat("═", c.cols-pad-len([]rune(title))) + "╗"))
	sb.WriteString("\n")

	for y := 0; y < c.rows; y++ {
		sb.WriteString(borderStyle.Render("║"))
		c.renderRow(&sb, c.cells[y])
		sb.WriteString(borderStyle.Render("║"))
		sb.WriteString("\n")
	}

	sb.WriteString(borderStyle.Render("╚" + strings.Repeat("═", c.cols) + "╝"))
	return sb.String()
}

// renderRow styles runs of same-colored cells together.
func (c *Canvas) renderRow(sb *strings.Builder, row []cell) {
	var run strings.Builder
	runColor := row[0].color
	flush := func() {
		if run.Len() == 0 {
			return
		}
		color := runColor
		if color == "" {
			color = c.theme.TextDim
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(color).Render(run.String()))
		run.Reset()
	}
	for _, ce := range row {
		if ce.color != runColor {
			flush()
			runColor = ce.color
		}
		run.WriteRune(ce.char)
	}
	flush()
}

// BresenhamLine returns every grid point on the line from (x0, y0) to (x1, y1).
func BresenhamLine(x0, y0, x1, y1 int) [][2]int {
	var points [][2]int

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		points = append(points, [2]int{x0, y0})
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}

	return points
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
