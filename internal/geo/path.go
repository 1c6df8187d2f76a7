package geo

import (
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// pointRadius is the radius used for Point geometries in path output.
const pointRadius = 4.5

// Point is a projected pixel position.
type Point struct {
	X, Y float64
}

// Ring is a projected vertex run. Closed rings come from polygons.
type Ring struct {
	Points []Point
	Closed bool
}

// PathGenerator projects boundary geometry through a shared Engine.
type PathGenerator struct {
	engine *Engine
}

// NewPathGenerator binds a path generator to an engine.
func NewPathGenerator(e *Engine) *PathGenerator {
	return &PathGenerator{engine: e}
}

// Rings projects a geometry into pixel runs. Vertices that no inset claims
// split the run so the outline never jumps across the gap.
func (g *PathGenerator) Rings(geom *geojson.Geometry) []Ring {
	if geom == nil {
		return nil
	}

	var rings []Ring
	switch geom.Type {
	case geojson.GeometryPoint:
		if p, ok := g.vertex(geom.Point); ok {
			rings = append(rings, Ring{Points: []Point{p}})
		}
	case geojson.GeometryMultiPoint:
		for _, c := range geom.MultiPoint {
			if p, ok := g.vertex(c); ok {
				rings = append(rings, Ring{Points: []Point{p}})
			}
		}
	case geojson.GeometryLineString:
		rings = g.appendRun(rings, geom.LineString, false)
	case geojson.GeometryMultiLineString:
		for _, line := range geom.MultiLineString {
			rings = g.appendRun(rings, line, false)
		}
	case geojson.GeometryPolygon:
		for _, ring := range geom.Polygon {
			rings = g.appendRun(rings, ring, true)
		}
	case geojson.GeometryMultiPolygon:
		for _, poly := range geom.MultiPolygon {
			for _, ring := range poly {
				rings = g.appendRun(rings, ring, true)
			}
		}
	case geojson.GeometryCollection:
		for _, child := range geom.Geometries {
			rings = append(rings, g.Rings(child)...)
		}
	}
	return rings
}

func (g *PathGenerator) vertex(c []float64) (Point, bool) {
	if len(c) < 2 {
		return Point{}, false
	}
	x, y, ok := g.engine.ProjectOK(GeoPoint{Lon: c[0], Lat: c[1]})
	return Point{X: x, Y: y}, ok
}

func (g *PathGenerator) appendRun(rings []Ring, coords [][]float64, closed bool) []Ring {
	var run []Point
	split := false
	flush := func() {
		if len(run) > 1 {
			rings = append(rings, Ring{Points: run, Closed: closed && !split})
		}
		run = nil
	}
	for _, c := range coords {
		p, ok := g.vertex(c)
		if !ok {
			split = true
			flush()
			continue
		}
		run = append(run, p)
	}
	flush()
	return rings
}

// Path renders a geometry as an SVG path string.
func (g *PathGenerator) Path(geom *geojson.Geometry) string {
	return FormatPath(g.Rings(geom))
}

// FormatPath renders projected rings as SVG path data.
func FormatPath(rings []Ring) string {
	var sb strings.Builder
	for _, r := range rings {
		if len(r.Points) == 1 {
			p := r.Points[0]
			sb.WriteString("M")
			writePair(&sb, p.X, p.Y+pointRadius)
			sb.WriteString("a4.5,4.5 0 1,1 0,-9a4.5,4.5 0 1,1 0,9Z")
			continue
		}
		for i, p := range r.Points {
			if i == 0 {
				sb.WriteString("M")
			} else {
				sb.WriteString("L")
			}
			writePair(&sb, p.X, p.Y)
		}
		if r.Closed {
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

func writePair(sb *strings.Builder, x, y float64) {
	sb.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	sb.WriteString(",")
	sb.WriteString(strconv.FormatFloat(y, 'f', -1, 64))
}
