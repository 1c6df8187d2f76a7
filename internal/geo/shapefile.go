package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
)

// LoadShapefile reads an ESRI shapefile (with its .dbf sidecar when present)
// into GeoJSON features. Polygons, polylines, points and multipoints are kept.
func LoadShapefile(path string) ([]*geojson.Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "shapefile: open")
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, "NAME")

	var features []*geojson.Feature
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}
		g := shapeGeometry(shape)
		if g == nil {
			continue
		}
		f := geojson.NewFeature(g)
		if nameIdx >= 0 {
			if name := strings.TrimSpace(reader.Attribute(nameIdx)); name != "" {
				f.SetProperty("name", name)
			}
		}
		features = append(features, f)
	}
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	return features, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// shapeGeometry converts a shape record; Z and M variants are flattened to 2D.
func shapeGeometry(s shp.Shape) *geojson.Geometry {
	switch shape := s.(type) {
	case *shp.Point:
		return geojson.NewPointGeometry([]float64{shape.X, shape.Y})
	case *shp.PointZ:
		return geojson.NewPointGeometry([]float64{shape.X, shape.Y})
	case *shp.PointM:
		return geojson.NewPointGeometry([]float64{shape.X, shape.Y})
	case *shp.MultiPoint:
		return geojson.NewMultiPointGeometry(flatten(shape.Points)...)
	case *shp.Polygon:
		return polygonGeometry(splitParts(shape.Parts, shape.Points))
	case *shp.PolygonZ:
		return polygonGeometry(splitParts(shape.Parts, shape.Points))
	case *shp.PolygonM:
		return polygonGeometry(splitParts(shape.Parts, shape.Points))
	case *shp.PolyLine:
		return lineGeometry(splitParts(shape.Parts, shape.Points))
	case *shp.PolyLineZ:
		return lineGeometry(splitParts(shape.Parts, shape.Points))
	case *shp.PolyLineM:
		return lineGeometry(splitParts(shape.Parts, shape.Points))
	}
	return nil
}

func flatten(points []shp.Point) [][]float64 {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.X, p.Y}
	}
	return coords
}

func splitParts(parts []int32, points []shp.Point) [][][]float64 {
	var out [][][]float64
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		out = append(out, flatten(points[start:end]))
	}
	return out
}

// polygonGeometry keeps each shapefile ring as its own polygon; hole
// assignment is not needed for outline drawing.
func polygonGeometry(rings [][][]float64) *geojson.Geometry {
	switch len(rings) {
	case 0:
		return nil
	case 1:
		return geojson.NewPolygonGeometry(rings)
	}
	polys := make([][][][]float64, len(rings))
	for i, r := range rings {
		polys[i] = [][][]float64{r}
	}
	return geojson.NewMultiPolygonGeometry(polys...)
}

func lineGeometry(lines [][][]float64) *geojson.Geometry {
	switch len(lines) {
	case 0:
		return nil
	case 1:
		return geojson.NewLineStringGeometry(lines[0])
	}
	return geojson.NewMultiLineStringGeometry(lines...)
}
