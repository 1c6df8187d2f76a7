package geo

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
)

// ErrNoFeatures is returned when a boundary document holds nothing drawable.
var ErrNoFeatures = eris.New("boundary has no drawable features")

// Format identifies a boundary encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatGeoJSON
	FormatKML
	FormatKMZ
	FormatShapefile
)

// DetectFormat picks a format from the source name, falling back to sniffing.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(stripQuery(name))) {
	case ".geojson", ".json":
		return FormatGeoJSON
	case ".kml":
		return FormatKML
	case ".kmz":
		return FormatKMZ
	case ".shp":
		return FormatShapefile
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		return FormatGeoJSON
	case bytes.HasPrefix(trimmed, []byte("<")):
		return FormatKML
	case bytes.HasPrefix(data, []byte("PK")):
		return FormatKMZ
	}
	return FormatUnknown
}

func stripQuery(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		return name[:i]
	}
	return name
}

// ParseBoundary decodes an in-memory boundary document into features.
// Shapefiles need their sidecar files and are read with LoadShapefile instead.
func ParseBoundary(name string, data []byte) ([]*geojson.Feature, error) {
	var (
		features []*geojson.Feature
		err      error
	)
	switch DetectFormat(name, data) {
	case FormatGeoJSON:
		features, err = parseGeoJSON(data)
	case FormatKML:
		features, err = ParseKML(data)
	case FormatKMZ:
		features, err = ParseKMZ(data)
	case FormatShapefile:
		return nil, eris.Errorf("shapefile %s must be loaded from disk", name)
	default:
		return nil, eris.Errorf("unable to detect boundary format for %s (supported: .geojson, .json, .shp, .kml, .kmz)", name)
	}
	if err != nil {
		return nil, err
	}
	features = drawable(features)
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	return features, nil
}

// parseGeoJSON accepts a FeatureCollection, a single Feature or a bare geometry.
func parseGeoJSON(data []byte) ([]*geojson.Feature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "geojson: decode")
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, eris.Wrap(err, "geojson: feature collection")
		}
		return fc.Features, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, eris.Wrap(err, "geojson: feature")
		}
		return []*geojson.Feature{f}, nil
	case "":
		return nil, eris.New("geojson: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, eris.Wrap(err, "geojson: geometry")
		}
		return []*geojson.Feature{geojson.NewFeature(g)}, nil
	}
}

func drawable(features []*geojson.Feature) []*geojson.Feature {
	out := features[:0]
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FeatureName returns a display name from the usual property keys.
func FeatureName(f *geojson.Feature) string {
	for _, key := range []string{"name", "NAME", "Name", "title", "label"} {
		if v, ok := f.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
