package export

import (
	"encoding/json"
	"math"
	"time"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/rotisserie/eris"
)

// PrimitiveExport represents one primitive for JSON export
type PrimitiveExport struct {
	Index   int      `json:"index"`
	Kind    string   `json:"kind"`
	Tier    int      `json:"tier,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	X2      *float64 `json:"x2,omitempty"`
	Y2      *float64 `json:"y2,omitempty"`
	Radius  *float64 `json:"radius,omitempty"`
	Path    string   `json:"path,omitempty"`
	Fill    string   `json:"fill,omitempty"`
	Stroke  string   `json:"stroke,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Visible bool     `json:"visible"`
	Source  any      `json:"source,omitempty"`
}

// SceneExport represents the full JSON export structure
type SceneExport struct {
	Timestamp       string            `json:"timestamp"`
	ExportVersion   string            `json:"export_version"`
	Width           float64           `json:"width"`
	Height          float64           `json:"height"`
	Container       string            `json:"container,omitempty"`
	Projection      geo.State         `json:"projection"`
	TotalPrimitives int               `json:"total_primitives"`
	Counts          map[string]int    `json:"counts"`
	Primitives      []PrimitiveExport `json:"primitives"`
}

type contextSource struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Color string  `json:"color,omitempty"`
	Area  string  `json:"area,omitempty"`
}

type pointSource struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type connectionSource struct {
	Start pointSource `json:"start"`
	End   pointSource `json:"end"`
}

type markerSource struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Color string  `json:"color,omitempty"`
	Name  string  `json:"name,omitempty"`
	Image string  `json:"image,omitempty"`
}

type featureSource struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// BuildScene converts the store into its export structure
func BuildScene(store *scene.Store, opts Options) SceneExport {
	data := SceneExport{
		Timestamp:       time.Now().Format(time.RFC3339),
		ExportVersion:   Version,
		Width:           opts.Width,
		Height:          opts.Height,
		Container:       opts.Container,
		Projection:      opts.Projection,
		TotalPrimitives: store.Len(),
		Counts:          make(map[string]int),
		Primitives:      make([]PrimitiveExport, 0, store.Len()),
	}
	for k, n := range store.Counts() {
		data.Counts[k.String()] = n
	}

	for _, p := range store.All() {
		export := PrimitiveExport{
			Index:   p.Index,
			Kind:    p.Kind.String(),
			Tier:    p.Tier,
			Path:    p.Path,
			Fill:    p.Fill,
			Stroke:  p.Stroke,
			Visible: p.Visible(),
			Source:  source(p),
		}
		export.X = finitePtr(p.X)
		export.Y = finitePtr(p.Y)
		if p.Kind == scene.KindConnector {
			export.X2 = finitePtr(p.X2)
			export.Y2 = finitePtr(p.Y2)
		}
		if p.Kind == scene.KindBoundary {
			export.X, export.Y = nil, nil
		} else if p.Kind != scene.KindConnector {
			export.Radius = finitePtr(p.Radius)
		}
		if p.Kind == scene.KindRing {
			export.Opacity = finitePtr(p.Opacity)
		}
		data.Primitives = append(data.Primitives, export)
	}
	return data
}

// finitePtr returns nil for values JSON cannot carry
func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func source(p *scene.Primitive) any {
	switch {
	case p.Feature != nil:
		fs := featureSource{Name: geo.FeatureName(p.Feature)}
		if p.Feature.Geometry != nil {
			fs.Type = string(p.Feature.Geometry.Type)
		}
		return fs
	case p.Context != nil:
		c := p.Context
		return contextSource{Lon: c.Point.Lon, Lat: c.Point.Lat, Color: c.Color, Area: c.Area}
	case p.Connection != nil:
		c := p.Connection
		return connectionSource{
			Start: pointSource{Lon: c.Start.Lon, Lat: c.Start.Lat},
			End:   pointSource{Lon: c.End.Lon, Lat: c.End.Lat},
		}
	case p.Marker != nil:
		m := p.Marker
		return markerSource{Lon: m.Point.Lon, Lat: m.Point.Lat, Color: m.Color, Name: m.Name, Image: m.Image}
	}
	return nil
}

// JSON renders the store as pretty-printed JSON
func JSON(store *scene.Store, opts Options) ([]byte, error) {
	jsonData, err := json.MarshalIndent(BuildScene(store, opts), "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal JSON")
	}
	return jsonData, nil
}

// ExportJSON writes the store to a timestamped .json file in directory
func ExportJSON(store *scene.Store, opts Options, directory string) (string, error) {
	filename := GenerateFilename("contextmap", "json", directory)
	if err := ExportJSONToFile(store, opts, filename); err != nil {
		return "", err
	}
	return filename, nil
}

// ExportJSONToFile writes the store to a specific JSON file
func ExportJSONToFile(store *scene.Store, opts Options, filename string) error {
	jsonData, err := JSON(store, opts)
	if err != nil {
		return err
	}
	return writeFile(filename, jsonData)
}
