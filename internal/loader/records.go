package loader

import (
	"encoding/json"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/rotisserie/eris"
)

// ErrMalformed marks a payload whose records do not have the expected shape.
var ErrMalformed = eris.New("malformed records")

// Wire shapes. Pointers tell a missing coordinate apart from zero.
type rawPoint struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type rawContext struct {
	rawPoint
	Color string `json:"color"`
	Area  string `json:"area"`
}

type rawConnection struct {
	Start *rawPoint `json:"start"`
	End   *rawPoint `json:"end"`
}

type rawMarker struct {
	rawPoint
	Color string `json:"color"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (r *rawPoint) point() (geo.GeoPoint, bool) {
	if r == nil || r.Lon == nil || r.Lat == nil {
		return geo.GeoPoint{}, false
	}
	p := geo.GeoPoint{Lon: *r.Lon, Lat: *r.Lat}
	if !p.Valid() {
		return geo.GeoPoint{}, false
	}
	return p, true
}

// DecodeContexts parses an array of {lon, lat, color, area}.
func DecodeContexts(data []byte) ([]scene.ContextRecord, error) {
	var raw []rawContext
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "context: %v", err)
	}
	out := make([]scene.ContextRecord, len(raw))
	for i, r := range raw {
		p, ok := r.point()
		if !ok {
			return nil, eris.Wrapf(ErrMalformed, "context record %d: missing or invalid lon/lat", i)
		}
		out[i] = scene.ContextRecord{Point: p, Color: r.Color, Area: r.Area}
	}
	return out, nil
}

// DecodeConnections parses an array of {start:{lon,lat}, end:{lon,lat}}.
func DecodeConnections(data []byte) ([]scene.ConnectionRecord, error) {
	var raw []rawConnection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "connections: %v", err)
	}
	out := make([]scene.ConnectionRecord, len(raw))
	for i, r := range raw {
		start, ok := r.Start.point()
		if !ok {
			return nil, eris.Wrapf(ErrMalformed, "connection record %d: invalid start", i)
		}
		end, ok := r.End.point()
		if !ok {
			return nil, eris.Wrapf(ErrMalformed, "connection record %d: invalid end", i)
		}
		out[i] = scene.ConnectionRecord{Start: start, End: end}
	}
	return out, nil
}

// DecodeMarkers parses an array of {lon, lat, color, name, image}.
func DecodeMarkers(data []byte) ([]scene.MarkerRecord, error) {
	var raw []rawMarker
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "markers: %v", err)
	}
	out := make([]scene.MarkerRecord, len(raw))
	for i, r := range raw {
		p, ok := r.point()
		if !ok {
			return nil, eris.Wrapf(ErrMalformed, "marker record %d: missing or invalid lon/lat", i)
		}
		out[i] = scene.MarkerRecord{Point: p, Color: r.Color, Name: r.Name, Image: r.Image}
	}
	return out, nil
}
