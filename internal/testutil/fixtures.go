package testutil

import (
	"encoding/json"
	"fmt"
)

// Dataset names used by the sample pipeline
const (
	BoundaryName    = "west-coast.json"
	ContextName     = "context.json"
	ConnectionsName = "combo.json"
	PlacesName      = "places.json"
	PeopleName      = "people.json"
)

// SampleBoundary is a one-feature FeatureCollection roughly outlining California
const SampleBoundary = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "California"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[
          [-124.2, 42.0], [-120.0, 42.0], [-120.0, 39.0], [-114.6, 35.0],
          [-114.7, 32.7], [-117.1, 32.5], [-120.6, 34.5], [-122.5, 37.5],
          [-124.2, 42.0]
        ]]
      }
    }
  ]
}`

// SampleContext holds two contexts
const SampleContext = `[
  {"lon": -122.42, "lat": 37.77, "color": "#e41a1c", "area": "San Francisco"},
  {"lon": -118.24, "lat": 34.05, "color": "#377eb8", "area": "Los Angeles"}
]`

// SampleConnections holds one connection between the two contexts
const SampleConnections = `[
  {"start": {"lon": -122.42, "lat": 37.77}, "end": {"lon": -118.24, "lat": 34.05}}
]`

// SamplePlaces holds three place markers
const SamplePlaces = `[
  {"lon": -122.27, "lat": 37.80, "color": "#4daf4a", "name": "Oakland", "image": "img/oakland.png"},
  {"lon": -121.89, "lat": 37.34, "color": "#984ea3", "name": "San Jose", "image": "img/sanjose.png"},
  {"lon": -117.16, "lat": 32.72, "color": "#ff7f00", "name": "San Diego", "image": "img/sandiego.png"}
]`

// SamplePeople holds two person markers
const SamplePeople = `[
  {"lon": -122.41, "lat": 37.78, "color": "#a65628", "name": "Ada", "image": "img/ada.png"},
  {"lon": -118.25, "lat": 34.06, "color": "#f781bf", "name": "Grace", "image": "img/grace.png"}
]`

// SampleDatasets returns every sample payload keyed by dataset name
func SampleDatasets() map[string][]byte {
	return map[string][]byte{
		BoundaryName:    []byte(SampleBoundary),
		ContextName:     []byte(SampleContext),
		ConnectionsName: []byte(SampleConnections),
		PlacesName:      []byte(SamplePlaces),
		PeopleName:      []byte(SamplePeople),
	}
}

// SamplePrimitiveCount is the number of primitives the sample places run produces:
// one boundary, three ring tiers per context, two dots, one connector, three markers.
const SamplePrimitiveCount = 1 + 3*2 + 2 + 1 + 3

// Marker is a marker record as it appears on the wire
type Marker struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Color string  `json:"color"`
	Name  string  `json:"name"`
	Image string  `json:"image"`
}

// GenerateMarkers builds count markers on a grid across the lower 48
func GenerateMarkers(count int) []byte {
	markers := make([]Marker, count)
	for i := range markers {
		markers[i] = Marker{
			Lon:   -124 + float64(i%50)*1.1,
			Lat:   26 + float64(i/50%20)*1.1,
			Color: "#333333",
			Name:  fmt.Sprintf("marker-%03d", i),
			Image: fmt.Sprintf("img/%03d.png", i),
		}
	}
	data, _ := json.Marshal(markers)
	return data
}
