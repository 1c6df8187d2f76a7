package export

import (
	"math"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	geojson "github.com/paulmach/go.geojson"
)

// sampleStore builds one primitive per layer plus an unprojectable marker.
func sampleStore() *scene.Store {
	store := scene.NewStore()

	feature := geojson.NewPolygonFeature([][][]float64{{{-124, 42}, {-120, 42}, {-114, 35}, {-124, 42}}})
	feature.SetProperty("name", "California")
	store.Append(&scene.Primitive{
		Kind:    scene.KindBoundary,
		Feature: feature,
		Rings:   []geo.Ring{{Points: []geo.Point{{X: 1, Y: 1}, {X: 10, Y: 1}, {X: 10, Y: 10}}, Closed: true}},
		Path:    "M1,1L10,1L10,10Z",
		Fill:    "#fff",
		Stroke:  "#000",
		StrokeW: 1,
	})

	sf := &scene.ContextRecord{Point: geo.GeoPoint{Lon: -122.42, Lat: 37.77}, Color: "#e41a1c", Area: "San Francisco"}
	store.Append(&scene.Primitive{
		Kind:       scene.KindRing,
		Tier:       1,
		Context:    sf,
		X:          120.5,
		Y:          80.25,
		Radius:     23.08,
		BaseRadius: 25,
		Opacity:    0.6,
		Fill:       "#e41a1c",
		Stroke:     "#000",
	})
	store.Append(&scene.Primitive{
		Kind:      scene.KindContext,
		Context:   sf,
		X:         120.5,
		Y:         80.25,
		Radius:    15,
		Fill:      "rgba(0, 0, 0, 0.7)",
		Stroke:    "#fff",
		Hoverable: true,
	})
	store.Append(&scene.Primitive{
		Kind: scene.KindConnector,
		Connection: &scene.ConnectionRecord{
			Start: geo.GeoPoint{Lon: -122.42, Lat: 37.77},
			End:   geo.GeoPoint{Lon: -118.24, Lat: 34.05},
		},
		X:       120.5,
		Y:       80.25,
		X2:      200,
		Y2:      300,
		Stroke:  "#000",
		StrokeW: 2,
	})
	store.Append(&scene.Primitive{
		Kind:      scene.KindMarker,
		Marker:    &scene.MarkerRecord{Point: geo.GeoPoint{Lon: -122.27, Lat: 37.8}, Color: "#377eb8", Name: "Ada & Co", Image: "a.png"},
		X:         130,
		Y:         78,
		Radius:    8,
		Fill:      "#377eb8",
		Stroke:    "#000",
		Hoverable: true,
	})
	store.Append(&scene.Primitive{
		Kind:   scene.KindMarker,
		Marker: &scene.MarkerRecord{Point: geo.GeoPoint{Lon: 10, Lat: 50}, Name: "Far away"},
		X:      math.NaN(),
		Y:      math.NaN(),
		Radius: 8,
	})
	return store
}

func sampleOptions() Options {
	return Options{
		Width:      300,
		Height:     500,
		Container:  "body",
		Projection: geo.State{TranslateX: 510, TranslateY: 300, Scale: 1200},
	}
}
