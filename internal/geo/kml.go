package geo

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
)

type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   kmlFolder      `xml:"Document"`
	Folder     *kmlFolder     `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name       string        `xml:"name"`
	Point      *kmlCoords    `xml:"Point"`
	LineString *kmlCoords    `xml:"LineString"`
	Polygon    *kmlPolygon   `xml:"Polygon"`
	MultiGeom  *kmlMultiGeom `xml:"MultiGeometry"`
}

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

type kmlMultiGeom struct {
	Points      []kmlCoords  `xml:"Point"`
	LineStrings []kmlCoords  `xml:"LineString"`
	Polygons    []kmlPolygon `xml:"Polygon"`
}

// ParseKML converts KML placemarks into GeoJSON features.
func ParseKML(data []byte) ([]*geojson.Feature, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, eris.Wrap(err, "kml: decode")
	}

	placemarks := append([]kmlPlacemark{}, root.Placemarks...)
	placemarks = append(placemarks, collectPlacemarks(root.Document)...)
	if root.Folder != nil {
		placemarks = append(placemarks, collectPlacemarks(*root.Folder)...)
	}

	var features []*geojson.Feature
	for _, pm := range placemarks {
		if g := placemarkGeometry(pm); g != nil {
			f := geojson.NewFeature(g)
			if pm.Name != "" {
				f.SetProperty("name", pm.Name)
			}
			features = append(features, f)
		}
	}
	return features, nil
}

// ParseKMZ reads doc.kml (or the first .kml) out of a KMZ archive.
func ParseKMZ(data []byte) ([]*geojson.Feature, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "kmz: open archive")
	}

	var kmlFile *zip.File
	for _, f := range r.File {
		name := strings.ToLower(f.Name)
		if name == "doc.kml" {
			kmlFile = f
			break
		}
		if strings.HasSuffix(name, ".kml") && kmlFile == nil {
			kmlFile = f
		}
	}
	if kmlFile == nil {
		return nil, eris.New("kmz: no KML file in archive")
	}

	rc, err := kmlFile.Open()
	if err != nil {
		return nil, eris.Wrap(err, "kmz: open entry")
	}
	defer rc.Close()

	doc, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrap(err, "kmz: read entry")
	}
	return ParseKML(doc)
}

func collectPlacemarks(folder kmlFolder) []kmlPlacemark {
	result := append([]kmlPlacemark{}, folder.Placemarks...)
	for _, sub := range folder.Folders {
		result = append(result, collectPlacemarks(sub)...)
	}
	return result
}

// placemarkGeometry folds every geometry of a placemark into one GeoJSON geometry.
func placemarkGeometry(pm kmlPlacemark) *geojson.Geometry {
	var parts []*geojson.Geometry

	if pm.Point != nil {
		if c := parseKMLCoordinates(pm.Point.Coordinates); len(c) > 0 {
			parts = append(parts, geojson.NewPointGeometry(c[0]))
		}
	}
	if pm.LineString != nil {
		if c := parseKMLCoordinates(pm.LineString.Coordinates); len(c) > 1 {
			parts = append(parts, geojson.NewLineStringGeometry(c))
		}
	}
	if pm.Polygon != nil {
		if g := kmlPolygonGeometry(*pm.Polygon); g != nil {
			parts = append(parts, g)
		}
	}
	if pm.MultiGeom != nil {
		for _, pt := range pm.MultiGeom.Points {
			if c := parseKMLCoordinates(pt.Coordinates); len(c) > 0 {
				parts = append(parts, geojson.NewPointGeometry(c[0]))
			}
		}
		for _, ls := range pm.MultiGeom.LineStrings {
			if c := parseKMLCoordinates(ls.Coordinates); len(c) > 1 {
				parts = append(parts, geojson.NewLineStringGeometry(c))
			}
		}
		for _, poly := range pm.MultiGeom.Polygons {
			if g := kmlPolygonGeometry(poly); g != nil {
				parts = append(parts, g)
			}
		}
	}

	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return geojson.NewCollectionGeometry(parts...)
	}
}

func kmlPolygonGeometry(p kmlPolygon) *geojson.Geometry {
	outer := parseKMLCoordinates(p.Outer.Coordinates)
	if len(outer) < 3 {
		return nil
	}
	rings := [][][]float64{outer}
	for _, inner := range p.Inner {
		if c := parseKMLCoordinates(inner.Coordinates); len(c) >= 3 {
			rings = append(rings, c)
		}
	}
	return geojson.NewPolygonGeometry(rings)
}

// parseKMLCoordinates parses "lon,lat[,alt]" tuples separated by whitespace.
func parseKMLCoordinates(s string) [][]float64 {
	var coords [][]float64
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 == nil && err2 == nil {
			coords = append(coords, []float64{lon, lat})
		}
	}
	return coords
}
