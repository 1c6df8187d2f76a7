package geo

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "California"},
     "geometry": {"type": "Polygon", "coordinates": [[[-124.2,41.9],[-120,41.9],[-120,39],[-114.6,35],[-117.1,32.5],[-124.2,41.9]]]}},
    {"type": "Feature", "properties": {}, "geometry": null}
  ]
}`

const kmlDocument = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Coast</name>
    <Placemark>
      <name>Bay</name>
      <Polygon><outerBoundaryIs><LinearRing>
        <coordinates>-122.5,37.5,0 -122.0,37.5,0 -122.0,38.0,0 -122.5,37.5,0</coordinates>
      </LinearRing></outerBoundaryIs></Polygon>
    </Placemark>
    <Folder>
      <Placemark>
        <name>Route</name>
        <LineString><coordinates>-122,37 -118,34</coordinates></LineString>
      </Placemark>
      <Placemark>
        <name>Mixed</name>
        <MultiGeometry>
          <Point><coordinates>-120,36</coordinates></Point>
          <LineString><coordinates>-121,36 -120,35</coordinates></LineString>
        </MultiGeometry>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestParseBoundaryFeatureCollection(t *testing.T) {
	features, err := ParseBoundary("data/west-coast.json", []byte(featureCollection))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.True(t, features[0].Geometry.IsPolygon())
	assert.Equal(t, "California", FeatureName(features[0]))
}

func TestParseBoundarySingleFeatureAndGeometry(t *testing.T) {
	feature := `{"type":"Feature","properties":{"NAME":"x"},"geometry":{"type":"LineString","coordinates":[[-122,37],[-118,34]]}}`
	features, err := ParseBoundary("a.geojson", []byte(feature))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "x", FeatureName(features[0]))

	geometry := `{"type":"MultiPolygon","coordinates":[[[[-122,37],[-121,37],[-121,38],[-122,37]]]]}`
	features, err = ParseBoundary("b.json", []byte(geometry))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.True(t, features[0].Geometry.IsMultiPolygon())
}

func TestParseBoundaryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		data string
	}{
		{"invalid json", "a.json", "{not json"},
		{"missing type", "a.json", `{"features": []}`},
		{"unknown format", "a.bin", "\x00\x01"},
		{"shapefile in memory", "a.shp", "whatever"},
		{"invalid kml", "a.kml", "<kml><Document>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBoundary(tt.src, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseBoundaryEmpty(t *testing.T) {
	_, err := ParseBoundary("a.json", []byte(`{"type":"FeatureCollection","features":[]}`))
	assert.True(t, eris.Is(err, ErrNoFeatures))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"x.geojson", "", FormatGeoJSON},
		{"https://host/x.json?v=2", "", FormatGeoJSON},
		{"x.KML", "", FormatKML},
		{"x.kmz", "", FormatKMZ},
		{"x.shp", "", FormatShapefile},
		{"ws://host/boundary", `  {"type":"FeatureCollection"}`, FormatGeoJSON},
		{"stream", "<?xml version='1.0'?><kml/>", FormatKML},
		{"stream", "PK\x03\x04", FormatKMZ},
		{"stream", "???", FormatUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.name, []byte(tt.data)), tt.name)
	}
}

func TestParseKML(t *testing.T) {
	features, err := ParseBoundary("coast.kml", []byte(kmlDocument))
	require.NoError(t, err)
	require.Len(t, features, 3)

	assert.Equal(t, geojson.GeometryPolygon, features[0].Geometry.Type)
	assert.Equal(t, "Bay", FeatureName(features[0]))
	assert.Equal(t, geojson.GeometryLineString, features[1].Geometry.Type)
	assert.Equal(t, geojson.GeometryCollection, features[2].Geometry.Type)
	assert.Len(t, features[2].Geometry.Geometries, 2)
}

func TestParseKMZ(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("doc.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(kmlDocument))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	features, err := ParseBoundary("coast.kmz", buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, features, 3)
}

func TestParseKMZWithoutKML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ParseKMZ(buf.Bytes())
	assert.Error(t, err)
}

func TestParseKMLCoordinates(t *testing.T) {
	coords := parseKMLCoordinates("  -122.5,37.5,10\n\t-122,38   bad 1,x ")
	assert.Equal(t, [][]float64{{-122.5, 37.5}, {-122, 38}}, coords)
}

func TestLoadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coast.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 32)}))

	poly := &shp.Polygon{
		NumParts:  2,
		NumPoints: 8,
		Parts:     []int32{0, 4},
		Points: []shp.Point{
			{X: -122.5, Y: 37.5}, {X: -122.0, Y: 37.5}, {X: -122.0, Y: 38.0}, {X: -122.5, Y: 37.5},
			{X: -100, Y: 40}, {X: -99, Y: 40}, {X: -99, Y: 41}, {X: -100, Y: 40},
		},
	}
	row := w.Write(poly)
	require.NoError(t, w.WriteAttribute(int(row), 0, "Bay"))
	w.Close()

	// The writer names the attribute table "coastdbf"; the reader wants "coast.dbf"
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	require.FileExists(t, base+".dbf")

	features, err := LoadShapefile(path)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "Bay", FeatureName(features[0]))
	require.True(t, features[0].Geometry.IsMultiPolygon())
	assert.Len(t, features[0].Geometry.MultiPolygon, 2)
}

func TestLoadShapefileMissing(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "missing.shp"))
	assert.Error(t, err)
}

func TestSplitParts(t *testing.T) {
	points := []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	assert.Len(t, splitParts([]int32{0}, points), 1)
	assert.Len(t, splitParts([]int32{0, 2}, points), 2)
	assert.Empty(t, splitParts([]int32{5}, points))
}
