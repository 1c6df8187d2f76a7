package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScene(t *testing.T) {
	data := BuildScene(sampleStore(), sampleOptions())

	assert.Equal(t, Version, data.ExportVersion)
	assert.Equal(t, 6, data.TotalPrimitives)
	assert.Equal(t, map[string]int{"boundary": 1, "ring": 1, "context": 1, "connector": 1, "marker": 2}, data.Counts)
	assert.Equal(t, 1200.0, data.Projection.Scale)
	require.Len(t, data.Primitives, 6)

	boundary := data.Primitives[0]
	assert.Equal(t, "boundary", boundary.Kind)
	assert.Nil(t, boundary.X)
	assert.Equal(t, featureSource{Name: "California", Type: "Polygon"}, boundary.Source)

	ring := data.Primitives[1]
	assert.Equal(t, 1, ring.Tier)
	require.NotNil(t, ring.Opacity)
	assert.Equal(t, 0.6, *ring.Opacity)

	line := data.Primitives[3]
	require.NotNil(t, line.X2)
	assert.Equal(t, 200.0, *line.X2)
	assert.Nil(t, line.Radius)

	far := data.Primitives[5]
	assert.False(t, far.Visible)
	assert.Nil(t, far.X)
	assert.Nil(t, far.Y)
}

func TestJSON_Marshals(t *testing.T) {
	data, err := JSON(sampleStore(), sampleOptions())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	if _, err := time.Parse(time.RFC3339, parsed["timestamp"].(string)); err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
	projection := parsed["projection"].(map[string]any)
	assert.Equal(t, 510.0, projection["translate_x"])

	prims := parsed["primitives"].([]any)
	marker := prims[4].(map[string]any)
	src := marker["source"].(map[string]any)
	assert.Equal(t, "Ada & Co", src["name"])
	assert.Equal(t, -122.27, src["lon"])

	if !strings.Contains(string(data), "\n  ") {
		t.Error("JSON should be pretty-printed with indentation")
	}
}

func TestExportJSON_Empty(t *testing.T) {
	filename, err := ExportJSON(scene.NewStore(), Options{}, t.TempDir())
	require.NoError(t, err)

	content, err := os.ReadFile(filename)
	require.NoError(t, err)

	var data SceneExport
	require.NoError(t, json.Unmarshal(content, &data))
	assert.Equal(t, 0, data.TotalPrimitives)
	assert.Empty(t, data.Primitives)
}

func TestExportJSONToFile_CreatesDirectory(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "dir", "scene.json")

	require.NoError(t, ExportJSONToFile(sampleStore(), sampleOptions(), filename))
	_, err := os.Stat(filename)
	assert.NoError(t, err)
}
