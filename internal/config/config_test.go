package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	origConfigDir := ConfigDir
	t.Cleanup(func() {
		os.Chdir(origDir)
		ConfigDir = origConfigDir
	})
	ConfigDir = filepath.Join(dir, "home")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.Container != "body" {
		t.Errorf("Container = %q, want %q", cfg.Container, "body")
	}
	if cfg.ElementType != "places" {
		t.Errorf("ElementType = %q, want %q", cfg.ElementType, "places")
	}
	if cfg.Canvas.Width != 300 || cfg.Canvas.Height != 500 {
		t.Errorf("Canvas = %gx%g, want 300x500", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Projection.TranslateX != 800 || cfg.Projection.TranslateY != 300 || cfg.Projection.Scale != 1300 {
		t.Errorf("Projection = %+v, want 800/300/1300", cfg.Projection)
	}
	if cfg.Zoom.TranslateX != 510 || cfg.Zoom.TranslateY != 300 || cfg.Zoom.Scale != 1200 {
		t.Errorf("Zoom initial = %+v, want 510/300/1200", cfg.Zoom)
	}
	if cfg.Zoom.MinScale != 1000 || cfg.Zoom.MaxScale != 10000 {
		t.Errorf("Zoom extent = [%g, %g], want [1000, 10000]", cfg.Zoom.MinScale, cfg.Zoom.MaxScale)
	}
	if cfg.Zoom.ReferenceScale != 1300 {
		t.Errorf("Zoom.ReferenceScale = %g, want 1300", cfg.Zoom.ReferenceScale)
	}
	if cfg.Tooltip.FadeInMs != 200 || cfg.Tooltip.FadeOutMs != 500 {
		t.Errorf("Tooltip fades = %d/%d, want 200/500", cfg.Tooltip.FadeInMs, cfg.Tooltip.FadeOutMs)
	}
	if cfg.Sources.Boundary != "data/west-coast.json" {
		t.Errorf("Sources.Boundary = %q", cfg.Sources.Boundary)
	}
	if len(cfg.Rings) != 3 {
		t.Fatalf("len(Rings) = %d, want 3", len(cfg.Rings))
	}
	if cfg.Rings[0] != (RingTier{Tier: 1, Radius: 25, Opacity: 0.6}) {
		t.Errorf("Rings[0] = %+v", cfg.Rings[0])
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
container: "#map"
element_type: people
zoom:
  min_scale: 500
rings:
  - tier: 1
    radius: 10
    opacity: 0.5
sources:
  people: https://example.com/people.json
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contextmap.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "#map", cfg.Container)
	assert.Equal(t, "people", cfg.ElementType)
	assert.Equal(t, 500.0, cfg.Zoom.MinScale)
	assert.Equal(t, 10000.0, cfg.Zoom.MaxScale)
	assert.Equal(t, []RingTier{{Tier: 1, Radius: 10, Opacity: 0.5}}, cfg.Rings)
	assert.Equal(t, "https://example.com/people.json", cfg.MarkerSource())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas:\n  width: 640\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640.0, cfg.Canvas.Width)
	assert.Equal(t, 500.0, cfg.Canvas.Height)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	dir := chdirTemp(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONTEXTMAP_ELEMENT_TYPE", "people")
	t.Setenv("CONTEXTMAP_ZOOM_MAX_SCALE", "8000")
	t.Setenv("CONTEXTMAP_SOURCES_CONTEXT", "ws://localhost:9000/ws/context")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "people", cfg.ElementType)
	assert.Equal(t, 8000.0, cfg.Zoom.MaxScale)
	assert.Equal(t, "ws://localhost:9000/ws/context", cfg.Sources.Context)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contextmap.yaml"), []byte("zoom: [unclosed"), 0644))

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero canvas", func(c *Config) { c.Canvas.Width = 0 }},
		{"inverted extent", func(c *Config) { c.Zoom.MaxScale = 10 }},
		{"zero min", func(c *Config) { c.Zoom.MinScale = 0 }},
		{"zero reference", func(c *Config) { c.Zoom.ReferenceScale = 0 }},
		{"opacity above one", func(c *Config) { c.Rings[0].Opacity = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMarkerSource(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "data/places.json", cfg.MarkerSource())
	cfg.ElementType = "people"
	assert.Equal(t, "data/people.json", cfg.MarkerSource())
	cfg.ElementType = "anything"
	assert.Equal(t, "data/places.json", cfg.MarkerSource())
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger, err := InitLogger(LogConfig{Level: "debug", Format: "console"}, false)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = InitLogger(LogConfig{Level: "loud", Format: "json"}, false)
	assert.Error(t, err)
}

func TestInitLoggerQuiet(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger, err := InitLogger(LogConfig{Level: "info"}, true)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestInitLoggerFile(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	path := filepath.Join(t.TempDir(), "logs", "contextmap.log")
	logger, err := InitLogger(LogConfig{Level: "info", Format: "json", File: path}, true)
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
