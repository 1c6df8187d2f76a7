// Package config handles configuration loading and defaults for ContextMap
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config directories
var (
	ConfigDir string
)

func init() {
	homeDir, _ := os.UserHomeDir()
	ConfigDir = filepath.Join(homeDir, ".config", "contextmap")
}

// CanvasSettings is the drawing surface size in logical units
type CanvasSettings struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// ProjectionSettings is the projection's state before the viewport binds
type ProjectionSettings struct {
	TranslateX float64 `mapstructure:"translate_x"`
	TranslateY float64 `mapstructure:"translate_y"`
	Scale      float64 `mapstructure:"scale"`
}

// ZoomSettings is the zoom behaviour's initial transform and limits
type ZoomSettings struct {
	TranslateX     float64 `mapstructure:"translate_x"`
	TranslateY     float64 `mapstructure:"translate_y"`
	Scale          float64 `mapstructure:"scale"`
	MinScale       float64 `mapstructure:"min_scale"`
	MaxScale       float64 `mapstructure:"max_scale"`
	ReferenceScale float64 `mapstructure:"reference_scale"`
	WheelStep      float64 `mapstructure:"wheel_step"`
	PanStep        float64 `mapstructure:"pan_step"`
}

// RingTier is one concentric pull-ring
type RingTier struct {
	Tier    int     `mapstructure:"tier"`
	Radius  float64 `mapstructure:"radius"`
	Opacity float64 `mapstructure:"opacity"`
}

// SourceSettings locates each dataset (file path, http(s) or ws(s) URL)
type SourceSettings struct {
	Boundary    string `mapstructure:"boundary"`
	Context     string `mapstructure:"context"`
	Connections string `mapstructure:"connections"`
	Places      string `mapstructure:"places"`
	People      string `mapstructure:"people"`
}

// FetchSettings tunes dataset retrieval
type FetchSettings struct {
	BaseDir       string `mapstructure:"base_dir"`
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
	CacheDir      string `mapstructure:"cache_dir"`
	CacheTTLHours int    `mapstructure:"cache_ttl_hours"`
	Token         string `mapstructure:"token"`
}

// TooltipSettings controls the hover tooltip fades
type TooltipSettings struct {
	FadeInMs  int     `mapstructure:"fade_in_ms"`
	FadeOutMs int     `mapstructure:"fade_out_ms"`
	Opacity   float64 `mapstructure:"opacity"`
	OffsetY   float64 `mapstructure:"offset_y"`
}

// DisplaySettings contains terminal display options
type DisplaySettings struct {
	Theme      string `mapstructure:"theme"`
	ShowLegend bool   `mapstructure:"show_legend"`
}

// ExportSettings contains export options
type ExportSettings struct {
	Directory string `mapstructure:"directory"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Config is the complete application configuration
type Config struct {
	Container   string             `mapstructure:"container"`
	ElementType string             `mapstructure:"element_type"`
	Canvas      CanvasSettings     `mapstructure:"canvas"`
	Projection  ProjectionSettings `mapstructure:"projection"`
	Zoom        ZoomSettings       `mapstructure:"zoom"`
	Rings       []RingTier         `mapstructure:"rings"`
	Sources     SourceSettings     `mapstructure:"sources"`
	Fetch       FetchSettings      `mapstructure:"fetch"`
	Tooltip     TooltipSettings    `mapstructure:"tooltip"`
	Display     DisplaySettings    `mapstructure:"display"`
	Export      ExportSettings     `mapstructure:"export"`
	Log         LogConfig          `mapstructure:"log"`
}

// DefaultRings are the three pull-ring tiers drawn around every context
func DefaultRings() []RingTier {
	return []RingTier{
		{Tier: 1, Radius: 25, Opacity: 0.6},
		{Tier: 2, Radius: 35, Opacity: 0.4},
		{Tier: 3, Radius: 45, Opacity: 0.2},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("container", "body")
	v.SetDefault("element_type", "places")

	v.SetDefault("canvas.width", 300)
	v.SetDefault("canvas.height", 500)

	v.SetDefault("projection.translate_x", 800)
	v.SetDefault("projection.translate_y", 300)
	v.SetDefault("projection.scale", 1300)

	v.SetDefault("zoom.translate_x", 510)
	v.SetDefault("zoom.translate_y", 300)
	v.SetDefault("zoom.scale", 1200)
	v.SetDefault("zoom.min_scale", 1000)
	v.SetDefault("zoom.max_scale", 10000)
	v.SetDefault("zoom.reference_scale", 1300)
	v.SetDefault("zoom.wheel_step", 0.2)
	v.SetDefault("zoom.pan_step", 10)

	v.SetDefault("sources.boundary", "data/west-coast.json")
	v.SetDefault("sources.context", "data/context.json")
	v.SetDefault("sources.connections", "data/combo.json")
	v.SetDefault("sources.places", "data/places.json")
	v.SetDefault("sources.people", "data/people.json")

	v.SetDefault("fetch.base_dir", "")
	v.SetDefault("fetch.timeout_secs", 0)
	v.SetDefault("fetch.cache_dir", "")
	v.SetDefault("fetch.cache_ttl_hours", 24)
	v.SetDefault("fetch.token", "")

	v.SetDefault("tooltip.fade_in_ms", 200)
	v.SetDefault("tooltip.fade_out_ms", 500)
	v.SetDefault("tooltip.opacity", 0.9)
	v.SetDefault("tooltip.offset_y", -28)

	v.SetDefault("display.theme", "classic")
	v.SetDefault("display.show_legend", true)

	v.SetDefault("export.directory", ".")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
}

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Rings = DefaultRings()
	return &cfg
}

// Load reads configuration from defaults, an optional contextmap.yaml and
// CONTEXTMAP_* environment variables. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("contextmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir)
	}

	v.SetEnvPrefix("CONTEXTMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Rings) == 0 {
		cfg.Rings = DefaultRings()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the renderer cannot honour
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return eris.Errorf("config: canvas must be positive, got %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Zoom.MinScale <= 0 || c.Zoom.MaxScale < c.Zoom.MinScale {
		return eris.Errorf("config: invalid zoom extent [%g, %g]", c.Zoom.MinScale, c.Zoom.MaxScale)
	}
	if c.Zoom.ReferenceScale <= 0 {
		return eris.New("config: reference scale must be positive")
	}
	for _, r := range c.Rings {
		if r.Radius < 0 || r.Opacity < 0 || r.Opacity > 1 {
			return eris.Errorf("config: invalid ring tier %d", r.Tier)
		}
	}
	return nil
}

// MarkerSource returns the marker dataset for the configured element type
func (c *Config) MarkerSource() string {
	if c.ElementType == "people" {
		return c.Sources.People
	}
	return c.Sources.Places
}
