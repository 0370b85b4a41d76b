// Package config holds the citygen configuration, loaded from YAML and
// overridden by command line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/lostcities/internal/city"
	"github.com/OCharnyshevich/lostcities/internal/terrain"
	"github.com/OCharnyshevich/lostcities/internal/world/gen"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Generator types.
const (
	GeneratorNoise = "noise"
	GeneratorFlat  = "flat"
)

// Config holds the generation configuration.
type Config struct {
	Seed      int64  `yaml:"seed"`
	Generator string `yaml:"generator"` // "noise" or "flat"
	Dimension string `yaml:"dimension"`
	// CenterX, CenterZ and Radius select the square of chunks to generate.
	CenterX  int    `yaml:"center_x"`
	CenterZ  int    `yaml:"center_z"`
	Radius   int    `yaml:"radius"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`

	// RouterFile and RegistryFile are YAML documents; an empty router uses
	// the built-in one and an empty registry disables cities.
	RouterFile   string `yaml:"router_file"`
	RegistryFile string `yaml:"registry_file"`

	Terrain   TerrainConfig   `yaml:"terrain"`
	City      city.Settings   `yaml:"city"`
	Buildings gen.Options     `yaml:"buildings"`
	Chunks    city.ChunkInfo  `yaml:"chunks"`
	AreaCache AreaCacheConfig `yaml:"area_cache"`
}

// TerrainConfig is the YAML form of terrain.Settings.
type TerrainConfig struct {
	MinY     int  `yaml:"min_y"`
	Height   int  `yaml:"height"`
	SeaLevel int  `yaml:"sea_level"`
	Aquifers bool `yaml:"aquifers"`
}

// AreaCacheConfig sizes the shared multi-building area cache.
type AreaCacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	ts := terrain.DefaultSettings()
	return &Config{
		Generator: GeneratorNoise,
		Dimension: world.Overworld,
		Radius:    4,
		Workers:   4,
		LogLevel:  "info",
		Terrain: TerrainConfig{
			MinY:     ts.MinY,
			Height:   ts.Height,
			SeaLevel: ts.SeaLevel,
			Aquifers: ts.AquifersEnabled,
		},
		City:      city.DefaultSettings(),
		Buildings: gen.DefaultOptions(),
		Chunks:    city.ChunkInfo{Style: "default", City: true},
		AreaCache: AreaCacheConfig{Size: 256, TTL: 10 * time.Minute},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports invalid settings.
func (c *Config) Validate() error {
	switch c.Generator {
	case GeneratorNoise, GeneratorFlat:
	default:
		return fmt.Errorf("config: unknown generator %q", c.Generator)
	}
	if c.Dimension == "" {
		return fmt.Errorf("config: dimension must be set")
	}
	if c.Radius < 0 {
		return fmt.Errorf("config: radius %d must not be negative", c.Radius)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers %d must be positive", c.Workers)
	}
	if c.AreaCache.Size <= 0 {
		return fmt.Errorf("config: area_cache.size %d must be positive", c.AreaCache.Size)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.TerrainSettings().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.City.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// TerrainSettings returns the sampler settings.
func (c *Config) TerrainSettings() terrain.Settings {
	ts := terrain.DefaultSettings()
	ts.MinY = c.Terrain.MinY
	ts.Height = c.Terrain.Height
	ts.SeaLevel = c.Terrain.SeaLevel
	ts.AquifersEnabled = c.Terrain.Aquifers
	return ts
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return l, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["generator"] {
		cfg.Generator = fromFile.Generator
	}
	if !explicitFlags["dimension"] {
		cfg.Dimension = fromFile.Dimension
	}
	if !explicitFlags["center-x"] {
		cfg.CenterX = fromFile.CenterX
	}
	if !explicitFlags["center-z"] {
		cfg.CenterZ = fromFile.CenterZ
	}
	if !explicitFlags["radius"] {
		cfg.Radius = fromFile.Radius
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicitFlags["router"] {
		cfg.RouterFile = fromFile.RouterFile
	}
	if !explicitFlags["registry"] {
		cfg.RegistryFile = fromFile.RegistryFile
	}
	// Nested sections have no flags.
	cfg.Terrain = fromFile.Terrain
	cfg.City = fromFile.City
	cfg.Buildings = fromFile.Buildings
	cfg.Chunks = fromFile.Chunks
	cfg.AreaCache = fromFile.AreaCache
}
