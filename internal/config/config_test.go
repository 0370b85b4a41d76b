package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "citygen.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Generator != GeneratorNoise {
		t.Errorf("Generator = %q, want %q", cfg.Generator, GeneratorNoise)
	}
	if got := cfg.TerrainSettings().MaxY(); got != 320 {
		t.Errorf("MaxY = %d, want 320", got)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
seed: 42
radius: 2
terrain:
  min_y: 0
  height: 256
  sea_level: 62
  aquifers: false
city:
  area_size: 4
  minimum: 0
  maximum: 2
  attempts: 3
  correct_style_factor: 0.25
  rail_part_height: 1
chunks:
  style: harbor
  city: true
  city_level: 1
  rail: {type: station_underground, level: -2}
area_cache:
  size: 32
  ttl: 90s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 42 || cfg.Radius != 2 {
		t.Errorf("seed/radius = %d/%d, want 42/2", cfg.Seed, cfg.Radius)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Workers)
	}
	ts := cfg.TerrainSettings()
	if ts.MinY != 0 || ts.MaxY() != 256 || ts.AquifersEnabled {
		t.Errorf("terrain = %+v", ts)
	}
	if cfg.City.AreaSize != 4 || cfg.City.CorrectStyleFactor != 0.25 {
		t.Errorf("city = %+v", cfg.City)
	}
	if cfg.Chunks.Style != "harbor" || cfg.Chunks.CityLevel != 1 {
		t.Errorf("chunks = %+v", cfg.Chunks)
	}
	if rail := cfg.Chunks.Rail; rail.Type.String() != "station_underground" || rail.Level != -2 {
		t.Errorf("rail = %v/%d, want station_underground/-2", rail.Type, rail.Level)
	}
	if cfg.AreaCache.TTL != 90*time.Second {
		t.Errorf("TTL = %v, want 90s", cfg.AreaCache.TTL)
	}
	if cfg.Buildings.FloorHeight != 6 {
		t.Errorf("FloorHeight = %d, want default 6", cfg.Buildings.FloorHeight)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"generator", "generator: caves\n"},
		{"workers", "workers: 0\n"},
		{"log level", "log_level: loud\n"},
		{"cell height", "terrain: {min_y: -64, height: 100, sea_level: 63}\n"},
		{"min y off section", "terrain: {min_y: -8, height: 128, sea_level: 63}\n"},
		{"height off section", "terrain: {min_y: 0, height: 120, sea_level: 63}\n"},
		{"city range", "city: {area_size: 4, minimum: 3, maximum: 1}\n"},
		{"syntax", "seed: [\n"},
		{"rail type", "chunks: {rail: {type: monorail}}\n"},
	}
	for _, tt := range tests {
		if _, err := Load(writeFile(t, tt.body)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestMergeKeepsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Workers = 16

	fromFile := DefaultConfig()
	fromFile.Seed = 99
	fromFile.Workers = 2
	fromFile.Radius = 9
	fromFile.City.AreaSize = 12

	Merge(cfg, fromFile, map[string]bool{"seed": true})

	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want explicit 7", cfg.Seed)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want file value 2", cfg.Workers)
	}
	if cfg.Radius != 9 {
		t.Errorf("Radius = %d, want file value 9", cfg.Radius)
	}
	if cfg.City.AreaSize != 12 {
		t.Errorf("City.AreaSize = %d, want file value 12", cfg.City.AreaSize)
	}
}
