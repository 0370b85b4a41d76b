package city

import (
	"fmt"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// RailType is the kind of rail infrastructure in a chunk.
type RailType uint8

const (
	RailNone RailType = iota
	RailHorizontal
	RailVertical
	RailThreeSplit
	RailDoubleBend
	RailStationSurface
	RailStationUnderground
	RailStationExtension
	RailGoingDown
)

var railTypeNames = [...]string{
	"none", "horizontal", "vertical", "three_split", "double_bend",
	"station_surface", "station_underground", "station_extension", "going_down",
}

func (t RailType) String() string {
	if int(t) < len(railTypeNames) {
		return railTypeNames[t]
	}
	return "unknown"
}

// MarshalText encodes the rail type by name.
func (t RailType) MarshalText() ([]byte, error) {
	if int(t) >= len(railTypeNames) {
		return nil, fmt.Errorf("city: unknown rail type %d", t)
	}
	return []byte(railTypeNames[t]), nil
}

// UnmarshalText decodes a rail type name.
func (t *RailType) UnmarshalText(text []byte) error {
	for i, name := range railTypeNames {
		if name == string(text) {
			*t = RailType(i)
			return nil
		}
	}
	return fmt.Errorf("city: unknown rail type %q", text)
}

// Surface reports rails running at ground level.
func (t RailType) Surface() bool { return t == RailStationSurface }

// Station reports any station part.
func (t RailType) Station() bool {
	return t == RailStationSurface || t == RailStationUnderground || t == RailStationExtension
}

// RailInfo describes the rail in a chunk. Level is counted in floors.
type RailInfo struct {
	Type  RailType `yaml:"type"`
	Level int      `yaml:"level"`
}

// Metadata answers per-chunk questions the solver needs. Implementations
// must be safe for concurrent use and deterministic.
type Metadata interface {
	// Style returns the name of the city style owning the chunk, or "" when
	// none applies.
	Style(c world.ChunkPos) string
	// Occupied reports chunks already claimed by another structure.
	Occupied(c world.ChunkPos) bool
	IsCity(c world.ChunkPos) bool
	Highway(c world.ChunkPos) bool
	Rail(c world.ChunkPos) RailInfo
	// CityLevel returns the city floor level used for cellar budgeting.
	CityLevel(c world.ChunkPos) int
}

// ChunkInfo is the metadata of one chunk.
type ChunkInfo struct {
	Style     string   `yaml:"style"`
	Occupied  bool     `yaml:"occupied"`
	City      bool     `yaml:"city"`
	Highway   bool     `yaml:"highway"`
	Rail      RailInfo `yaml:"rail,omitempty"`
	CityLevel int      `yaml:"city_level"`
}

// MapMetadata serves Default for every chunk not listed in Chunks. It must
// not be modified once in use.
type MapMetadata struct {
	Default ChunkInfo
	Chunks  map[world.ChunkPos]ChunkInfo
}

func (m *MapMetadata) info(c world.ChunkPos) ChunkInfo {
	if ci, ok := m.Chunks[c]; ok {
		return ci
	}
	return m.Default
}

func (m *MapMetadata) Style(c world.ChunkPos) string  { return m.info(c).Style }
func (m *MapMetadata) Occupied(c world.ChunkPos) bool { return m.info(c).Occupied }
func (m *MapMetadata) IsCity(c world.ChunkPos) bool   { return m.info(c).City }
func (m *MapMetadata) Highway(c world.ChunkPos) bool  { return m.info(c).Highway }
func (m *MapMetadata) Rail(c world.ChunkPos) RailInfo { return m.info(c).Rail }
func (m *MapMetadata) CityLevel(c world.ChunkPos) int { return m.info(c).CityLevel }
