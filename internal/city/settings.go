// Package city decides which multi-chunk buildings occupy an area of
// chunks. Areas are computed lazily from per-chunk metadata, never from
// terrain, and shared across generation workers.
package city

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStyle is returned when a chunk has no resolvable city style.
	ErrUnknownStyle = errors.New("city: unknown city style")
	// ErrUnknownMultiBuilding is returned for unresolved multi-building ids.
	ErrUnknownMultiBuilding = errors.New("city: unknown multi building")
	// ErrUnknownBuilding is returned for unresolved building ids.
	ErrUnknownBuilding = errors.New("city: unknown building")
	// ErrInvalidTemplate is returned for malformed registry entries.
	ErrInvalidTemplate = errors.New("city: invalid template")
)

// Settings controls multi-building placement.
type Settings struct {
	// AreaSize is the side of an area in chunks.
	AreaSize int `yaml:"area_size"`
	// Minimum and Maximum bound the number of multi buildings per area.
	Minimum int `yaml:"minimum"`
	Maximum int `yaml:"maximum"`
	// Attempts is the number of random offsets tried per multi building.
	Attempts int `yaml:"attempts"`
	// CorrectStyleFactor is the share of covered chunks that must carry the
	// style the building was picked for.
	CorrectStyleFactor float64 `yaml:"correct_style_factor"`
	// RailPartHeight is the height of an underground rail part in floors.
	RailPartHeight int `yaml:"rail_part_height"`
}

// DefaultSettings returns the placement defaults.
func DefaultSettings() Settings {
	return Settings{
		AreaSize:           8,
		Minimum:            1,
		Maximum:            3,
		Attempts:           4,
		CorrectStyleFactor: 0.5,
		RailPartHeight:     1,
	}
}

// Validate reports settings the solver cannot run with.
func (s Settings) Validate() error {
	switch {
	case s.AreaSize <= 0:
		return fmt.Errorf("city: area size %d must be positive", s.AreaSize)
	case s.Minimum < 0 || s.Maximum < s.Minimum:
		return fmt.Errorf("city: building count range [%d,%d] is invalid", s.Minimum, s.Maximum)
	case s.Attempts < 0:
		return fmt.Errorf("city: attempts %d must not be negative", s.Attempts)
	case s.CorrectStyleFactor < 0 || s.CorrectStyleFactor > 1:
		return fmt.Errorf("city: correct style factor %v outside [0,1]", s.CorrectStyleFactor)
	}
	return nil
}
