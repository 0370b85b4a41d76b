package terrain

import (
	"fmt"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Settings describes the density lattice and fluids of a dimension.
type Settings struct {
	MinY       int
	Height     int
	CellWidth  int
	CellHeight int
	SeaLevel   int
	// AquifersEnabled selects noise aquifers; otherwise every non-solid
	// point takes the global fluid.
	AquifersEnabled bool
	DefaultBlock    world.Block
	DefaultFluid    world.Block
}

// DefaultSettings returns overworld settings: y in [-64, 320), 4×8 cells,
// sea level 63.
func DefaultSettings() Settings {
	return Settings{
		MinY:            -64,
		Height:          384,
		CellWidth:       4,
		CellHeight:      8,
		SeaLevel:        63,
		AquifersEnabled: true,
		DefaultBlock:    world.Stone,
		DefaultFluid:    world.Water,
	}
}

// Validate reports settings the lattice cannot be built from.
func (s Settings) Validate() error {
	switch {
	case s.CellWidth <= 0 || world.ChunkWidth%s.CellWidth != 0:
		return fmt.Errorf("terrain: cell width %d must divide %d", s.CellWidth, world.ChunkWidth)
	case s.CellHeight <= 0 || s.Height%s.CellHeight != 0:
		return fmt.Errorf("terrain: cell height %d must divide height %d", s.CellHeight, s.Height)
	case s.MinY%s.CellHeight != 0:
		return fmt.Errorf("terrain: min y %d is not cell aligned", s.MinY)
	case s.MinY%world.SectionHeight != 0 || s.Height <= 0 || s.Height%world.SectionHeight != 0:
		return fmt.Errorf("terrain: build range [%d,%d) is not a whole number of %d-block sections",
			s.MinY, s.MaxY(), world.SectionHeight)
	case s.DefaultBlock.IsNone():
		return fmt.Errorf("terrain: default block is not set")
	}
	return nil
}

// MaxY returns the exclusive upper build limit.
func (s Settings) MaxY() int { return s.MinY + s.Height }
