package terrain

import "github.com/OCharnyshevich/lostcities/pkg/world"

// lavaLevel is the y below which the global fluid is lava.
const lavaLevel = -54

// FluidStatus is a fluid body: Fluid fills every y below Level.
type FluidStatus struct {
	Level int
	Fluid world.Block
}

// At returns the fluid at y, or air at and above the surface.
func (s FluidStatus) At(y int) world.Block {
	if y < s.Level {
		return s.Fluid
	}
	return world.Air
}

// FluidPicker returns the global fluid status of a position.
type FluidPicker func(x, y, z int) FluidStatus

// NewFluidPicker returns the picker of s: lava below min(-54, sea level),
// the default fluid up to sea level above it.
func NewFluidPicker(s Settings) FluidPicker {
	lava := FluidStatus{Level: lavaLevel, Fluid: world.Lava}
	sea := FluidStatus{Level: s.SeaLevel, Fluid: s.DefaultFluid}
	limit := min(lavaLevel, s.SeaLevel)
	return func(_, y, _ int) FluidStatus {
		if y < limit {
			return lava
		}
		return sea
	}
}
