package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// ErrNotInterpolating is returned or raised when interpolation is started
// twice, stopped while idle, or an interpolated node is sampled outside the
// interpolation loop.
var ErrNotInterpolating = errors.New("terrain: not interpolating")

// surfaceThreshold is the initial density above which a point counts as
// preliminary surface.
const surfaceThreshold = 0.390625

// NoiseChunk evaluates a router over a lattice of coarse cells covering
// cellCountXZ² columns. It is itself the evaluation context of the wrapped
// functions and is not safe for concurrent use.
//
// The interpolation loop is:
//
//	StartInterpolation
//	for each cell x: AdvanceCellX, then for each cell z and y:
//	    SelectCellYZ, then UpdateForY / UpdateForX / UpdateForZ per block
//	    and InterpolatedState
//	  SwapSlices
//	StopInterpolation
type NoiseChunk struct {
	settings    Settings
	cellWidth   int
	cellHeight  int
	cellCountXZ int
	cellCountY  int
	cellMinY    int
	firstCellX  int
	firstCellZ  int
	firstNoiseX int
	firstNoiseZ int
	noiseSizeXZ int

	interpolators []*interpolator
	cellCaches    []*cacheAllInCell
	router        *density.Router
	final         density.Function
	beardifier    density.Function
	fluid         FluidPicker
	aquifer       Aquifer
	preliminary   map[[2]int]int

	interpolating   bool
	fillingCell     bool
	cellStartBlockX int
	cellStartBlockY int
	cellStartBlockZ int
	inCellX         int
	inCellY         int
	inCellZ         int
	// interpolationCounter changes for every evaluated point,
	// arrayInterpolationCounter for every batch fill.
	interpolationCounter      int64
	arrayInterpolationCounter int64
	arrayIndex                int
	slices                    sliceFiller
}

// NewNoiseChunk creates the lattice of cellCountXZ² cells whose first block
// is (firstBlockX, firstBlockZ), wrapping the sampler's router with
// stateful caching nodes.
func (s *Sampler) NewNoiseChunk(cellCountXZ, firstBlockX, firstBlockZ int) *NoiseChunk {
	st := s.settings
	nc := &NoiseChunk{
		settings:    st,
		cellWidth:   st.CellWidth,
		cellHeight:  st.CellHeight,
		cellCountXZ: cellCountXZ,
		cellCountY:  world.FloorDiv(st.Height, st.CellHeight),
		cellMinY:    world.FloorDiv(st.MinY, st.CellHeight),
		firstCellX:  world.FloorDiv(firstBlockX, st.CellWidth),
		firstCellZ:  world.FloorDiv(firstBlockZ, st.CellWidth),
		firstNoiseX: firstBlockX >> 2,
		firstNoiseZ: firstBlockZ >> 2,
		noiseSizeXZ: (cellCountXZ * st.CellWidth) >> 2,
		beardifier:  s.beardifier,
		fluid:       s.fluid,
		preliminary: make(map[[2]int]int),
	}
	nc.slices = sliceFiller{nc: nc}

	m := density.NewMapper(nc.wrap)
	nc.router = s.router.MapWith(m)
	nc.final = m.Map(&density.Marker{
		Kind:    density.CacheAllInCell,
		Wrapped: &density.TwoArg{Op: density.OpAdd, A: s.router.FinalDensity, B: density.Beardifier},
	})

	if st.AquifersEnabled {
		pos := world.ChunkPos{X: firstBlockX >> 4, Z: firstBlockZ >> 4}
		nc.aquifer = newNoiseAquifer(nc, pos, s.aquiferRandom)
	} else {
		nc.aquifer = disabledAquifer{fluid: s.fluid}
	}
	return nc
}

func (nc *NoiseChunk) BlockX() int { return nc.cellStartBlockX + nc.inCellX }
func (nc *NoiseChunk) BlockY() int { return nc.cellStartBlockY + nc.inCellY }
func (nc *NoiseChunk) BlockZ() int { return nc.cellStartBlockZ + nc.inCellZ }

// ForIndex positions the chunk on the i-th point of a cell fill.
func (nc *NoiseChunk) ForIndex(i int) density.Context {
	z := world.FloorMod(i, nc.cellWidth)
	j := world.FloorDiv(i, nc.cellWidth)
	nc.inCellX = world.FloorMod(j, nc.cellWidth)
	nc.inCellY = nc.cellHeight - 1 - world.FloorDiv(j, nc.cellWidth)
	nc.inCellZ = z
	nc.arrayIndex = i
	return nc
}

// FillAllDirectly evaluates f for every point of the selected cell, y from
// the top, then x, then z.
func (nc *NoiseChunk) FillAllDirectly(values []float64, f density.Function) {
	nc.arrayIndex = 0
	for y := nc.cellHeight - 1; y >= 0; y-- {
		nc.inCellY = y
		for x := range nc.cellWidth {
			nc.inCellX = x
			for z := range nc.cellWidth {
				nc.inCellZ = z
				nc.interpolationCounter++
				values[nc.arrayIndex] = f.Compute(nc)
				nc.arrayIndex++
			}
		}
	}
}

// sliceFiller evaluates the lattice corners of one column of cells.
type sliceFiller struct {
	nc *NoiseChunk
}

func (s sliceFiller) ForIndex(i int) density.Context {
	nc := s.nc
	nc.cellStartBlockY = (i + nc.cellMinY) * nc.cellHeight
	nc.interpolationCounter++
	nc.inCellY = 0
	nc.arrayIndex = i
	return nc
}

func (s sliceFiller) FillAllDirectly(values []float64, f density.Function) {
	for i := range values {
		values[i] = f.Compute(s.ForIndex(i))
	}
}

func (nc *NoiseChunk) fillSlice(first bool, cellX int) {
	nc.cellStartBlockX = cellX * nc.cellWidth
	nc.inCellX = 0
	for i := 0; i <= nc.cellCountXZ; i++ {
		nc.cellStartBlockZ = (nc.firstCellZ + i) * nc.cellWidth
		nc.inCellZ = 0
		nc.arrayInterpolationCounter++
		for _, it := range nc.interpolators {
			slice := it.slice1
			if first {
				slice = it.slice0
			}
			it.fn.FillArray(slice[i], nc.slices)
		}
	}
	nc.arrayInterpolationCounter++
}

// StartInterpolation fills the first x slice.
func (nc *NoiseChunk) StartInterpolation() error {
	if nc.interpolating {
		return fmt.Errorf("start interpolation twice: %w", ErrNotInterpolating)
	}
	nc.interpolating = true
	nc.fillSlice(true, nc.firstCellX)
	return nil
}

// AdvanceCellX fills the far slice of cell column i.
func (nc *NoiseChunk) AdvanceCellX(i int) {
	nc.fillSlice(false, nc.firstCellX+i+1)
	nc.cellStartBlockX = (nc.firstCellX + i) * nc.cellWidth
}

// SelectCellYZ loads the 8 corners of cell (y, z) of the current column
// and refills the per-cell caches.
func (nc *NoiseChunk) SelectCellYZ(y, z int) {
	for _, it := range nc.interpolators {
		it.selectCellYZ(y, z)
	}
	nc.fillingCell = true
	nc.cellStartBlockY = (y + nc.cellMinY) * nc.cellHeight
	nc.cellStartBlockZ = (nc.firstCellZ + z) * nc.cellWidth
	nc.arrayInterpolationCounter++
	for _, c := range nc.cellCaches {
		c.fn.FillArray(c.values, nc)
	}
	nc.arrayInterpolationCounter++
	nc.fillingCell = false
}

// UpdateForY moves to block y at fraction t of the cell height.
func (nc *NoiseChunk) UpdateForY(y int, t float64) {
	nc.inCellY = y - nc.cellStartBlockY
	for _, it := range nc.interpolators {
		it.updateForY(t)
	}
}

// UpdateForX moves to block x at fraction t of the cell width.
func (nc *NoiseChunk) UpdateForX(x int, t float64) {
	nc.inCellX = x - nc.cellStartBlockX
	for _, it := range nc.interpolators {
		it.updateForX(t)
	}
}

// UpdateForZ moves to block z at fraction t of the cell width.
func (nc *NoiseChunk) UpdateForZ(z int, t float64) {
	nc.inCellZ = z - nc.cellStartBlockZ
	nc.interpolationCounter++
	for _, it := range nc.interpolators {
		it.updateForZ(t)
	}
}

// SwapSlices makes the far slice the near one before advancing.
func (nc *NoiseChunk) SwapSlices() {
	for _, it := range nc.interpolators {
		it.slice0, it.slice1 = it.slice1, it.slice0
	}
}

// StopInterpolation ends the loop started by StartInterpolation.
func (nc *NoiseChunk) StopInterpolation() error {
	if !nc.interpolating {
		return fmt.Errorf("stop interpolation: %w", ErrNotInterpolating)
	}
	nc.interpolating = false
	return nil
}

// InterpolatedState returns the block at the current position: the default
// block where the density is solid, otherwise what the aquifer puts there.
func (nc *NoiseChunk) InterpolatedState() world.Block {
	b := nc.aquifer.ComputeSubstance(nc, nc.final.Compute(nc))
	if b.IsNone() {
		return nc.settings.DefaultBlock
	}
	return b
}

// PreliminarySurfaceLevel returns the highest cell-aligned y whose initial
// density exceeds the surface threshold, memoized per quart column, or
// math.MaxInt32 when no such y exists.
func (nc *NoiseChunk) PreliminarySurfaceLevel(x, z int) int {
	key := [2]int{(x >> 2) << 2, (z >> 2) << 2}
	if level, ok := nc.preliminary[key]; ok {
		return level
	}
	level := nc.computePreliminarySurfaceLevel(key[0], key[1])
	nc.preliminary[key] = level
	return level
}

func (nc *NoiseChunk) computePreliminarySurfaceLevel(x, z int) int {
	minY := nc.settings.MinY
	for y := minY + nc.settings.Height; y >= minY; y -= nc.cellHeight {
		if nc.router.InitialDensityWithoutJaggedness.Compute(density.Point{X: x, Y: y, Z: z}) > surfaceThreshold {
			return y
		}
	}
	return math.MaxInt32
}

func (nc *NoiseChunk) wrap(f density.Function) density.Function {
	if f == density.Beardifier {
		return nc.beardifier
	}
	m, ok := f.(*density.Marker)
	if !ok {
		return f
	}
	switch m.Kind {
	case density.Interpolated:
		it := &interpolator{
			nc:     nc,
			fn:     m.Wrapped,
			slice0: allocateSlice(nc.cellCountY, nc.cellCountXZ),
			slice1: allocateSlice(nc.cellCountY, nc.cellCountXZ),
		}
		nc.interpolators = append(nc.interpolators, it)
		return it
	case density.FlatCache:
		return newFlatCache(nc, m.Wrapped)
	case density.Cache2D:
		return &cache2D{fn: m.Wrapped}
	case density.CacheOnce:
		return &cacheOnce{nc: nc, fn: m.Wrapped, lastCounter: -1}
	case density.CacheAllInCell:
		c := &cacheAllInCell{
			nc:     nc,
			fn:     m.Wrapped,
			values: make([]float64, nc.cellWidth*nc.cellWidth*nc.cellHeight),
		}
		nc.cellCaches = append(nc.cellCaches, c)
		return c
	default:
		return m.Wrapped
	}
}

func allocateSlice(cellCountY, cellCountXZ int) [][]float64 {
	s := make([][]float64, cellCountXZ+1)
	for i := range s {
		s[i] = make([]float64, cellCountY+1)
	}
	return s
}
