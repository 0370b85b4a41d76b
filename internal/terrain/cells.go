package terrain

import (
	"fmt"

	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
)

func notInterpolating(what string) error {
	return fmt.Errorf("sample %s outside the interpolation loop: %w", what, ErrNotInterpolating)
}

// interpolator holds the corner values of two x slices and interpolates
// between them as the position advances.
type interpolator struct {
	nc     *NoiseChunk
	fn     density.Function
	slice0 [][]float64 // [z][y]
	slice1 [][]float64

	noise000, noise001, noise100, noise101 float64
	noise010, noise011, noise110, noise111 float64

	valueXZ00, valueXZ10, valueXZ01, valueXZ11 float64
	valueZ0, valueZ1                           float64
	value                                      float64
}

func (it *interpolator) selectCellYZ(y, z int) {
	it.noise000 = it.slice0[z][y]
	it.noise001 = it.slice0[z+1][y]
	it.noise100 = it.slice1[z][y]
	it.noise101 = it.slice1[z+1][y]
	it.noise010 = it.slice0[z][y+1]
	it.noise011 = it.slice0[z+1][y+1]
	it.noise110 = it.slice1[z][y+1]
	it.noise111 = it.slice1[z+1][y+1]
}

func (it *interpolator) updateForY(t float64) {
	it.valueXZ00 = density.Lerp(t, it.noise000, it.noise010)
	it.valueXZ10 = density.Lerp(t, it.noise100, it.noise110)
	it.valueXZ01 = density.Lerp(t, it.noise001, it.noise011)
	it.valueXZ11 = density.Lerp(t, it.noise101, it.noise111)
}

func (it *interpolator) updateForX(t float64) {
	it.valueZ0 = density.Lerp(t, it.valueXZ00, it.valueXZ10)
	it.valueZ1 = density.Lerp(t, it.valueXZ01, it.valueXZ11)
}

func (it *interpolator) updateForZ(t float64) {
	it.value = density.Lerp(t, it.valueZ0, it.valueZ1)
}

func (it *interpolator) Compute(ctx density.Context) float64 {
	nc := it.nc
	if ctx != nc {
		return it.fn.Compute(ctx)
	}
	if !nc.interpolating {
		panic(notInterpolating("interpolator"))
	}
	if !nc.fillingCell {
		return it.value
	}
	return density.Lerp3(
		float64(nc.inCellX)/float64(nc.cellWidth),
		float64(nc.inCellY)/float64(nc.cellHeight),
		float64(nc.inCellZ)/float64(nc.cellWidth),
		it.noise000, it.noise100, it.noise010, it.noise110,
		it.noise001, it.noise101, it.noise011, it.noise111,
	)
}

func (it *interpolator) FillArray(values []float64, p density.Provider) {
	if it.nc.fillingCell {
		p.FillAllDirectly(values, it)
		return
	}
	it.fn.FillArray(values, p)
}

func (it *interpolator) MapChildren(func(density.Function) density.Function) density.Function {
	return it
}

// cacheAllInCell evaluates its function once per block of the selected cell.
type cacheAllInCell struct {
	nc     *NoiseChunk
	fn     density.Function
	values []float64
}

func (c *cacheAllInCell) Compute(ctx density.Context) float64 {
	nc := c.nc
	if ctx != nc {
		return c.fn.Compute(ctx)
	}
	if !nc.interpolating {
		panic(notInterpolating("cell cache"))
	}
	x, y, z := nc.inCellX, nc.inCellY, nc.inCellZ
	if x < 0 || y < 0 || z < 0 || x >= nc.cellWidth || y >= nc.cellHeight || z >= nc.cellWidth {
		return c.fn.Compute(ctx)
	}
	return c.values[((nc.cellHeight-1-y)*nc.cellWidth+x)*nc.cellWidth+z]
}

func (c *cacheAllInCell) FillArray(values []float64, p density.Provider) {
	p.FillAllDirectly(values, c)
}

func (c *cacheAllInCell) MapChildren(func(density.Function) density.Function) density.Function {
	return c
}

// cache2D remembers the value of the last column.
type cache2D struct {
	fn    density.Function
	has   bool
	lastX int
	lastZ int
	last  float64
}

func (c *cache2D) Compute(ctx density.Context) float64 {
	x, z := ctx.BlockX(), ctx.BlockZ()
	if c.has && c.lastX == x && c.lastZ == z {
		return c.last
	}
	c.has, c.lastX, c.lastZ = true, x, z
	c.last = c.fn.Compute(ctx)
	return c.last
}

func (c *cache2D) FillArray(values []float64, p density.Provider) {
	c.fn.FillArray(values, p)
}

func (c *cache2D) MapChildren(func(density.Function) density.Function) density.Function {
	return c
}

// cacheOnce remembers the last point and the last batch fill of the chunk.
type cacheOnce struct {
	nc               *NoiseChunk
	fn               density.Function
	lastCounter      int64
	lastArrayCounter int64
	lastValue        float64
	lastArray        []float64
}

func (c *cacheOnce) Compute(ctx density.Context) float64 {
	nc := c.nc
	switch {
	case ctx != nc:
		return c.fn.Compute(ctx)
	case c.lastArray != nil && c.lastArrayCounter == nc.arrayInterpolationCounter:
		return c.lastArray[nc.arrayIndex]
	case c.lastCounter == nc.interpolationCounter:
		return c.lastValue
	}
	c.lastCounter = nc.interpolationCounter
	c.lastValue = c.fn.Compute(ctx)
	return c.lastValue
}

func (c *cacheOnce) FillArray(values []float64, p density.Provider) {
	nc := c.nc
	if c.lastArray != nil && c.lastArrayCounter == nc.arrayInterpolationCounter {
		copy(values, c.lastArray)
		return
	}
	c.fn.FillArray(values, p)
	if len(c.lastArray) != len(values) {
		c.lastArray = make([]float64, len(values))
	}
	copy(c.lastArray, values)
	c.lastArrayCounter = nc.arrayInterpolationCounter
}

func (c *cacheOnce) MapChildren(func(density.Function) density.Function) density.Function {
	return c
}

// flatCache precomputes its function on the quart grid of the chunk at y=0.
// Points outside the chunk are snapped to the same grid, so the value only
// depends on the quart column.
type flatCache struct {
	nc     *NoiseChunk
	fn     density.Function
	values [][]float64
}

func newFlatCache(nc *NoiseChunk, fn density.Function) *flatCache {
	c := &flatCache{nc: nc, fn: fn, values: make([][]float64, nc.noiseSizeXZ+1)}
	for i := range c.values {
		c.values[i] = make([]float64, nc.noiseSizeXZ+1)
		x := (nc.firstNoiseX + i) << 2
		for j := range c.values[i] {
			z := (nc.firstNoiseZ + j) << 2
			c.values[i][j] = fn.Compute(density.Point{X: x, Z: z})
		}
	}
	return c
}

func (c *flatCache) Compute(ctx density.Context) float64 {
	i := ctx.BlockX()>>2 - c.nc.firstNoiseX
	j := ctx.BlockZ()>>2 - c.nc.firstNoiseZ
	if i >= 0 && j >= 0 && i < len(c.values) && j < len(c.values) {
		return c.values[i][j]
	}
	return c.fn.Compute(density.Point{X: ctx.BlockX() >> 2 << 2, Z: ctx.BlockZ() >> 2 << 2})
}

func (c *flatCache) FillArray(values []float64, p density.Provider) {
	p.FillAllDirectly(values, c)
}

func (c *flatCache) MapChildren(func(density.Function) density.Function) density.Function {
	return c
}
