package terrain

import (
	"math"

	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
	"github.com/OCharnyshevich/lostcities/internal/terrain/noise"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Aquifer decides what fills the non-solid points of the density field.
type Aquifer interface {
	// ComputeSubstance returns the block at ctx for density value d, or
	// world.None where the point is solid.
	ComputeSubstance(ctx density.Context, d float64) world.Block
}

// disabledAquifer fills every non-solid point with the global fluid.
type disabledAquifer struct {
	fluid FluidPicker
}

func (a disabledAquifer) ComputeSubstance(ctx density.Context, d float64) world.Block {
	if d > 0 {
		return world.None
	}
	x, y, z := ctx.BlockX(), ctx.BlockY(), ctx.BlockZ()
	return a.fluid(x, y, z).At(y)
}

// Anchor grid spacing and jitter range per axis.
const (
	gridX   = 16
	gridY   = 12
	gridZ   = 16
	jitterX = 10
	jitterY = 9
	jitterZ = 10

	// wayBelowMinY is the level of an aquifer that holds no fluid.
	wayBelowMinY = -32512
)

// surfaceSamplingOffsets are the chunk offsets probed for surface levels
// around an anchor.
var surfaceSamplingOffsets = [...][2]int{
	{0, 0}, {-2, -1}, {-1, -1}, {0, -1}, {1, -1}, {-3, 0}, {-2, 0}, {-1, 0}, {1, 0}, {-2, 1}, {-1, 1}, {0, 1}, {1, 1},
}

// Similarity compares the squared distances of two anchors: 1 when equal,
// falling linearly to 0 at a difference of 25.
func Similarity(d1, d2 int) float64 {
	diff := d2 - d1
	if diff < 0 {
		diff = -diff
	}
	return 1.0 - float64(diff)/25.0
}

// noiseAquifer places separate fluid bodies around jittered anchors and
// keeps barriers between bodies of different levels.
type noiseAquifer struct {
	nc        *NoiseChunk
	router    *density.Router
	random    noise.PositionalRandom
	anchors   []world.BlockPos
	located   []bool
	statuses  []*FluidStatus
	minGridX  int
	minGridY  int
	minGridZ  int
	gridSizeX int
	gridSizeZ int
}

func newNoiseAquifer(nc *NoiseChunk, pos world.ChunkPos, random noise.PositionalRandom) *noiseAquifer {
	st := nc.settings
	a := &noiseAquifer{nc: nc, router: nc.router, random: random}

	a.minGridX = world.FloorDiv(pos.MinBlockX(), gridX) - 1
	maxGridX := world.FloorDiv(pos.MinBlockX()+world.ChunkWidth-1, gridX) + 1
	a.gridSizeX = maxGridX - a.minGridX + 1

	a.minGridY = world.FloorDiv(st.MinY, gridY) - 1
	maxGridY := world.FloorDiv(st.MaxY(), gridY) + 1
	gridSizeY := maxGridY - a.minGridY + 1

	a.minGridZ = world.FloorDiv(pos.MinBlockZ(), gridZ) - 1
	maxGridZ := world.FloorDiv(pos.MinBlockZ()+world.ChunkWidth-1, gridZ) + 1
	a.gridSizeZ = maxGridZ - a.minGridZ + 1

	n := a.gridSizeX * gridSizeY * a.gridSizeZ
	a.anchors = make([]world.BlockPos, n)
	a.located = make([]bool, n)
	a.statuses = make([]*FluidStatus, n)
	return a
}

func (a *noiseAquifer) index(gx, gy, gz int) int {
	x := gx - a.minGridX
	y := gy - a.minGridY
	z := gz - a.minGridZ
	return (y*a.gridSizeZ+z)*a.gridSizeX + x
}

func (a *noiseAquifer) anchor(gx, gy, gz int) world.BlockPos {
	i := a.index(gx, gy, gz)
	if a.located[i] {
		return a.anchors[i]
	}
	r := a.random.At(gx, gy, gz)
	p := world.BlockPos{
		X: gx*gridX + r.IntN(jitterX),
		Y: gy*gridY + r.IntN(jitterY),
		Z: gz*gridZ + r.IntN(jitterZ),
	}
	a.anchors[i] = p
	a.located[i] = true
	return p
}

func (a *noiseAquifer) ComputeSubstance(ctx density.Context, d float64) world.Block {
	if d > 0 {
		return world.None
	}
	bx, by, bz := ctx.BlockX(), ctx.BlockY(), ctx.BlockZ()
	fx := world.FloorDiv(bx-5, gridX)
	fy := world.FloorDiv(by+1, gridY)
	fz := world.FloorDiv(bz-5, gridZ)

	// Three nearest anchors by squared distance.
	d1, d2, d3 := math.MaxInt, math.MaxInt, math.MaxInt
	var p1, p2, p3 world.BlockPos
	for dx := 0; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := 0; dz <= 1; dz++ {
				p := a.anchor(fx+dx, fy+dy, fz+dz)
				ox, oy, oz := p.X-bx, p.Y-by, p.Z-bz
				dist := ox*ox + oy*oy + oz*oz
				switch {
				case d1 >= dist:
					p3, d3 = p2, d2
					p2, d2 = p1, d1
					p1, d1 = p, dist
				case d2 >= dist:
					p3, d3 = p2, d2
					p2, d2 = p, dist
				case d3 >= dist:
					p3, d3 = p, dist
				}
			}
		}
	}

	status1 := a.status(p1)
	s12 := Similarity(d1, d2)
	b := status1.At(by)
	if s12 <= 0 {
		return b
	}
	if b.Type == world.TypeWater && a.nc.fluid(bx, by-1, bz).At(by-1).Type == world.TypeLava {
		return b
	}

	barrier := math.NaN()
	status2 := a.status(p2)
	if d+s12*a.pressure(ctx, &barrier, status1, status2) > 0 {
		return world.None
	}
	status3 := a.status(p3)
	if s13 := Similarity(d1, d3); s13 > 0 {
		if d+s12*s13*a.pressure(ctx, &barrier, status1, status3) > 0 {
			return world.None
		}
	}
	if s23 := Similarity(d2, d3); s23 > 0 {
		if d+s12*s23*a.pressure(ctx, &barrier, status2, status3) > 0 {
			return world.None
		}
	}
	return b
}

// pressure grows where two fluid bodies of different levels meet, turning
// the gap between them solid. barrier memoizes the barrier noise.
func (a *noiseAquifer) pressure(ctx density.Context, barrier *float64, first, second FluidStatus) float64 {
	y := ctx.BlockY()
	b1, b2 := first.At(y), second.At(y)
	if (b1.Type == world.TypeLava && b2.Type == world.TypeWater) || (b1.Type == world.TypeWater && b2.Type == world.TypeLava) {
		return 2.0
	}
	diff := first.Level - second.Level
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		return 0
	}
	mid := 0.5 * float64(first.Level+second.Level)
	offset := float64(y) + 0.5 - mid
	half := float64(diff) / 2.0
	room := half - math.Abs(offset)

	var p float64
	if offset > 0 {
		if room > 0 {
			p = room / 1.5
		} else {
			p = room / 2.5
		}
	} else {
		v := 3.0 + room
		if v > 0 {
			p = v / 3.0
		} else {
			p = v / 10.0
		}
	}

	n := 0.0
	if p >= -2.0 && p <= 2.0 {
		if math.IsNaN(*barrier) {
			*barrier = a.router.Barrier.Compute(ctx)
		}
		n = *barrier
	}
	return 2.0 * (n + p)
}

func (a *noiseAquifer) status(p world.BlockPos) FluidStatus {
	i := a.index(world.FloorDiv(p.X, gridX), world.FloorDiv(p.Y, gridY), world.FloorDiv(p.Z, gridZ))
	if s := a.statuses[i]; s != nil {
		return *s
	}
	s := a.computeFluid(p.X, p.Y, p.Z)
	a.statuses[i] = &s
	return s
}

func (a *noiseAquifer) computeFluid(x, y, z int) FluidStatus {
	global := a.nc.fluid(x, y, z)
	minLevel := math.MaxInt
	up, down := y+12, y-12
	clamp := false

	for _, off := range surfaceSamplingOffsets {
		px := x + off[0]*world.ChunkWidth
		pz := z + off[1]*world.ChunkWidth
		level := a.nc.PreliminarySurfaceLevel(px, pz)
		level8 := level + 8
		center := off[0] == 0 && off[1] == 0
		if center && down > level8 {
			return global
		}
		above := up > level8
		if (above || center) && !a.nc.fluid(px, level8, pz).At(level8).IsAir() {
			if center {
				clamp = true
			}
			if above {
				return global
			}
		}
		minLevel = min(minLevel, level)
	}

	level := a.surfaceLevel(x, y, z, global, minLevel, clamp)
	return FluidStatus{Level: level, Fluid: global.Fluid}
}

func (a *noiseAquifer) surfaceLevel(x, y, z int, global FluidStatus, maxSurface int, clamp bool) int {
	p := density.Point{X: x, Y: y, Z: z}
	var fullyFlooded, partiallyFlooded float64
	if isDeepDark(a.router, p) {
		fullyFlooded, partiallyFlooded = -1, -1
	} else {
		gap := float64(maxSurface + 8 - y)
		f := 0.0
		if clamp {
			f = density.ClampedMap(gap, 0, 64, 1, 0)
		}
		floodedness := density.Clamp(a.router.FluidLevelFloodedness.Compute(p), -1, 1)
		fullyFlooded = floodedness - density.Map(f, 1, 0, -0.3, 0.8)
		partiallyFlooded = floodedness - density.Map(f, 1, 0, -0.8, 0.4)
	}

	switch {
	case fullyFlooded > 0:
		return global.Level
	case partiallyFlooded > 0:
		return a.randomizedSurfaceLevel(x, y, z, maxSurface)
	default:
		return wayBelowMinY
	}
}

func (a *noiseAquifer) randomizedSurfaceLevel(x, y, z, maxSurface int) int {
	gx := world.FloorDiv(x, 16)
	gy := world.FloorDiv(y, 40)
	gz := world.FloorDiv(z, 16)
	base := gy*40 + 20
	spread := a.router.FluidLevelSpread.Compute(density.Point{X: gx, Y: gy, Z: gz}) * 10.0
	return min(maxSurface, base+density.Quantize(spread, 3))
}

// isDeepDark reports the low erosion, high depth region that never holds
// aquifer fluid.
func isDeepDark(r *density.Router, ctx density.Context) bool {
	return r.Erosion.Compute(ctx) < -0.225 && r.Depth.Compute(ctx) > 0.9
}
