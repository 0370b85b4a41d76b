// Package terrain samples a density router into blocks: column heights,
// single points and whole chunks, with noise aquifers placing fluids.
package terrain

import (
	"fmt"

	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
	"github.com/OCharnyshevich/lostcities/internal/terrain/noise"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Sampler evaluates the terrain of one world. It holds only immutable
// state and is safe for concurrent use; every query builds its own
// NoiseChunk.
type Sampler struct {
	settings      Settings
	router        *density.Router
	beardifier    density.Function
	fluid         FluidPicker
	aquiferRandom noise.PositionalRandom
}

// NewSampler creates a sampler for a compiled router.
func NewSampler(settings Settings, router *density.Router, seed int64) (*Sampler, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if router == nil {
		return nil, fmt.Errorf("terrain: nil router")
	}
	if err := router.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{
		settings:      settings,
		router:        router,
		beardifier:    &density.Constant{},
		fluid:         NewFluidPicker(settings),
		aquiferRandom: noise.NewPositionalRandom(noise.Derive(seed, "aquifer")),
	}, nil
}

// Settings returns the sampler settings.
func (s *Sampler) Settings() Settings { return s.settings }

// BaseHeight returns one above the highest motion-blocking block of column
// (x, z), or the minimum build height when the column holds none.
func (s *Sampler) BaseHeight(x, z int) int {
	st := s.settings
	cw, ch := st.CellWidth, st.CellHeight
	cellX := world.FloorDiv(x, cw) * cw
	cellZ := world.FloorDiv(z, cw) * cw
	fx := float64(world.FloorMod(x, cw)) / float64(cw)
	fz := float64(world.FloorMod(z, cw)) / float64(cw)

	nc := s.NewNoiseChunk(1, cellX, cellZ)
	mustStart(nc)
	defer mustStop(nc)
	nc.AdvanceCellX(0)

	for cy := nc.cellCountY - 1; cy >= 0; cy-- {
		nc.SelectCellYZ(cy, 0)
		for dy := ch - 1; dy >= 0; dy-- {
			y := (nc.cellMinY+cy)*ch + dy
			nc.UpdateForY(y, float64(dy)/float64(ch))
			nc.UpdateForX(x, fx)
			nc.UpdateForZ(z, fz)
			if nc.InterpolatedState().BlocksMotion() {
				return y + 1
			}
		}
	}
	return st.MinY
}

// StateAt returns the block at a point: the default block, a fluid or air.
func (s *Sampler) StateAt(x, y, z int) world.Block {
	st := s.settings
	if y < st.MinY || y >= st.MaxY() {
		return world.Air
	}
	cw, ch := st.CellWidth, st.CellHeight
	nc := s.NewNoiseChunk(1, world.FloorDiv(x, cw)*cw, world.FloorDiv(z, cw)*cw)
	mustStart(nc)
	defer mustStop(nc)
	nc.AdvanceCellX(0)

	nc.SelectCellYZ(world.FloorDiv(y, ch)-nc.cellMinY, 0)
	nc.UpdateForY(y, float64(world.FloorMod(y, ch))/float64(ch))
	nc.UpdateForX(x, float64(world.FloorMod(x, cw))/float64(cw))
	nc.UpdateForZ(z, float64(world.FloorMod(z, cw))/float64(cw))
	return nc.InterpolatedState()
}

// FillChunk samples every block of a chunk.
func (s *Sampler) FillChunk(pos world.ChunkPos) *ChunkFill {
	st := s.settings
	cw, ch := st.CellWidth, st.CellHeight
	cells := world.ChunkWidth / cw
	minX, minZ := pos.MinBlockX(), pos.MinBlockZ()

	fill := newChunkFill(pos, st.MinY, st.Height)
	nc := s.NewNoiseChunk(cells, minX, minZ)
	mustStart(nc)
	defer mustStop(nc)

	for cx := range cells {
		nc.AdvanceCellX(cx)
		for cz := range cells {
			for cy := nc.cellCountY - 1; cy >= 0; cy-- {
				nc.SelectCellYZ(cy, cz)
				for dy := ch - 1; dy >= 0; dy-- {
					y := (nc.cellMinY+cy)*ch + dy
					nc.UpdateForY(y, float64(dy)/float64(ch))
					for dx := range cw {
						lx := cx*cw + dx
						nc.UpdateForX(minX+lx, float64(dx)/float64(cw))
						for dz := range cw {
							lz := cz*cw + dz
							nc.UpdateForZ(minZ+lz, float64(dz)/float64(cw))
							fill.set(lx, y, lz, nc.InterpolatedState())
						}
					}
				}
			}
		}
		nc.SwapSlices()
	}
	return fill
}

func mustStart(nc *NoiseChunk) {
	if err := nc.StartInterpolation(); err != nil {
		panic(err)
	}
}

func mustStop(nc *NoiseChunk) {
	if err := nc.StopInterpolation(); err != nil {
		panic(err)
	}
}

// RangeWriter receives vertical runs of blocks, y2 exclusive.
type RangeWriter interface {
	SetRange(x, z, y, y2 int, b world.Block)
}

// ChunkFill is the sampled content of one chunk.
type ChunkFill struct {
	Pos     world.ChunkPos
	MinY    int
	NumY    int
	columns [world.ChunkWidth * world.ChunkWidth][]world.Block
}

func newChunkFill(pos world.ChunkPos, minY, height int) *ChunkFill {
	f := &ChunkFill{Pos: pos, MinY: minY, NumY: height}
	for i := range f.columns {
		f.columns[i] = make([]world.Block, height)
	}
	return f
}

func (f *ChunkFill) set(x, y, z int, b world.Block) {
	f.columns[z*world.ChunkWidth+x][y-f.MinY] = b
}

// Block returns the sampled block at local x, z and global y.
func (f *ChunkFill) Block(x, y, z int) world.Block {
	if y < f.MinY || y >= f.MinY+f.NumY {
		return world.Air
	}
	return f.columns[z*world.ChunkWidth+x][y-f.MinY]
}

// Height returns one above the highest motion-blocking block of local
// column x, z, or MinY.
func (f *ChunkFill) Height(x, z int) int {
	col := f.columns[z*world.ChunkWidth+x]
	for i := len(col) - 1; i >= 0; i-- {
		if col[i].BlocksMotion() {
			return f.MinY + i + 1
		}
	}
	return f.MinY
}

// WriteTo emits every column as runs of equal non-air blocks.
func (f *ChunkFill) WriteTo(w RangeWriter) {
	for z := range world.ChunkWidth {
		for x := range world.ChunkWidth {
			col := f.columns[z*world.ChunkWidth+x]
			start := 0
			for i := 1; i <= len(col); i++ {
				if i < len(col) && col[i] == col[start] {
					continue
				}
				if b := col[start]; !b.IsAir() && !b.IsNone() {
					w.SetRange(x, z, f.MinY+start, f.MinY+i, b)
				}
				start = i
			}
		}
	}
}
