// Package driver buffers the block writes of one chunk generation pass,
// keeps a per-column height index up to date and commits everything to the
// world store exactly once.
package driver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCharnyshevich/lostcities/internal/world/shape"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// ErrSectionUnavailable is returned by Commit when the store has no section
// for a buffered y range.
var ErrSectionUnavailable = errors.New("driver: section unavailable")

// Store is the shared world store a Driver reads from and commits to.
// Implementations must be safe for concurrent use.
type Store interface {
	MinY() int
	MaxY() int
	Block(dimension string, p world.BlockPos) world.Block
	SetBlock(dimension string, p world.BlockPos, b world.Block)
	Finalized(pos world.ChunkPos) bool
	WithChunk(pos world.ChunkPos, fn func(c *world.Chunk) error) error
	Height(t world.HeightmapType, dimension string, x, z int) int
}

// Driver is a write cache for one chunk. It is owned by a single worker and
// is not safe for concurrent use.
type Driver struct {
	store    Store
	pos      world.ChunkPos
	resolver shape.Resolver
	log      *slog.Logger
	cache    *sectionCache
	current  world.BlockPos
}

// New creates a Driver buffering writes for the chunk at pos. The store's
// build range must be section aligned.
func New(store Store, pos world.ChunkPos, log *slog.Logger) *Driver {
	d := &Driver{
		store: store,
		pos:   pos,
		log:   log,
	}
	d.cache = newSectionCache(store.MinY(), store.MaxY(), func(px, y, pz int) world.Block {
		return d.store.Block(d.pos.Dimension, d.global(px, y, pz))
	})
	d.seedHeights()
	return d
}

// seedHeights starts every column at the store's world surface height.
func (d *Driver) seedHeights() {
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			p := d.global(x, 0, z)
			d.cache.heightmap[x][z] = d.store.Height(world.WorldSurface, d.pos.Dimension, p.X, p.Z)
		}
	}
}

// Pos returns the chunk this driver generates.
func (d *Driver) Pos() world.ChunkPos { return d.pos }

// MinY returns the lowest buildable y.
func (d *Driver) MinY() int { return d.cache.minY }

// MaxY returns the exclusive build limit.
func (d *Driver) MaxY() int { return d.cache.maxY }

func (d *Driver) global(x, y, z int) world.BlockPos {
	return world.BlockPos{X: x + d.pos.MinBlockX(), Y: y, Z: z + d.pos.MinBlockZ()}
}

// Block returns the block at a global position. Cells of this chunk are read
// through the cache and memoized; other chunks are read from the store.
func (d *Driver) Block(p world.BlockPos) world.Block {
	if !d.pos.Contains(p) {
		return d.store.Block(d.pos.Dimension, p)
	}
	if p.Y < d.cache.minY || p.Y >= d.cache.maxY {
		return world.Air
	}
	px, pz := p.X&0xF, p.Z&0xF
	b := d.cache.get(px, p.Y, pz)
	if b.IsNone() {
		b = d.store.Block(d.pos.Dimension, p)
		d.cache.put(px, p.Y, pz, b)
	}
	return b
}

// BlockAt returns the block at chunk-local x, z and global y.
func (d *Driver) BlockAt(x, y, z int) world.Block {
	return d.Block(d.global(x, y, z))
}

// SetBlock buffers b at a global position inside this chunk after shape
// correction. world.None leaves the existing content untouched.
func (d *Driver) SetBlock(p world.BlockPos, b world.Block) {
	if b.IsNone() {
		return
	}
	if !d.pos.Contains(p) {
		panic(fmt.Sprintf("driver: %v is outside chunk %v", p, d.pos))
	}
	b = d.correct(p, b)
	if b.IsNone() {
		return
	}
	d.cache.put(p.X&0xF, p.Y, p.Z&0xF, b)
}

// SetBlockAt buffers b at chunk-local x, z and global y.
func (d *Driver) SetBlockAt(x, y, z int, b world.Block) {
	d.SetBlock(d.global(x, y, z), b)
}

// SetRange fills local column x, z from y up to but excluding y2 with b.
// Range writes skip shape correction.
func (d *Driver) SetRange(x, z, y, y2 int, b world.Block) {
	d.cache.putRange(x&0xF, z&0xF, y, y2-1, b, nil)
}

// SetRangeIf is SetRange restricted to buffered cells for which test holds.
func (d *Driver) SetRangeIf(x, z, y, y2 int, b world.Block, test func(world.Block) bool) {
	d.cache.putRange(x&0xF, z&0xF, y, y2-1, b, test)
}

// SetRangeToAir clears local column x, z from y up to but excluding y2.
func (d *Driver) SetRangeToAir(x, z, y, y2 int) {
	d.cache.putRange(x&0xF, z&0xF, y, y2-1, world.Air, nil)
}

// Height returns the highest non-air y of local column x, z as seen through
// the cache, or world.NoHeight when the column holds no such cell.
func (d *Driver) Height(x, z int) int {
	return d.cache.heightmap[x&0xF][z&0xF]
}

// Current moves the cursor to chunk-local x, z and global y.
func (d *Driver) Current(x, y, z int) *Driver {
	d.current = d.global(x, y, z)
	return d
}

// Place writes b at the cursor.
func (d *Driver) Place(b world.Block) *Driver {
	d.SetBlock(d.current, b)
	return d
}

// Add writes b at the cursor and moves the cursor up.
func (d *Driver) Add(b world.Block) *Driver {
	d.SetBlock(d.current, b)
	d.current.Y++
	return d
}

// IncY moves the cursor up.
func (d *Driver) IncY() { d.current.Y++ }

// DecY moves the cursor down.
func (d *Driver) DecY() { d.current.Y-- }

// Cursor returns the cursor position.
func (d *Driver) Cursor() world.BlockPos { return d.current }

// correct updates the four horizontal neighbors of p for the arrival of b and
// returns the shape b takes, or world.None when the write must be skipped.
func (d *Driver) correct(p world.BlockPos, b world.Block) world.Block {
	var neighbors [4]world.Block
	for dir := world.North; dir <= world.West; dir++ {
		np := p.Offset(dir)
		neighbors[dir] = d.updateAdjacent(b, dir.Opposite(), np)
	}
	return d.resolver.Place(b, p, neighbors, d.Block)
}

// updateAdjacent recomputes the block at pos whose side dir now faces b.
func (d *Driver) updateAdjacent(b world.Block, dir world.Direction, pos world.BlockPos) world.Block {
	adjacent := d.Block(pos)
	if adjacent.Info().Kind == world.KindLadder {
		return adjacent
	}
	updated, err := d.resolver.UpdateNeighbor(adjacent, dir, b, pos, d.Block)
	if err != nil {
		d.log.Debug("keep neighbor shape", "pos", pos, "block", adjacent, "error", err)
		return adjacent
	}
	if updated == adjacent {
		return adjacent
	}
	switch {
	case d.pos.Contains(pos):
		if pos.Y >= d.cache.minY && pos.Y < d.cache.maxY {
			d.cache.put(pos.X&0xF, pos.Y, pos.Z&0xF, updated)
		}
	case d.store.Finalized(pos.Chunk(d.pos.Dimension)):
		d.store.SetBlock(d.pos.Dimension, pos, updated)
	}
	return updated
}

// Commit flushes every written section to the store, recomputes all
// heightmap variants of the chunk and clears the cache. A commit without
// buffered writes leaves the store untouched.
func (d *Driver) Commit() error {
	err := d.store.WithChunk(d.pos, func(c *world.Chunk) error {
		dirty := false
		for si, s := range d.cache.sections {
			if !s.dirty {
				continue
			}
			dirty = true
			cy := d.cache.minY + si*world.SectionHeight
			if i := c.SectionFor(cy); i < 0 || i >= len(c.Sections) {
				return fmt.Errorf("commit %v section %d (y=%d): %w", d.pos, si, cy, ErrSectionUnavailable)
			}
			for y := cy; y < cy+world.SectionHeight; y++ {
				for z := range world.ChunkWidth {
					for x := range world.ChunkWidth {
						b := s.cells[cellIndex(x, y, z)]
						if !b.IsNone() {
							c.SetBlock(x, y, z, b)
						}
					}
				}
			}
		}
		if dirty {
			d.updateHeightmaps(c)
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.cache.clear()
	d.seedHeights()
	return nil
}

// updateHeightmaps rescans every column of c once the buffered sections
// have been written into it. Columns may drop as well as rise.
func (d *Driver) updateHeightmaps(c *world.Chunk) {
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			top := max(d.cache.heightmap[x][z], c.Heightmaps[world.WorldSurface].Get(x, z))
			for _, t := range world.HeightmapTypes {
				c.Heightmaps[t].Set(x, z, c.ScanHeight(t, x, z, top))
			}
		}
	}
}
