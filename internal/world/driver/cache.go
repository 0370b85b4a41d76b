package driver

import (
	"fmt"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// cachedSection buffers the writes of one 16×16×16 section.
// A world.None cell has not been written or read yet.
type cachedSection struct {
	cells [world.SectionVolume]world.Block
	// dirty is set by any write, nonEmpty only by non-air writes.
	dirty    bool
	nonEmpty bool
}

// sectionCache buffers all cells of one chunk for a single generation pass
// and tracks the highest non-air y of every column. Unbuffered cells are
// read from base when a column is rescanned.
type sectionCache struct {
	minY      int
	maxY      int
	sections  []*cachedSection
	heightmap [world.ChunkWidth][world.ChunkWidth]int
	base      func(px, y, pz int) world.Block
}

func newSectionCache(minY, maxY int, base func(px, y, pz int) world.Block) *sectionCache {
	if minY%world.SectionHeight != 0 || maxY%world.SectionHeight != 0 || maxY <= minY {
		panic(fmt.Sprintf("driver: build range [%d,%d) is not section aligned", minY, maxY))
	}
	c := &sectionCache{
		minY:     minY,
		maxY:     maxY,
		sections: make([]*cachedSection, (maxY-minY)/world.SectionHeight),
		base:     base,
	}
	c.clear()
	return c
}

func (c *sectionCache) sectionIndex(y int) int {
	if y < c.minY || y >= c.maxY {
		panic(fmt.Sprintf("driver: y %d outside build range [%d,%d)", y, c.minY, c.maxY))
	}
	return (y - c.minY) / world.SectionHeight
}

func cellIndex(px, y, pz int) int {
	return world.SectionIndex(px, y&0xF, pz)
}

func (c *sectionCache) get(px, y, pz int) world.Block {
	return c.sections[c.sectionIndex(y)].cells[cellIndex(px, y, pz)]
}

func (c *sectionCache) put(px, y, pz int, b world.Block) {
	s := c.sections[c.sectionIndex(y)]
	idx := cellIndex(px, y, pz)
	if s.cells[idx] == b {
		return
	}
	s.cells[idx] = b
	s.dirty = true
	if !b.IsAir() {
		s.nonEmpty = true
		if c.heightmap[px][pz] < y {
			c.heightmap[px][pz] = y
		}
		return
	}
	c.fixHeightmapForAir(y, px, pz)
}

// putRange writes b into y1..y2 inclusive. With a non-nil test only buffered
// cells for which test returns true are replaced.
func (c *sectionCache) putRange(px, pz, y1, y2 int, b world.Block, test func(world.Block) bool) {
	if b.IsNone() || y1 > y2 {
		return
	}
	isAir := b.IsAir()
	top := world.NoHeight
	for y := y1; y <= y2; y++ {
		s := c.sections[c.sectionIndex(y)]
		idx := cellIndex(px, y, pz)
		st := s.cells[idx]
		if st == b {
			continue
		}
		if test != nil && (st.IsNone() || !test(st)) {
			continue
		}
		s.cells[idx] = b
		s.dirty = true
		if !isAir {
			s.nonEmpty = true
		}
		top = y
	}
	if top == world.NoHeight {
		return
	}
	if !isAir {
		if c.heightmap[px][pz] < top {
			c.heightmap[px][pz] = top
		}
		return
	}
	c.fixHeightmapForAir(y1, px, pz)
}

// fixHeightmapForAir rescans a column downward after air replaced cells at
// or above y. Unbuffered cells are read through base.
func (c *sectionCache) fixHeightmapForAir(y, px, pz int) {
	h := c.heightmap[px][pz]
	if h < y {
		return
	}
	for yy := h; yy >= c.minY; yy-- {
		st := c.sections[(yy-c.minY)/world.SectionHeight].cells[cellIndex(px, yy, pz)]
		if st.IsNone() && c.base != nil {
			st = c.base(px, yy, pz)
		}
		if !st.IsNone() && !st.IsAir() {
			c.heightmap[px][pz] = yy
			return
		}
	}
	c.heightmap[px][pz] = world.NoHeight
}

func (c *sectionCache) clear() {
	for i := range c.sections {
		c.sections[i] = &cachedSection{}
	}
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			c.heightmap[x][z] = world.NoHeight
		}
	}
}
