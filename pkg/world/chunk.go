package world

import "math"

// NoHeight marks a heightmap column without any matching block.
const NoHeight = math.MinInt32

// SectionIndex returns the index of local coordinates inside a section.
// x, y, z must be in [0,16).
func SectionIndex(x, y, z int) int {
	return y*256 + z*16 + x
}

// Section holds block data for a 16×16×16 vertical slice of a chunk.
type Section struct {
	Blocks   [SectionVolume]Block
	nonEmpty int
}

// NewSection returns a section filled with air.
func NewSection() *Section {
	s := &Section{}
	for i := range s.Blocks {
		s.Blocks[i] = Air
	}
	return s
}

// Get returns the block at local coordinates.
func (s *Section) Get(x, y, z int) Block {
	return s.Blocks[SectionIndex(x, y, z)]
}

// Set stores a block at local coordinates and keeps the non-empty count.
func (s *Section) Set(x, y, z int, b Block) {
	idx := SectionIndex(x, y, z)
	old := s.Blocks[idx]
	if !old.IsAir() && !old.IsNone() {
		s.nonEmpty--
	}
	if !b.IsAir() && !b.IsNone() {
		s.nonEmpty++
	}
	s.Blocks[idx] = b
}

// Empty reports whether the section contains only air.
func (s *Section) Empty() bool { return s.nonEmpty == 0 }

// HeightmapType selects which blocks a heightmap tracks.
type HeightmapType uint8

const (
	WorldSurface HeightmapType = iota
	MotionBlocking
	MotionBlockingNoLeaves
	OceanFloor
)

// HeightmapTypes lists every tracked variant.
var HeightmapTypes = []HeightmapType{WorldSurface, MotionBlocking, MotionBlockingNoLeaves, OceanFloor}

func (t HeightmapType) String() string {
	switch t {
	case WorldSurface:
		return "WORLD_SURFACE"
	case MotionBlocking:
		return "MOTION_BLOCKING"
	case MotionBlockingNoLeaves:
		return "MOTION_BLOCKING_NO_LEAVES"
	case OceanFloor:
		return "OCEAN_FLOOR"
	default:
		return "UNKNOWN"
	}
}

// Matches reports whether b counts toward a heightmap of type t.
func (t HeightmapType) Matches(b Block) bool {
	switch t {
	case WorldSurface:
		return !b.IsAir() && !b.IsNone()
	case MotionBlocking:
		return b.BlocksMotion() || b.IsFluid()
	case MotionBlockingNoLeaves:
		return (b.BlocksMotion() || b.IsFluid()) && b.Info().Kind != KindLeaves
	case OceanFloor:
		return b.BlocksMotion()
	default:
		return false
	}
}

// Heightmap stores the highest matching y per column, index = z*16 + x.
type Heightmap struct {
	Heights [ChunkWidth * ChunkWidth]int
}

// NewHeightmap returns a heightmap with every column empty.
func NewHeightmap() *Heightmap {
	h := &Heightmap{}
	for i := range h.Heights {
		h.Heights[i] = NoHeight
	}
	return h
}

// Get returns the height of column x, z.
func (h *Heightmap) Get(x, z int) int { return h.Heights[z*ChunkWidth+x] }

// Set overwrites the height of column x, z.
func (h *Heightmap) Set(x, z, y int) { h.Heights[z*ChunkWidth+x] = y }

// Raise sets the column to y if y is higher than the stored value.
func (h *Heightmap) Raise(x, z, y int) {
	if y > h.Get(x, z) {
		h.Set(x, z, y)
	}
}

// Status is the generation status of a chunk.
type Status uint8

const (
	StatusEmpty Status = iota
	StatusGenerating
	StatusFull
)

// Chunk holds the block data of one chunk column between MinY and MinY+16*len(Sections).
type Chunk struct {
	Pos        ChunkPos
	MinY       int
	Sections   []*Section // nil = all-air
	Heightmaps map[HeightmapType]*Heightmap
	Status     Status
}

// NewChunk allocates an empty chunk spanning [minY, maxY).
func NewChunk(pos ChunkPos, minY, maxY int) *Chunk {
	c := &Chunk{
		Pos:        pos,
		MinY:       minY,
		Sections:   make([]*Section, (maxY-minY)/SectionHeight),
		Heightmaps: make(map[HeightmapType]*Heightmap, len(HeightmapTypes)),
	}
	for _, t := range HeightmapTypes {
		c.Heightmaps[t] = NewHeightmap()
	}
	return c
}

// SectionFor returns the section index holding global y.
func (c *Chunk) SectionFor(y int) int {
	return FloorDiv(y-c.MinY, SectionHeight)
}

// Section returns section i, allocating it when missing.
// It returns nil for an out-of-range index.
func (c *Chunk) Section(i int) *Section {
	if i < 0 || i >= len(c.Sections) {
		return nil
	}
	if c.Sections[i] == nil {
		c.Sections[i] = NewSection()
	}
	return c.Sections[i]
}

// GetBlock returns the block at local x, z and global y.
func (c *Chunk) GetBlock(x, y, z int) Block {
	i := c.SectionFor(y)
	if i < 0 || i >= len(c.Sections) || c.Sections[i] == nil {
		return Air
	}
	return c.Sections[i].Get(x, y&0xF, z)
}

// SetBlock sets the block at local x, z and global y. Out-of-range y is ignored.
func (c *Chunk) SetBlock(x, y, z int, b Block) {
	i := c.SectionFor(y)
	if i < 0 || i >= len(c.Sections) {
		return
	}
	if c.Sections[i] == nil {
		if b.IsAir() || b.IsNone() {
			return
		}
		c.Sections[i] = NewSection()
	}
	c.Sections[i].Set(x, y&0xF, z, b)
}

// ScanHeight returns the highest y at or below top in column x, z whose
// block matches t, or NoHeight.
func (c *Chunk) ScanHeight(t HeightmapType, x, z, top int) int {
	top = min(top, c.MinY+len(c.Sections)*SectionHeight-1)
	for y := top; y >= c.MinY; y-- {
		if t.Matches(c.GetBlock(x, y, z)) {
			return y
		}
	}
	return NoHeight
}
