package world

import (
	"sync"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Store is an in-memory chunk store shared by concurrent generation workers.
// All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	minY   int
	maxY   int
	chunks map[world.ChunkPos]*world.Chunk
}

// NewStore creates an empty store for build heights [minY, maxY).
func NewStore(minY, maxY int) *Store {
	return &Store{
		minY:   minY,
		maxY:   maxY,
		chunks: make(map[world.ChunkPos]*world.Chunk),
	}
}

// MinY returns the lowest buildable y.
func (s *Store) MinY() int { return s.minY }

// MaxY returns the exclusive upper build limit.
func (s *Store) MaxY() int { return s.maxY }

// chunk returns the chunk at pos, creating it if needed. Caller holds the write lock.
func (s *Store) chunk(pos world.ChunkPos) *world.Chunk {
	c, ok := s.chunks[pos]
	if !ok {
		c = world.NewChunk(pos, s.minY, s.maxY)
		s.chunks[pos] = c
	}
	return c
}

// GetOrCreateChunk returns the chunk at pos, allocating an empty one if needed.
func (s *Store) GetOrCreateChunk(pos world.ChunkPos) *world.Chunk {
	s.mu.RLock()
	if c, ok := s.chunks[pos]; ok {
		s.mu.RUnlock()
		return c
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock.
	return s.chunk(pos)
}

// HasChunk reports whether a chunk exists at pos.
func (s *Store) HasChunk(pos world.ChunkPos) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[pos]
	return ok
}

// Block returns the block at a global position. Missing chunks read as air.
func (s *Store) Block(dimension string, p world.BlockPos) world.Block {
	if p.Y < s.minY || p.Y >= s.maxY {
		return world.Air
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chunks[p.Chunk(dimension)]
	if !ok {
		return world.Air
	}
	return c.GetBlock(p.X&0xF, p.Y, p.Z&0xF)
}

// SetBlock writes a block at a global position and keeps the chunk
// heightmaps truthful: a matching block raises a column, replacing the top
// of a column rescans it.
func (s *Store) SetBlock(dimension string, p world.BlockPos, b world.Block) {
	if p.Y < s.minY || p.Y >= s.maxY || b.IsNone() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chunk(p.Chunk(dimension))
	lx, lz := p.X&0xF, p.Z&0xF
	c.SetBlock(lx, p.Y, lz, b)
	for _, t := range world.HeightmapTypes {
		h := c.Heightmaps[t]
		switch {
		case t.Matches(b):
			h.Raise(lx, lz, p.Y)
		case h.Get(lx, lz) == p.Y:
			h.Set(lx, lz, c.ScanHeight(t, lx, lz, p.Y-1))
		}
	}
}

// WithChunk runs fn with exclusive access to the chunk at pos.
func (s *Store) WithChunk(pos world.ChunkPos, fn func(c *world.Chunk) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.chunk(pos))
}

// Status returns the generation status of the chunk at pos.
func (s *Store) Status(pos world.ChunkPos) world.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.chunks[pos]; ok {
		return c.Status
	}
	return world.StatusEmpty
}

// Finalized reports whether the chunk at pos completed generation.
func (s *Store) Finalized(pos world.ChunkPos) bool {
	return s.Status(pos) == world.StatusFull
}

// SetStatus records the generation status of the chunk at pos.
func (s *Store) SetStatus(pos world.ChunkPos, st world.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunk(pos).Status = st
}

// Height returns the heightmap value of type t for a global column.
func (s *Store) Height(t world.HeightmapType, dimension string, x, z int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[world.BlockPos{X: x, Z: z}.Chunk(dimension)]
	if !ok {
		return world.NoHeight
	}
	return c.Heightmaps[t].Get(x&0xF, z&0xF)
}

// ForEachChunk calls fn for every stored chunk under a read lock.
func (s *Store) ForEachChunk(fn func(c *world.Chunk)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.chunks {
		fn(c)
	}
}
