package world

import "fmt"

// Chunk and section dimensions.
const (
	ChunkWidth    = 16
	SectionHeight = 16
	SectionVolume = ChunkWidth * ChunkWidth * SectionHeight
)

// Overworld is the default dimension name.
const Overworld = "overworld"

// ChunkPos identifies a chunk column by dimension and chunk coordinates.
type ChunkPos struct {
	Dimension string
	X, Z      int
}

// Offset returns the chunk dx, dz chunks away in the same dimension.
func (c ChunkPos) Offset(dx, dz int) ChunkPos {
	return ChunkPos{Dimension: c.Dimension, X: c.X + dx, Z: c.Z + dz}
}

// MinBlockX returns the smallest global block x inside the chunk.
func (c ChunkPos) MinBlockX() int { return c.X << 4 }

// MinBlockZ returns the smallest global block z inside the chunk.
func (c ChunkPos) MinBlockZ() int { return c.Z << 4 }

// Contains reports whether the global block position lies in this chunk.
func (c ChunkPos) Contains(p BlockPos) bool {
	return p.X>>4 == c.X && p.Z>>4 == c.Z
}

func (c ChunkPos) String() string {
	return fmt.Sprintf("%s[%d,%d]", c.Dimension, c.X, c.Z)
}

// BlockPos is a global block position.
type BlockPos struct {
	X, Y, Z int
}

// Chunk returns the chunk containing p in the given dimension.
func (p BlockPos) Chunk(dimension string) ChunkPos {
	return ChunkPos{Dimension: dimension, X: p.X >> 4, Z: p.Z >> 4}
}

// Offset returns p moved one block in direction d.
func (p BlockPos) Offset(d Direction) BlockPos {
	dx, dz := d.Step()
	return BlockPos{X: p.X + dx, Y: p.Y, Z: p.Z + dz}
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Direction is one of the four horizontal directions.
type Direction uint8

const (
	North Direction = iota // -z
	East                   // +x
	South                  // +z
	West                   // -x
)

var directionNames = [...]string{"north", "east", "south", "west"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Step returns the x, z delta of one step in direction d.
func (d Direction) Step() (dx, dz int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction { return (d + 2) & 3 }

// Clockwise returns the direction rotated 90 degrees clockwise seen from above.
func (d Direction) Clockwise() Direction { return (d + 1) & 3 }

// CounterClockwise returns the direction rotated 90 degrees counter-clockwise.
func (d Direction) CounterClockwise() Direction { return (d + 3) & 3 }

// AlongX reports whether d points along the x axis.
func (d Direction) AlongX() bool { return d == East || d == West }

// FloorDiv divides rounding toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

// FloorMod is the non-negative remainder matching FloorDiv.
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
