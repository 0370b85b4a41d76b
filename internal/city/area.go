package city

import (
	"bufio"
	"fmt"
	"io"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Placement is the part of a multi building that covers one chunk.
type Placement struct {
	Name    string
	OffsetX int
	OffsetZ int
}

// Area is an N×N grid of chunks with their multi-building assignments.
// An Area is immutable once computed.
type Area struct {
	// Pos is the area coordinate: chunk coordinates floor-divided by Size.
	Pos     world.ChunkPos
	TopLeft world.ChunkPos
	Size    int
	grid    [][]*Placement // [x][z]
}

func newArea(pos world.ChunkPos, size int) *Area {
	a := &Area{
		Pos:     pos,
		TopLeft: world.ChunkPos{Dimension: pos.Dimension, X: pos.X * size, Z: pos.Z * size},
		Size:    size,
		grid:    make([][]*Placement, size),
	}
	for x := range a.grid {
		a.grid[x] = make([]*Placement, size)
	}
	return a
}

// areaPos returns the coordinate of the area containing chunk c.
func areaPos(c world.ChunkPos, size int) world.ChunkPos {
	return world.ChunkPos{Dimension: c.Dimension, X: world.FloorDiv(c.X, size), Z: world.FloorDiv(c.Z, size)}
}

// Contains reports whether chunk c lies inside the area.
func (a *Area) Contains(c world.ChunkPos) bool {
	return c.Dimension == a.TopLeft.Dimension &&
		c.X >= a.TopLeft.X && c.X < a.TopLeft.X+a.Size &&
		c.Z >= a.TopLeft.Z && c.Z < a.TopLeft.Z+a.Size
}

// At returns the placement covering chunk c.
func (a *Area) At(c world.ChunkPos) (Placement, bool) {
	if !a.Contains(c) {
		return Placement{}, false
	}
	p := a.grid[c.X-a.TopLeft.X][c.Z-a.TopLeft.Z]
	if p == nil {
		return Placement{}, false
	}
	return *p, true
}

// Placements returns the number of chunks covered by multi buildings.
func (a *Area) Placements() int {
	n := 0
	for _, col := range a.grid {
		for _, p := range col {
			if p != nil {
				n++
			}
		}
	}
	return n
}

func (a *Area) place(mb *MultiBuilding, x, z int) {
	for xx := range mb.DimX {
		for zz := range mb.DimZ {
			a.grid[x+xx][z+zz] = &Placement{Name: mb.Name, OffsetX: xx, OffsetZ: zz}
		}
	}
}

const dumpChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Dump writes the grid one z row per line, each multi building drawn with
// its own letter and free chunks as '.'.
func (a *Area) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "area %v (top left %v, size %d)\n", a.Pos, a.TopLeft, a.Size)

	letters := make(map[string]byte)
	var legend []string
	for z := range a.Size {
		for x := range a.Size {
			p := a.grid[x][z]
			if p == nil {
				bw.WriteByte('.')
				continue
			}
			c, ok := letters[p.Name]
			if !ok {
				c = '?'
				if n := len(letters); n < len(dumpChars) {
					c = dumpChars[n]
				}
				letters[p.Name] = c
				legend = append(legend, fmt.Sprintf("%c = %s", c, p.Name))
			}
			bw.WriteByte(c)
		}
		bw.WriteByte('\n')
	}
	for _, l := range legend {
		fmt.Fprintln(bw, l)
	}
	return bw.Flush()
}
