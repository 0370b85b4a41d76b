// Package shape computes neighbor-dependent block shapes: fence and pane
// connections, wall sides and stair corners.
package shape

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

var (
	// ErrUnknownType is returned when a block type has no table entry.
	ErrUnknownType = errors.New("shape: unknown block type")
	// ErrIncompatible is returned for blocks whose shape cannot be updated
	// during generation.
	ErrIncompatible = errors.New("shape: incompatible neighbor")
)

// Lookup returns the block at a global position.
type Lookup func(p world.BlockPos) world.Block

// Resolver computes connective shapes. The zero value is ready to use.
type Resolver struct{}

// UpdateNeighbor returns the state adjacent (at pos) takes after the block on
// its side dir changed to changed. On error the caller keeps adjacent as is.
func (Resolver) UpdateNeighbor(adjacent world.Block, dir world.Direction, changed world.Block, pos world.BlockPos, get Lookup) (world.Block, error) {
	info, ok := world.LookupType(adjacent.Type)
	if !ok {
		return adjacent, fmt.Errorf("%w: %d at %v", ErrUnknownType, adjacent.Type, pos)
	}
	if adjacent.Type == world.TypeBeehive {
		// Hive state lives in block entity data that does not exist yet.
		return adjacent, fmt.Errorf("%w: %s at %v", ErrIncompatible, info.Name, pos)
	}

	switch info.Kind {
	case world.KindCross:
		return adjacent.WithConnected(dir, canAttach(changed)), nil
	case world.KindWall:
		return adjacent.WithSide(dir, canAttachWall(changed)), nil
	case world.KindStairs:
		changedPos := pos.Offset(dir)
		see := func(p world.BlockPos) world.Block {
			if p == changedPos {
				return changed
			}
			return get(p)
		}
		return adjacent.WithStairShape(stairShape(adjacent, pos, see)), nil
	default:
		return adjacent, nil
	}
}

// Place returns the shape b takes at pos given its four horizontal neighbors,
// indexed by world.Direction. A structure void yields world.None: the write
// must be skipped.
func (Resolver) Place(b world.Block, pos world.BlockPos, neighbors [4]world.Block, get Lookup) world.Block {
	switch b.Info().Kind {
	case world.KindCross:
		for d := world.North; d <= world.West; d++ {
			b = b.WithConnected(d, canAttach(neighbors[d]))
		}
	case world.KindWall:
		for d := world.North; d <= world.West; d++ {
			b = b.WithSide(d, canAttachWall(neighbors[d]))
		}
	case world.KindStairs:
		see := func(p world.BlockPos) world.Block {
			if p == pos {
				return b
			}
			return get(p)
		}
		b = b.WithStairShape(stairShape(b, pos, see))
	case world.KindStructureVoid:
		return world.None
	}
	return b
}

// Connective reports whether writing b can change the shape of its neighbors
// or of itself.
func Connective(b world.Block) bool {
	switch b.Info().Kind {
	case world.KindCross, world.KindWall, world.KindStairs, world.KindStructureVoid:
		return true
	}
	return false
}

func canAttach(b world.Block) bool {
	if b.IsAir() || b.IsNone() {
		return false
	}
	info := b.Info()
	if info.Occludes {
		return true
	}
	return !info.ConnectionException
}

func canAttachWall(b world.Block) world.WallSide {
	if canAttach(b) {
		return world.SideLow
	}
	return world.SideNone
}

func isStairs(b world.Block) bool {
	return b.Info().Kind == world.KindStairs
}

func isDifferentStairs(b world.Block, pos world.BlockPos, face world.Direction, get Lookup) bool {
	other := get(pos.Offset(face))
	return !isStairs(other) || other.Facing() != b.Facing() || other.Half() != b.Half()
}

func stairShape(b world.Block, pos world.BlockPos, get Lookup) world.StairShape {
	facing := b.Facing()

	front := get(pos.Offset(facing))
	if isStairs(front) && b.Half() == front.Half() {
		d := front.Facing()
		if d.AlongX() != facing.AlongX() && isDifferentStairs(b, pos, d.Opposite(), get) {
			if d == facing.CounterClockwise() {
				return world.OuterLeft
			}
			return world.OuterRight
		}
	}

	back := get(pos.Offset(facing.Opposite()))
	if isStairs(back) && b.Half() == back.Half() {
		d := back.Facing()
		if d.AlongX() != facing.AlongX() && isDifferentStairs(b, pos, d, get) {
			if d == facing.CounterClockwise() {
				return world.InnerLeft
			}
			return world.InnerRight
		}
	}

	return world.Straight
}
