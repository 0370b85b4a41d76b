package driver

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	store "github.com/OCharnyshevich/lostcities/internal/world"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestDriver(s *store.Store, cx, cz int) *Driver {
	return New(s, world.ChunkPos{Dimension: world.Overworld, X: cx, Z: cz}, testLog)
}

func TestCommitLastWriteWins(t *testing.T) {
	s := store.NewStore(-64, 64)
	d := newTestDriver(s, 1, -1)
	palette := []world.Block{world.Air, world.Stone, world.Dirt, world.Bricks, world.Water, world.None}
	rng := rand.New(rand.NewPCG(7, 11))

	want := make(map[world.BlockPos]world.Block)
	for range 5000 {
		p := world.BlockPos{
			X: d.Pos().MinBlockX() + rng.IntN(16),
			Y: -64 + rng.IntN(128),
			Z: d.Pos().MinBlockZ() + rng.IntN(16),
		}
		b := palette[rng.IntN(len(palette))]
		if rng.IntN(4) == 0 {
			top := p.Y + 1 + rng.IntN(8)
			if top > 64 {
				top = 64
			}
			d.SetRange(p.X, p.Z, p.Y, top, b)
			if !b.IsNone() {
				for y := p.Y; y < top; y++ {
					want[world.BlockPos{X: p.X, Y: y, Z: p.Z}] = b
				}
			}
			continue
		}
		d.SetBlock(p, b)
		if !b.IsNone() {
			want[p] = b
		}
	}

	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for p, b := range want {
		if got := s.Block(world.Overworld, p); got != b {
			t.Fatalf("Block(%v) = %v, want %v", p, got, b)
		}
	}
}

func TestHeightmapInvariant(t *testing.T) {
	s := store.NewStore(-64, 64)
	d := newTestDriver(s, 0, 0)
	rng := rand.New(rand.NewPCG(1, 2))

	check := func(step int) {
		t.Helper()
		for x := range 16 {
			for z := range 16 {
				want := world.NoHeight
				for y := 63; y >= -64; y-- {
					b := d.cache.get(x, y, z)
					if !b.IsNone() && !b.IsAir() {
						want = y
						break
					}
				}
				if got := d.Height(x, z); got != want {
					t.Fatalf("step %d: Height(%d,%d) = %d, want %d", step, x, z, got, want)
				}
			}
		}
	}

	for step := range 3000 {
		x, z := rng.IntN(4), rng.IntN(4)
		y := -64 + rng.IntN(128)
		switch rng.IntN(5) {
		case 0:
			d.SetBlockAt(x, y, z, world.Stone)
		case 1:
			d.SetBlockAt(x, y, z, world.Air)
		case 2:
			d.SetRange(x, z, y, min(y+rng.IntN(20)+1, 64), world.Dirt)
		case 3:
			d.SetRangeToAir(x, z, y, min(y+rng.IntN(20)+1, 64))
		case 4:
			d.SetRangeIf(x, z, -64, 64, world.Air, func(b world.Block) bool { return b == world.Dirt })
		}
		if step%100 == 0 {
			check(step)
		}
	}
	check(3000)
}

func TestAirRescanFindsLowerBlock(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	d.SetBlockAt(2, 10, 3, world.Stone)
	d.SetBlockAt(2, 40, 3, world.Stone)
	if got := d.Height(2, 3); got != 40 {
		t.Fatalf("Height = %d, want 40", got)
	}
	d.SetBlockAt(2, 40, 3, world.Air)
	if got := d.Height(2, 3); got != 10 {
		t.Errorf("Height after clearing top = %d, want 10", got)
	}
	d.SetRangeToAir(2, 3, 0, 64)
	if got := d.Height(2, 3); got != world.NoHeight {
		t.Errorf("Height after clearing column = %d, want NoHeight", got)
	}
}

func TestDoubleCommitIsNoop(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	d.SetRange(0, 0, 0, 5, world.Stone)
	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Another writer changes the store between the two commits.
	p := world.BlockPos{X: 0, Y: 2, Z: 0}
	s.SetBlock(world.Overworld, p, world.Bricks)
	if err := d.Commit(); err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if got := s.Block(world.Overworld, p); got != world.Bricks {
		t.Errorf("second commit overwrote store: got %v, want bricks", got)
	}
	if got := d.Height(0, 0); got != 4 {
		t.Errorf("height after commit = %d, want 4", got)
	}
}

func TestNoneLeavesContentUntouched(t *testing.T) {
	s := store.NewStore(0, 64)
	p := world.BlockPos{X: 4, Y: 4, Z: 4}
	s.SetBlock(world.Overworld, p, world.Dirt)

	d := newTestDriver(s, 0, 0)
	d.SetBlock(p, world.None)
	d.SetRange(4, 4, 0, 10, world.None)
	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := s.Block(world.Overworld, p); got != world.Dirt {
		t.Errorf("Block = %v, want dirt", got)
	}
}

func TestStructureVoidSkipsWrite(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	d.SetBlockAt(1, 1, 1, world.Bricks)
	d.SetBlockAt(1, 1, 1, world.StructureVoid)
	if got := d.BlockAt(1, 1, 1); got != world.Bricks {
		t.Errorf("BlockAt = %v, want bricks", got)
	}
}

func TestReadThroughMemoizes(t *testing.T) {
	s := store.NewStore(0, 64)
	p := world.BlockPos{X: 5, Y: 20, Z: 6}
	s.SetBlock(world.Overworld, p, world.Stone)

	d := newTestDriver(s, 0, 0)
	if got := d.Block(p); got != world.Stone {
		t.Fatalf("Block = %v, want stone", got)
	}
	s.SetBlock(world.Overworld, p, world.Dirt)
	if got := d.Block(p); got != world.Stone {
		t.Errorf("second read = %v, want memoized stone", got)
	}
	if got := d.Height(5, 6); got != 20 {
		t.Errorf("Height = %d, want 20", got)
	}
}

func TestSetRangeIfOnlyTouchesBufferedMatches(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	d.SetRange(0, 0, 0, 4, world.Dirt)
	d.SetBlockAt(0, 2, 0, world.Stone)

	d.SetRangeIf(0, 0, 0, 10, world.Bricks, func(b world.Block) bool { return b == world.Dirt })
	want := []world.Block{world.Bricks, world.Bricks, world.Stone, world.Bricks}
	for y, b := range want {
		if got := d.cache.get(0, y, 0); got != b {
			t.Errorf("y=%d: got %v, want %v", y, got, b)
		}
	}
	if got := d.cache.get(0, 6, 0); !got.IsNone() {
		t.Errorf("unbuffered cell y=6 was written: %v", got)
	}
	if got := d.Height(0, 0); got != 3 {
		t.Errorf("Height = %d, want 3", got)
	}
}

func TestFenceNeighborInSameChunk(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	d.SetBlockAt(5, 10, 5, world.OakFence)
	d.SetBlockAt(6, 10, 5, world.OakFence)

	west := d.BlockAt(5, 10, 5)
	east := d.BlockAt(6, 10, 5)
	if !west.Connected(world.East) {
		t.Errorf("west fence %v should connect east", west)
	}
	if !east.Connected(world.West) {
		t.Errorf("east fence %v should connect west", east)
	}

	d.SetBlockAt(6, 10, 5, world.Air)
	if d.BlockAt(5, 10, 5).Connected(world.East) {
		t.Error("fence should detach once its neighbor is removed")
	}
}

func TestFenceNeighborAcrossChunks(t *testing.T) {
	s := store.NewStore(0, 64)
	finalized := world.ChunkPos{Dimension: world.Overworld, X: -1, Z: 0}
	pending := world.ChunkPos{Dimension: world.Overworld, X: 1, Z: 0}
	left := world.BlockPos{X: -1, Y: 10, Z: 3}
	right := world.BlockPos{X: 16, Y: 10, Z: 3}
	s.SetBlock(world.Overworld, left, world.OakFence)
	s.SetBlock(world.Overworld, right, world.OakFence)
	s.SetStatus(finalized, world.StatusFull)
	s.SetStatus(pending, world.StatusGenerating)

	d := newTestDriver(s, 0, 0)
	d.SetBlockAt(0, 10, 3, world.OakFence)
	d.SetBlockAt(15, 10, 3, world.OakFence)

	if got := s.Block(world.Overworld, left); !got.Connected(world.East) {
		t.Errorf("finalized neighbor %v should be written through", got)
	}
	if got := s.Block(world.Overworld, right); got.Connected(world.West) {
		t.Errorf("pending neighbor %v should not be touched", got)
	}
	if !d.BlockAt(0, 10, 3).Connected(world.West) {
		t.Error("placed fence should connect to the finalized neighbor")
	}
}

func TestShapeFaultKeepsNeighbor(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	odd := world.Block{Type: 777}
	d.SetBlockAt(3, 3, 3, odd)
	d.SetBlockAt(4, 3, 3, world.OakFence)
	if got := d.BlockAt(3, 3, 3); got != odd {
		t.Errorf("neighbor = %v, want unchanged %v", got, odd)
	}
	if !d.BlockAt(4, 3, 3).Connected(world.West) {
		t.Error("fence should still attach to a solid unknown block")
	}
}

func TestCommitHeightmapVariants(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	d.SetRange(0, 0, 0, 20, world.Stone)
	d.SetRange(0, 0, 20, 30, world.Water)
	d.SetBlockAt(0, 30, 0, world.Leaves)
	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tests := []struct {
		typ  world.HeightmapType
		want int
	}{
		{world.WorldSurface, 30},
		{world.MotionBlocking, 30},
		{world.MotionBlockingNoLeaves, 29},
		{world.OceanFloor, 30},
	}
	for _, tt := range tests {
		if got := s.Height(tt.typ, world.Overworld, 0, 0); got != tt.want {
			t.Errorf("%v = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestSetBlockOutOfRangePanics(t *testing.T) {
	s := store.NewStore(0, 64)
	d := newTestDriver(s, 0, 0)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for y outside build range")
		}
	}()
	d.SetBlockAt(0, 64, 0, world.Stone)
}

func stoneColumn(s *store.Store, x, z, top int) {
	for y := 0; y <= top; y++ {
		s.SetBlock(world.Overworld, world.BlockPos{X: x, Y: y, Z: z}, world.Stone)
	}
}

func TestCommitClearsStoredColumn(t *testing.T) {
	s := store.NewStore(0, 64)
	stoneColumn(s, 3, 3, 40)

	d := newTestDriver(s, 0, 0)
	if got := d.Height(3, 3); got != 40 {
		t.Fatalf("Height before writes = %d, want 40", got)
	}
	d.SetRangeToAir(3, 3, 0, 64)
	if got := d.Height(3, 3); got != world.NoHeight {
		t.Errorf("Height after clearing = %d, want NoHeight", got)
	}
	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for _, typ := range world.HeightmapTypes {
		if got := s.Height(typ, world.Overworld, 3, 3); got != world.NoHeight {
			t.Errorf("%v = %d, want NoHeight", typ, got)
		}
	}
}

func TestCommitLowersStoredColumn(t *testing.T) {
	s := store.NewStore(0, 64)
	stoneColumn(s, 3, 3, 40)
	s.SetBlock(world.Overworld, world.BlockPos{X: 3, Y: 41, Z: 3}, world.Leaves)

	d := newTestDriver(s, 0, 0)
	d.SetRangeToAir(3, 3, 30, 64)
	d.SetBlockAt(3, 25, 3, world.Water)
	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tests := []struct {
		typ  world.HeightmapType
		want int
	}{
		{world.WorldSurface, 29},
		{world.MotionBlocking, 29},
		{world.MotionBlockingNoLeaves, 29},
		{world.OceanFloor, 29},
	}
	for _, tt := range tests {
		if got := s.Height(tt.typ, world.Overworld, 3, 3); got != tt.want {
			t.Errorf("%v = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestHeightReadsThroughStore(t *testing.T) {
	s := store.NewStore(0, 64)
	stoneColumn(s, 3, 3, 40)

	d := newTestDriver(s, 0, 0)
	d.SetBlockAt(3, 50, 3, world.Stone)
	if got := d.Height(3, 3); got != 50 {
		t.Fatalf("Height = %d, want 50", got)
	}
	d.SetBlockAt(3, 50, 3, world.Air)
	if got := d.Height(3, 3); got != 40 {
		t.Errorf("Height after removing top = %d, want stored 40", got)
	}
	d.SetRangeToAir(3, 3, 35, 41)
	if got := d.Height(3, 3); got != 34 {
		t.Errorf("Height after clearing 35..40 = %d, want 34", got)
	}
}

func TestCommitMapsSectionsToGlobalY(t *testing.T) {
	s := store.NewStore(-64, 64)
	d := newTestDriver(s, 0, 0)
	for _, y := range []int{-64, -49, -1, 0, 17, 63} {
		d.SetBlockAt(1, y, 1, world.Bricks)
	}
	if err := d.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for _, y := range []int{-64, -49, -1, 0, 17, 63} {
		if got := s.Block(world.Overworld, world.BlockPos{X: 1, Y: y, Z: 1}); got != world.Bricks {
			t.Errorf("Block(y=%d) = %v, want bricks", y, got)
		}
	}
	if got := s.Block(world.Overworld, world.BlockPos{X: 1, Y: -48, Z: 1}); got != world.Air {
		t.Errorf("Block(y=-48) = %v, want air", got)
	}
}

func TestUnalignedRangePanics(t *testing.T) {
	tests := []struct {
		name       string
		minY, maxY int
	}{
		{"min y", -8, 120},
		{"height", 0, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New over [%d,%d) should panic", tt.minY, tt.maxY)
				}
			}()
			newTestDriver(store.NewStore(tt.minY, tt.maxY), 0, 0)
		})
	}
}
