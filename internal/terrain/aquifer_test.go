package terrain

import (
	"math"
	"testing"

	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

type anchorSpec struct {
	pos    world.BlockPos
	status FluidStatus
}

type gridCell [3]int

func newTestAquifer(t *testing.T, seed int64) *noiseAquifer {
	t.Helper()
	st := DefaultSettings()
	s := newSampler(t, st, density.DefaultRouter(), seed)
	nc := s.NewNoiseChunk(world.ChunkWidth/st.CellWidth, 0, 0)
	a, ok := nc.aquifer.(*noiseAquifer)
	if !ok {
		t.Fatalf("aquifer = %T, want *noiseAquifer", nc.aquifer)
	}
	return a
}

// aquiferFixture places every anchor of chunk 0,0 at its cell origin with
// status fallback, except for the cells listed in anchors.
func aquiferFixture(t *testing.T, fallback FluidStatus, anchors map[gridCell]anchorSpec) *noiseAquifer {
	t.Helper()
	a := newTestAquifer(t, 5)
	sizeY := len(a.anchors) / (a.gridSizeX * a.gridSizeZ)
	for gy := a.minGridY; gy < a.minGridY+sizeY; gy++ {
		for gz := a.minGridZ; gz < a.minGridZ+a.gridSizeZ; gz++ {
			for gx := a.minGridX; gx < a.minGridX+a.gridSizeX; gx++ {
				spec, ok := anchors[gridCell{gx, gy, gz}]
				if !ok {
					spec = anchorSpec{pos: world.BlockPos{X: gx * gridX, Y: gy * gridY, Z: gz * gridZ}, status: fallback}
				}
				p := spec.pos
				if world.FloorDiv(p.X, gridX) != gx || world.FloorDiv(p.Y, gridY) != gy || world.FloorDiv(p.Z, gridZ) != gz {
					t.Fatalf("anchor %v lies outside cell %d,%d,%d", p, gx, gy, gz)
				}
				status := spec.status
				i := a.index(gx, gy, gz)
				a.anchors[i], a.located[i], a.statuses[i] = p, true, &status
			}
		}
	}
	return a
}

func TestSimilarityValues(t *testing.T) {
	tests := []struct {
		d1, d2 int
		want   float64
	}{
		{0, 0, 1},
		{0, 5, 0.8},
		{5, 0, 0.8},
		{16, 21, 0.8},
		{5, 9, 0.84},
		{0, 25, 0},
		{16, 80, 1 - 64.0/25},
	}
	for _, tt := range tests {
		if got := Similarity(tt.d1, tt.d2); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Similarity(%d, %d) = %v, want %v", tt.d1, tt.d2, got, tt.want)
		}
	}
}

func TestAquiferBlend(t *testing.T) {
	water := func(level int) FluidStatus { return FluidStatus{Level: level, Fluid: world.Water} }
	lava := func(level int) FluidStatus { return FluidStatus{Level: level, Fluid: world.Lava} }
	at := func(x, y, z int) world.BlockPos { return world.BlockPos{X: x, Y: y, Z: z} }

	tests := []struct {
		name    string
		anchors map[gridCell]anchorSpec
		p       density.Point
		d       float64
		want    world.Block
	}{
		{
			name: "solid density",
			p:    density.Point{X: 8, Y: 40, Z: 16},
			d:    0.1,
			want: world.None,
		},
		{
			name: "one body below its level",
			p:    density.Point{X: 8, Y: 40, Z: 16},
			d:    -0.5,
			want: world.Water,
		},
		{
			name: "one body above its level",
			p:    density.Point{X: 8, Y: 120, Z: 16},
			d:    -0.5,
			want: world.Air,
		},
		{
			// Every other anchor is at least 80 away, so the nearest
			// decides alone.
			name: "nearest anchor dominates",
			anchors: map[gridCell]anchorSpec{
				{0, 3, 1}: {at(8, 40, 16), lava(100)},
			},
			p:    density.Point{X: 8, Y: 40, Z: 16},
			d:    -0.5,
			want: world.Lava,
		},
		{
			name: "lava meets water",
			anchors: map[gridCell]anchorSpec{
				{0, 3, 0}: {at(8, 40, 12), water(100)},
				{0, 3, 1}: {at(8, 40, 20), lava(100)},
			},
			p:    density.Point{X: 8, Y: 40, Z: 16},
			d:    -0.5,
			want: world.None,
		},
		{
			name: "water meets water at the same level",
			anchors: map[gridCell]anchorSpec{
				{0, 3, 0}: {at(8, 40, 12), water(100)},
				{0, 3, 1}: {at(8, 40, 20), water(100)},
			},
			p:    density.Point{X: 8, Y: 40, Z: 16},
			d:    -0.5,
			want: world.Water,
		},
		{
			name: "water meets water at another level",
			anchors: map[gridCell]anchorSpec{
				{0, 3, 0}: {at(8, 40, 12), water(100)},
				{0, 3, 1}: {at(8, 40, 20), water(30)},
			},
			p:    density.Point{X: 8, Y: 40, Z: 16},
			d:    -0.5,
			want: world.None,
		},
		{
			// Squared distances 5, 5 and 9: the third anchor is similar
			// enough to raise a barrier against the first.
			name: "third anchor raises a barrier",
			anchors: map[gridCell]anchorSpec{
				{0, 3, 0}: {at(13, 40, 15), water(100)},
				{0, 3, 1}: {at(13, 40, 17), water(100)},
				{1, 3, 1}: {at(18, 40, 16), lava(100)},
			},
			p:    density.Point{X: 15, Y: 40, Z: 16},
			d:    -0.5,
			want: world.None,
		},
		{
			name: "third anchor too far to matter",
			anchors: map[gridCell]anchorSpec{
				{0, 3, 0}: {at(13, 40, 15), water(100)},
				{0, 3, 1}: {at(13, 40, 17), water(100)},
				{1, 3, 1}: {at(31, 47, 31), lava(100)},
			},
			p:    density.Point{X: 15, Y: 40, Z: 16},
			d:    -0.5,
			want: world.Water,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := aquiferFixture(t, water(100), tt.anchors)
			if got := a.ComputeSubstance(tt.p, tt.d); got != tt.want {
				t.Errorf("ComputeSubstance(%v, %v) = %v, want %v", tt.p, tt.d, got, tt.want)
			}
		})
	}
}

func TestAquiferPressure(t *testing.T) {
	a := aquiferFixture(t, FluidStatus{Level: 100, Fluid: world.Water}, nil)
	ctx := density.Point{X: 8, Y: 40, Z: 16}
	water := FluidStatus{Level: 100, Fluid: world.Water}
	tests := []struct {
		name          string
		first, second FluidStatus
		want          float64
	}{
		{"lava and water", FluidStatus{Level: 100, Fluid: world.Lava}, water, 2},
		{"water and lava", water, FluidStatus{Level: 100, Fluid: world.Lava}, 2},
		{"same level", water, water, 0},
		{"levels far apart", water, FluidStatus{Level: 30, Fluid: world.Water}, 9},
		{"levels far apart swapped", FluidStatus{Level: 30, Fluid: world.Water}, water, 9},
	}
	for _, tt := range tests {
		barrier := 0.0
		if got := a.pressure(ctx, &barrier, tt.first, tt.second); got != tt.want {
			t.Errorf("%s: pressure = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAquiferAnchorCaching(t *testing.T) {
	a := newTestAquifer(t, 9)
	b := newTestAquifer(t, 9)

	for gx := 0; gx <= 1; gx++ {
		for gy := 2; gy <= 4; gy++ {
			p := a.anchor(gx, gy, 1)
			if p.X < gx*gridX || p.X >= gx*gridX+jitterX ||
				p.Y < gy*gridY || p.Y >= gy*gridY+jitterY ||
				p.Z < gridZ || p.Z >= gridZ+jitterZ {
				t.Errorf("anchor(%d, %d, 1) = %v, outside the jitter box", gx, gy, p)
			}
			if q := b.anchor(gx, gy, 1); q != p {
				t.Errorf("anchor(%d, %d, 1) = %v and %v for the same seed", gx, gy, p, q)
			}
		}
	}

	i := a.index(0, 3, 1)
	if !a.located[i] {
		t.Fatal("anchor was not recorded")
	}
	moved := world.BlockPos{X: 1, Y: 37, Z: 17}
	a.anchors[i] = moved
	if got := a.anchor(0, 3, 1); got != moved {
		t.Errorf("anchor recomputed: got %v, want cached %v", got, moved)
	}
}

func TestAquiferStatusCaching(t *testing.T) {
	a := newTestAquifer(t, 9)
	p := a.anchor(0, 3, 1)
	first := a.status(p)

	i := a.index(0, 3, 1)
	if a.statuses[i] == nil || *a.statuses[i] != first {
		t.Fatalf("statuses[%d] = %v, want %v", i, a.statuses[i], first)
	}

	marked := FluidStatus{Level: 7, Fluid: world.Lava}
	*a.statuses[i] = marked
	if got := a.status(p); got != marked {
		t.Errorf("status recomputed: got %v, want cached %v", got, marked)
	}
	origin := world.BlockPos{X: 0, Y: 3 * gridY, Z: gridZ}
	if got := a.status(origin); got != marked {
		t.Errorf("status of another point in the cell = %v, want %v", got, marked)
	}
}
