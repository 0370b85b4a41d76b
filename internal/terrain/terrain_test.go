package terrain

import (
	"errors"
	"math"
	"testing"

	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

func buildRouter(t *testing.T, spec *density.RouterSpec, seed int64) *density.Router {
	t.Helper()
	r, err := spec.Build(seed)
	if err != nil {
		t.Fatalf("Build router: %v", err)
	}
	return r
}

func newSampler(t *testing.T, st Settings, spec *density.RouterSpec, seed int64) *Sampler {
	t.Helper()
	s, err := NewSampler(st, buildRouter(t, spec, seed), seed)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	return s
}

// gradientSpec is solid below y=64 everywhere.
func gradientSpec() *density.RouterSpec {
	return &density.RouterSpec{
		FinalDensity: &density.Node{
			Type: density.TypeInterpolated,
			Argument: &density.Node{
				Type: density.TypeYClampedGradient, FromY: 0, ToY: 128, FromValue: 1, ToValue: -1,
			},
		},
	}
}

func TestSimilarity(t *testing.T) {
	for _, d := range []int{0, 7, 144, 1000} {
		if got := Similarity(d, d); got != 1.0 {
			t.Errorf("Similarity(%d, %d) = %v, want 1", d, d, got)
		}
	}
	prev := Similarity(100, 100)
	for diff := 1; diff <= 40; diff++ {
		got := Similarity(100, 100+diff)
		if got >= prev {
			t.Fatalf("Similarity not strictly decreasing at diff %d: %v >= %v", diff, got, prev)
		}
		if Similarity(100+diff, 100) != got {
			t.Fatalf("Similarity not symmetric at diff %d", diff)
		}
		if diff >= 25 && got > 0 {
			t.Errorf("Similarity at diff %d = %v, want <= 0", diff, got)
		}
		prev = got
	}
}

func TestFluidPicker(t *testing.T) {
	pick := NewFluidPicker(DefaultSettings())
	tests := []struct {
		y    int
		want world.Block
	}{
		{-60, world.Lava},
		{-55, world.Lava},
		{-54, world.Water},
		{62, world.Water},
		{63, world.Air},
		{100, world.Air},
	}
	for _, tt := range tests {
		if got := pick(0, tt.y, 0).At(tt.y); got != tt.want {
			t.Errorf("fluid at y=%d = %v, want %v", tt.y, got, tt.want)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"cell width 5", func(s *Settings) { s.CellWidth = 5 }, false},
		{"min y off cell", func(s *Settings) { s.MinY = -60 }, false},
		{"min y off section", func(s *Settings) { s.MinY = -8; s.Height = 128 }, false},
		{"height off section", func(s *Settings) { s.MinY = 0; s.Height = 120 }, false},
		{"zero height", func(s *Settings) { s.Height = 0 }, false},
		{"small aligned range", func(s *Settings) { s.MinY = 0; s.Height = 64 }, true},
		{"no default block", func(s *Settings) { s.DefaultBlock = world.None }, false},
	}
	for _, tt := range tests {
		st := DefaultSettings()
		tt.modify(&st)
		if err := st.Validate(); (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v, want ok %v", tt.name, err, tt.ok)
		}
	}
}

func TestBaseHeightGradient(t *testing.T) {
	st := DefaultSettings()
	st.AquifersEnabled = false
	s := newSampler(t, st, gradientSpec(), 1)

	for _, c := range [][2]int{{0, 0}, {-1, -1}, {17, -33}, {1000, 5}} {
		if got := s.BaseHeight(c[0], c[1]); got != 64 {
			t.Errorf("BaseHeight(%d, %d) = %d, want 64", c[0], c[1], got)
		}
	}
	if got := s.StateAt(3, 63, 3); got != world.Stone {
		t.Errorf("StateAt(y=63) = %v, want stone", got)
	}
	if got := s.StateAt(3, 64, 3); got != world.Air {
		t.Errorf("StateAt(y=64) = %v, want air", got)
	}
	if got := s.StateAt(3, 400, 3); got != world.Air {
		t.Errorf("StateAt above build limit = %v, want air", got)
	}
}

func TestDisabledAquiferUsesGlobalFluid(t *testing.T) {
	st := DefaultSettings()
	st.AquifersEnabled = false
	spec := &density.RouterSpec{FinalDensity: &density.Node{Type: density.TypeConstant, Value: -1}}
	s := newSampler(t, st, spec, 1)

	tests := []struct {
		y    int
		want world.Block
	}{
		{-64, world.Lava},
		{0, world.Water},
		{62, world.Water},
		{63, world.Air},
	}
	for _, tt := range tests {
		if got := s.StateAt(5, tt.y, -5); got != tt.want {
			t.Errorf("StateAt(y=%d) = %v, want %v", tt.y, got, tt.want)
		}
	}
	if got := s.BaseHeight(5, -5); got != st.MinY {
		t.Errorf("BaseHeight of fluid-only column = %d, want %d", got, st.MinY)
	}
}

func TestInterpolatorIsTrilinear(t *testing.T) {
	st := DefaultSettings()
	st.AquifersEnabled = false
	noiseNode := &density.Node{Type: density.TypeNoise, Noise: "probe", XZScale: 0.0731, YScale: 0.0557}
	spec := &density.RouterSpec{FinalDensity: &density.Node{Type: density.TypeInterpolated, Argument: noiseNode}}
	r := buildRouter(t, spec, 77)
	s, err := NewSampler(st, r, 77)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	static := r.FinalDensity.(*density.Marker).Wrapped

	const firstX, firstZ = 32, -48
	nc := s.NewNoiseChunk(1, firstX, firstZ)
	if err := nc.StartInterpolation(); err != nil {
		t.Fatalf("StartInterpolation: %v", err)
	}
	nc.AdvanceCellX(0)
	if len(nc.interpolators) != 1 {
		t.Fatalf("got %d interpolators, want 1", len(nc.interpolators))
	}
	it := nc.interpolators[0]

	cw, ch := st.CellWidth, st.CellHeight
	for _, cy := range []int{0, 9, 20, nc.cellCountY - 1} {
		nc.SelectCellYZ(cy, 0)
		y0 := (nc.cellMinY + cy) * ch
		corner := func(i, j, k int) float64 {
			return static.Compute(density.Point{X: firstX + i*cw, Y: y0 + j*ch, Z: firstZ + k*cw})
		}
		for dy := ch - 1; dy >= 0; dy-- {
			fy := float64(dy) / float64(ch)
			nc.UpdateForY(y0+dy, fy)
			for dx := range cw {
				fx := float64(dx) / float64(cw)
				nc.UpdateForX(firstX+dx, fx)
				for dz := range cw {
					fz := float64(dz) / float64(cw)
					nc.UpdateForZ(firstZ+dz, fz)
					want := density.Lerp3(fx, fy, fz,
						corner(0, 0, 0), corner(1, 0, 0), corner(0, 1, 0), corner(1, 1, 0),
						corner(0, 0, 1), corner(1, 0, 1), corner(0, 1, 1), corner(1, 1, 1))
					if got := it.Compute(nc); math.Abs(got-want) > 1e-9 {
						t.Fatalf("cell %d (%d,%d,%d): got %v, want %v", cy, dx, dy, dz, got, want)
					}
				}
			}
		}
	}
	if err := nc.StopInterpolation(); err != nil {
		t.Fatalf("StopInterpolation: %v", err)
	}
}

func TestInterpolationMisuse(t *testing.T) {
	st := DefaultSettings()
	s := newSampler(t, st, gradientSpec(), 3)
	nc := s.NewNoiseChunk(1, 0, 0)

	if err := nc.StopInterpolation(); !errors.Is(err, ErrNotInterpolating) {
		t.Errorf("stop while idle: err = %v, want ErrNotInterpolating", err)
	}
	if err := nc.StartInterpolation(); err != nil {
		t.Fatalf("StartInterpolation: %v", err)
	}
	if err := nc.StartInterpolation(); !errors.Is(err, ErrNotInterpolating) {
		t.Errorf("start twice: err = %v, want ErrNotInterpolating", err)
	}
	if err := nc.StopInterpolation(); err != nil {
		t.Fatalf("StopInterpolation: %v", err)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNotInterpolating) {
			t.Errorf("recovered %v, want ErrNotInterpolating", r)
		}
	}()
	nc.interpolators[0].Compute(nc)
}

func TestSamplerDeterministic(t *testing.T) {
	st := DefaultSettings()
	a := newSampler(t, st, density.DefaultRouter(), 1234)
	b := newSampler(t, st, density.DefaultRouter(), 1234)

	for _, c := range [][2]int{{0, 0}, {123, -456}, {-999, 77}} {
		if ha, hb := a.BaseHeight(c[0], c[1]), b.BaseHeight(c[0], c[1]); ha != hb {
			t.Errorf("BaseHeight(%v) = %d and %d", c, ha, hb)
		}
		if ha, hb := a.BaseHeight(c[0], c[1]), a.BaseHeight(c[0], c[1]); ha != hb {
			t.Errorf("repeated BaseHeight(%v) = %d and %d", c, ha, hb)
		}
		for _, y := range []int{-63, -20, 40, 62, 90} {
			if sa, sb := a.StateAt(c[0], y, c[1]), b.StateAt(c[0], y, c[1]); sa != sb {
				t.Errorf("StateAt(%v, y=%d) = %v and %v", c, y, sa, sb)
			}
		}
	}
}

func TestFillChunkMatchesPointQueries(t *testing.T) {
	st := DefaultSettings()
	s := newSampler(t, st, density.DefaultRouter(), 99)
	pos := world.ChunkPos{Dimension: world.Overworld, X: 3, Z: -2}
	fill := s.FillChunk(pos)
	if fill.MinY != st.MinY || fill.NumY != st.Height {
		t.Fatalf("fill range = [%d,+%d), want [%d,+%d)", fill.MinY, fill.NumY, st.MinY, st.Height)
	}

	for _, c := range [][2]int{{0, 0}, {5, 11}, {15, 15}, {8, 3}} {
		x, z := pos.MinBlockX()+c[0], pos.MinBlockZ()+c[1]
		if got, want := fill.Height(c[0], c[1]), s.BaseHeight(x, z); got != want {
			t.Errorf("fill height at %v = %d, BaseHeight = %d", c, got, want)
		}
		for _, y := range []int{-64, -30, 10, 50, 63, 70, 120} {
			if got, want := fill.Block(c[0], y, c[1]), s.StateAt(x, y, z); got != want {
				t.Errorf("fill block at %v y=%d = %v, StateAt = %v", c, y, got, want)
			}
		}
	}

	if got := fill.Block(0, -64, 0); got != world.Stone {
		t.Errorf("bottom block = %v, want stone", got)
	}
	if got := fill.Block(0, 319, 0); got != world.Air {
		t.Errorf("top block = %v, want air", got)
	}
}

type rangeRecorder map[[3]int]world.Block

func (r rangeRecorder) SetRange(x, z, y, y2 int, b world.Block) {
	for yy := y; yy < y2; yy++ {
		r[[3]int{x, yy, z}] = b
	}
}

func TestChunkFillWriteTo(t *testing.T) {
	st := DefaultSettings()
	st.AquifersEnabled = false
	s := newSampler(t, st, gradientSpec(), 5)
	fill := s.FillChunk(world.ChunkPos{Dimension: world.Overworld})

	rec := rangeRecorder{}
	fill.WriteTo(rec)
	for y := st.MinY; y < st.MaxY(); y++ {
		want := fill.Block(7, y, 9)
		got, ok := rec[[3]int{7, y, 9}]
		if want.IsAir() {
			if ok {
				t.Fatalf("air at y=%d was written as %v", y, got)
			}
			continue
		}
		if got != want {
			t.Fatalf("y=%d: wrote %v, want %v", y, got, want)
		}
	}
	if got := rec[[3]int{7, 63, 9}]; got != world.Stone {
		t.Errorf("y=63 = %v, want stone", got)
	}
}
