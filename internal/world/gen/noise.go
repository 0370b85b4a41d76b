package gen

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCharnyshevich/lostcities/internal/city"
	"github.com/OCharnyshevich/lostcities/internal/terrain"
	"github.com/OCharnyshevich/lostcities/internal/world/driver"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Options shapes the buildings stamped by NoiseGenerator.
type Options struct {
	// GroundLevel is the street level of city level 0.
	GroundLevel int `yaml:"ground_level"`
	// FloorHeight is the height of one floor including its slab.
	FloorHeight int `yaml:"floor_height"`
	// DefaultFloors is used for buildings that do not set their own.
	DefaultFloors int `yaml:"default_floors"`
}

// DefaultOptions returns the building defaults.
func DefaultOptions() Options {
	return Options{GroundLevel: 64, FloorHeight: 6, DefaultFloors: 4}
}

// NoiseGenerator generates density-field terrain and stamps the multi
// buildings the city solver assigns to each chunk.
type NoiseGenerator struct {
	store   Store
	sampler *terrain.Sampler
	solver  *city.Solver
	opts    Options
	log     *slog.Logger
}

// NewNoiseGenerator creates a NoiseGenerator. A nil solver generates bare
// terrain.
func NewNoiseGenerator(store Store, sampler *terrain.Sampler, solver *city.Solver, opts Options, log *slog.Logger) (*NoiseGenerator, error) {
	st := sampler.Settings()
	if st.MinY != store.MinY() || st.MaxY() != store.MaxY() {
		return nil, fmt.Errorf("gen: sampler range [%d,%d) does not match store range [%d,%d)",
			st.MinY, st.MaxY(), store.MinY(), store.MaxY())
	}
	if opts.FloorHeight < 2 {
		return nil, errors.New("gen: floor height must be at least 2")
	}
	return &NoiseGenerator{store: store, sampler: sampler, solver: solver, opts: opts, log: log}, nil
}

func (g *NoiseGenerator) Generate(pos world.ChunkPos) error {
	g.store.SetStatus(pos, world.StatusGenerating)
	d := driver.New(g.store, pos, g.log)

	fill := g.sampler.FillChunk(pos)
	fill.WriteTo(d)
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			d.SetRange(x, z, fill.MinY, fill.MinY+1, world.Bedrock)
			g.surface(d, fill, x, z)
		}
	}

	if g.solver != nil {
		p, ok, err := g.solver.PlacementAt(pos)
		if err != nil {
			return fmt.Errorf("generate %v: %w", pos, err)
		}
		if ok {
			if err := g.building(d, fill, pos, p); err != nil {
				return fmt.Errorf("generate %v: %w", pos, err)
			}
		}
	}

	if err := d.Commit(); err != nil {
		return fmt.Errorf("generate %v: %w", pos, err)
	}
	g.store.SetStatus(pos, world.StatusFull)
	return nil
}

// HeightAt returns one above the highest solid terrain block of a column.
func (g *NoiseGenerator) HeightAt(x, z int) int {
	return g.sampler.BaseHeight(x, z)
}

// surface tops exposed default blocks with grass above sea level and dirt
// below it, with three layers of dirt underneath.
func (g *NoiseGenerator) surface(d *driver.Driver, fill *terrain.ChunkFill, x, z int) {
	st := g.sampler.Settings()
	top := fill.Height(x, z) - 1
	if top <= fill.MinY+1 || fill.Block(x, top, z) != st.DefaultBlock {
		return
	}
	cover := world.Grass
	if top < st.SeaLevel {
		cover = world.Dirt
	}
	isDefault := func(b world.Block) bool { return b == st.DefaultBlock }
	d.SetRangeIf(x, z, max(top-3, fill.MinY+1), top, world.Dirt, isDefault)
	d.SetRange(x, z, top, top+1, cover)
}

// building stamps the part of a multi building that covers this chunk: a
// brick shell with cellars, floor slabs, glass pane windows, a fenced roof
// and a ladder shaft.
func (g *NoiseGenerator) building(d *driver.Driver, fill *terrain.ChunkFill, pos world.ChunkPos, p city.Placement) error {
	reg := g.solver.Registry()
	mb, ok := reg.MultiBuilding(p.Name)
	if !ok {
		return fmt.Errorf("multi building %q: %w", p.Name, city.ErrUnknownMultiBuilding)
	}
	name := mb.Building(p.OffsetX, p.OffsetZ)
	if name == "" {
		return nil
	}
	b, ok := reg.Building(name)
	if !ok {
		return fmt.Errorf("building %q: %w", name, city.ErrUnknownBuilding)
	}
	floors := b.Floors
	if floors == 0 {
		floors = g.opts.DefaultFloors
	}

	fh := g.opts.FloorHeight
	base := g.opts.GroundLevel + g.solver.Metadata().CityLevel(pos)*fh
	bottom := max(base-b.MaxCellars*fh, d.MinY()+2)
	roof := min(base+floors*fh, d.MaxY()-1) - 1

	west, east := p.OffsetX == 0, p.OffsetX == mb.DimX-1
	north, south := p.OffsetZ == 0, p.OffsetZ == mb.DimZ-1
	edge := func(x, z int) bool {
		return (west && x == 0) || (east && x == world.ChunkWidth-1) ||
			(north && z == 0) || (south && z == world.ChunkWidth-1)
	}

	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			d.SetRangeToAir(x, z, bottom, roof+2)
			if h := max(fill.Height(x, z), d.MinY()+1); h < bottom-1 {
				d.SetRange(x, z, h, bottom-1, g.sampler.Settings().DefaultBlock)
			}
			for y := bottom - 1; y <= roof; y += fh {
				d.SetRange(x, z, y, y+1, world.Bricks)
			}
			d.SetRange(x, z, roof, roof+1, world.Bricks)
			if edge(x, z) {
				d.SetRange(x, z, bottom, roof, world.Bricks)
			}
		}
	}

	// Single writes from here on so panes and fences connect.
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			if !edge(x, z) {
				continue
			}
			d.SetBlockAt(x, roof+1, z, world.OakFence)
			if (x+z)%4 == 0 {
				continue
			}
			for y := base + 2; y+1 < roof; y += fh {
				d.SetBlockAt(x, y, z, world.GlassPane)
				d.SetBlockAt(x, y+1, z, world.GlassPane)
			}
		}
	}
	d.Current(2, bottom, 2)
	for d.Cursor().Y < roof {
		d.Add(world.Ladder)
	}
	g.log.Debug("stamped building", "chunk", pos, "multi", p.Name, "building", name,
		"offset_x", p.OffsetX, "offset_z", p.OffsetZ, "bottom", bottom, "roof", roof)
	return nil
}
