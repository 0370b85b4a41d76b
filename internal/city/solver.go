package city

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/OCharnyshevich/lostcities/internal/cache"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// AreaCache holds computed areas keyed by area coordinate.
type AreaCache = cache.LRU[world.ChunkPos, *Area]

// Solver assigns multi buildings to areas. It is safe for concurrent use:
// each area is computed once and shared through the area cache.
type Solver struct {
	settings Settings
	registry Registry
	meta     Metadata
	areas    *AreaCache
	seed     int64
	log      *slog.Logger
}

// NewSolver creates a Solver over the given registry and chunk metadata.
func NewSolver(settings Settings, registry Registry, meta Metadata, areas *AreaCache, seed int64, log *slog.Logger) (*Solver, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if registry == nil || meta == nil || areas == nil {
		return nil, errors.New("city: solver needs a registry, metadata and an area cache")
	}
	return &Solver{
		settings: settings,
		registry: registry,
		meta:     meta,
		areas:    areas,
		seed:     seed,
		log:      log,
	}, nil
}

// Settings returns the solver settings.
func (s *Solver) Settings() Settings { return s.settings }

// Area returns the computed area containing chunk c.
func (s *Solver) Area(c world.ChunkPos) (*Area, error) {
	ap := areaPos(c, s.settings.AreaSize)
	return s.areas.GetOrCompute(ap, func() (*Area, error) {
		return s.compute(ap)
	})
}

// PlacementAt returns the multi-building part covering chunk c, if any.
func (s *Solver) PlacementAt(c world.ChunkPos) (Placement, bool, error) {
	a, err := s.Area(c)
	if err != nil {
		return Placement{}, false, err
	}
	p, ok := a.At(c)
	return p, ok, nil
}

// Reset drops every computed area, e.g. after the registry was reloaded.
func (s *Solver) Reset() {
	s.areas.Purge()
}

func (s *Solver) random(ap world.ChunkPos) *rand.Rand {
	salt := uint64(ap.X*797013493+ap.Z*295085213) ^ xxhash.Sum64String(ap.Dimension)
	return rand.New(rand.NewPCG(uint64(s.seed), salt))
}

type choice struct {
	mb    *MultiBuilding
	style string
}

func (s *Solver) compute(ap world.ChunkPos) (*Area, error) {
	st := s.settings
	a := newArea(ap, st.AreaSize)
	rng := s.random(ap)

	count := st.Minimum + rng.IntN(st.Maximum-st.Minimum+1)
	if count <= 0 {
		return a, nil
	}
	cityLevel := s.meta.CityLevel(a.TopLeft)

	counts := make(map[string]int)
	styles := make(map[string]*Style)
	for x := range st.AreaSize {
		for z := range st.AreaSize {
			c := a.TopLeft.Offset(x, z)
			name := s.meta.Style(c)
			if _, ok := styles[name]; !ok {
				style, found := s.registry.Style(name)
				if !found {
					return nil, fmt.Errorf("area %v chunk %v: style %q: %w", ap, c, name, ErrUnknownStyle)
				}
				styles[name] = style
			}
			counts[name]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	weights := make([]float64, len(names))
	for i, name := range names {
		weights[i] = float64(counts[name])
	}

	choices := make([]choice, 0, count)
	for range count {
		style := styles[names[pickWeighted(rng, weights)]]
		mbName := style.pickMultiBuilding(rng, a.TopLeft)
		mb, ok := s.registry.MultiBuilding(mbName)
		if !ok {
			return nil, fmt.Errorf("area %v style %s: multi building %q: %w", ap, style.Name, mbName, ErrUnknownMultiBuilding)
		}
		choices = append(choices, choice{mb: mb, style: style.Name})
	}
	slices.SortStableFunc(choices, func(x, y choice) int {
		return (y.mb.DimX + y.mb.DimZ) - (x.mb.DimX + x.mb.DimZ)
	})

	for _, ch := range choices {
		maxCellars, err := s.maxCellars(ch.mb)
		if err != nil {
			return nil, fmt.Errorf("area %v: %w", ap, err)
		}
		if ch.mb.DimX > st.AreaSize || ch.mb.DimZ > st.AreaSize {
			s.log.Debug("multi building larger than area", "area", ap, "name", ch.mb.Name)
			continue
		}
		placed := false
		for range st.Attempts {
			x := rng.IntN(st.AreaSize - ch.mb.DimX + 1)
			z := rng.IntN(st.AreaSize - ch.mb.DimZ + 1)
			if s.canPlace(a, ch, cityLevel, maxCellars, x, z) {
				a.place(ch.mb, x, z)
				placed = true
				s.log.Debug("placed multi building", "area", ap, "name", ch.mb.Name, "x", x, "z", z)
				break
			}
		}
		if !placed {
			s.log.Debug("no room for multi building", "area", ap, "name", ch.mb.Name, "attempts", st.Attempts)
		}
	}
	return a, nil
}

func (s *Solver) maxCellars(mb *MultiBuilding) (int, error) {
	cellars := 0
	for _, name := range mb.BuildingSet() {
		b, ok := s.registry.Building(name)
		if !ok {
			return 0, fmt.Errorf("multi building %s: building %q: %w", mb.Name, name, ErrUnknownBuilding)
		}
		cellars = max(cellars, b.MaxCellars)
	}
	return cellars, nil
}

func (s *Solver) canPlace(a *Area, ch choice, cityLevel, maxCellars, x, z int) bool {
	correct := 0
	for xx := range ch.mb.DimX {
		for zz := range ch.mb.DimZ {
			if a.grid[x+xx][z+zz] != nil {
				return false
			}
			c := a.TopLeft.Offset(x+xx, z+zz)
			if s.meta.Occupied(c) {
				return false
			}
			rail := s.meta.Rail(c)
			if rail.Type.Surface() || rail.Type.Station() || !s.meta.IsCity(c) || s.meta.Highway(c) {
				return false
			}
			if rail.Type != RailNone && cityLevel-rail.Level-s.settings.RailPartHeight < maxCellars {
				return false
			}
			if s.meta.Style(c) == ch.style {
				correct++
			}
		}
	}
	return float64(correct) >= float64(ch.mb.DimX*ch.mb.DimZ)*s.settings.CorrectStyleFactor
}

// Registry returns the registry placements are resolved against.
func (s *Solver) Registry() Registry { return s.registry }

// Metadata returns the chunk metadata the solver reads.
func (s *Solver) Metadata() Metadata { return s.meta }
