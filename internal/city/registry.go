package city

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Selector is one weighted choice of a style. Spawn distances are in blocks;
// outside [MinSpawnDistance, MaxSpawnDistance] the weight fades to zero over
// Feather blocks.
type Selector struct {
	Factor           float64 `yaml:"factor"`
	Value            string  `yaml:"value"`
	MinSpawnDistance int     `yaml:"min_spawn_distance,omitempty"`
	MaxSpawnDistance int     `yaml:"max_spawn_distance,omitempty"`
	Feather          int     `yaml:"feather,omitempty"`
}

// Style is a city style with its weighted multi-building choices.
type Style struct {
	Name           string     `yaml:"name"`
	MultiBuildings []Selector `yaml:"multi_buildings"`
}

// MultiBuilding is a footprint of DimX×DimZ chunks. Buildings is indexed
// [x][z]; an empty name leaves that chunk to the regular generator.
type MultiBuilding struct {
	Name      string     `yaml:"name"`
	DimX      int        `yaml:"dim_x"`
	DimZ      int        `yaml:"dim_z"`
	Buildings [][]string `yaml:"buildings"`
}

// Validate checks the footprint against the building grid.
func (mb *MultiBuilding) Validate() error {
	if mb.Name == "" {
		return fmt.Errorf("%w: multi building without name", ErrInvalidTemplate)
	}
	if mb.DimX <= 0 || mb.DimZ <= 0 {
		return fmt.Errorf("%w: %s has footprint %dx%d", ErrInvalidTemplate, mb.Name, mb.DimX, mb.DimZ)
	}
	if len(mb.Buildings) != mb.DimX {
		return fmt.Errorf("%w: %s has %d building rows, want %d", ErrInvalidTemplate, mb.Name, len(mb.Buildings), mb.DimX)
	}
	for x, row := range mb.Buildings {
		if len(row) != mb.DimZ {
			return fmt.Errorf("%w: %s row %d has %d buildings, want %d", ErrInvalidTemplate, mb.Name, x, len(row), mb.DimZ)
		}
	}
	return nil
}

// Building returns the building at footprint offset x, z.
func (mb *MultiBuilding) Building(x, z int) string { return mb.Buildings[x][z] }

// BuildingSet returns the distinct non-empty building names, sorted.
func (mb *MultiBuilding) BuildingSet() []string {
	var names []string
	for _, row := range mb.Buildings {
		for _, b := range row {
			if b != "" && !slices.Contains(names, b) {
				names = append(names, b)
			}
		}
	}
	slices.Sort(names)
	return names
}

// Building is a single-chunk building template.
type Building struct {
	Name string `yaml:"name"`
	// MaxCellars is the deepest cellar the building may dig, in floors.
	MaxCellars int `yaml:"max_cellars"`
	// Floors above ground; zero lets the generator choose.
	Floors int `yaml:"floors,omitempty"`
}

// Registry resolves style, multi-building and building names.
type Registry interface {
	Style(name string) (*Style, bool)
	MultiBuilding(name string) (*MultiBuilding, bool)
	Building(name string) (*Building, bool)
}

// MemoryRegistry is an in-memory Registry safe for concurrent use.
type MemoryRegistry struct {
	mu             sync.RWMutex
	styles         map[string]*Style
	multiBuildings map[string]*MultiBuilding
	buildings      map[string]*Building
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		styles:         make(map[string]*Style),
		multiBuildings: make(map[string]*MultiBuilding),
		buildings:      make(map[string]*Building),
	}
}

// AddStyle registers s, replacing any style of the same name.
func (r *MemoryRegistry) AddStyle(s *Style) error {
	if s.Name == "" {
		return fmt.Errorf("%w: style without name", ErrInvalidTemplate)
	}
	for _, sel := range s.MultiBuildings {
		if sel.Factor < 0 || math.IsNaN(sel.Factor) {
			return fmt.Errorf("%w: style %s selector %s has factor %v", ErrInvalidTemplate, s.Name, sel.Value, sel.Factor)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[s.Name] = s
	return nil
}

// AddMultiBuilding validates and registers mb.
func (r *MemoryRegistry) AddMultiBuilding(mb *MultiBuilding) error {
	if err := mb.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.multiBuildings[mb.Name] = mb
	return nil
}

// AddBuilding registers b.
func (r *MemoryRegistry) AddBuilding(b *Building) error {
	if b.Name == "" {
		return fmt.Errorf("%w: building without name", ErrInvalidTemplate)
	}
	if b.MaxCellars < 0 || b.Floors < 0 {
		return fmt.Errorf("%w: building %s has %d cellars and %d floors", ErrInvalidTemplate, b.Name, b.MaxCellars, b.Floors)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buildings[b.Name] = b
	return nil
}

func (r *MemoryRegistry) Style(name string) (*Style, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.styles[name]
	return s, ok
}

func (r *MemoryRegistry) MultiBuilding(name string) (*MultiBuilding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mb, ok := r.multiBuildings[name]
	return mb, ok
}

func (r *MemoryRegistry) Building(name string) (*Building, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buildings[name]
	return b, ok
}

// registryFile is the YAML layout read by LoadRegistry.
type registryFile struct {
	Styles         []*Style         `yaml:"styles"`
	MultiBuildings []*MultiBuilding `yaml:"multi_buildings"`
	Buildings      []*Building      `yaml:"buildings"`
}

// LoadRegistry reads styles, multi buildings and buildings from YAML.
// References between entries are resolved at placement time.
func LoadRegistry(r io.Reader) (*MemoryRegistry, error) {
	var f registryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	reg := NewMemoryRegistry()
	for _, s := range f.Styles {
		if err := reg.AddStyle(s); err != nil {
			return nil, err
		}
	}
	for _, mb := range f.MultiBuildings {
		if err := reg.AddMultiBuilding(mb); err != nil {
			return nil, err
		}
	}
	for _, b := range f.Buildings {
		if err := reg.AddBuilding(b); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
