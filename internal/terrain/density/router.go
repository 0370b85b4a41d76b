package density

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/lostcities/internal/terrain/noise"
)

// Router holds the compiled functions terrain generation reads.
type Router struct {
	FinalDensity                    Function
	InitialDensityWithoutJaggedness Function
	Barrier                         Function
	FluidLevelFloodedness           Function
	FluidLevelSpread                Function
	Erosion                         Function
	Depth                           Function
}

// MapAll rewrites every function of r with one Mapper, so sub-graphs shared
// between router entries stay shared.
func (r *Router) MapAll(v Visitor) *Router {
	return r.MapWith(NewMapper(v))
}

// MapWith rewrites every function of r with m.
func (r *Router) MapWith(m *Mapper) *Router {
	return &Router{
		FinalDensity:                    m.Map(r.FinalDensity),
		InitialDensityWithoutJaggedness: m.Map(r.InitialDensityWithoutJaggedness),
		Barrier:                         m.Map(r.Barrier),
		FluidLevelFloodedness:           m.Map(r.FluidLevelFloodedness),
		FluidLevelSpread:                m.Map(r.FluidLevelSpread),
		Erosion:                         m.Map(r.Erosion),
		Depth:                           m.Map(r.Depth),
	}
}

// Validate reports router entries that were left nil.
func (r *Router) Validate() error {
	entries := []struct {
		name string
		f    Function
	}{
		{"final_density", r.FinalDensity},
		{"initial_density_without_jaggedness", r.InitialDensityWithoutJaggedness},
		{"barrier", r.Barrier},
		{"fluid_level_floodedness", r.FluidLevelFloodedness},
		{"fluid_level_spread", r.FluidLevelSpread},
		{"erosion", r.Erosion},
		{"depth", r.Depth},
	}
	for _, e := range entries {
		if e.f == nil {
			return fmt.Errorf("%w: router entry %s is nil", ErrInvalidNode, e.name)
		}
	}
	return nil
}

// RouterSpec is the declarative form of a Router.
type RouterSpec struct {
	Definitions                     map[string]*Node `yaml:"definitions,omitempty"`
	FinalDensity                    *Node            `yaml:"final_density"`
	InitialDensityWithoutJaggedness *Node            `yaml:"initial_density_without_jaggedness"`
	Barrier                         *Node            `yaml:"barrier"`
	FluidLevelFloodedness           *Node            `yaml:"fluid_level_floodedness"`
	FluidLevelSpread                *Node            `yaml:"fluid_level_spread"`
	Erosion                         *Node            `yaml:"erosion"`
	Depth                           *Node            `yaml:"depth"`
}

// LoadRouter decodes a RouterSpec from YAML.
func LoadRouter(r io.Reader) (*RouterSpec, error) {
	var spec RouterSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode router: %w", err)
	}
	return &spec, nil
}

// Build compiles the spec for a world seed.
func (s *RouterSpec) Build(seed int64) (*Router, error) {
	b := NewBuilder(seed, s.Definitions)
	r := &Router{}
	entries := []struct {
		name string
		node *Node
		dst  *Function
	}{
		{"final_density", s.FinalDensity, &r.FinalDensity},
		{"initial_density_without_jaggedness", s.InitialDensityWithoutJaggedness, &r.InitialDensityWithoutJaggedness},
		{"barrier", s.Barrier, &r.Barrier},
		{"fluid_level_floodedness", s.FluidLevelFloodedness, &r.FluidLevelFloodedness},
		{"fluid_level_spread", s.FluidLevelSpread, &r.FluidLevelSpread},
		{"erosion", s.Erosion, &r.Erosion},
		{"depth", s.Depth, &r.Depth},
	}
	for _, e := range entries {
		f, err := b.Build(e.node)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", e.name, err)
		}
		*e.dst = f
	}
	return r, nil
}

func constant(v float64) *Node { return &Node{Type: TypeConstant, Value: v} }

func ref(name string) *Node { return &Node{Type: TypeRef, Ref: name} }

func wrap(typ string, arg *Node) *Node { return &Node{Type: typ, Argument: arg} }

func combine(typ string, args ...*Node) *Node { return &Node{Type: typ, Arguments: args} }

// DefaultRouter returns an overworld-like graph for a build range of
// [-64, 320) with the surface near y=68: a y gradient shifted by
// continental and erosion noise, roughened by 3D jaggedness noise.
// Aquifer noises use Perlin noise.
func DefaultRouter() *RouterSpec {
	defs := map[string]*Node{
		"continents": wrap(TypeFlatCache, wrap(TypeCache2D, &Node{
			Type: TypeNoise2D, Noise: "continentalness", Algorithm: noise.AlgSimplex,
			XZScale: 0.00213, Octaves: 4, Persistence: 0.5,
		})),
		"erosion": wrap(TypeFlatCache, wrap(TypeCache2D, &Node{
			Type: TypeNoise2D, Noise: "erosion", Algorithm: noise.AlgSimplex,
			XZScale: 0.00471, Octaves: 3, Persistence: 0.5,
		})),
		"offset": combine(TypeAdd,
			combine(TypeMul, constant(0.25), ref("continents")),
			combine(TypeMul, constant(-0.1), ref("erosion")),
		),
		"depth": wrap(TypeCacheOnce, combine(TypeAdd,
			&Node{Type: TypeYClampedGradient, FromY: -64, ToY: 200, FromValue: 1, ToValue: -1},
			ref("offset"),
		)),
		"jaggedness": &Node{
			Type: TypeNoise, Noise: "jaggedness", Algorithm: noise.AlgOpenSimplex,
			XZScale: 0.0173, YScale: 0.0119, Octaves: 3, Persistence: 0.5,
		},
		"sloped_cheese": combine(TypeMul, constant(4), ref("depth")),
	}

	return &RouterSpec{
		Definitions: defs,
		FinalDensity: combine(TypeMin,
			wrap(TypeSqueeze, wrap(TypeInterpolated, combine(TypeAdd,
				ref("sloped_cheese"),
				combine(TypeMul, constant(0.35), wrap(TypeHalfNegative, ref("jaggedness"))),
			))),
			constant(1),
		),
		InitialDensityWithoutJaggedness: &Node{Type: TypeClamp, Min: -64, Max: 64, Argument: ref("sloped_cheese")},
		Barrier: &Node{
			Type: TypeNoise, Noise: "aquifer_barrier", Algorithm: noise.AlgPerlin,
			XZScale: 0.7131, YScale: 0.5237,
		},
		FluidLevelFloodedness: &Node{
			Type: TypeNoise, Noise: "aquifer_fluid_level_floodedness", Algorithm: noise.AlgPerlin,
			XZScale: 0.4973, YScale: 0.6713,
		},
		FluidLevelSpread: &Node{
			Type: TypeNoise, Noise: "aquifer_fluid_level_spread", Algorithm: noise.AlgPerlin,
			XZScale: 0.7143, YScale: 0.4283,
		},
		Erosion: ref("erosion"),
		Depth:   ref("depth"),
	}
}
