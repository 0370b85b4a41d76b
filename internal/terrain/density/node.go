package density

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/lostcities/internal/terrain/noise"
)

// ErrInvalidNode is returned when a Node cannot be compiled.
var ErrInvalidNode = errors.New("density: invalid node")

// Node types.
const (
	TypeConstant         = "constant"
	TypeRef              = "ref"
	TypeNoise            = "noise"
	TypeNoise2D          = "noise_2d"
	TypeYClampedGradient = "y_clamped_gradient"
	TypeAdd              = "add"
	TypeMul              = "mul"
	TypeMin              = "min"
	TypeMax              = "max"
	TypeClamp            = "clamp"
	TypeAbs              = "abs"
	TypeSquare           = "square"
	TypeCube             = "cube"
	TypeHalfNegative     = "half_negative"
	TypeQuarterNegative  = "quarter_negative"
	TypeSqueeze          = "squeeze"
	TypeBeardifier       = "beardifier"
	TypeInterpolated     = "interpolated"
	TypeFlatCache        = "flat_cache"
	TypeCache2D          = "cache_2d"
	TypeCacheOnce        = "cache_once"
	TypeCacheAllInCell   = "cache_all_in_cell"
)

var (
	binaryOps = map[string]Op{TypeAdd: OpAdd, TypeMul: OpMul, TypeMin: OpMin, TypeMax: OpMax}
	unaryOps  = map[string]Transform{
		TypeAbs:             Abs,
		TypeSquare:          Square,
		TypeCube:            Cube,
		TypeHalfNegative:    HalfNegative,
		TypeQuarterNegative: QuarterNegative,
		TypeSqueeze:         Squeeze,
	}
	markers = map[string]MarkerKind{
		TypeInterpolated:   Interpolated,
		TypeFlatCache:      FlatCache,
		TypeCache2D:        Cache2D,
		TypeCacheOnce:      CacheOnce,
		TypeCacheAllInCell: CacheAllInCell,
	}
)

// Node is the declarative form of a density function.
type Node struct {
	Type string `yaml:"type"`

	// constant
	Value float64 `yaml:"value,omitempty"`
	// ref
	Ref string `yaml:"ref,omitempty"`

	// noise, noise_2d
	Noise       string          `yaml:"noise,omitempty"`
	Algorithm   noise.Algorithm `yaml:"algorithm,omitempty"`
	XZScale     float64         `yaml:"xz_scale,omitempty"`
	YScale      float64         `yaml:"y_scale,omitempty"`
	Octaves     int             `yaml:"octaves,omitempty"`
	Persistence float64         `yaml:"persistence,omitempty"`

	// y_clamped_gradient
	FromY     int     `yaml:"from_y,omitempty"`
	ToY       int     `yaml:"to_y,omitempty"`
	FromValue float64 `yaml:"from_value,omitempty"`
	ToValue   float64 `yaml:"to_value,omitempty"`

	// clamp
	Min float64 `yaml:"min,omitempty"`
	Max float64 `yaml:"max,omitempty"`

	// unary operators and markers
	Argument *Node `yaml:"argument,omitempty"`
	// add, mul, min, max; more than two arguments fold left
	Arguments []*Node `yaml:"arguments,omitempty"`
}

// Builder compiles Nodes of one world into Functions. Every node pointer
// and every named definition is compiled once and every named noise is
// instantiated once.
type Builder struct {
	seed     int64
	defs     map[string]*Node
	compiled map[*Node]Function
	refs     map[string]Function
	pending  map[string]bool
	noises   map[string]noise.Source
}

// NewBuilder creates a Builder resolving ref nodes against defs.
func NewBuilder(seed int64, defs map[string]*Node) *Builder {
	return &Builder{
		seed:     seed,
		defs:     defs,
		compiled: make(map[*Node]Function),
		refs:     make(map[string]Function),
		pending:  make(map[string]bool),
		noises:   make(map[string]noise.Source),
	}
}

// Build compiles n. A nil node compiles to the constant zero.
func (b *Builder) Build(n *Node) (Function, error) {
	if n == nil {
		return &Constant{}, nil
	}
	if f, ok := b.compiled[n]; ok {
		return f, nil
	}
	f, err := b.build(n)
	if err != nil {
		return nil, err
	}
	b.compiled[n] = f
	return f, nil
}

func (b *Builder) build(n *Node) (Function, error) {
	if op, ok := binaryOps[n.Type]; ok {
		return b.buildBinary(n, op)
	}
	if t, ok := unaryOps[n.Type]; ok {
		in, err := b.argument(n)
		if err != nil {
			return nil, err
		}
		return &Mapped{Transform: t, Input: in}, nil
	}
	if k, ok := markers[n.Type]; ok {
		in, err := b.argument(n)
		if err != nil {
			return nil, err
		}
		return &Marker{Kind: k, Wrapped: in}, nil
	}

	switch n.Type {
	case TypeConstant:
		return &Constant{Value: n.Value}, nil
	case TypeRef:
		return b.ref(n.Ref)
	case TypeNoise, TypeNoise2D:
		return b.buildNoise(n)
	case TypeYClampedGradient:
		if n.FromY == n.ToY {
			return nil, fmt.Errorf("%w: %s with from_y == to_y", ErrInvalidNode, n.Type)
		}
		return &YClampedGradient{FromY: n.FromY, ToY: n.ToY, FromValue: n.FromValue, ToValue: n.ToValue}, nil
	case TypeClamp:
		if n.Min > n.Max {
			return nil, fmt.Errorf("%w: clamp min %v > max %v", ErrInvalidNode, n.Min, n.Max)
		}
		in, err := b.argument(n)
		if err != nil {
			return nil, err
		}
		return &Clamped{Input: in, Min: n.Min, Max: n.Max}, nil
	case TypeBeardifier:
		return Beardifier, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidNode, n.Type)
	}
}

func (b *Builder) argument(n *Node) (Function, error) {
	if n.Argument == nil {
		return nil, fmt.Errorf("%w: %s needs an argument", ErrInvalidNode, n.Type)
	}
	return b.Build(n.Argument)
}

func (b *Builder) buildBinary(n *Node, op Op) (Function, error) {
	if len(n.Arguments) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least two arguments, got %d", ErrInvalidNode, n.Type, len(n.Arguments))
	}
	acc, err := b.Build(n.Arguments[0])
	if err != nil {
		return nil, err
	}
	for _, arg := range n.Arguments[1:] {
		f, err := b.Build(arg)
		if err != nil {
			return nil, err
		}
		acc = &TwoArg{Op: op, A: acc, B: f}
	}
	return acc, nil
}

func (b *Builder) buildNoise(n *Node) (Function, error) {
	if n.Noise == "" {
		return nil, fmt.Errorf("%w: %s without a noise name", ErrInvalidNode, n.Type)
	}
	if n.XZScale == 0 {
		return nil, fmt.Errorf("%w: noise %q has no xz_scale", ErrInvalidNode, n.Noise)
	}
	src, ok := b.noises[n.Noise]
	if !ok {
		base, err := noise.New(n.Algorithm, noise.Derive(b.seed, n.Noise))
		if err != nil {
			return nil, fmt.Errorf("noise %q: %w", n.Noise, err)
		}
		persistence := n.Persistence
		if persistence == 0 {
			persistence = 0.5
		}
		src = noise.Octaves{Source: base, Count: n.Octaves, Persistence: persistence}
		b.noises[n.Noise] = src
	}
	return &Noise{
		Name:    n.Noise,
		Source:  src,
		XZScale: n.XZScale,
		YScale:  n.YScale,
		Flat:    n.Type == TypeNoise2D,
	}, nil
}

func (b *Builder) ref(name string) (Function, error) {
	if f, ok := b.refs[name]; ok {
		return f, nil
	}
	def, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: undefined ref %q", ErrInvalidNode, name)
	}
	if b.pending[name] {
		return nil, fmt.Errorf("%w: ref cycle through %q", ErrInvalidNode, name)
	}
	b.pending[name] = true
	defer delete(b.pending, name)

	f, err := b.Build(def)
	if err != nil {
		return nil, fmt.Errorf("ref %q: %w", name, err)
	}
	b.refs[name] = f
	return f, nil
}
