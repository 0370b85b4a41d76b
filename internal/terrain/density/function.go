// Package density describes terrain as a graph of scalar functions over block
// positions. Graphs are declared as Node trees, compiled once into a static
// Function DAG and re-wrapped per chunk by the terrain sampler.
package density

import (
	"fmt"
	"math"

	"github.com/OCharnyshevich/lostcities/internal/terrain/noise"
)

// Context is the block position a Function is evaluated at.
type Context interface {
	BlockX() int
	BlockY() int
	BlockZ() int
}

// Point is a standalone evaluation position.
type Point struct {
	X, Y, Z int
}

func (p Point) BlockX() int { return p.X }
func (p Point) BlockY() int { return p.Y }
func (p Point) BlockZ() int { return p.Z }

// Provider produces the contexts of a batch evaluation.
type Provider interface {
	// ForIndex returns the context of the i-th array element.
	ForIndex(i int) Context
	// FillAllDirectly evaluates f once per array element.
	FillAllDirectly(values []float64, f Function)
}

// Function is a node of a density graph.
type Function interface {
	Compute(ctx Context) float64
	// FillArray evaluates the function for every context of p.
	FillArray(values []float64, p Provider)
	// MapChildren returns the node rebuilt over fn applied to each direct
	// child. Leaves return themselves.
	MapChildren(fn func(Function) Function) Function
}

// Visitor rewrites a node whose children were already rewritten.
type Visitor func(Function) Function

// Mapper applies a Visitor bottom-up over a DAG. Each distinct node is
// rewritten once, so shared sub-graphs stay shared.
type Mapper struct {
	visit Visitor
	done  map[Function]Function
}

// NewMapper creates a Mapper for v.
func NewMapper(v Visitor) *Mapper {
	return &Mapper{visit: v, done: make(map[Function]Function)}
}

// Map returns the rewritten form of f.
func (m *Mapper) Map(f Function) Function {
	if g, ok := m.done[f]; ok {
		return g
	}
	g := m.visit(f.MapChildren(m.Map))
	m.done[f] = g
	return g
}

// Constant is a fixed value.
type Constant struct {
	Value float64
}

func (f *Constant) Compute(Context) float64 { return f.Value }

func (f *Constant) FillArray(values []float64, _ Provider) {
	for i := range values {
		values[i] = f.Value
	}
}

func (f *Constant) MapChildren(func(Function) Function) Function { return f }

// Noise samples a noise source at the block position scaled per axis.
type Noise struct {
	Name    string
	Source  noise.Source
	XZScale float64
	YScale  float64
	// Flat ignores y and samples 2D noise.
	Flat bool
}

func (f *Noise) Compute(ctx Context) float64 {
	x := float64(ctx.BlockX()) * f.XZScale
	z := float64(ctx.BlockZ()) * f.XZScale
	if f.Flat {
		return f.Source.Sample2D(x, z)
	}
	return f.Source.Sample3D(x, float64(ctx.BlockY())*f.YScale, z)
}

func (f *Noise) FillArray(values []float64, p Provider) { p.FillAllDirectly(values, f) }

func (f *Noise) MapChildren(func(Function) Function) Function { return f }

// YClampedGradient maps y from [FromY, ToY] onto [FromValue, ToValue],
// holding the ends.
type YClampedGradient struct {
	FromY, ToY         int
	FromValue, ToValue float64
}

func (f *YClampedGradient) Compute(ctx Context) float64 {
	return ClampedMap(float64(ctx.BlockY()), float64(f.FromY), float64(f.ToY), f.FromValue, f.ToValue)
}

func (f *YClampedGradient) FillArray(values []float64, p Provider) { p.FillAllDirectly(values, f) }

func (f *YClampedGradient) MapChildren(func(Function) Function) Function { return f }

// Op is a binary operator.
type Op uint8

const (
	OpAdd Op = iota
	OpMul
	OpMin
	OpMax
)

func (o Op) apply(a, b float64) float64 {
	switch o {
	case OpAdd:
		return a + b
	case OpMul:
		return a * b
	case OpMin:
		return math.Min(a, b)
	default:
		return math.Max(a, b)
	}
}

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpMul:
		return "mul"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// TwoArg combines two functions with an Op.
type TwoArg struct {
	Op   Op
	A, B Function
}

func (f *TwoArg) Compute(ctx Context) float64 {
	return f.Op.apply(f.A.Compute(ctx), f.B.Compute(ctx))
}

func (f *TwoArg) FillArray(values []float64, p Provider) {
	f.A.FillArray(values, p)
	other := make([]float64, len(values))
	f.B.FillArray(other, p)
	for i := range values {
		values[i] = f.Op.apply(values[i], other[i])
	}
}

func (f *TwoArg) MapChildren(fn func(Function) Function) Function {
	a, b := fn(f.A), fn(f.B)
	if a == f.A && b == f.B {
		return f
	}
	return &TwoArg{Op: f.Op, A: a, B: b}
}

// Transform is a unary mapping.
type Transform uint8

const (
	Abs Transform = iota
	Square
	Cube
	HalfNegative
	QuarterNegative
	Squeeze
)

func (t Transform) apply(v float64) float64 {
	switch t {
	case Abs:
		return math.Abs(v)
	case Square:
		return v * v
	case Cube:
		return v * v * v
	case HalfNegative:
		if v > 0 {
			return v
		}
		return v * 0.5
	case QuarterNegative:
		if v > 0 {
			return v
		}
		return v * 0.25
	default:
		c := Clamp(v, -1, 1)
		return c/2 - c*c*c/24
	}
}

// Mapped applies a Transform to its input.
type Mapped struct {
	Transform Transform
	Input     Function
}

func (f *Mapped) Compute(ctx Context) float64 { return f.Transform.apply(f.Input.Compute(ctx)) }

func (f *Mapped) FillArray(values []float64, p Provider) {
	f.Input.FillArray(values, p)
	for i, v := range values {
		values[i] = f.Transform.apply(v)
	}
}

func (f *Mapped) MapChildren(fn func(Function) Function) Function {
	in := fn(f.Input)
	if in == f.Input {
		return f
	}
	return &Mapped{Transform: f.Transform, Input: in}
}

// Clamped limits its input to [Min, Max].
type Clamped struct {
	Input    Function
	Min, Max float64
}

func (f *Clamped) Compute(ctx Context) float64 { return Clamp(f.Input.Compute(ctx), f.Min, f.Max) }

func (f *Clamped) FillArray(values []float64, p Provider) {
	f.Input.FillArray(values, p)
	for i, v := range values {
		values[i] = Clamp(v, f.Min, f.Max)
	}
}

func (f *Clamped) MapChildren(fn func(Function) Function) Function {
	in := fn(f.Input)
	if in == f.Input {
		return f
	}
	return &Clamped{Input: in, Min: f.Min, Max: f.Max}
}

// MarkerKind selects the caching strategy a sampler substitutes for a Marker.
type MarkerKind uint8

const (
	Interpolated MarkerKind = iota
	FlatCache
	Cache2D
	CacheOnce
	CacheAllInCell
)

func (k MarkerKind) String() string {
	switch k {
	case Interpolated:
		return "interpolated"
	case FlatCache:
		return "flat_cache"
	case Cache2D:
		return "cache_2d"
	case CacheOnce:
		return "cache_once"
	case CacheAllInCell:
		return "cache_all_in_cell"
	default:
		return fmt.Sprintf("marker(%d)", uint8(k))
	}
}

// Marker tags a sub-graph for caching. Evaluated statically it is a plain
// pass-through.
type Marker struct {
	Kind    MarkerKind
	Wrapped Function
}

func (f *Marker) Compute(ctx Context) float64 { return f.Wrapped.Compute(ctx) }

func (f *Marker) FillArray(values []float64, p Provider) { f.Wrapped.FillArray(values, p) }

func (f *Marker) MapChildren(fn func(Function) Function) Function {
	w := fn(f.Wrapped)
	if w == f.Wrapped {
		return f
	}
	return &Marker{Kind: f.Kind, Wrapped: w}
}

type beardifierMarker struct{}

func (*beardifierMarker) Compute(Context) float64 { return 0 }

func (*beardifierMarker) FillArray(values []float64, _ Provider) {
	for i := range values {
		values[i] = 0
	}
}

func (f *beardifierMarker) MapChildren(func(Function) Function) Function { return f }

// Beardifier is the placeholder for structure terrain adaptation. It
// evaluates to zero unless a sampler substitutes it.
var Beardifier Function = &beardifierMarker{}
