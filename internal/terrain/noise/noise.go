// Package noise provides the seeded noise sources and positional random
// factory the terrain density functions are built from.
package noise

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Source is a seeded coherent noise function.
type Source interface {
	Sample2D(x, z float64) float64
	Sample3D(x, y, z float64) float64
}

// Algorithm names a noise implementation.
type Algorithm string

const (
	AlgSimplex     Algorithm = "simplex"
	AlgOpenSimplex Algorithm = "opensimplex"
	AlgPerlin      Algorithm = "perlin"
)

// New returns a Source of the given algorithm seeded with seed.
func New(alg Algorithm, seed int64) (Source, error) {
	switch alg {
	case AlgSimplex, "":
		return NewSimplex(seed), nil
	case AlgOpenSimplex:
		return NewOpenSimplex(seed), nil
	case AlgPerlin:
		return NewPerlin(seed), nil
	default:
		return nil, fmt.Errorf("noise: unknown algorithm %q", alg)
	}
}

// Derive returns the seed of the named noise of a world.
func Derive(seed int64, name string) int64 {
	return seed ^ int64(xxhash.Sum64String(name))
}

// Octaves layers Count octaves of a Source. Each octave doubles the
// frequency and multiplies the amplitude by Persistence. Results are
// normalized back into the range of the source.
type Octaves struct {
	Source      Source
	Count       int
	Persistence float64
}

// Sample2D returns layered noise at (x, z).
func (o Octaves) Sample2D(x, z float64) float64 {
	if o.Count <= 1 {
		return o.Source.Sample2D(x, z)
	}
	var total, maxVal float64
	frequency, amplitude := 1.0, 1.0
	for range o.Count {
		total += o.Source.Sample2D(x*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= o.Persistence
		frequency *= 2.0
	}
	return total / maxVal
}

// Sample3D returns layered noise at (x, y, z).
func (o Octaves) Sample3D(x, y, z float64) float64 {
	if o.Count <= 1 {
		return o.Source.Sample3D(x, y, z)
	}
	var total, maxVal float64
	frequency, amplitude := 1.0, 1.0
	for range o.Count {
		total += o.Source.Sample3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= o.Persistence
		frequency *= 2.0
	}
	return total / maxVal
}
