package noise

import (
	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Perlin is classic Perlin noise. It is zero on integer lattice points, so
// callers must sample with non-integer scales.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin creates single-octave Perlin noise; layering is left to Octaves.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2, 2, 1, seed)}
}

// Sample2D returns noise at (x, z).
func (n *Perlin) Sample2D(x, z float64) float64 { return n.p.Noise2D(x, z) }

// Sample3D returns noise at (x, y, z).
func (n *Perlin) Sample3D(x, y, z float64) float64 { return n.p.Noise3D(x, y, z) }

// OpenSimplex is OpenSimplex noise with values in [-1, 1].
type OpenSimplex struct {
	n opensimplex.Noise
}

// NewOpenSimplex creates OpenSimplex noise for seed.
func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{n: opensimplex.New(seed)}
}

// Sample2D returns noise at (x, z).
func (n *OpenSimplex) Sample2D(x, z float64) float64 { return n.n.Eval2(x, z) }

// Sample3D returns noise at (x, y, z).
func (n *OpenSimplex) Sample3D(x, y, z float64) float64 { return n.n.Eval3(x, y, z) }
