package noise

// Simplex is seeded simplex noise with values in [-1, 1].
type Simplex struct {
	perm [512]int
}

// grad3 are gradient vectors for 3D simplex noise; 2D uses the first two
// components.
var grad3 = [12][3]float64{
	{1, 1, 0},
	{-1, 1, 0},
	{1, -1, 0},
	{-1, -1, 0},
	{1, 0, 1},
	{-1, 0, 1},
	{1, 0, -1},
	{-1, 0, -1},
	{0, 1, 1},
	{0, -1, 1},
	{0, 1, -1},
	{0, -1, -1},
}

// NewSimplex creates simplex noise with a permutation table shuffled from seed.
func NewSimplex(seed int64) *Simplex {
	n := &Simplex{}

	var p [256]int
	for i := range p {
		p[i] = i
	}

	// Fisher-Yates driven by a 64-bit LCG.
	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s>>33)&0x7FFFFFFF) % (i + 1)
		p[i], p[j] = p[j], p[i]
	}

	for i := range n.perm {
		n.perm[i] = p[i&255]
	}
	return n
}

// Sample2D returns noise at (x, z).
func (n *Simplex) Sample2D(x, z float64) float64 {
	const (
		f2 = 0.36602540378443864676 // (sqrt(3) - 1) / 2
		g2 = 0.21132486540518711775 // (3 - sqrt(3)) / 6
	)

	s := (x + z) * f2
	i := floor(x + s)
	j := floor(z + s)

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	z0 := z - (float64(j) - t)

	i1, j1 := 0, 1
	if x0 > z0 {
		i1, j1 = 1, 0
	}

	x1 := x0 - float64(i1) + g2
	z1 := z0 - float64(j1) + g2
	x2 := x0 - 1.0 + 2.0*g2
	z2 := z0 - 1.0 + 2.0*g2

	ii := i & 255
	jj := j & 255
	corners := [3]struct {
		g    int
		x, z float64
	}{
		{n.perm[ii+n.perm[jj]] % 12, x0, z0},
		{n.perm[ii+i1+n.perm[jj+j1]] % 12, x1, z1},
		{n.perm[ii+1+n.perm[jj+1]] % 12, x2, z2},
	}

	var total float64
	for _, c := range corners {
		t := 0.5 - c.x*c.x - c.z*c.z
		if t < 0 {
			continue
		}
		t *= t
		g := grad3[c.g]
		total += t * t * (g[0]*c.x + g[1]*c.z)
	}
	return 70.0 * total
}

// Sample3D returns noise at (x, y, z).
func (n *Simplex) Sample3D(x, y, z float64) float64 {
	const (
		f3 = 1.0 / 3.0
		g3 = 1.0 / 6.0
	)

	s := (x + y + z) * f3
	i := floor(x + s)
	j := floor(y + s)
	k := floor(z + s)

	t := float64(i+j+k) * g3
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)
	z0 := z - (float64(k) - t)

	var i1, j1, k1, i2, j2, k2 int
	switch {
	case x0 >= y0 && y0 >= z0:
		i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 1, 0
	case x0 >= y0 && x0 >= z0:
		i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 0, 1
	case x0 >= y0:
		i1, j1, k1, i2, j2, k2 = 0, 0, 1, 1, 0, 1
	case y0 < z0:
		i1, j1, k1, i2, j2, k2 = 0, 0, 1, 0, 1, 1
	case x0 < z0:
		i1, j1, k1, i2, j2, k2 = 0, 1, 0, 0, 1, 1
	default:
		i1, j1, k1, i2, j2, k2 = 0, 1, 0, 1, 1, 0
	}

	ii := i & 255
	jj := j & 255
	kk := k & 255
	p := &n.perm
	corners := [4]struct {
		g       int
		x, y, z float64
	}{
		{p[ii+p[jj+p[kk]]] % 12, x0, y0, z0},
		{p[ii+i1+p[jj+j1+p[kk+k1]]] % 12, x0 - float64(i1) + g3, y0 - float64(j1) + g3, z0 - float64(k1) + g3},
		{p[ii+i2+p[jj+j2+p[kk+k2]]] % 12, x0 - float64(i2) + 2*g3, y0 - float64(j2) + 2*g3, z0 - float64(k2) + 2*g3},
		{p[ii+1+p[jj+1+p[kk+1]]] % 12, x0 - 1 + 3*g3, y0 - 1 + 3*g3, z0 - 1 + 3*g3},
	}

	var total float64
	for _, c := range corners {
		t := 0.6 - c.x*c.x - c.y*c.y - c.z*c.z
		if t < 0 {
			continue
		}
		t *= t
		g := grad3[c.g]
		total += t * t * (g[0]*c.x + g[1]*c.y + g[2]*c.z)
	}
	return 32.0 * total
}

func floor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}
