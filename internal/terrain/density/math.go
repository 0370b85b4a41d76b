package density

import "math"

// Lerp interpolates between a and b by delta.
func Lerp(delta, a, b float64) float64 {
	return a + delta*(b-a)
}

// Lerp2 interpolates bilinearly. Corner vNM is at x=N, y=M.
func Lerp2(dx, dy, v00, v10, v01, v11 float64) float64 {
	return Lerp(dy, Lerp(dx, v00, v10), Lerp(dx, v01, v11))
}

// Lerp3 interpolates trilinearly. Corner vNML is at x=N, y=M, z=L.
func Lerp3(dx, dy, dz, v000, v100, v010, v110, v001, v101, v011, v111 float64) float64 {
	return Lerp(dz, Lerp2(dx, dy, v000, v100, v010, v110), Lerp2(dx, dy, v001, v101, v011, v111))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// InverseLerp returns where v lies between a and b.
func InverseLerp(v, a, b float64) float64 {
	return (v - a) / (b - a)
}

// Map linearly maps v from [a1, b1] onto [a2, b2].
func Map(v, a1, b1, a2, b2 float64) float64 {
	return Lerp(InverseLerp(v, a1, b1), a2, b2)
}

// ClampedMap is Map with the result held inside [a2, b2].
func ClampedMap(v, a1, b1, a2, b2 float64) float64 {
	return ClampedLerp(a2, b2, InverseLerp(v, a1, b1))
}

// ClampedLerp interpolates between a and b with delta limited to [0, 1].
func ClampedLerp(a, b, delta float64) float64 {
	switch {
	case delta < 0:
		return a
	case delta > 1:
		return b
	default:
		return Lerp(delta, a, b)
	}
}

// Quantize rounds v down to a multiple of step.
func Quantize(v float64, step int) int {
	return int(math.Floor(v/float64(step))) * step
}
