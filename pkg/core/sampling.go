package core

import "math"

// SampleConcentricDisk maps a uniform 2D sample to a point on the unit
// disk using Shirley's concentric mapping, avoiding the polar-mapping
// distortion near the origin.
func SampleConcentricDisk(u Vec2) Vec2 {
	uOffset := NewVec2(2*u.X-1, 2*u.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec2(0, 0)
	}

	var theta, r float64
	if math.Abs(uOffset.X) > math.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math.Pi/2 - math.Pi/4*(uOffset.X/uOffset.Y)
	}
	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}

// SampleCosineHemisphereLocal draws a direction in the local +z
// hemisphere with density proportional to cosTheta, via the
// concentric-disk-then-lift construction. Returns the local-frame
// direction; EvaluateDirectionPDF callers divide by pi for the
// projected-solid-angle density.
func SampleCosineHemisphereLocal(u Vec2) Vec3 {
	d := SampleConcentricDisk(u)
	z := math.Sqrt(math.Max(0, 1-d.X*d.X-d.Y*d.Y))
	return NewVec3(d.X, d.Y, z)
}

// CosineHemispherePDF is the projected-solid-angle density of
// SampleCosineHemisphereLocal: 1/pi, independent of direction.
func CosineHemispherePDF() float64 {
	return 1.0 / math.Pi
}

// SampleUniformSphere draws a direction uniformly over the unit sphere.
func SampleUniformSphere(u Vec2) Vec3 {
	z := 1 - 2*u.X
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// UniformSpherePDF is the solid-angle density of SampleUniformSphere: 1/(4*pi).
func UniformSpherePDF() float64 {
	return 1.0 / (4 * math.Pi)
}

// SampleTriangleBarycentric maps a uniform 2D sample to barycentric
// coordinates (b0,b1,b2) on a triangle via the low-distortion
// (1-sqrt(u), v*sqrt(u)) construction.
func SampleTriangleBarycentric(u Vec2) (b0, b1, b2 float64) {
	su := math.Sqrt(u.X)
	b0 = 1 - su
	b1 = u.Y * su
	b2 = 1 - b0 - b1
	return b0, b1, b2
}

// Distribution1D is a piecewise-constant 1D probability distribution
// built incrementally via Add, then finalised with Normalize. Sample
// returns the discrete bucket containing u; SampleReuse additionally
// rescales the residual within the bucket back into [0,1) so the
// caller can reuse the random number for a second purpose (e.g.
// picking a point within the bucket's triangle).
type Distribution1D struct {
	cdf    []float64 // cdf[0] == 0; len == n+1
	counts []float64 // raw (unnormalized) weights, len == n
	total  float64   // sum of weights before normalization
}

// NewDistribution1D creates an empty distribution ready for Add calls.
func NewDistribution1D() *Distribution1D {
	return &Distribution1D{cdf: []float64{0}}
}

// Add appends a weighted entry to the distribution.
func (d *Distribution1D) Add(weight float64) {
	d.counts = append(d.counts, weight)
	d.cdf = append(d.cdf, d.cdf[len(d.cdf)-1]+weight)
}

// Normalize divides every cumulative entry by the final (total) weight,
// making the CDF span [0,1]. Must be called once after all Add calls
// and before any Sample call. The pre-normalization total is retained
// for ReciprocalTotal.
func (d *Distribution1D) Normalize() {
	d.total = d.cdf[len(d.cdf)-1]
	if d.total <= 0 {
		return
	}
	inv := 1.0 / d.total
	for i := range d.cdf {
		d.cdf[i] *= inv
	}
}

// Len returns the number of entries in the distribution.
func (d *Distribution1D) Len() int {
	return len(d.counts)
}

// ReciprocalTotal returns 1/total of the raw (pre-normalization) weights,
// e.g. the reciprocal total area of an emissive mesh.
func (d *Distribution1D) ReciprocalTotal() float64 {
	if d.total <= 0 {
		return 0
	}
	return 1.0 / d.total
}

// Sample binary-searches the CDF for the first index whose cumulative
// value exceeds u, and returns index-1 clamped to [0,n-1] — i.e. the
// bucket containing u.
func (d *Distribution1D) Sample(u float64) int {
	n := len(d.counts)
	if n == 0 {
		return 0
	}
	lo, hi := 0, len(d.cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if d.cdf[mid] <= u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	idx := lo - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// SampleReuse is like Sample but also returns a renormalised residual
// u' in [0,1) locating u within the chosen bucket, suitable for reuse
// as fresh entropy.
func (d *Distribution1D) SampleReuse(u float64) (index int, uRemapped float64) {
	index = d.Sample(u)
	lo, hi := d.cdf[index], d.cdf[index+1]
	width := hi - lo
	if width <= 0 {
		return index, 0
	}
	uRemapped = (u - lo) / width
	return index, math.Min(math.Max(uRemapped, 0), 1-1e-12)
}

// PDF returns the discrete probability of bucket i.
func (d *Distribution1D) PDF(i int) float64 {
	if i < 0 || i >= len(d.counts) || d.total <= 0 {
		return 0
	}
	return d.counts[i] / d.total
}
