package core

import "math"

// GuardIntersect brackets a call into the accelerator the way the
// source renderer bracketed its native ray tracer with structured
// exception translation: floating-point irregularities that are
// legitimate *inside* the intersector (e.g. a degenerate denormal from
// a zero-area triangle) are absorbed here as a plain miss, rather than
// a signalling exception or a NaN escaping into integrator arithmetic.
//
// Go has no per-scope FP trap control, so this is the explicit,
// result-valued equivalent spec.md's design notes ask for: callers
// that need the "enable traps outside the intersector, disable them
// inside" behavior get it by routing every accelerator call through
// GuardIntersect instead.
func GuardIntersect(f func() (Intersection, bool)) (Intersection, bool) {
	hit, ok := f()
	if !ok {
		return hit, false
	}
	if math.IsNaN(hit.T) || math.IsInf(hit.T, 0) || math.IsNaN(hit.U) || math.IsNaN(hit.V) {
		return Intersection{}, false
	}
	return hit, true
}

// AssertFinite panics if v contains a NaN or Inf component. Integrator
// and primitive arithmetic outside the accelerator boundary is
// expected to never produce non-finite values; the render loop does
// not call it, and no test in this module calls it either.
func AssertFinite(v Vec3) {
	if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
		math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0) {
		panic("core: non-finite value escaped integrator arithmetic")
	}
}
