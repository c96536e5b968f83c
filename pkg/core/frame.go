package core

import "math"

// SurfaceGeometry carries everything the primitive model and the path
// machinery need to know about a point on a surface: its position, the
// shading and geometric normals, a tangent frame, normal derivatives
// (for the manifold-walk Jacobian), UV parameterisation, and a flag
// marking degenerate (point-like) geometries such as point lights and
// the pinhole sensor.
//
// Invariant: {Dpdu, Dpdv, Sn} is orthonormal; WorldToLocal is its
// transpose.
type SurfaceGeometry struct {
	P  Vec3 // world-space position
	Sn Vec3 // shading normal
	Gn Vec3 // geometric normal

	Dpdu, Dpdv Vec3 // tangent frame (orthonormal with Sn)
	Dndu, Dndv Vec3 // normal derivatives

	UV Vec2

	Degenerated bool // true for point/pinhole geometries with no area

	// Precomputed rotation matrices, rows = (Dpdu, Dpdv, Sn).
	worldToLocal [3]Vec3
}

// NewFrame builds an orthonormal tangent frame around normal n, using
// tangentHint as a starting point for Gram-Schmidt orthogonalisation.
// If tangentHint is degenerate (parallel to n or zero), an arbitrary
// tangent is constructed instead.
func NewFrame(n, tangentHint Vec3) (dpdu, dpdv Vec3) {
	n = n.Normalize()
	t := tangentHint.Subtract(n.Multiply(tangentHint.Dot(n)))
	if t.LengthSquared() < 1e-12 {
		var nt Vec3
		if math.Abs(n.X) > 0.1 {
			nt = NewVec3(0, 1, 0)
		} else {
			nt = NewVec3(1, 0, 0)
		}
		t = nt.Cross(n)
	}
	dpdu = t.Normalize()
	dpdv = n.Cross(dpdu)
	return dpdu, dpdv
}

// NewSurfaceGeometry constructs a SurfaceGeometry, deriving the tangent
// frame from the shading normal and a tangent hint (e.g. dp/du from a
// mesh), and precomputing the world<->local rotation.
func NewSurfaceGeometry(p, sn, gn, tangentHint Vec3, dndu, dndv Vec3, uv Vec2, degenerated bool) SurfaceGeometry {
	dpdu, dpdv := NewFrame(sn, tangentHint)
	g := SurfaceGeometry{
		P: p, Sn: sn, Gn: gn,
		Dpdu: dpdu, Dpdv: dpdv,
		Dndu: dndu, Dndv: dndv,
		UV:          uv,
		Degenerated: degenerated,
	}
	g.worldToLocal = [3]Vec3{dpdu, dpdv, sn}
	return g
}

// ToLocal rotates a world-space vector into the local shading frame.
func (g SurfaceGeometry) ToLocal(w Vec3) Vec3 {
	return NewVec3(w.Dot(g.worldToLocal[0]), w.Dot(g.worldToLocal[1]), w.Dot(g.worldToLocal[2]))
}

// ToWorld rotates a local-frame vector (x=Dpdu, y=Dpdv, z=Sn) into world space.
// This is the transpose of the world-to-local rotation, per the SurfaceGeometry invariant.
func (g SurfaceGeometry) ToWorld(w Vec3) Vec3 {
	return g.Dpdu.Multiply(w.X).Add(g.Dpdv.Multiply(w.Y)).Add(g.Sn.Multiply(w.Z))
}

// CosTheta returns the cosine of the angle between a world-space
// direction and the shading normal.
func (g SurfaceGeometry) CosTheta(w Vec3) float64 {
	return w.Dot(g.Sn)
}
