package primitive

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
)

// SamplePosition draws a point on this primitive's surface (or its
// degenerate stand-in), returning the SurfaceGeometry at that point.
// mesh is the mesh backing an L-area/E-area primitive; it is ignored
// for the degenerate and directional-light cases.
func (p *Primitive) SamplePosition(mesh *core.Mesh, sampler core.Sampler) core.SurfaceGeometry {
	switch {
	case p.L != nil:
		return sampleAreaEmitterPosition(mesh, p.L.AreaCDF, sampler)
	case p.EArea != nil:
		return sampleAreaEmitterPosition(mesh, p.EArea.AreaCDF, sampler)
	case p.LPointLight != nil:
		return core.SurfaceGeometry{P: p.LPointLight.Position, Sn: core.NewVec3(0, 0, 1), Gn: core.NewVec3(0, 0, 1), Degenerated: true}
	case p.E != nil:
		return core.SurfaceGeometry{P: p.E.Eye, Sn: p.E.Vz, Gn: p.E.Vz, Degenerated: true}
	case p.LDirectional != nil:
		return sampleDirectionalDiskPosition(p.LDirectional, sampler)
	default:
		return core.SurfaceGeometry{}
	}
}

// sampleAreaEmitterPosition draws a triangle from the mesh's
// precomputed area CDF, then a uniform point within that triangle.
func sampleAreaEmitterPosition(mesh *core.Mesh, cdf *core.Distribution1D, sampler core.Sampler) core.SurfaceGeometry {
	faceIdx, uRemapped := cdf.SampleReuse(sampler.Get1D())
	b0, b1, b2 := core.SampleTriangleBarycentric(core.NewVec2(uRemapped, sampler.Get1D()))

	a, b, c := mesh.Triangle(faceIdx)
	p0, p1, p2 := mesh.Positions[a], mesh.Positions[b], mesh.Positions[c]
	pos := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))

	gn := mesh.GeometricNormal(faceIdx)
	sn := gn
	if len(mesh.Normals) > 0 {
		n0, n1, n2 := mesh.Normals[a], mesh.Normals[b], mesh.Normals[c]
		interpolated := n0.Multiply(b0).Add(n1.Multiply(b1)).Add(n2.Multiply(b2)).Normalize()
		if !math.IsNaN(interpolated.X) {
			sn = interpolated
		}
	}

	var uv core.Vec2
	if len(mesh.UVs) > 0 {
		uv0, uv1, uv2 := mesh.UVs[a], mesh.UVs[b], mesh.UVs[c]
		uv = core.NewVec2(
			uv0.X*b0+uv1.X*b1+uv2.X*b2,
			uv0.Y*b0+uv1.Y*b1+uv2.Y*b2,
		)
	}

	tangentHint := p1.Subtract(p0)
	return core.NewSurfaceGeometry(pos, sn, gn, tangentHint, core.Vec3{}, core.Vec3{}, uv, false)
}

// sampleDirectionalDiskPosition draws a point on the virtual disk
// orthogonal to the light's direction, at distance SceneRadius along
// -Direction from the scene center, per spec.md §4.2.
func sampleDirectionalDiskPosition(l *LDirectional, sampler core.Sampler) core.SurfaceGeometry {
	d := core.SampleConcentricDisk(sampler.Get2D())
	dpdu, dpdv := core.NewFrame(l.Direction, core.NewVec3(1, 0, 0))
	diskCenter := l.SceneCenter.Subtract(l.Direction.Multiply(l.SceneRadius))
	pos := diskCenter.Add(dpdu.Multiply(d.X * l.SceneRadius)).Add(dpdv.Multiply(d.Y * l.SceneRadius))
	return core.NewSurfaceGeometry(pos, l.Direction.Negate(), l.Direction.Negate(), dpdu, core.Vec3{}, core.Vec3{}, core.Vec2{}, false)
}

// EvaluatePosition returns the position-sampling "density numerator":
// 1 for every non-degenerate geometry (no cosine or orientation test
// is made here), and — for degenerate types — 1 only when
// forceDegenerated is true (carrying the delta contribution inside the
// sampler rather than the evaluator), else 0.
func (p *Primitive) EvaluatePosition(geom core.SurfaceGeometry, forceDegenerated bool) core.Vec3 {
	if geom.Degenerated {
		if forceDegenerated {
			return core.NewVec3(1, 1, 1)
		}
		return core.Vec3{}
	}
	return core.NewVec3(1, 1, 1)
}

// EvaluatePositionPDF returns the area-measure density of SamplePosition
// at geom: 1/area for area types, 1 or 0 for degenerate types
// conditioned on forceDegenerated exactly like EvaluatePosition.
func (p *Primitive) EvaluatePositionPDF(geom core.SurfaceGeometry, forceDegenerated bool) float64 {
	if geom.Degenerated {
		if forceDegenerated {
			return 1
		}
		return 0
	}
	switch {
	case p.L != nil:
		return p.L.ReciprocalArea
	case p.EArea != nil:
		return p.EArea.ReciprocalArea
	case p.LDirectional != nil:
		return p.LDirectional.ReciprocalDiskArea
	default:
		return 0
	}
}
