// Package scene owns the primitive table, the meshes and textures that
// back it, and the acceleration structure used to intersect rays
// against it, grounded on the teacher repo's pkg/scene.Scene but built
// around the unified primitive model instead of a Shape/Light/Material
// hierarchy.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
)

// ErrAreaEmitterNeedsMesh is returned by Build when a primitive
// carries an area-light parameter block but no backing mesh, per
// spec.md §7's "area emitter/sensor without a mesh" compatibility
// error.
var ErrAreaEmitterNeedsMesh = errors.New("scene: area emitter requires a mesh")

// ErrAreaSensorNeedsUV is returned by Build when a primitive carries
// an area-sensor parameter block backed by a mesh with no UV
// coordinates, per spec.md §7's "area sensor without UVs" error.
var ErrAreaSensorNeedsUV = errors.New("scene: area sensor requires UV-bearing mesh")

// Scene is the opaque handle path operations query: a primitive table,
// the light index subset of it, the single sensor index, the meshes
// and textures the primitives reference, and the BVH used to answer
// Intersect and Visible.
type Scene struct {
	Primitives []*primitive.Primitive
	Meshes     []*core.Mesh // parallel to Primitives; nil entries for non-mesh primitives

	LightIndices []int
	SensorIndex  int

	Textures []*core.Texture // retained for lifetime management; primitives hold direct pointers

	BVH *core.BVH

	Epsilon float64 // shadow-ray bias, defaults to 1e-4
}

// Build assembles a Scene from a flat primitive/mesh table, deriving
// the light index list and sensor index and constructing the BVH.
// Exactly one primitive must carry the E bit.
func Build(prims []*primitive.Primitive, meshes []*core.Mesh, textures []*core.Texture) (*Scene, error) {
	if len(prims) != len(meshes) {
		return nil, fmt.Errorf("scene: primitive and mesh tables must be the same length (%d != %d)", len(prims), len(meshes))
	}

	s := &Scene{
		Primitives: prims,
		Meshes:     meshes,
		Textures:   textures,
		SensorIndex: -1,
		Epsilon:     1e-4,
	}

	for i, p := range prims {
		if p.L != nil && p.L.MeshIndex < 0 {
			return nil, fmt.Errorf("primitive %d: %w", i, ErrAreaEmitterNeedsMesh)
		}
		if p.EArea != nil {
			if p.EArea.MeshIndex < 0 || meshes[p.EArea.MeshIndex] == nil {
				return nil, fmt.Errorf("primitive %d: %w", i, ErrAreaEmitterNeedsMesh)
			}
			if len(meshes[p.EArea.MeshIndex].UVs) == 0 {
				return nil, fmt.Errorf("primitive %d: %w", i, ErrAreaSensorNeedsUV)
			}
		}

		if p.Type.Has(primitive.TypeL) {
			s.LightIndices = append(s.LightIndices, i)
		}
		if p.Type.Has(primitive.TypeE) {
			if s.SensorIndex >= 0 {
				return nil, fmt.Errorf("scene: more than one sensor primitive defined")
			}
			s.SensorIndex = i
		}
	}
	if s.SensorIndex < 0 {
		return nil, fmt.Errorf("scene: no sensor primitive defined")
	}
	if len(s.LightIndices) == 0 {
		return nil, fmt.Errorf("scene: no light primitives defined")
	}

	s.BVH = core.NewBVH(meshes)
	return s, nil
}

// SampleEmitter draws a primitive index under query (L or E) and
// returns it along with the primitive itself. For L it is a uniform
// draw over the light index table; for E it is always the sensor.
func (s *Scene) SampleEmitter(query primitive.QueryType, u float64) (*primitive.Primitive, int) {
	if query.Has(primitive.TypeE) {
		return s.Primitives[s.SensorIndex], s.SensorIndex
	}
	n := len(s.LightIndices)
	idx := int(u * float64(n))
	if idx >= n {
		idx = n - 1
	}
	primIndex := s.LightIndices[idx]
	return s.Primitives[primIndex], primIndex
}

// EvaluateEmitterPDF returns the discrete selection probability
// SampleEmitter uses for query's side: 1/|lights| for a light, 1 for
// the sensor.
func (s *Scene) EvaluateEmitterPDF(query primitive.QueryType) float64 {
	if query.Has(primitive.TypeE) {
		return 1
	}
	return 1 / float64(len(s.LightIndices))
}

// Intersect finds the closest primitive hit by ray in [tMin,tMax] and
// reconstructs its full SurfaceGeometry: geometric normal from the
// face, shading normal from interpolated vertex normals (falling back
// to the geometric normal on a degenerate interpolation), UVs, normal
// derivatives, and a Gram-Schmidt tangent frame.
func (s *Scene) Intersect(ray core.Ray, tMin, tMax float64) (core.SurfaceGeometry, *primitive.Primitive, int, bool) {
	hit, ok := core.GuardIntersect(func() (core.Intersection, bool) {
		return s.BVH.Intersect(ray, tMin, tMax)
	})
	if !ok {
		return core.SurfaceGeometry{}, nil, -1, false
	}

	mesh := s.Meshes[hit.PrimIndex]
	geom := reconstructGeometry(mesh, hit)
	return geom, s.Primitives[hit.PrimIndex], hit.PrimIndex, true
}

// reconstructGeometry builds the SurfaceGeometry at a barycentric hit
// on mesh, per spec.md §4.3: geometric normal from the face, shading
// normal from interpolated vertex normals (NaN falls back to the
// geometric normal), UV by barycentric interpolation, and normal
// derivatives computed via the UV-parameterised tangent construction,
// projected perpendicular to the shading normal.
func reconstructGeometry(mesh *core.Mesh, hit core.Intersection) core.SurfaceGeometry {
	b1, b2 := hit.U, hit.V
	b0 := 1 - b1 - b2

	a, b, c := mesh.Triangle(hit.FaceIndex)
	p0, p1, p2 := mesh.Positions[a], mesh.Positions[b], mesh.Positions[c]
	pos := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))

	gn := mesh.GeometricNormal(hit.FaceIndex)

	sn := gn
	if len(mesh.Normals) > 0 {
		n0, n1, n2 := mesh.Normals[a], mesh.Normals[b], mesh.Normals[c]
		interpolated := n0.Multiply(b0).Add(n1.Multiply(b1)).Add(n2.Multiply(b2)).Normalize()
		if !math.IsNaN(interpolated.X) {
			sn = interpolated
			if sn.Dot(gn) < 0 {
				gn = gn.Negate() // keep geometric normal on the shading side
			}
		}
	}

	var uv core.Vec2
	var tangentHint, dndu, dndv core.Vec3
	hasUV := len(mesh.UVs) > 0
	if hasUV {
		uv0, uv1, uv2 := mesh.UVs[a], mesh.UVs[b], mesh.UVs[c]
		uv = core.NewVec2(
			uv0.X*b0+uv1.X*b1+uv2.X*b2,
			uv0.Y*b0+uv1.Y*b1+uv2.Y*b2,
		)

		duv1 := core.NewVec2(uv1.X-uv0.X, uv1.Y-uv0.Y)
		duv2 := core.NewVec2(uv2.X-uv0.X, uv2.Y-uv0.Y)
		det := duv1.X*duv2.Y - duv2.X*duv1.Y
		if math.Abs(det) > 1e-12 {
			invDet := 1 / det
			e1 := p1.Subtract(p0)
			e2 := p2.Subtract(p0)
			tangentHint = e1.Multiply(duv2.Y).Subtract(e2.Multiply(duv1.Y)).Multiply(invDet)

			if len(mesh.Normals) > 0 {
				n0, n1, n2 := mesh.Normals[a], mesh.Normals[b], mesh.Normals[c]
				nInterp := n0.Multiply(b0).Add(n1.Multiply(b1)).Add(n2.Multiply(b2))
				nLen := nInterp.Length()
				if nLen > 1e-12 {
					dn1 := n1.Subtract(n0)
					dn2 := n2.Subtract(n0)
					dnduRaw := dn1.Multiply(duv2.Y).Subtract(dn2.Multiply(duv1.Y)).Multiply(invDet)
					dndvRaw := dn2.Multiply(duv1.X).Subtract(dn1.Multiply(duv2.X)).Multiply(invDet)
					dndu = dnduRaw.Multiply(1 / nLen)
					dndv = dndvRaw.Multiply(1 / nLen)
					dndu = dndu.Subtract(sn.Multiply(sn.Dot(dndu)))
					dndv = dndv.Subtract(sn.Multiply(sn.Dot(dndv)))
				}
			}
		}
	}
	if tangentHint.IsZero() {
		tangentHint = p1.Subtract(p0)
	}

	return core.NewSurfaceGeometry(pos, sn, gn, tangentHint, dndu, dndv, uv, false)
}

// BuildAreaCDF constructs a per-triangle area CDF over mesh, used by
// area light/sensor primitives for SamplePosition. Returns the CDF and
// the reciprocal of the mesh's total area.
func BuildAreaCDF(mesh *core.Mesh) (*core.Distribution1D, float64) {
	cdf := core.NewDistribution1D()
	for i := 0; i < mesh.TriangleCount(); i++ {
		cdf.Add(mesh.TriangleArea(i))
	}
	cdf.Normalize()
	return cdf, cdf.ReciprocalTotal()
}

// SetAspectRatio configures the pinhole sensor's aspect ratio from the
// output image dimensions. No-op if the sensor is not a pinhole, since
// an area sensor's raster mapping comes from its mesh UVs instead.
func (s *Scene) SetAspectRatio(width, height int) {
	sensor := s.Primitives[s.SensorIndex]
	if sensor.E != nil {
		sensor.E.AspectRatio = float64(width) / float64(height)
	}
}

// Visible shoots a shadow ray from p toward q and reports whether
// nothing occludes the segment between them, biasing both ends by
// Epsilon to avoid self-intersection at the endpoints.
func (s *Scene) Visible(p, q core.Vec3) bool {
	d := q.Subtract(p)
	dist := d.Length()
	if dist < 1e-9 {
		return true
	}
	dir := d.Multiply(1 / dist)
	ray := core.NewRay(p, dir)
	_, _, _, hit := s.Intersect(ray, s.Epsilon, dist*(1-s.Epsilon))
	return !hit
}
