package integrator

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
)

// PTNEE is the PT+NEE integrator of spec.md §4.5: the same sensor walk
// as PT, but at every bounce (rather than only on a chance BSDF-sampled
// hit) it also samples a light directly and connects. The direct-hit Le
// term is only accumulated at the very first vertex, before any NEE
// opportunity existed; every subsequent bounce's direct light hit is
// dropped in favor of the NEE connection made one step earlier, so
// caustic paths (specular chains terminating on a light) are not
// double counted and also not estimated by this integrator at all,
// matching the accepted high-variance-for-caustics estimator spec.md
// describes.
type PTNEE struct{ Config Config }

func (pt PTNEE) Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film) {
	ray, px, py, beta, ok := sampleCameraRay(sc, sampler)
	if !ok {
		return
	}
	incoming := ray.Direction.Negate()

	bounce := 0
	for {
		geom, prim, _, hit := sc.Intersect(ray, 1e-6, 1e12)
		if !hit {
			return
		}

		if bounce == 0 && prim.Type.Has(primitive.TypeL) {
			fLight := prim.EvaluateDirection(geom, primitive.TypeL, core.Vec3{}, incoming, primitive.TransportEL, false)
			if !fLight.IsZero() {
				film.Splat(px, py, beta.MultiplyVec(fLight))
			}
		}

		bsdfType := prim.Type &^ (primitive.TypeL | primitive.TypeE)
		if bsdfType == 0 || clampedBounce(pt.Config, bounce) {
			return
		}

		if contrib := sampleNEE(sc, sampler, geom, prim, bsdfType, incoming, beta); !contrib.IsZero() {
			film.Splat(px, py, contrib)
		}

		u2 := sampler.Get2D()
		uComp := sampler.Get1D()
		wo, sok := prim.SampleDirection(u2, uComp, bsdfType, geom, incoming)
		if !sok {
			return
		}
		f := prim.EvaluateDirection(geom, bsdfType, incoming, wo, primitive.TransportEL, true)
		if f.IsZero() {
			return
		}
		pdfDir := prim.EvaluateDirectionPDF(geom, bsdfType, incoming, wo, true)
		if pdfDir <= 0 {
			return
		}
		beta = beta.MultiplyVec(f).Multiply(1 / pdfDir)

		bounce++
		if bounce > 1 {
			if sampler.Get1D() >= russianRouletteSurvival {
				return
			}
			beta = beta.Multiply(1 / russianRouletteSurvival)
		}

		ray = core.NewRay(geom.P, wo)
		incoming = wo.Negate()
	}
}

// sampleNEE draws a point on a light and, if visible from geom,
// returns the throughput*BSDF*G*Le contribution of the explicit
// two-point connection (spec.md §4.4.2), zero otherwise. query must
// not carry the L or E bit; delta BSDF types naturally contribute zero
// here since EvaluateDirection is called with forceDegenerated=false.
func sampleNEE(sc *scene.Scene, sampler core.Sampler, geom core.SurfaceGeometry, prim *primitive.Primitive, query primitive.Type, incoming, beta core.Vec3) core.Vec3 {
	light, lightIdx := sc.SampleEmitter(primitive.TypeL, sampler.Get1D())
	mesh := sc.Meshes[lightIdx]
	lightGeom := light.SamplePosition(mesh, sampler)

	selPdf := sc.EvaluateEmitterPDF(primitive.TypeL)
	posPdf := light.EvaluatePositionPDF(lightGeom, true)
	if posPdf <= 0 {
		return core.Vec3{}
	}

	d := lightGeom.P.Subtract(geom.P)
	dist2 := d.LengthSquared()
	if dist2 < 1e-18 {
		return core.Vec3{}
	}
	dist := math.Sqrt(dist2)
	wi := d.Multiply(1 / dist)

	fBsdf := prim.EvaluateDirection(geom, query, incoming, wi, primitive.TransportEL, false)
	if fBsdf.IsZero() {
		return core.Vec3{}
	}
	if !sc.Visible(geom.P, lightGeom.P) {
		return core.Vec3{}
	}

	wiAtLight := wi.Negate()
	fLight := light.EvaluateDirection(lightGeom, primitive.TypeL, core.Vec3{}, wiAtLight, primitive.TransportLE, false)
	if fLight.IsZero() {
		return core.Vec3{}
	}

	cosAtSurface := math.Abs(geom.Gn.Dot(wi))
	cosAtLight := math.Abs(lightGeom.Gn.Dot(wiAtLight))
	g := cosAtSurface * cosAtLight / dist2

	return beta.MultiplyVec(fBsdf).MultiplyVec(fLight).Multiply(g / (selPdf * posPdf))
}
