package integrator

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
)

// PT is the plain unidirectional path tracer of spec.md §4.5: walk from
// the sensor via BSDF sampling, accumulating the throughput-weighted
// emission at every light hit, with Russian roulette after the first
// bounce.
type PT struct{ Config Config }

func (pt PT) Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film) {
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

		if prim.Type.Has(primitive.TypeL) {
			fLight := prim.EvaluateDirection(geom, primitive.TypeL, core.Vec3{}, incoming, primitive.TransportEL, false)
			if !fLight.IsZero() {
				film.Splat(px, py, beta.MultiplyVec(fLight))
			}
		}

		bsdfType := prim.Type &^ (primitive.TypeL | primitive.TypeE)
		if bsdfType == 0 || clampedBounce(pt.Config, bounce) {
			return
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
