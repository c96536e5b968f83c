package integrator

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
)

// LT is the light-tracing integrator of spec.md §4.5: the adjoint walk
// of PT, rooted at a sampled light and carried forward with
// TransportLE throughout. Whenever a bounce lands on the sensor, the
// hit projects to a raster position and splats directly, without
// waiting to return control to a camera ray.
type LT struct{ Config Config }

func (lt LT) Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film) {
	ray, beta, _, _, ok := sampleLightRay(sc, sampler)
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

		if prim.Type.Has(primitive.TypeE) {
			if px, py, rok := prim.RasterPosition(incoming, geom); rok {
				fSensor := prim.EvaluateDirection(geom, primitive.TypeE, core.Vec3{}, incoming, primitive.TransportLE, false)
				if !fSensor.IsZero() {
					film.Splat(px, py, beta.MultiplyVec(fSensor))
				}
			}
		}

		bsdfType := prim.Type &^ (primitive.TypeL | primitive.TypeE)
		if bsdfType == 0 || clampedBounce(lt.Config, bounce) {
			return
		}

		u2 := sampler.Get2D()
		uComp := sampler.Get1D()
		wo, sok := prim.SampleDirection(u2, uComp, bsdfType, geom, incoming)
		if !sok {
			return
		}
		f := prim.EvaluateDirection(geom, bsdfType, incoming, wo, primitive.TransportLE, true)
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
