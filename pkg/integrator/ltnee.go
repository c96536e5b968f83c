package integrator

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
)

// LTNEE is the LT+NEE integrator of spec.md §4.5: a light-subpath walk
// that, before each bounce (including at the light root itself), tries
// a direct connection to a sampled sensor position rather than waiting
// for a chance BSDF-sampled hit. The direct-bounce-lands-on-sensor
// splat that a plain adjoint walk would otherwise take is dropped in
// favor of this NEE-only connection, symmetric with PT+NEE's own
// no-double-count rule and justified further by the vanishing chance a
// BSDF-sampled direction ever lands inside a pinhole sensor's
// zero-measure aperture.
type LTNEE struct{ Config Config }

func (lt LTNEE) Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film) {
	ray, beta, rootGeom, rootPrim, ok := sampleLightRay(sc, sampler)
	if !ok {
		return
	}

	if px, py, contrib, cok := sampleSensorConnection(sc, sampler, rootGeom, rootPrim, primitive.TypeL, core.Vec3{}, beta); cok {
		film.Splat(px, py, contrib)
	}

	incoming := ray.Direction.Negate()
	bounce := 0
	for {
		geom, prim, _, hit := sc.Intersect(ray, 1e-6, 1e12)
		if !hit {
			return
		}

		bsdfType := prim.Type &^ (primitive.TypeL | primitive.TypeE)
		if bsdfType == 0 || clampedBounce(lt.Config, bounce) {
			return
		}

		if px, py, contrib, cok := sampleSensorConnection(sc, sampler, geom, prim, bsdfType, incoming, beta); cok {
			film.Splat(px, py, contrib)
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

// sampleSensorConnection draws a point on the sensor and, if visible
// from geom, returns the raster position and throughput*BSDF*G*We
// contribution of the explicit connection, the adjoint counterpart of
// sampleNEE. query must not carry the L or E bit for an interior
// vertex; it may be TypeL for the light root itself, in which case
// incoming is the zero vector.
func sampleSensorConnection(sc *scene.Scene, sampler core.Sampler, geom core.SurfaceGeometry, prim *primitive.Primitive, query primitive.Type, incoming, beta core.Vec3) (px, py float64, contribution core.Vec3, ok bool) {
	sensor, sensorIdx := sc.SampleEmitter(primitive.TypeE, sampler.Get1D())
	mesh := sc.Meshes[sensorIdx]
	sensorGeom := sensor.SamplePosition(mesh, sampler)

	posPdf := sensor.EvaluatePositionPDF(sensorGeom, true)
	if posPdf <= 0 {
		return 0, 0, core.Vec3{}, false
	}

	d := sensorGeom.P.Subtract(geom.P)
	dist2 := d.LengthSquared()
	if dist2 < 1e-18 {
		return 0, 0, core.Vec3{}, false
	}
	dist := math.Sqrt(dist2)
	wo := d.Multiply(1 / dist)

	fBsdf := prim.EvaluateDirection(geom, query, incoming, wo, primitive.TransportLE, false)
	if fBsdf.IsZero() {
		return 0, 0, core.Vec3{}, false
	}

	woAtSensor := wo.Negate()
	rpx, rpy, rok := sensor.RasterPosition(woAtSensor, sensorGeom)
	if !rok {
		return 0, 0, core.Vec3{}, false
	}

	if !sc.Visible(geom.P, sensorGeom.P) {
		return 0, 0, core.Vec3{}, false
	}

	fSensor := sensor.EvaluateDirection(sensorGeom, primitive.TypeE, core.Vec3{}, woAtSensor, primitive.TransportEL, false)
	if fSensor.IsZero() {
		return 0, 0, core.Vec3{}, false
	}

	cosAtSurface := math.Abs(geom.Gn.Dot(wo))
	cosAtSensor := math.Abs(sensorGeom.Gn.Dot(woAtSensor))
	g := cosAtSurface * cosAtSensor / dist2

	contribution = beta.MultiplyVec(fBsdf).MultiplyVec(fSensor).Multiply(g / posPdf)
	return rpx, rpy, contribution, !contribution.IsZero()
}
