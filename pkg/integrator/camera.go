package integrator

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/scene"
)

// sampleCameraRay draws the sensor's root position and its first
// outgoing direction, returning the resulting ray, the normalized
// raster position it corresponds to, and the throughput beta =
// f/(posPdf*dirPdf) carried forward from the root, per spec.md §4.4.1
// specialized to the single always-present sensor.
func sampleCameraRay(sc *scene.Scene, sampler core.Sampler) (ray core.Ray, px, py float64, beta core.Vec3, ok bool) {
	sensor, sensorIdx := sc.SampleEmitter(primitive.TypeE, sampler.Get1D())
	mesh := sc.Meshes[sensorIdx]
	geom := sensor.SamplePosition(mesh, sampler)
	posPdf := sensor.EvaluatePositionPDF(geom, true)
	if posPdf <= 0 {
		return core.Ray{}, 0, 0, core.Vec3{}, false
	}

	u2 := sampler.Get2D()
	uComp := sampler.Get1D()
	wo, sok := sensor.SampleDirection(u2, uComp, primitive.TypeE, geom, core.Vec3{})
	if !sok {
		return core.Ray{}, 0, 0, core.Vec3{}, false
	}

	px, py, rok := sensor.RasterPosition(wo, geom)
	if !rok {
		return core.Ray{}, 0, 0, core.Vec3{}, false
	}

	f := sensor.EvaluateDirection(geom, primitive.TypeE, core.Vec3{}, wo, primitive.TransportEL, true)
	if f.IsZero() {
		return core.Ray{}, 0, 0, core.Vec3{}, false
	}
	dirPdf := sensor.EvaluateDirectionPDF(geom, primitive.TypeE, core.Vec3{}, wo, true)
	if dirPdf <= 0 {
		return core.Ray{}, 0, 0, core.Vec3{}, false
	}

	scale := 1 / (posPdf * dirPdf)
	beta = f.Multiply(scale)
	return core.NewRay(geom.P, wo), px, py, beta, true
}

// sampleLightRay draws a light's root position and its first outgoing
// direction, the adjoint counterpart of sampleCameraRay used to seed
// the LT and LT+NEE integrators' walks.
func sampleLightRay(sc *scene.Scene, sampler core.Sampler) (ray core.Ray, beta core.Vec3, root core.SurfaceGeometry, rootPrim *primitive.Primitive, ok bool) {
	light, lightIdx := sc.SampleEmitter(primitive.TypeL, sampler.Get1D())
	mesh := sc.Meshes[lightIdx]
	geom := light.SamplePosition(mesh, sampler)

	selPdf := sc.EvaluateEmitterPDF(primitive.TypeL)
	posPdf := light.EvaluatePositionPDF(geom, true)
	if posPdf <= 0 {
		return core.Ray{}, core.Vec3{}, core.SurfaceGeometry{}, nil, false
	}

	u2 := sampler.Get2D()
	uComp := sampler.Get1D()
	wo, sok := light.SampleDirection(u2, uComp, primitive.TypeL, geom, core.Vec3{})
	if !sok {
		return core.Ray{}, core.Vec3{}, core.SurfaceGeometry{}, nil, false
	}

	f := light.EvaluateDirection(geom, primitive.TypeL, core.Vec3{}, wo, primitive.TransportLE, true)
	if f.IsZero() {
		return core.Ray{}, core.Vec3{}, core.SurfaceGeometry{}, nil, false
	}
	dirPdf := light.EvaluateDirectionPDF(geom, primitive.TypeL, core.Vec3{}, wo, true)
	if dirPdf <= 0 {
		return core.Ray{}, core.Vec3{}, core.SurfaceGeometry{}, nil, false
	}

	scale := 1 / (selPdf * posPdf * dirPdf)
	beta = f.Multiply(scale)
	return core.NewRay(geom.P, wo), beta, geom, light, true
}
