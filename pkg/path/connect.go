package path

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/scene"
)

// EvaluateCst returns the connection term c_{s,t}: the BSDF/emission
// product and geometric term G across the edge joining the light
// subpath's s-th vertex and the eye subpath's t-th vertex, per spec.md
// §4.4.2-4.4.3. The s=0 and t=0 endpoint cases evaluate only the
// surviving endpoint's emission or importance in its outgoing
// direction; both require continuous (non-delta) density, so a
// connection through or onto a delta vertex naturally evaluates to
// zero without a separate specular check.
func EvaluateCst(sc *scene.Scene, lightPath, eyePath *Path, s, t int) core.Vec3 {
	switch {
	case s == 0 && t > 0:
		v := &eyePath.Vertices[t-1]
		if !v.IsOnLight() {
			return core.Vec3{}
		}
		return v.Prim.EvaluateDirection(v.Geom, primitive.TypeL, core.Vec3{}, v.Incoming, primitive.TransportEL, false)

	case t == 0 && s > 0:
		v := &lightPath.Vertices[s-1]
		if !v.IsOnSensor() {
			return core.Vec3{}
		}
		return v.Prim.EvaluateDirection(v.Geom, primitive.TypeE, core.Vec3{}, v.Incoming, primitive.TransportLE, false)

	case s > 0 && t > 0:
		lv := &lightPath.Vertices[s-1]
		ev := &eyePath.Vertices[t-1]

		d := ev.Geom.P.Subtract(lv.Geom.P)
		dist2 := d.LengthSquared()
		if dist2 < 1e-18 {
			return core.Vec3{}
		}
		dist := math.Sqrt(dist2)
		dirLightToEye := d.Multiply(1 / dist)
		dirEyeToLight := dirLightToEye.Negate()

		fLight := lv.Prim.EvaluateDirection(lv.Geom, lv.Type, lv.Incoming, dirLightToEye, primitive.TransportLE, false)
		if fLight.IsZero() {
			return core.Vec3{}
		}
		fEye := ev.Prim.EvaluateDirection(ev.Geom, ev.Type, ev.Incoming, dirEyeToLight, primitive.TransportEL, false)
		if fEye.IsZero() {
			return core.Vec3{}
		}

		if !sc.Visible(lv.Geom.P, ev.Geom.P) {
			return core.Vec3{}
		}

		cosLight := math.Abs(lv.Geom.Gn.Dot(dirLightToEye))
		cosEye := math.Abs(ev.Geom.Gn.Dot(dirEyeToLight))
		g := cosLight * cosEye / dist2

		return fLight.MultiplyVec(fEye).Multiply(g)
	}
	return core.Vec3{}
}

// EvaluateUnweightContribution returns the unweighted BDPT path
// contribution alpha_L * c_{s,t} * alpha_E for a given strategy,
// where alpha_L and alpha_E are the accumulated subpath throughputs
// (1 when the corresponding subpath is empty), per spec.md §4.4.3.
func EvaluateUnweightContribution(sc *scene.Scene, lightPath, eyePath *Path, s, t int) core.Vec3 {
	cst := EvaluateCst(sc, lightPath, eyePath, s, t)
	if cst.IsZero() {
		return core.Vec3{}
	}

	alphaL := core.NewVec3(1, 1, 1)
	if s > 0 {
		alphaL = lightPath.Vertices[s-1].Beta
	}
	alphaE := core.NewVec3(1, 1, 1)
	if t > 0 {
		alphaE = eyePath.Vertices[t-1].Beta
	}

	return alphaL.MultiplyVec(cst).MultiplyVec(alphaE)
}
