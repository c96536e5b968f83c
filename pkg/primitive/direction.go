package primitive

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
)

// SampleDirection draws an outgoing direction wo at geom under the
// interpretation selected by query, conditioned on the incident
// direction wi (zero for the first vertex of a subpath). uComp is an
// extra random number consumed only by the Fresnel-mixture specular
// kind, to choose between reflection and refraction. ok is false when
// the sample is invalid (e.g. the microfacet sample crosses the
// horizon, or total internal reflection with a zero refraction tint).
func (p *Primitive) SampleDirection(u core.Vec2, uComp float64, query QueryType, geom core.SurfaceGeometry, wi core.Vec3) (wo core.Vec3, ok bool) {
	switch {
	case query.Has(TypeL) && p.L != nil, query.Has(TypeE) && p.EArea != nil, query == TypeD:
		local := core.SampleCosineHemisphereLocal(u)
		return geom.ToWorld(local), true

	case p.LPointLight != nil && query.Has(TypeL):
		return core.SampleUniformSphere(u), true

	case p.LDirectional != nil && query.Has(TypeL):
		return p.LDirectional.Direction, true

	case p.E != nil && query.Has(TypeE):
		return p.samplePinholeDirection(u)

	case p.G != nil && query == TypeG:
		return p.sampleGlossyDirection(u, geom, wi)

	case p.S != nil && query == TypeS:
		return p.sampleSpecularDirection(uComp, geom, wi)
	}
	return core.Vec3{}, false
}

func (p *Primitive) samplePinholeDirection(u core.Vec2) (core.Vec3, bool) {
	x := 2*u.X - 1
	y := 2*u.Y - 1
	local := core.NewVec3(x*p.E.TanFov*p.E.AspectRatio, y*p.E.TanFov, 1).Normalize()
	wo := p.E.Vx.Multiply(local.X).Add(p.E.Vy.Multiply(local.Y)).Add(p.E.Vz.Multiply(local.Z))
	return wo, true
}

func (p *Primitive) sampleGlossyDirection(u core.Vec2, geom core.SurfaceGeometry, wi core.Vec3) (core.Vec3, bool) {
	alpha := p.G.Roughness
	tan2ThetaH := beckmannSampleTan2ThetaH(u.X, alpha)
	cosThetaH := 1 / math.Sqrt(1+tan2ThetaH)
	sinThetaH := math.Sqrt(math.Max(0, 1-cosThetaH*cosThetaH))
	phi := 2 * math.Pi * u.Y

	halfLocal := core.NewVec3(sinThetaH*math.Cos(phi), sinThetaH*math.Sin(phi), cosThetaH)
	half := geom.ToWorld(halfLocal)
	if half.Dot(geom.Sn) < 0 {
		half = half.Negate()
	}

	// wi points away from the surface; reflect it about the sampled
	// half vector to get the other scattered direction.
	wo := core.Reflect(wi, half)

	if geom.Sn.Dot(wo)*geom.Sn.Dot(wi) <= 0 {
		return core.Vec3{}, false
	}
	return wo, true
}

func (p *Primitive) sampleSpecularDirection(uComp float64, geom core.SurfaceGeometry, wi core.Vec3) (core.Vec3, bool) {
	switch p.S.Kind {
	case SpecularReflection:
		return mirrorReflect(geom, wi), true

	case SpecularRefraction:
		wo, ok := specularRefract(geom, wi, p.S.Eta1, p.S.Eta2)
		if !ok {
			if p.S.R.IsZero() {
				return core.Vec3{}, false
			}
			return mirrorReflect(geom, wi), true
		}
		return wo, true

	case SpecularFresnel:
		cosThetaI := geom.Sn.Dot(wi)
		fr := core.FresnelDielectric(cosThetaI, p.S.Eta1, p.S.Eta2)
		if uComp <= fr {
			return mirrorReflect(geom, wi), true
		}
		wo, ok := specularRefract(geom, wi, p.S.Eta1, p.S.Eta2)
		if !ok {
			return mirrorReflect(geom, wi), true
		}
		return wo, true
	}
	return core.Vec3{}, false
}

func mirrorReflect(geom core.SurfaceGeometry, wi core.Vec3) core.Vec3 {
	n := geom.Sn
	if n.Dot(wi) < 0 {
		n = n.Negate()
	}
	return core.Reflect(wi, n)
}

// specularRefract refracts wi (pointing away from the surface) across
// the interface, using the convention that Eta1 is the medium wi sits
// in and Eta2 is the medium beyond the surface in the direction wi
// points away from the normal.
func specularRefract(geom core.SurfaceGeometry, wi core.Vec3, eta1, eta2 float64) (core.Vec3, bool) {
	n := geom.Sn
	cosThetaI := n.Dot(wi)
	entering := cosThetaI > 0
	eta := eta1 / eta2
	if !entering {
		n = n.Negate()
		eta = eta2 / eta1
	}
	wt, ok := core.Refract(wi, n, eta)
	if !ok {
		return core.Vec3{}, false
	}
	return wt, true
}

// EvaluateDirection evaluates the BSDF/emission/importance value at
// geom for the (wi,wo) pair under transport direction transDir.
// forceDegenerated unlocks the delta contribution of purely specular
// BSDFs and point/directional lights (the pinhole's importance does not
// depend on it) — callers that just sampled the
// direction pass true; callers probing an arbitrary, independently
// chosen (wi,wo) pass false and get zero back for delta types.
func (p *Primitive) EvaluateDirection(geom core.SurfaceGeometry, query QueryType, wi, wo core.Vec3, transDir TransportDirection, forceDegenerated bool) core.Vec3 {
	switch {
	case p.L != nil && query.Has(TypeL):
		return emitterRadiance(p.L.Le, geom, wo)
	case p.LPointLight != nil && query.Has(TypeL):
		if forceDegenerated {
			return p.LPointLight.Le
		}
		return core.Vec3{}
	case p.LDirectional != nil && query.Has(TypeL):
		if forceDegenerated {
			return p.LDirectional.Le
		}
		return core.Vec3{}
	case p.EArea != nil && query.Has(TypeE):
		return emitterRadiance(p.EArea.We, geom, wo)
	case p.E != nil && query.Has(TypeE):
		return p.evaluatePinholeImportance(wo)
	case p.D != nil && query == TypeD:
		return p.evaluateDiffuse(geom, wi, wo, transDir)
	case p.G != nil && query == TypeG:
		return p.evaluateGlossy(geom, wi, wo, transDir)
	case p.S != nil && query == TypeS:
		return p.evaluateSpecular(geom, wi, wo, transDir, forceDegenerated)
	}
	return core.Vec3{}
}

// emitterRadiance applies the orientation mask shared by area emitters:
// zero if wo points into the back side of the surface.
func emitterRadiance(le core.Vec3, geom core.SurfaceGeometry, wo core.Vec3) core.Vec3 {
	if geom.Gn.Dot(wo) <= 0 {
		return core.Vec3{}
	}
	return le
}

func (p *Primitive) evaluatePinholeImportance(wo core.Vec3) core.Vec3 {
	local := core.NewVec3(wo.Dot(p.E.Vx), wo.Dot(p.E.Vy), wo.Dot(p.E.Vz))
	if local.Z <= 0 {
		return core.Vec3{}
	}
	cosTheta := local.Z / wo.Length()
	x := local.X / (local.Z * p.E.TanFov * p.E.AspectRatio)
	y := local.Y / (local.Z * p.E.TanFov)
	if x < -1 || x > 1 || y < -1 || y > 1 {
		return core.Vec3{}
	}
	area := 4 * p.E.TanFov * p.E.TanFov * p.E.AspectRatio
	return p.E.We.Multiply(1 / (cosTheta * cosTheta * cosTheta * area))
}

// shadingCorrection implements the Veach adjoint-BSDF correction for
// asymmetric shading/geometric normals. Returns ok=false when either
// sided cosine product is non-positive, in which case the BSDF value
// must be zero.
func shadingCorrection(geom core.SurfaceGeometry, wi, wo core.Vec3, transDir TransportDirection) (factor float64, ok bool) {
	wiNg, woNg := wi.Dot(geom.Gn), wo.Dot(geom.Gn)
	wiNs, woNs := wi.Dot(geom.Sn), wo.Dot(geom.Sn)
	if wiNg*woNg <= 0 || wiNs*woNs <= 0 {
		return 0, false
	}
	if transDir == TransportLE {
		return (wiNs * woNg) / (woNs * wiNg), true
	}
	return 1, true
}

func (p *Primitive) evaluateDiffuse(geom core.SurfaceGeometry, wi, wo core.Vec3, transDir TransportDirection) core.Vec3 {
	correction, ok := shadingCorrection(geom, wi, wo, transDir)
	if !ok {
		return core.Vec3{}
	}
	r := p.D.R
	if p.D.Tex != nil {
		r = p.D.Tex.Sample(geom.UV)
	}
	return r.Multiply(correction / math.Pi)
}

func (p *Primitive) evaluateGlossy(geom core.SurfaceGeometry, wi, wo core.Vec3, transDir TransportDirection) core.Vec3 {
	correction, ok := shadingCorrection(geom, wi, wo, transDir)
	if !ok {
		return core.Vec3{}
	}

	half := wi.Add(wo).Normalize()
	localH := geom.ToLocal(half)
	localWi := geom.ToLocal(wi)
	localWo := geom.ToLocal(wo)

	cosThetaI, cosThetaO := localWi.Z, localWo.Z
	if cosThetaI <= 0 || cosThetaO <= 0 {
		return core.Vec3{}
	}

	d := beckmannD(localH.Z, p.G.Roughness)
	g := vCavityMasking(localH.Z, cosThetaO, cosThetaI, wo.Dot(half), wi.Dot(half))

	cosThetaH := math.Abs(wi.Dot(half))
	fr := core.NewVec3(
		core.ComplexFresnelConductor(cosThetaH, p.G.Eta.X, p.G.K.X),
		core.ComplexFresnelConductor(cosThetaH, p.G.Eta.Y, p.G.K.Y),
		core.ComplexFresnelConductor(cosThetaH, p.G.Eta.Z, p.G.K.Z),
	)

	r := p.G.R
	if p.G.Tex != nil {
		r = p.G.Tex.Sample(geom.UV)
	}

	scale := d * g / (4 * cosThetaI * cosThetaO)
	return r.MultiplyVec(fr).Multiply(scale * correction)
}

func (p *Primitive) evaluateSpecular(geom core.SurfaceGeometry, wi, wo core.Vec3, transDir TransportDirection, forceDegenerated bool) core.Vec3 {
	if !forceDegenerated {
		return core.Vec3{}
	}
	if p.S.Kind == SpecularRefraction && transDir == TransportEL {
		// Radiance compresses by eta^2 crossing into the denser medium
		// along the adjoint (eye-to-light) direction; see spec.md §4.2.
		eta := p.S.Eta2 / p.S.Eta1
		if geom.Sn.Dot(wi) < 0 {
			eta = p.S.Eta1 / p.S.Eta2
		}
		return p.S.R.Multiply(eta * eta)
	}
	return p.S.R
}
