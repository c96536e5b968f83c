package primitive

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
)

// EvaluateDirectionPDF returns the density of SampleDirection producing
// wo given wi, under query's interpretation: per projected solid angle
// for the cosine-hemisphere and glossy cases, per solid angle for the
// point light's uniform sphere and the pinhole. forceDegenerated
// unlocks the delta density of specular and directional types exactly
// as it does in EvaluateDirection; the point light's density does not
// depend on it.
func (p *Primitive) EvaluateDirectionPDF(geom core.SurfaceGeometry, query QueryType, wi, wo core.Vec3, forceDegenerated bool) float64 {
	switch {
	case p.L != nil && query.Has(TypeL):
		return cosineHemispherePDFWorld(geom, wo)
	case p.EArea != nil && query.Has(TypeE):
		return cosineHemispherePDFWorld(geom, wo)
	case p.D != nil && query == TypeD:
		return cosineHemispherePDFWorld(geom, wo)

	case p.LPointLight != nil && query.Has(TypeL):
		return core.UniformSpherePDF()

	case p.LDirectional != nil && query.Has(TypeL):
		if forceDegenerated {
			return 1
		}
		return 0

	case p.E != nil && query.Has(TypeE):
		// The pinhole's direction pdf equals its importance value,
		// 1/(cos^3(theta)*A) — a known coincidence for ideal pinhole
		// cameras. We is scaled uniformly so any channel carries it.
		imp := p.evaluatePinholeImportance(wo)
		return imp.X

	case p.G != nil && query == TypeG:
		return p.glossyPDF(geom, wi, wo)

	case p.S != nil && query == TypeS:
		if forceDegenerated {
			return 1
		}
		return 0
	}
	return 0
}

func cosineHemispherePDFWorld(geom core.SurfaceGeometry, wo core.Vec3) float64 {
	cosTheta := geom.Sn.Dot(wo)
	if cosTheta <= 0 {
		return 0
	}
	return core.CosineHemispherePDF()
}

// glossyPDF converts the Beckmann half-vector sampling density into a
// projected-solid-angle density over wo: divide by the microfacet
// Jacobian 4|wo.h| to get the solid-angle density, then project out by
// dividing by cos(theta_o), per spec.md §4.2.
func (p *Primitive) glossyPDF(geom core.SurfaceGeometry, wi, wo core.Vec3) float64 {
	cosThetaO := geom.Sn.Dot(wo)
	if cosThetaO*geom.Sn.Dot(wi) <= 0 {
		return 0
	}
	half := wi.Add(wo).Normalize()
	localH := geom.ToLocal(half)
	if localH.Z <= 0 {
		return 0
	}
	woDotH := wo.Dot(half)
	if woDotH == 0 {
		return 0
	}
	d := beckmannD(localH.Z, p.G.Roughness)
	return d * localH.Z / (4 * math.Abs(woDotH) * math.Abs(cosThetaO))
}
