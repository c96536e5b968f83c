// Package primitive implements the unified emission/sensing/BSDF model
// that every path vertex in this renderer queries through the same
// bitmask-dispatched interface, rather than through a class hierarchy
// of separate Light, Camera and Material types.
//
// A Primitive is a tagged record: a Type bitmask over {D,G,S,L,E} plus
// one parameter struct per bit that is set. At most one of {D,G,S} and
// at most one of {L,E} may be set on a single Primitive; L and E are
// always mutually exclusive. This lets a single mesh-backed object be
// both a diffuse BSDF and an area light (queried as L on one pass and
// as D on another) without double dispatch.
package primitive

import "github.com/df07/pathspace/pkg/core"

// Type is a bitmask classifying which query groups a Primitive answers.
type Type uint8

const (
	TypeD Type = 1 << iota // diffuse BSDF
	TypeG                  // glossy (Beckmann microfacet) BSDF
	TypeS                  // purely specular BSDF (reflection/refraction/Fresnel-mixture)
	TypeL                  // light (emitter)
	TypeE                  // sensor (eye)
)

// Has reports whether the type t has any bit in mask set.
func (t Type) Has(mask Type) bool { return t&mask != 0 }

// IsBSDF reports whether the primitive scatters light (D, G, or S).
func (t Type) IsBSDF() bool { return t.Has(TypeD | TypeG | TypeS) }

// QueryType selects which interpretation of a Primitive a path
// operation is invoking it under. It is always one of the five Type
// bits, never a combination — a primitive that is both D and L is
// queried as TypeL when sampled as an emitter and as TypeD when
// sampled as a BSDF.
type QueryType = Type

// TransportDirection distinguishes the primal (light-to-eye) transport
// direction from its adjoint (eye-to-light), used by the
// shading-normal correction in EvaluateDirection.
type TransportDirection uint8

const (
	// TransportLE is light-to-eye: the direction radiance actually flows.
	TransportLE TransportDirection = iota
	// TransportEL is eye-to-light: the adjoint direction importance flows.
	TransportEL
)

// LArea parameterises an area light living on a mesh.
type LArea struct {
	Le            core.Vec3
	MeshIndex     int
	AreaCDF       *core.Distribution1D // per-triangle area CDF over the mesh's faces
	ReciprocalArea float64
}

// LPoint parameterises an isotropic point light.
type LPoint struct {
	Le       core.Vec3
	Position core.Vec3
}

// LDirectional parameterises a directional ("sun") light: parallel
// rays arriving from Direction, realised for light-subpath sampling as
// a virtual disk orthogonal to Direction at the scene's bounding
// sphere.
type LDirectional struct {
	Le                core.Vec3
	Direction         core.Vec3 // direction light travels (points away from the source)
	SceneCenter        core.Vec3
	SceneRadius        float64
	ReciprocalDiskArea float64
}

// EPinhole parameterises an idealized pinhole camera.
type EPinhole struct {
	We          core.Vec3 // importance scale, usually (1,1,1)
	Eye         core.Vec3
	Vx, Vy, Vz  core.Vec3 // orthonormal eye-space basis (Vz points into the scene)
	TanFov      float64   // tan(fov/2)
	AspectRatio float64
}

// EArea parameterises an area sensor living on a (UV-bearing) mesh.
type EArea struct {
	We             core.Vec3
	MeshIndex      int
	AreaCDF        *core.Distribution1D
	ReciprocalArea float64
}

// Diffuse is a Lambertian BSDF.
type Diffuse struct {
	R   core.Vec3 // reflectance, used when Tex == nil
	Tex *core.Texture
}

// Glossy is a Beckmann microfacet conductor BSDF.
type Glossy struct {
	R         core.Vec3 // used when Tex == nil
	Tex       *core.Texture
	Eta, K    core.Vec3 // complex index of refraction, per channel
	Roughness float64   // Beckmann alpha
}

// SpecularKind distinguishes the three flavors of purely specular BSDF.
type SpecularKind uint8

const (
	SpecularReflection SpecularKind = iota
	SpecularRefraction
	SpecularFresnel
)

// Specular is a purely specular (delta) BSDF: mirror reflection, pure
// refraction, or a Fresnel-weighted mixture of the two.
type Specular struct {
	Kind       SpecularKind
	R          core.Vec3 // tint
	Eta1, Eta2 float64   // indices of refraction, used by Refraction and Fresnel
}

// Primitive is the unified tagged record described above. MeshIndex
// refers into the owning Scene's mesh arena and is -1 for primitives
// with no backing geometry (point/directional lights, the pinhole
// sensor).
type Primitive struct {
	Type Type

	L *LArea
	E *EPinhole

	LPointLight   *LPoint
	LDirectional  *LDirectional
	EArea         *EArea

	D *Diffuse
	G *Glossy
	S *Specular
}

// MeshIndex returns the mesh backing this primitive's geometry, or -1
// if it has none (point/directional light, pinhole sensor).
func (p *Primitive) MeshIndex() int {
	switch {
	case p.L != nil:
		return p.L.MeshIndex
	case p.EArea != nil:
		return p.EArea.MeshIndex
	default:
		return -1
	}
}

// IsDegenerate reports whether this primitive's position sampling is a
// delta distribution with no associated area: point light or pinhole
// sensor. The directional light's virtual disk has finite area and is
// not degenerate in this sense, even though its direction sampling is
// a delta.
func (p *Primitive) IsDegenerate() bool {
	return p.LPointLight != nil || p.E != nil
}
