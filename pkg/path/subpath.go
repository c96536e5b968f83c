package path

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/scene"
)

// russianRouletteSurvival is the fixed survival probability q used by
// subpath extension (spec.md §4.4.1). The PT/LT integrators use
// pkg/integrator's own constant of the same value.
const russianRouletteSurvival = 0.5

// SampleSubpath builds an L- or E-subpath per spec.md §4.4.1: emitter
// selection and position sampling produce the root vertex, then each
// subsequent vertex is obtained by sampling a direction, evaluating
// the corresponding BSDF/emission, tracing a ray, and appending the
// hit — with the emitter/sensor bit masked out of the new vertex's
// type. maxVertices bounds the walk; -1 disables the bound.
func SampleSubpath(sc *scene.Scene, sampler core.Sampler, startType primitive.Type, maxVertices int) Path {
	transDir := primitive.TransportEL
	if startType == primitive.TypeL {
		transDir = primitive.TransportLE
	}

	root, rootIndex := sc.SampleEmitter(startType, sampler.Get1D())
	mesh := sc.Meshes[rootIndex]
	geom := root.SamplePosition(mesh, sampler)

	selPdf := sc.EvaluateEmitterPDF(startType)
	posPdf := root.EvaluatePositionPDF(geom, true)
	areaPdf := selPdf * posPdf

	var beta core.Vec3
	if areaPdf > 0 {
		scale := 1 / areaPdf
		beta = core.NewVec3(scale, scale, scale)
	}

	path := Path{Vertices: []Vertex{{
		Geom: geom, Prim: root, PrimIndex: rootIndex,
		Type: startType, Incoming: core.Vec3{}, Beta: beta,
		PdfFwd: areaPdf, Delta: geom.Degenerated,
	}}}

	if maxVertices == 1 {
		return path
	}

	for {
		cur := &path.Vertices[len(path.Vertices)-1]
		if cur.Beta.IsZero() {
			break
		}

		u2 := sampler.Get2D()
		uComp := sampler.Get1D()
		wo, ok := cur.Prim.SampleDirection(u2, uComp, cur.Type, cur.Geom, cur.Incoming)
		if !ok {
			break
		}

		f := cur.Prim.EvaluateDirection(cur.Geom, cur.Type, cur.Incoming, wo, transDir, true)
		if f.IsZero() {
			break
		}
		pdfDir := cur.Prim.EvaluateDirectionPDF(cur.Geom, cur.Type, cur.Incoming, wo, true)
		if pdfDir <= 0 {
			break
		}

		nextBeta := cur.Beta.MultiplyVec(f).Multiply(1 / pdfDir)

		// Russian roulette after the first vertex, per spec.md §4.4.1.
		if len(path.Vertices) > 1 {
			if sampler.Get1D() >= russianRouletteSurvival {
				ray := core.NewRay(cur.Geom.P, wo)
				appendHitVertex(&path, ray, nextBeta, pdfDir, sc)
				break
			}
			nextBeta = nextBeta.Multiply(1 / russianRouletteSurvival)
		}

		ray := core.NewRay(cur.Geom.P, wo)
		if !appendHitVertex(&path, ray, nextBeta, pdfDir, sc) {
			break
		}
		if maxVertices >= 0 && len(path.Vertices) >= maxVertices {
			break
		}
	}

	return path
}

// appendHitVertex traces ray, and on a hit appends the intersected
// vertex (with the emitter/sensor bit masked out of its query type)
// to path. dirPdf is the projected-solid-angle density that produced
// the sampled direction, used to fill the new vertex's PdfFwd (area
// measure) and, by BSDF reciprocity, the predecessor's PdfRev. Returns
// false if the ray missed.
func appendHitVertex(path *Path, ray core.Ray, beta core.Vec3, dirPdf float64, sc *scene.Scene) bool {
	geom, prim, primIndex, hit := sc.Intersect(ray, 1e-6, 1e12)
	if !hit {
		return false
	}

	t := prim.Type &^ (primitive.TypeL | primitive.TypeE)
	if t == 0 {
		// A mesh-only L or E primitive with no BSDF: nothing further
		// to query here, so the walk simply halts at this vertex.
		t = prim.Type
	}

	wiIn := ray.Direction.Negate()
	path.Vertices = append(path.Vertices, Vertex{
		Geom: geom, Prim: prim, PrimIndex: primIndex,
		Type: t, Incoming: wiIn, Beta: beta,
	})

	newIdx := len(path.Vertices) - 1
	AreaPdfForward(path, newIdx, dirPdf)

	if newIdx >= 2 {
		cur := &path.Vertices[newIdx-1]
		next := &path.Vertices[newIdx]
		prev := &path.Vertices[newIdx-2]
		prev.PdfRev = vertexAreaPdf(cur, next, prev)
	}
	return true
}
