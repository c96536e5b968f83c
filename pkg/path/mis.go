package path

import (
	"math"

	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/scene"
)

// remap0 treats a zero pdf as 1 for the ratio chain, following Veach's
// convention of not letting a hypothetically-impossible strategy
// (delta-generated neighbor) poison the running product.
func remap0(pdf float64) float64 {
	if pdf == 0 {
		return 1
	}
	return pdf
}

// vertexAreaPdf returns the area-measure density of sampling `to` by
// tracing a ray from `from`, given from's own incident direction came
// from fromPrev (nil at a subpath root). Returns 0 if from's BSDF/
// emission assigns no continuous density to that direction (e.g. a
// specular vertex, evaluated here with forceDegenerated=false).
func vertexAreaPdf(from, fromPrev, to *Vertex) float64 {
	incoming := from.Incoming
	if fromPrev != nil {
		incoming = fromPrev.Geom.P.Subtract(from.Geom.P).Normalize()
	}
	wo := to.Geom.P.Subtract(from.Geom.P)
	dist2 := wo.LengthSquared()
	if dist2 < 1e-18 {
		return 0
	}
	wo = wo.Normalize()

	pdfDir := from.Prim.EvaluateDirectionPDF(from.Geom, from.Type, incoming, wo, false)
	if pdfDir <= 0 {
		return 0
	}
	cosAtTo := math.Abs(to.Geom.Gn.Dot(wo))
	return pdfDir * cosAtTo / dist2
}

// AreaPdfForward fills PdfFwd for the vertex at index i>0 of subpath,
// given the direction pdf (projected-solid-angle) that produced it
// from the previous vertex. Call this right after appending each hit
// vertex during subpath sampling.
func AreaPdfForward(subpath *Path, i int, dirPdf float64) {
	if i <= 0 || i >= len(subpath.Vertices) {
		return
	}
	prev := &subpath.Vertices[i-1]
	cur := &subpath.Vertices[i]
	d := cur.Geom.P.Subtract(prev.Geom.P)
	dist2 := d.LengthSquared()
	if dist2 < 1e-18 {
		cur.PdfFwd = 0
		return
	}
	wo := d.Multiply(1 / math.Sqrt(dist2))
	cosAtCur := math.Abs(cur.Geom.Gn.Dot(wo))
	cur.PdfFwd = dirPdf * cosAtCur / dist2
}

// MISWeight computes the power-heuristic (beta=2) multiple-importance
// weight for the (s,t) connection strategy, per spec.md §4.4.3.
// lightPath and eyePath are the two generating subpaths; s and t are
// each subpath's vertex count contributed to this strategy.
func MISWeight(sc *scene.Scene, lightPath, eyePath *Path, s, t int) float64 {
	if s+t == 2 {
		return 1
	}

	// The up-to-four vertices adjacent to the connection edge get their
	// PdfRev recomputed for this specific (s,t) strategy rather than
	// reusing whatever an earlier strategy left in the struct field.
	var qs, qsMinus, pt, ptMinus *Vertex
	if s > 0 {
		qs = &lightPath.Vertices[s-1]
	}
	if s > 1 {
		qsMinus = &lightPath.Vertices[s-2]
	}
	if t > 0 {
		pt = &eyePath.Vertices[t-1]
	}
	if t > 1 {
		ptMinus = &eyePath.Vertices[t-2]
	}

	revPt, revPtMinus, revQs, revQsMinus := 0.0, 0.0, 0.0, 0.0
	if pt != nil && qs != nil {
		revPt = vertexAreaPdf(qs, qsMinus, pt)
	}
	if ptMinus != nil && qs != nil {
		revPtMinus = vertexAreaPdf(pt, qs, ptMinus)
	}
	if qs != nil && pt != nil {
		revQs = vertexAreaPdf(pt, ptMinus, qs)
	}
	if qsMinus != nil && qs != nil && pt != nil {
		revQsMinus = vertexAreaPdf(qs, pt, qsMinus)
	}

	sumRi := 0.0

	ri := 1.0
	for i := t - 1; i > 0; i-- {
		v := &eyePath.Vertices[i]
		fwd, rev := v.PdfFwd, v.PdfRev
		if i == t-1 {
			rev = revPt
		} else if i == t-2 {
			rev = revPtMinus
		}
		ratio := remap0(rev) / remap0(fwd)
		ri *= ratio * ratio

		prevDelta := eyePath.Vertices[i-1].Type == primitive.TypeS
		curDelta := v.Type == primitive.TypeS
		if !curDelta && !prevDelta {
			sumRi += ri
		}
	}

	ri = 1.0
	for i := s - 1; i >= 0; i-- {
		v := &lightPath.Vertices[i]
		fwd, rev := v.PdfFwd, v.PdfRev
		if i == s-1 {
			rev = revQs
		} else if i == s-2 {
			rev = revQsMinus
		}
		ratio := remap0(rev) / remap0(fwd)
		ri *= ratio * ratio

		var precedingDelta bool
		if i > 0 {
			precedingDelta = lightPath.Vertices[i-1].Type == primitive.TypeS
		} else {
			precedingDelta = v.Delta
		}
		curDelta := v.Type == primitive.TypeS
		if !curDelta && !precedingDelta {
			sumRi += ri
		}
	}

	return 1 / (1 + sumRi)
}

// SelectionProb accounts for Russian-roulette survival at the interior
// light-subpath vertices beyond the first, per spec.md §4.4.3.
func SelectionProb(s int) float64 {
	if s <= 1 {
		return 1
	}
	p := 1.0
	for i := 1; i < s; i++ {
		p *= russianRouletteSurvival
	}
	return p
}
