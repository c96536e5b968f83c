package integrator

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/path"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
)

// BDPT is the bidirectional path tracer of spec.md §4.4-4.5: sample one
// light subpath and one eye subpath, then evaluate and MIS-weight every
// (s,t) connection strategy with s+t>=2, splatting each into its own
// raster position.
type BDPT struct{ Config Config }

func (bd BDPT) Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film) {
	maxVertices := -1
	if bd.Config.MaxDepth >= 0 {
		maxVertices = bd.Config.MaxDepth + 1
	}

	lightPath := path.SampleSubpath(sc, sampler, primitive.TypeL, maxVertices)
	eyePath := path.SampleSubpath(sc, sampler, primitive.TypeE, maxVertices)

	nl := len(lightPath.Vertices)
	ne := len(eyePath.Vertices)

	for s := 0; s <= nl; s++ {
		for t := 0; t <= ne; t++ {
			if s+t < 2 {
				continue
			}

			px, py, rok := path.RasterPosition(&lightPath, &eyePath, s, t)
			if !rok {
				continue
			}

			contribution := path.EvaluateUnweightContribution(sc, &lightPath, &eyePath, s, t)
			if contribution.IsZero() {
				continue
			}

			weight := path.MISWeight(sc, &lightPath, &eyePath, s, t)
			selProb := path.SelectionProb(s)
			if selProb <= 0 {
				continue
			}

			film.Splat(px, py, contribution.Multiply(weight/selProb))
		}
	}
}
