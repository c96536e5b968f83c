// Package render implements the thread-local film and the parallel
// sample driver described in spec.md §4.6, grounded on the teacher
// repo's pkg/renderer worker-pool structure but built around the
// integrators' one-call-one-sample splat contract instead of a
// per-pixel RayColor call.
package render

import "github.com/df07/pathspace/pkg/core"

// Film is a thread-local RGB accumulation buffer. Workers own one each
// and splat contributions into it; the driver periodically reduces all
// worker films into the master image.
type Film struct {
	Width, Height int
	Pixels        []core.Vec3
}

// NewFilm allocates a zeroed width x height film, stored column-major
// (pixel (px,py) lives at px*Height+py), matching the pixel-index
// formula in spec.md §4.5.
func NewFilm(width, height int) *Film {
	return &Film{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// Splat adds contribution at normalized raster position (x,y) in
// [0,1]x[0,1], converting to the clamped pixel index
// floor(x*W)*Height + floor(y*H) per spec.md §4.5.
func (f *Film) Splat(x, y float64, contribution core.Vec3) {
	px := int(x * float64(f.Width))
	py := int(y * float64(f.Height))
	if px < 0 {
		px = 0
	} else if px >= f.Width {
		px = f.Width - 1
	}
	if py < 0 {
		py = 0
	} else if py >= f.Height {
		py = f.Height - 1
	}
	idx := px*f.Height + py
	f.Pixels[idx] = f.Pixels[idx].Add(contribution)
}

// Reduce adds every pixel of src into f, scaled by weight. Used during
// periodic flushes to fold a worker's film into the master image.
func (f *Film) Reduce(src *Film, weight float64) {
	for i, p := range src.Pixels {
		f.Pixels[i] = f.Pixels[i].Add(p.Multiply(weight))
	}
}

// Clear zeroes every pixel. The driver does not call it: snapshots
// sum worker films without clearing them.
func (f *Film) Clear() {
	for i := range f.Pixels {
		f.Pixels[i] = core.Vec3{}
	}
}
