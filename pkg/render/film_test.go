package render

import (
	"testing"

	"github.com/df07/pathspace/pkg/core"
)

func TestFilmSplatClamps(t *testing.T) {
	cases := []struct {
		name   string
		x, y   float64
		wantPx int
		wantPy int
	}{
		{"center", 0.5, 0.5, 2, 2},
		{"low clamp", -1, -1, 0, 0},
		{"high clamp", 2, 2, 3, 3},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := NewFilm(4, 4)
			f.Splat(c.x, c.y, core.NewVec3(1, 1, 1))
			idx := c.wantPx*f.Height + c.wantPy
			if f.Pixels[idx] != core.NewVec3(1, 1, 1) {
				t.Errorf("expected splat at (%d,%d), pixels=%v", c.wantPx, c.wantPy, f.Pixels)
			}
		})
	}
}

func TestFilmReduceAndClear(t *testing.T) {
	dst := NewFilm(2, 2)
	src := NewFilm(2, 2)
	src.Splat(0, 0, core.NewVec3(1, 2, 3))

	dst.Reduce(src, 2)
	if got := dst.Pixels[0]; got != core.NewVec3(2, 4, 6) {
		t.Errorf("Reduce: got %v, want (2,4,6)", got)
	}

	dst.Clear()
	for i, p := range dst.Pixels {
		if p != (core.Vec3{}) {
			t.Errorf("Clear: pixel %d not zeroed: %v", i, p)
		}
	}
}
