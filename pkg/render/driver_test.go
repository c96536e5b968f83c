package render

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/scene"
)

// constantIntegrator splats a fixed contribution at (0,0) on every
// call and counts how many times it was invoked, grounded on the
// teacher's tile_renderer_test.go MockIntegrator.
type constantIntegrator struct {
	calls atomic.Int64
}

func (c *constantIntegrator) Sample(sc *scene.Scene, sampler core.Sampler, film *Film) {
	c.calls.Add(1)
	film.Splat(0, 0, core.NewVec3(1, 1, 1))
}

func TestRunSampleCountMode(t *testing.T) {
	algo := &constantIntegrator{}
	cfg := Config{
		Width:      1,
		Height:     1,
		NumThreads: 1,
		NumSamples: 100,
		GrainSize:  7,
	}

	film := Run(nil, algo, cfg, nil)

	if got := algo.calls.Load(); got != 100 {
		t.Fatalf("expected exactly 100 samples drawn, got %d", got)
	}

	want := core.NewVec3(1, 1, 1)
	got := film.Pixels[0]
	const tol = 1e-9
	if abs(got.X-want.X) > tol || abs(got.Y-want.Y) > tol || abs(got.Z-want.Z) > tol {
		t.Errorf("rescaled pixel = %v, want %v", got, want)
	}
}

func TestRunTimeBudgetMode(t *testing.T) {
	algo := &constantIntegrator{}
	cfg := Config{
		Width:      1,
		Height:     1,
		NumThreads: 2,
		NumSamples: 0,
		RenderTime: 20 * time.Millisecond,
		GrainSize:  4,
	}

	Run(nil, algo, cfg, nil)

	if got := algo.calls.Load(); got <= 0 {
		t.Fatalf("expected at least one sample drawn under a time budget, got %d", got)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
