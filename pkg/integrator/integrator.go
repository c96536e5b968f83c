// Package integrator implements the six Monte Carlo light transport
// algorithms of spec.md §4.5 — PT, PT+NEE, LT, LT+NEE, BDPT, and
// PT+MNEE — sharing the path-sampling and connection machinery of
// pkg/path. Each Sample call appends exactly one recorded event's
// worth of contribution into the caller's film and returns, matching
// the one-call-one-sample contract of §4.5 and the teacher repo's
// RayColor entry point generalized to a splat-based film instead of a
// single returned pixel color.
package integrator

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
)

// russianRouletteSurvival is the bounce-level Russian roulette
// survival probability shared by every integrator, per spec.md §4.4.1
// and §4.5.
const russianRouletteSurvival = 0.5

// Config bounds the walks every integrator performs. MaxDepth is the
// maximum number of vertices beyond the sensor/light root; -1
// disables the bound.
type Config struct {
	MaxDepth int
}

// Integrator draws exactly one sample and splats its contribution (if
// any) into film.
type Integrator interface {
	Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film)
}

func clampedBounce(cfg Config, bounce int) bool {
	return cfg.MaxDepth >= 0 && bounce+1 >= cfg.MaxDepth
}
