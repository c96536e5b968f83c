package render

import (
	"image"
	"image/color"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/rlog"
	"github.com/df07/pathspace/pkg/scene"
)

// Integrator draws exactly one sample and splats its contribution (if
// any) into film. Declared here rather than imported from
// pkg/integrator so that package (which needs *render.Film in its own
// Integrator interface) doesn't have to import this one back.
type Integrator interface {
	Sample(sc *scene.Scene, sampler core.Sampler, film *Film)
}

// Config bounds a single invocation of Run, per spec.md §4.6 and §6's
// CLI surface. NumSamples>0 selects sample-count mode, which runs to
// completion; NumSamples<=0 with RenderTime>0 selects time-budget
// mode, which issues grains until the deadline passes.
type Config struct {
	Width, Height int
	NumThreads    int // <=0: runtime.NumCPU() + NumThreads (negative subtracts from core count)
	NumSamples    int
	RenderTime    time.Duration // <=0 disables time-budget mode
	GrainSize     int

	ProgressUpdateInterval      time.Duration
	ProgressImageUpdateInterval time.Duration
	// OnProgressImage, if non-nil, is called on the coordinating thread
	// with a rescaled snapshot of the reduced film whenever a
	// progress-image tick fires. processedSamples is the global sample
	// count the snapshot was rescaled against.
	OnProgressImage func(img *Film, processedSamples int64)
}

// workerContext is the thread-local state spec.md §4.6 describes: a
// monotonic id, a sampler seeded from the driver's master RNG, and the
// film the worker splats every sample's contribution into.
type workerContext struct {
	id      int
	sampler *core.RandomSampler
	film    *Film
}

// driver hands out workerContexts under a mutex and tracks the shared
// atomic sample counter and termination flag every worker polls at
// grain boundaries.
type driver struct {
	mu        sync.Mutex
	nextID    int
	masterRNG *rand.Rand
	workers   []*Film

	processed atomic.Int64
	done      atomic.Bool
}

func (d *driver) newContext(width, height int) *workerContext {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	seed := d.masterRNG.Int63()
	film := NewFilm(width, height)
	d.workers = append(d.workers, film)
	d.mu.Unlock()

	return &workerContext{id: id, sampler: core.NewRandomSampler(seed), film: film}
}

// snapshot sums every worker's film (without clearing it) into a fresh
// Film, giving the progress reporter a non-blocking, non-destructive
// read of the current aggregate radiance.
func (d *driver) snapshot(width, height int) *Film {
	d.mu.Lock()
	workers := append([]*Film(nil), d.workers...)
	d.mu.Unlock()

	out := NewFilm(width, height)
	for _, w := range workers {
		out.Reduce(w, 1)
	}
	return out
}

// Run executes cfg against sc using algo, returning the master film
// rescaled to per-pixel radiance by (W*H)/processedSamples per
// spec.md §4.6. log may be nil (rlog.Nop is used in that case).
func Run(sc *scene.Scene, algo Integrator, cfg Config, log rlog.Logger) *Film {
	if log == nil {
		log = rlog.Nop
	}
	numThreads := resolveThreadCount(cfg.NumThreads)
	grainSize := cfg.GrainSize
	if grainSize <= 0 {
		grainSize = 64
	}

	d := &driver{masterRNG: rand.New(rand.NewSource(1))}

	var wg sync.WaitGroup
	stopProgress := make(chan struct{})
	if cfg.ProgressUpdateInterval > 0 || cfg.ProgressImageUpdateInterval > 0 {
		go reportProgress(d, cfg, log, stopProgress)
	}

	timeBudget := cfg.NumSamples <= 0 && cfg.RenderTime > 0
	deadline := time.Now().Add(cfg.RenderTime)

	for i := 0; i < numThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := d.newContext(cfg.Width, cfg.Height)

			for {
				if d.done.Load() {
					return
				}
				if timeBudget && time.Now().After(deadline) {
					d.done.Store(true)
					return
				}

				n := grainSize
				if !timeBudget {
					remaining := int64(cfg.NumSamples) - d.processed.Load()
					if remaining <= 0 {
						d.done.Store(true)
						return
					}
					if int64(n) > remaining {
						n = int(remaining)
					}
				}

				for s := 0; s < n; s++ {
					algo.Sample(sc, ctx.sampler, ctx.film)
				}
				d.processed.Add(int64(n))
			}
		}()
	}

	wg.Wait()
	close(stopProgress)

	master := d.snapshot(cfg.Width, cfg.Height)
	if processed := d.processed.Load(); processed > 0 {
		scale := float64(cfg.Width*cfg.Height) / float64(processed)
		master.Pixels = rescale(master.Pixels, scale)
	}
	return master
}

func rescale(pixels []core.Vec3, scale float64) []core.Vec3 {
	out := make([]core.Vec3, len(pixels))
	for i, p := range pixels {
		out[i] = p.Multiply(scale)
	}
	return out
}

// reportProgress runs on the single coordinating thread spec.md §5
// assigns progress reporting to, periodically logging the sample count
// and, when requested, handing the caller a rescaled film snapshot.
func reportProgress(d *driver, cfg Config, log rlog.Logger, stop <-chan struct{}) {
	interval := cfg.ProgressUpdateInterval
	if interval <= 0 {
		interval = cfg.ProgressImageUpdateInterval
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			processed := d.processed.Load()
			log.Infof("rendering: %d samples processed", processed)
			if cfg.OnProgressImage != nil {
				snapshot := d.snapshot(cfg.Width, cfg.Height)
				if processed > 0 {
					scale := float64(cfg.Width*cfg.Height) / float64(processed)
					snapshot.Pixels = rescale(snapshot.Pixels, scale)
				}
				cfg.OnProgressImage(snapshot, processed)
			}
		}
	}
}

func resolveThreadCount(n int) int {
	if n <= 0 {
		n = runtime.NumCPU() + n
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ToImage tonemaps a rescaled film into a stdlib image.RGBA using a
// 1/2.2 gamma curve, the representation pkg/encode's PNG path and any
// progress-image consumer both expect.
func ToImage(f *Film) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for px := 0; px < f.Width; px++ {
		for py := 0; py < f.Height; py++ {
			c := f.Pixels[px*f.Height+py].GammaCorrect(1 / 2.2).Clamp(0, 1)
			img.SetRGBA(px, py, toRGBA(c))
		}
	}
	return img
}

func toRGBA(c core.Vec3) (out color.RGBA) {
	out.R = uint8(c.X*255 + 0.5)
	out.G = uint8(c.Y*255 + 0.5)
	out.B = uint8(c.Z*255 + 0.5)
	out.A = 255
	return out
}
