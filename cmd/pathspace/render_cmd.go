package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"

	"github.com/df07/pathspace/pkg/encode"
	"github.com/df07/pathspace/pkg/integrator"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/rlog"
	"github.com/df07/pathspace/pkg/scenefile"
)

var log = rlog.New("pathspace")

// newIntegrator maps a renderer name to its integrator.Integrator,
// per spec.md §6's six accepted names.
func newIntegrator(name string, cfg integrator.Config) (integrator.Integrator, error) {
	switch name {
	case "pt":
		return integrator.PT{Config: cfg}, nil
	case "ptdirect":
		return integrator.PTNEE{Config: cfg}, nil
	case "lt":
		return integrator.LT{Config: cfg}, nil
	case "ltdirect":
		return integrator.LTNEE{Config: cfg}, nil
	case "bpt":
		return integrator.BDPT{Config: cfg}, nil
	case "ptmnee":
		return integrator.PTMNEE{Config: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want one of pt, ptdirect, lt, ltdirect, bpt, ptmnee)", name)
	}
}

// RenderAction implements the CLI's sole command: load a scene, run
// the requested integrator across the parallel sample driver, and
// write the result image, grounded on
// achilleasa-polaris/cmd/render.go's RenderFrame.
func RenderAction(ctx *cli.Context) error {
	if ctx.Bool("vv") {
		rlog.SetLevel(logging.DEBUG)
	} else if ctx.Bool("v") {
		rlog.SetLevel(logging.INFO)
	}

	if ctx.Args().Len() != 5 {
		return fmt.Errorf("expected 5 positional args <renderer> <scene> <result> <width> <height>, got %d", ctx.Args().Len())
	}
	rendererName := ctx.Args().Get(0)
	scenePath := ctx.Args().Get(1)
	resultPath := ctx.Args().Get(2)

	width, err := strconv.Atoi(ctx.Args().Get(3))
	if err != nil {
		return fmt.Errorf("invalid width: %w", err)
	}
	height, err := strconv.Atoi(ctx.Args().Get(4))
	if err != nil {
		return fmt.Errorf("invalid height: %w", err)
	}

	algo, err := newIntegrator(rendererName, integrator.Config{MaxDepth: ctx.Int("max-num-vertices")})
	if err != nil {
		return err
	}

	log.Noticef("loading scene %s", scenePath)
	doc, err := scenefile.Load(scenePath)
	if err != nil {
		return fmt.Errorf("loading scene: %w", err)
	}
	sc, err := doc.Build(filepath.Dir(scenePath))
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}
	sc.SetAspectRatio(width, height)

	renderTime := ctx.Duration("render-time")
	if renderTime < 0 {
		renderTime = 0
	}
	numSamples := ctx.Int("num-samples")

	progressFormat := ctx.String("progress-image-update-format")
	var onProgressImage func(img *render.Film, processedSamples int64)
	if progressFormat != "" {
		onProgressImage = func(img *render.Film, processedSamples int64) {
			path := strings.ReplaceAll(progressFormat, "{{count}}", fmt.Sprintf("%010d", processedSamples))
			if err := encode.Write(path, img); err != nil {
				log.Warningf("writing progress image %s: %v", path, err)
			}
		}
	}

	cfg := render.Config{
		Width:                       width,
		Height:                      height,
		NumThreads:                  ctx.Int("num-threads"),
		NumSamples:                  numSamples,
		RenderTime:                  renderTime,
		GrainSize:                   ctx.Int("grain-size"),
		ProgressUpdateInterval:      ctx.Duration("progress-update-interval"),
		ProgressImageUpdateInterval: ctx.Duration("progress-image-update-interval"),
		OnProgressImage:             onProgressImage,
	}

	log.Noticef("rendering %s at %dx%d with %s", scenePath, width, height, rendererName)
	start := time.Now()
	film := render.Run(sc, algo, cfg, log)
	elapsed := time.Since(start)

	if err := encode.Write(resultPath, film); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}

	displayStats(rendererName, scenePath, resultPath, width, height, elapsed)
	return nil
}

// displayStats prints a one-row summary table, grounded on
// achilleasa-polaris/cmd/render.go's displayFrameStats.
func displayStats(rendererName, scenePath, resultPath string, width, height int, elapsed time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Renderer", "Scene", "Result", "Resolution", "Render time"})
	table.Append([]string{
		rendererName,
		scenePath,
		resultPath,
		fmt.Sprintf("%dx%d", width, height),
		elapsed.Round(time.Millisecond).String(),
	})
	table.Render()
	log.Noticef("render statistics\n%s", buf.String())
}
