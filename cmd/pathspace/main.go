// Command pathspace is the renderer's CLI entry point, grounded on
// achilleasa-polaris/cmd's urfave/cli application structure but built
// against urfave/cli/v2 and a single render command rather than a
// device-management/opencl command tree.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:                 "pathspace",
		Usage:                "render scenes with unidirectional, bidirectional and manifold-NEE path tracers",
		ArgsUsage:            "<renderer> <scene> <result> <width> <height>",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "num-samples", Value: 16, Usage: "total number of samples (one path each) over the whole image; <=0 together with --render-time > 0 selects time-budget mode"},
			&cli.IntFlag{Name: "max-num-vertices", Value: -1, Usage: "maximum path vertices beyond the root; -1 disables the bound"},
			&cli.IntFlag{Name: "num-threads", Value: 0, Usage: "worker count; <=0 adds to runtime.NumCPU() (negative subtracts)"},
			&cli.IntFlag{Name: "grain-size", Value: 64, Usage: "samples a worker draws before rechecking termination"},
			&cli.DurationFlag{Name: "progress-update-interval", Usage: "interval between progress ticks (a log line, plus a progress image when one is requested); 0 falls back to --progress-image-update-interval"},
			&cli.DurationFlag{Name: "render-time", Value: -1, Usage: "wall-clock render budget; -1 disables time-budget mode"},
			&cli.DurationFlag{Name: "progress-image-update-interval", Usage: "progress tick interval used only when --progress-update-interval is 0; both 0 disables progress reporting"},
			&cli.StringFlag{Name: "progress-image-update-format", Usage: "path template for progress snapshots; {{count}} is the sample count zero-padded to 10 digits"},
			&cli.BoolFlag{Name: "v", Usage: "enable info-level logging"},
			&cli.BoolFlag{Name: "vv", Usage: "enable debug-level logging"},
		},
		Action: RenderAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pathspace:", err)
		os.Exit(1)
	}
}
