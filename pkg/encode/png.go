package encode

import (
	"fmt"
	"image/png"
	"os"

	"github.com/df07/pathspace/pkg/render"
)

// writePNG gamma-corrects (1/2.2) and clamps f to 8-bit sRGB-ish
// output, matching spec.md §6's "PNG (γ = 1/2.2 tone-mapped, 8-bit)."
func writePNG(path string, f *render.Film) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	defer out.Close()

	img := render.ToImage(f)
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode: writing png: %w", err)
	}
	return nil
}
