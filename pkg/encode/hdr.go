package encode

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/df07/pathspace/pkg/render"
)

// writeHDR emits f as a Radiance RGBE picture: the ASCII header
// ("#?RADIANCE", format line, resolution line) followed by flat
// (non-run-length-encoded) scanlines of 4-byte RGBE pixels, top row
// first per the format's "-Y height +X width" convention.
//
// No Go library for this format turned up anywhere in the retrieved
// corpus or its dependency graphs, so this is a from-scratch writer
// of the well-documented Radiance RGBE layout; it skips the format's
// optional scanline run-length encoding in favor of the simpler flat
// layout, which every RGBE reader also accepts.
func writeHDR(path string, f *render.Film) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprint(w, "#?RADIANCE\n")
	fmt.Fprint(w, "FORMAT=32-bit_rle_rgbe\n\n")
	fmt.Fprintf(w, "-Y %d +X %d\n", f.Height, f.Width)

	row := make([]byte, f.Width*4)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.Pixels[x*f.Height+y]
			r, g, b, e := encodeRGBE(c.X, c.Y, c.Z)
			row[x*4+0] = r
			row[x*4+1] = g
			row[x*4+2] = b
			row[x*4+3] = e
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("encode: writing hdr scanline %d: %w", y, err)
		}
	}
	return w.Flush()
}

// encodeRGBE converts a linear RGB triple into the Radiance RGBE byte
// quad: a shared power-of-two exponent plus three 8-bit mantissas
// scaled so the brightest channel's mantissa lies in [128,255].
func encodeRGBE(r, g, b float64) (byte, byte, byte, byte) {
	d := r
	if g > d {
		d = g
	}
	if b > d {
		d = b
	}
	if d <= 1e-32 {
		return 0, 0, 0, 0
	}
	_, exp := math.Frexp(d)
	scale := math.Ldexp(1, -exp+8) // mantissa * 256 / d, via the shared exponent
	re := clampByte(r * scale)
	ge := clampByte(g * scale)
	be := clampByte(b * scale)
	return re, ge, be, byte(exp + 128)
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
