package encode

import (
	"fmt"
	"os"

	exr "github.com/mrjoshuak/go-openexr/exr"

	"github.com/df07/pathspace/pkg/render"
)

// writeEXR emits f as a ZIP-compressed float EXR with channels in BGR
// order, per spec.md §6.
func writeEXR(path string, f *render.Film) error {
	dw := exr.Box2i{
		Min: exr.V2i{X: 0, Y: 0},
		Max: exr.V2i{X: int32(f.Width - 1), Y: int32(f.Height - 1)},
	}

	header := exr.NewHeader()
	header.SetDataWindow(dw)
	header.SetDisplayWindow(dw)
	header.SetCompression(exr.CompressionZIP)

	channels := exr.NewChannelList()
	channels.Add(exr.NewChannel("B", exr.PixelTypeFloat))
	channels.Add(exr.NewChannel("G", exr.PixelTypeFloat))
	channels.Add(exr.NewChannel("R", exr.PixelTypeFloat))
	header.SetChannels(channels)

	bBuf := make([]float32, f.Width*f.Height)
	gBuf := make([]float32, f.Width*f.Height)
	rBuf := make([]float32, f.Width*f.Height)

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.Pixels[x*f.Height+y]
			idx := y*f.Width + x
			rBuf[idx] = float32(c.X)
			gBuf[idx] = float32(c.Y)
			bBuf[idx] = float32(c.Z)
		}
	}

	fb := exr.NewFrameBuffer()
	if err := fb.Insert("B", exr.NewSliceFromFloat32(bBuf, f.Width, f.Height)); err != nil {
		return fmt.Errorf("encode: building exr frame buffer: %w", err)
	}
	if err := fb.Insert("G", exr.NewSliceFromFloat32(gBuf, f.Width, f.Height)); err != nil {
		return fmt.Errorf("encode: building exr frame buffer: %w", err)
	}
	if err := fb.Insert("R", exr.NewSliceFromFloat32(rBuf, f.Width, f.Height)); err != nil {
		return fmt.Errorf("encode: building exr frame buffer: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("encode: opening exr output: %w", err)
	}
	defer out.Close()

	writer, err := exr.NewScanlineWriter(out, header)
	if err != nil {
		return fmt.Errorf("encode: opening exr output: %w", err)
	}
	defer writer.Close()

	writer.SetFrameBuffer(fb)
	if err := writer.WritePixels(0, f.Height-1); err != nil {
		return fmt.Errorf("encode: writing exr pixels: %w", err)
	}
	return nil
}
