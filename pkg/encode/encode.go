// Package encode writes a rendered render.Film out to PNG, EXR, or
// Radiance HDR, dispatching on the output path's extension per
// spec.md §6. Each format's tonemapping/bit-depth convention is
// applied here rather than inside pkg/render, keeping the film/driver
// packages free of presentation concerns, the same separation the
// teacher repo draws between its renderer and its own PNG-writing
// main.go.
package encode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/pathspace/pkg/render"
)

// ErrUnknownFormat is returned by Write when the output path's
// extension matches none of the supported encoders.
var ErrUnknownFormat = errors.New("encode: unrecognized output extension")

// Write encodes f to path, selecting PNG, EXR, or Radiance HDR by the
// path's extension (case-insensitive).
func Write(path string, f *render.Film) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("encode: creating output directory: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return writePNG(path, f)
	case ".exr":
		return writeEXR(path, f)
	case ".hdr":
		return writeHDR(path, f)
	default:
		return fmt.Errorf("%q: %w", path, ErrUnknownFormat)
	}
}
