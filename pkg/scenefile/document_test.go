package scenefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp scene file: %v", err)
	}
	return path
}

func TestLoadRejectsVersionOutOfRange(t *testing.T) {
	path := writeTemp(t, `{"version": 99, "primitives": []}`)

	_, err := Load(path)
	if !errors.Is(err, ErrVersionRange) {
		t.Fatalf("expected ErrVersionRange, got %v", err)
	}
}

func TestLoadAcceptsVersionInRange(t *testing.T) {
	path := writeTemp(t, `{"version": 4, "primitives": []}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Version != 4 {
		t.Errorf("Version = %d, want 4", doc.Version)
	}
	if len(doc.Primitives) != 0 {
		t.Errorf("expected no primitives, got %d", len(doc.Primitives))
	}
}

func TestLoadDecodesPrimitiveParamBlocks(t *testing.T) {
	path := writeTemp(t, `{
		"version": 3,
		"primitives": [
			{
				"type": ["D", "L"],
				"params": {
					"D": {"R": [0.8, 0.8, 0.8]},
					"L": {"type": "point", "Le": [10, 10, 10], "position": [0, 5, 0]}
				}
			}
		]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Primitives) != 1 {
		t.Fatalf("expected 1 primitive, got %d", len(doc.Primitives))
	}

	p := doc.Primitives[0]
	if p.Params.D == nil || p.Params.D.R == nil {
		t.Fatalf("expected D.R to be set")
	}
	if got := *p.Params.D.R; got != [3]float64{0.8, 0.8, 0.8} {
		t.Errorf("D.R = %v, want (0.8,0.8,0.8)", got)
	}
	if p.Params.L == nil || p.Params.L.Type != "point" {
		t.Fatalf("expected L.Type = point, got %+v", p.Params.L)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
