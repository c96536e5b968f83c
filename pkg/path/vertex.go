// Package path implements the subpath sampling, connection, and
// multiple-importance-weighted contribution machinery that BDPT (and,
// in degenerate single-strategy form, the other five integrators)
// build on. It is grounded on the teacher repo's
// pkg/integrator.Vertex/Path, reworked around the unified primitive
// query model instead of per-vertex Light/Material/Camera pointers.
package path

import (
	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
)

// Vertex is one node of a light or eye subpath.
type Vertex struct {
	Geom      core.SurfaceGeometry
	Prim      *primitive.Primitive
	PrimIndex int

	// Type is this vertex's intended interpretation: L or E for the
	// subpath's endpoint, one of {D,G,S} for every interior vertex
	// (the emitter/sensor bit is masked out once a subpath has left
	// its starting vertex, per spec.md §4.4.1).
	Type primitive.Type

	// Incoming carries the direction the subpath arrived from (zero
	// at the endpoint vertex).
	Incoming core.Vec3

	// Beta is the accumulated path throughput up to and including
	// this vertex: alpha_L or alpha_E in Veach's notation.
	Beta core.Vec3

	// PdfFwd is the area-measure density of sampling this vertex from
	// the previous one, walking outward from the subpath's root.
	// PdfRev is the area-measure density of sampling this vertex from
	// the *next* one, i.e. as if the subpath were generated in the
	// opposite direction starting past this vertex. Both are filled in
	// as the subpath is built; PdfRev is only known once the
	// following vertex exists.
	PdfFwd, PdfRev float64

	// Delta marks a root vertex whose sampled position is degenerate
	// (point light, pinhole sensor) — such vertices contribute no
	// continuous density and are skipped by the alternate-strategy PDF
	// ratio chain. Interior specular vertices do not set it; they are
	// recognised by their TypeS Type.
	Delta bool
}

// Path is an ordered subpath: Vertices[0] is the emitter or sensor
// endpoint, and each subsequent vertex is one bounce further into the
// scene.
type Path struct {
	Vertices []Vertex
}

// Mesh returns the mesh backing v's primitive's geometry, or nil.
func (v *Vertex) Mesh(meshes []*core.Mesh) *core.Mesh {
	idx := v.Prim.MeshIndex()
	if idx < 0 {
		return nil
	}
	return meshes[idx]
}

// IsOnLight reports whether this vertex's primitive carries the light bit.
func (v *Vertex) IsOnLight() bool { return v.Prim.Type.Has(primitive.TypeL) }

// IsOnSensor reports whether this vertex's primitive carries the sensor bit.
func (v *Vertex) IsOnSensor() bool { return v.Prim.Type.Has(primitive.TypeE) }
