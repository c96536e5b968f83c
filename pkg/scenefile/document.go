// Package scenefile decodes the declarative JSON scene description of
// spec.md §6 into a Document, grounded on
// lukaszgryglicki-photons4d/internal/photons4d/json_config.go's
// Cfg-struct-plus-Build-method style: every parameter block is a
// plain JSON-tagged struct, and the package's own Build step turns the
// decoded Document into runtime pkg/scene/pkg/primitive objects.
package scenefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrVersionRange is returned when a document's version field falls
// outside the accepted [3,5] range.
var ErrVersionRange = errors.New("scenefile: version must be in [3,5]")

// minVersion and maxVersion bound the accepted version field.
const (
	minVersion = 3
	maxVersion = 5
)

// Document is the decoded scene file: a version and a flat list of
// primitives, mirroring spec.md §6's "declarative configuration with a
// version field... and a list of primitives."
type Document struct {
	Version    int            `json:"version"`
	Primitives []PrimitiveCfg `json:"primitives"`
}

// MeshCfg names a mesh file and its optional normal post-processing,
// per spec.md §6's "Optional mesh with path and optional
// post-processing toggles."
type MeshCfg struct {
	Path                  string `json:"path"`
	GenerateNormals       bool   `json:"generate_normals,omitempty"`
	GenerateSmoothNormals bool   `json:"generate_smooth_normals,omitempty"`
}

// Vec3Cfg is a JSON-friendly [x,y,z] triple decoded into core.Vec3 by
// the build step.
type Vec3Cfg [3]float64

// ViewCfg is a pinhole sensor's look-at triple.
type ViewCfg struct {
	Eye    Vec3Cfg `json:"eye"`
	Center Vec3Cfg `json:"center"`
	Up     Vec3Cfg `json:"up"`
}

// PerspectiveCfg carries the pinhole sensor's field of view, in
// degrees per spec.md §6.
type PerspectiveCfg struct {
	FovDeg float64 `json:"fov"`
}

// LParamsCfg is the `L` parameter block: `type` selects which of the
// sub-fields apply, per spec.md §6 (`area`, `point`, `directional`).
type LParamsCfg struct {
	Type      string  `json:"type"`
	Le        Vec3Cfg `json:"Le"`
	Position  Vec3Cfg `json:"position,omitempty"`
	Direction Vec3Cfg `json:"direction,omitempty"`
}

// EParamsCfg is the `E` parameter block; `type` selects `pinhole` (uses
// View/Perspective) or `area` (uses We against a UV-bearing mesh).
type EParamsCfg struct {
	Type        string          `json:"type"`
	View        *ViewCfg        `json:"view,omitempty"`
	Perspective *PerspectiveCfg `json:"perspective,omitempty"`
	We          Vec3Cfg         `json:"We"`
}

// DParamsCfg is the `D` (diffuse) parameter block. Exactly one of R or
// TexR must be set, per spec.md §6.
type DParamsCfg struct {
	R    *Vec3Cfg `json:"R,omitempty"`
	TexR string   `json:"TexR,omitempty"`
}

// GParamsCfg is the `G` (glossy) parameter block.
type GParamsCfg struct {
	Eta       Vec3Cfg  `json:"Eta"`
	K         Vec3Cfg  `json:"K"`
	Roughness float64  `json:"Roughness"`
	R         *Vec3Cfg `json:"R,omitempty"`
	TexR      string   `json:"TexR,omitempty"`
}

// SParamsCfg is the `S` (purely specular) parameter block; `type`
// selects `reflection`, `refraction`, or `fresnel`.
type SParamsCfg struct {
	Type string  `json:"type"`
	R    Vec3Cfg `json:"R"`
	Eta1 float64 `json:"eta1,omitempty"`
	Eta2 float64 `json:"eta2,omitempty"`
}

// ParamsCfg groups the per-functional-group parameter blocks, matching
// the Primitive type's own grouping.
type ParamsCfg struct {
	L *LParamsCfg `json:"L,omitempty"`
	E *EParamsCfg `json:"E,omitempty"`
	D *DParamsCfg `json:"D,omitempty"`
	G *GParamsCfg `json:"G,omitempty"`
	S *SParamsCfg `json:"S,omitempty"`
}

// PrimitiveCfg is one entry of the document's primitive list. Type is
// a subset of {"D","G","S","L","E"}; L and E never both appear.
type PrimitiveCfg struct {
	Type   []string  `json:"type"`
	Mesh   *MeshCfg  `json:"mesh,omitempty"`
	Params ParamsCfg `json:"params"`
}

// Load reads and decodes path into a Document, validating the version
// field against the accepted range.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	if doc.Version < minVersion || doc.Version > maxVersion {
		return nil, fmt.Errorf("scenefile: version %d: %w", doc.Version, ErrVersionRange)
	}
	return &doc, nil
}
