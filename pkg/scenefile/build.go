package scenefile

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/loaders"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/scene"
)

// Build turns a decoded Document into a runtime scene.Scene, resolving
// every mesh/texture path relative to baseDir (the scene file's own
// directory, so scene files can be moved without editing their
// relative paths).
func (doc *Document) Build(baseDir string) (*scene.Scene, error) {
	prims := make([]*primitive.Primitive, len(doc.Primitives))
	meshes := make([]*core.Mesh, len(doc.Primitives))
	var textures []*core.Texture

	for i, pc := range doc.Primitives {
		var mesh *core.Mesh
		if pc.Mesh != nil {
			m, err := loadMesh(filepath.Join(baseDir, pc.Mesh.Path))
			if err != nil {
				return nil, fmt.Errorf("primitive %d: %w", i, err)
			}
			switch {
			case pc.Mesh.GenerateSmoothNormals:
				m.GenerateSmoothNormals()
			case pc.Mesh.GenerateNormals:
				m.GenerateFlatNormals()
			}
			mesh = m
		}
		meshes[i] = mesh

		p, texs, err := buildPrimitive(pc, mesh, i, baseDir)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		prims[i] = p
		textures = append(textures, texs...)
	}

	sceneCenter, sceneRadius := boundingSphere(meshes)
	for _, p := range prims {
		if p.LDirectional != nil {
			p.LDirectional.SceneCenter = sceneCenter
			p.LDirectional.SceneRadius = sceneRadius
			p.LDirectional.ReciprocalDiskArea = 1 / (math.Pi * sceneRadius * sceneRadius)
		}
	}

	return scene.Build(prims, meshes, textures)
}

func loadMesh(path string) (*core.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		return loaders.LoadMesh(path)
	case ".obj":
		return loaders.LoadOBJ(path)
	default:
		return nil, fmt.Errorf("scenefile: unsupported mesh extension %q", filepath.Ext(path))
	}
}

func (v Vec3Cfg) vec3() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// buildPrimitive constructs one primitive.Primitive from its config
// block, loading any textures it references. meshIndex is this
// primitive's own index into the parallel mesh table, used by area
// light/sensor blocks to record which mesh backs them.
func buildPrimitive(pc PrimitiveCfg, mesh *core.Mesh, meshIndex int, baseDir string) (*primitive.Primitive, []*core.Texture, error) {
	p := &primitive.Primitive{}
	var textures []*core.Texture

	for _, t := range pc.Type {
		switch t {
		case "D":
			p.Type |= primitive.TypeD
		case "G":
			p.Type |= primitive.TypeG
		case "S":
			p.Type |= primitive.TypeS
		case "L":
			p.Type |= primitive.TypeL
		case "E":
			p.Type |= primitive.TypeE
		default:
			return nil, nil, fmt.Errorf("unknown primitive type %q", t)
		}
	}

	if lc := pc.Params.L; lc != nil {
		switch lc.Type {
		case "area":
			if mesh == nil {
				return nil, nil, scene.ErrAreaEmitterNeedsMesh
			}
			cdf, reciprocalArea := scene.BuildAreaCDF(mesh)
			p.L = &primitive.LArea{Le: lc.Le.vec3(), MeshIndex: meshIndex, AreaCDF: cdf, ReciprocalArea: reciprocalArea}
		case "point":
			p.LPointLight = &primitive.LPoint{Le: lc.Le.vec3(), Position: lc.Position.vec3()}
		case "directional":
			p.LDirectional = &primitive.LDirectional{Le: lc.Le.vec3(), Direction: lc.Direction.vec3().Normalize()}
		default:
			return nil, nil, fmt.Errorf("unknown L.type %q", lc.Type)
		}
	}

	if ec := pc.Params.E; ec != nil {
		switch ec.Type {
		case "pinhole":
			if ec.View == nil || ec.Perspective == nil {
				return nil, nil, fmt.Errorf("E.pinhole requires view and perspective blocks")
			}
			eye := ec.View.Eye.vec3()
			center := ec.View.Center.vec3()
			up := ec.View.Up.vec3()
			vz := center.Subtract(eye).Normalize()
			vx := up.Cross(vz).Normalize()
			vy := vz.Cross(vx)
			tanFov := math.Tan(ec.Perspective.FovDeg * math.Pi / 180 / 2)
			p.E = &primitive.EPinhole{
				We: ec.We.vec3(), Eye: eye,
				Vx: vx, Vy: vy, Vz: vz,
				TanFov: tanFov, AspectRatio: 1,
			}
		case "area":
			if mesh == nil {
				return nil, nil, scene.ErrAreaEmitterNeedsMesh
			}
			if len(mesh.UVs) == 0 {
				return nil, nil, scene.ErrAreaSensorNeedsUV
			}
			cdf, reciprocalArea := scene.BuildAreaCDF(mesh)
			p.EArea = &primitive.EArea{We: ec.We.vec3(), MeshIndex: meshIndex, AreaCDF: cdf, ReciprocalArea: reciprocalArea}
		default:
			return nil, nil, fmt.Errorf("unknown E.type %q", ec.Type)
		}
	}

	if dc := pc.Params.D; dc != nil {
		d := &primitive.Diffuse{}
		if dc.R != nil && dc.TexR != "" {
			return nil, nil, fmt.Errorf("D requires exactly one of R or TexR")
		}
		switch {
		case dc.R != nil:
			d.R = dc.R.vec3()
		case dc.TexR != "":
			tex, err := loaders.LoadTexture(filepath.Join(baseDir, dc.TexR))
			if err != nil {
				return nil, nil, fmt.Errorf("D.TexR: %w", err)
			}
			d.Tex = tex
			textures = append(textures, tex)
		default:
			return nil, nil, fmt.Errorf("D requires exactly one of R or TexR")
		}
		p.D = d
	}

	if gc := pc.Params.G; gc != nil {
		g := &primitive.Glossy{Eta: gc.Eta.vec3(), K: gc.K.vec3(), Roughness: gc.Roughness}
		switch {
		case gc.R != nil:
			g.R = gc.R.vec3()
		case gc.TexR != "":
			tex, err := loaders.LoadTexture(filepath.Join(baseDir, gc.TexR))
			if err != nil {
				return nil, nil, fmt.Errorf("G.TexR: %w", err)
			}
			g.Tex = tex
			textures = append(textures, tex)
		default:
			return nil, nil, fmt.Errorf("G requires R or TexR")
		}
		p.G = g
	}

	if sc := pc.Params.S; sc != nil {
		s := &primitive.Specular{R: sc.R.vec3(), Eta1: sc.Eta1, Eta2: sc.Eta2}
		switch sc.Type {
		case "reflection":
			s.Kind = primitive.SpecularReflection
		case "refraction":
			s.Kind = primitive.SpecularRefraction
		case "fresnel":
			s.Kind = primitive.SpecularFresnel
		default:
			return nil, nil, fmt.Errorf("unknown S.type %q", sc.Type)
		}
		p.S = s
	}

	return p, textures, nil
}

// boundingSphere returns a center and radius enclosing every mesh's
// vertices, used to place the directional light's virtual sampling
// disk per spec.md §4.2.
func boundingSphere(meshes []*core.Mesh) (core.Vec3, float64) {
	var min, max core.Vec3
	first := true
	for _, m := range meshes {
		if m == nil {
			continue
		}
		for _, p := range m.Positions {
			if first {
				min, max = p, p
				first = false
				continue
			}
			min = core.NewVec3(math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z))
			max = core.NewVec3(math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z))
		}
	}
	if first {
		return core.Vec3{}, 1
	}
	center := min.Add(max).Multiply(0.5)
	radius := max.Subtract(center).Length()
	if radius < 1e-6 {
		radius = 1
	}
	return center, radius
}
