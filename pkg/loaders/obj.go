package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/df07/pathspace/pkg/core"
)

// LoadOBJ reads a triangulated Wavefront OBJ file and returns a
// core.Mesh. Only v/vn/vt/f records are understood; material
// libraries, groups and freeform curves are ignored. Faces must be
// triangles — run the exporter's triangulation option first.
func LoadOBJ(filename string) (*core.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	var positions []core.Vec3
	var normals []core.Vec3
	var uvs []core.Vec2

	mesh := &core.Mesh{}
	// faceKey identifies a unique (position, normal, uv) combination so
	// shared vertices collapse to a single mesh vertex, the way OBJ's
	// independently-indexed attribute streams must be reconciled into
	// the single per-vertex stream core.Mesh expects.
	type faceKey struct{ p, n, uv int }
	vertexCache := make(map[faceKey]int32)

	lineNum := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || tokens[0] == "#" {
			continue
		}

		switch tokens[0] {
		case "v":
			v, err := parseOBJVec3(tokens)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			positions = append(positions, v)
		case "vn":
			v, err := parseOBJVec3(tokens)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			normals = append(normals, v)
		case "vt":
			v, err := parseOBJVec2(tokens)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			uvs = append(uvs, v)
		case "f":
			if len(tokens) != 4 {
				return nil, fmt.Errorf("line %d: only triangular faces are supported, got %d vertices", lineNum, len(tokens)-1)
			}
			for _, tok := range tokens[1:] {
				key, err := parseOBJFaceVertex(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				k := faceKey{key.p, key.uv, key.n}
				idx, ok := vertexCache[k]
				if !ok {
					idx = int32(len(mesh.Positions))
					mesh.Positions = append(mesh.Positions, positions[key.p])
					if key.n >= 0 {
						for len(mesh.Normals) < len(mesh.Positions)-1 {
							mesh.Normals = append(mesh.Normals, core.Vec3{})
						}
						mesh.Normals = append(mesh.Normals, normals[key.n])
					}
					if key.uv >= 0 {
						for len(mesh.UVs) < len(mesh.Positions)-1 {
							mesh.UVs = append(mesh.UVs, core.Vec2{})
						}
						mesh.UVs = append(mesh.UVs, uvs[key.uv])
					}
					vertexCache[k] = idx
				}
				mesh.Indices = append(mesh.Indices, idx)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading OBJ file: %w", err)
	}
	if len(normals) > 0 && len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = nil // mixed faces with/without normals: fall back to face geometric normals
	}
	if len(uvs) > 0 && len(mesh.UVs) != len(mesh.Positions) {
		mesh.UVs = nil
	}
	return mesh, nil
}

type objFaceVertex struct{ p, uv, n int }

// parseOBJFaceVertex parses one "v", "v/vt", "v//vn" or "v/vt/vn" token,
// resolving 1-based (and negative, end-relative) OBJ indices to 0-based
// indices. uv and n are -1 when the token omits that component.
func parseOBJFaceVertex(tok string, numPos, numUV, numNorm int) (objFaceVertex, error) {
	parts := strings.Split(tok, "/")
	fv := objFaceVertex{uv: -1, n: -1}

	p, err := resolveOBJIndex(parts[0], numPos)
	if err != nil {
		return fv, fmt.Errorf("bad vertex index %q: %w", parts[0], err)
	}
	fv.p = p

	if len(parts) > 1 && parts[1] != "" {
		uv, err := resolveOBJIndex(parts[1], numUV)
		if err != nil {
			return fv, fmt.Errorf("bad uv index %q: %w", parts[1], err)
		}
		fv.uv = uv
	}
	if len(parts) > 2 && parts[2] != "" {
		n, err := resolveOBJIndex(parts[2], numNorm)
		if err != nil {
			return fv, fmt.Errorf("bad normal index %q: %w", parts[2], err)
		}
		fv.n = n
	}
	return fv, nil
}

func resolveOBJIndex(token string, listLen int) (int, error) {
	idx, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		idx = listLen + idx
	} else {
		idx = idx - 1
	}
	if idx < 0 || idx >= listLen {
		return 0, fmt.Errorf("index out of bounds")
	}
	return idx, nil
}

func parseOBJVec3(tokens []string) (core.Vec3, error) {
	if len(tokens) < 4 {
		return core.Vec3{}, fmt.Errorf("expected 3 arguments, got %d", len(tokens)-1)
	}
	x, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return core.Vec3{}, err
	}
	y, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return core.Vec3{}, err
	}
	z, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.NewVec3(x, y, z), nil
}

func parseOBJVec2(tokens []string) (core.Vec2, error) {
	if len(tokens) < 3 {
		return core.Vec2{}, fmt.Errorf("expected 2 arguments, got %d", len(tokens)-1)
	}
	x, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return core.Vec2{}, err
	}
	y, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return core.Vec2{}, err
	}
	return core.NewVec2(x, y), nil
}
