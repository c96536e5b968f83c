package core

// Mesh holds a triangle mesh's geometry as parallel arrays, owned by
// the Scene for the lifetime of a render. Primitives that reference a
// mesh hold only a MeshIndex into Scene.Meshes — never a pointer —
// so paths can carry back-references to mesh data without owning it.
type Mesh struct {
	Positions []Vec3 // per-vertex world-space position
	Normals   []Vec3 // per-vertex normal, empty if not provided (generated on load only when the scene file asks for it)
	UVs       []Vec2 // per-vertex UV, empty if the mesh carries none

	// Indices is a flat array of vertex indices, 3 per triangle.
	Indices []int32
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the three vertex indices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c int32) {
	base := i * 3
	return m.Indices[base], m.Indices[base+1], m.Indices[base+2]
}

// TriangleArea returns the world-space area of triangle i.
func (m *Mesh) TriangleArea(i int) float64 {
	a, b, c := m.Triangle(i)
	p0, p1, p2 := m.Positions[a], m.Positions[b], m.Positions[c]
	return p1.Subtract(p0).Cross(p2.Subtract(p0)).Length() * 0.5
}

// GeometricNormal returns the (unnormalized face) geometric normal of triangle i.
func (m *Mesh) GeometricNormal(i int) Vec3 {
	a, b, c := m.Triangle(i)
	p0, p1, p2 := m.Positions[a], m.Positions[b], m.Positions[c]
	return p1.Subtract(p0).Cross(p2.Subtract(p0)).Normalize()
}

// GenerateSmoothNormals fills m.Normals by accumulating each face's
// (area-weighted, since the cross product is unnormalized) geometric
// normal into every vertex it touches, then normalizing. Overwrites
// any normals already present.
func (m *Mesh) GenerateSmoothNormals() {
	sums := make([]Vec3, len(m.Positions))
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		p0, p1, p2 := m.Positions[a], m.Positions[b], m.Positions[c]
		n := p1.Subtract(p0).Cross(p2.Subtract(p0)) // area-weighted, unnormalized
		sums[a] = sums[a].Add(n)
		sums[b] = sums[b].Add(n)
		sums[c] = sums[c].Add(n)
	}
	normals := make([]Vec3, len(sums))
	for i, n := range sums {
		if n.LengthSquared() > 1e-18 {
			normals[i] = n.Normalize()
		}
	}
	m.Normals = normals
}

// GenerateFlatNormals splits every shared vertex so each triangle gets
// its own unweighted geometric normal, duplicating positions/UVs as
// needed. Use when a mesh has no normals and per-face faceting (not
// smoothing) is wanted.
func (m *Mesh) GenerateFlatNormals() {
	positions := make([]Vec3, 0, len(m.Indices))
	uvs := make([]Vec2, 0, len(m.Indices))
	normals := make([]Vec3, 0, len(m.Indices))
	indices := make([]int32, 0, len(m.Indices))
	hasUV := len(m.UVs) > 0

	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		n := m.GeometricNormal(i)
		for _, idx := range [3]int32{a, b, c} {
			indices = append(indices, int32(len(positions)))
			positions = append(positions, m.Positions[idx])
			normals = append(normals, n)
			if hasUV {
				uvs = append(uvs, m.UVs[idx])
			}
		}
	}

	m.Positions = positions
	m.Normals = normals
	m.Indices = indices
	if hasUV {
		m.UVs = uvs
	}
}

// Texture is a width x height x 3 float image sampled with
// wrap-repeat, nearest addressing, per spec.
type Texture struct {
	Width, Height int
	Pixels        []Vec3 // row-major, len == Width*Height
}

// NewTexture allocates a blank texture.
func NewTexture(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pixels: make([]Vec3, width*height)}
}

// Sample performs wrap-repeat nearest-neighbour lookup at UV coordinate uv.
func (t *Texture) Sample(uv Vec2) Vec3 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return Vec3{}
	}
	x := wrapIndex(uv.X, t.Width)
	y := wrapIndex(1-uv.Y, t.Height) // image row 0 is the top; v=0 is conventionally the bottom
	return t.Pixels[y*t.Width+x]
}

func wrapIndex(coord float64, size int) int {
	i := int(coord*float64(size)) % size
	if i < 0 {
		i += size
	}
	return i
}
