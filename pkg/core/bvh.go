package core

import "sort"

// Intersection is the result of a successful ray/scene query: the
// primitive that was hit, the triangle within that primitive's mesh,
// the hit distance and barycentric coordinates. Scene.Intersect
// reconstructs full SurfaceGeometry from this plus the mesh arrays.
type Intersection struct {
	PrimIndex int
	FaceIndex int
	U, V      float64 // barycentric (b1, b2); b0 = 1-U-V
	T         float64
}

// triRef is one leaf entry: a triangle and the primitive that owns it.
type triRef struct {
	primIndex int
	faceIndex int
	box       AABB
}

// BVH is a bounding-volume hierarchy over every triangle of every
// mesh-backed primitive in the scene. It is the in-repo stand-in for
// the "opaque handle to the intersector" the Scene contract asks for
// — the acceleration structure itself is explicitly out of this
// system's core scope, but the estimator packages need something
// concrete to call; scene.Scene calls BVH.Intersect directly, with no
// interface in between.
type BVH struct {
	meshes []*Mesh // parallel to primitives; meshes[i] may be nil for non-mesh primitives
	root   *bvhNode
	Center Vec3
	Radius float64
}

type bvhNode struct {
	box         AABB
	left, right *bvhNode
	refs        []triRef // non-nil only for leaves
}

const bvhLeafThreshold = 8

// NewBVH builds a BVH over the triangles of meshes, where meshes[i] is
// the mesh backing primitive i (nil if primitive i has no geometry,
// e.g. a point light or the pinhole sensor).
func NewBVH(meshes []*Mesh) *BVH {
	var refs []triRef
	var overall AABB
	first := true
	for primIndex, mesh := range meshes {
		if mesh == nil {
			continue
		}
		for face := 0; face < mesh.TriangleCount(); face++ {
			a, b, c := mesh.Triangle(face)
			box := NewAABBFromPoints(mesh.Positions[a], mesh.Positions[b], mesh.Positions[c])
			refs = append(refs, triRef{primIndex: primIndex, faceIndex: face, box: box})
			if first {
				overall = box
				first = false
			} else {
				overall = overall.Union(box)
			}
		}
	}

	bvh := &BVH{meshes: meshes}
	if len(refs) > 0 {
		bvh.root = buildBVHNode(refs, 0)
		bvh.Center = overall.Center()
		bvh.Radius = overall.Size().Length() * 0.5
	}
	return bvh
}

func buildBVHNode(refs []triRef, depth int) *bvhNode {
	box := refs[0].box
	for _, r := range refs[1:] {
		box = box.Union(r.box)
	}

	if len(refs) <= bvhLeafThreshold {
		return &bvhNode{box: box, refs: refs}
	}

	axis := box.LongestAxis()
	sort.Slice(refs, func(i, j int) bool {
		ci, cj := refs[i].box.Center(), refs[j].box.Center()
		switch axis {
		case 0:
			return ci.X < cj.X
		case 1:
			return ci.Y < cj.Y
		default:
			return ci.Z < cj.Z
		}
	})

	mid := len(refs) / 2
	return &bvhNode{
		box:   box,
		left:  buildBVHNode(refs[:mid], depth+1),
		right: buildBVHNode(refs[mid:], depth+1),
	}
}

// Intersect finds the closest triangle hit by ray within [tMin,tMax].
func (b *BVH) Intersect(ray Ray, tMin, tMax float64) (Intersection, bool) {
	if b.root == nil {
		return Intersection{}, false
	}
	var best Intersection
	found := false
	closest := tMax
	b.walk(b.root, ray, tMin, closest, func(hit Intersection) {
		if hit.T < closest {
			closest = hit.T
			best = hit
			found = true
		}
	})
	return best, found
}

func (b *BVH) walk(node *bvhNode, ray Ray, tMin, tMax float64, report func(Intersection)) {
	if node == nil || !node.box.Hit(ray, tMin, tMax) {
		return
	}
	if node.refs != nil {
		for _, ref := range node.refs {
			mesh := b.meshes[ref.primIndex]
			if hit, ok := hitTriangle(mesh, ref.faceIndex, ray, tMin, tMax); ok {
				hit.PrimIndex = ref.primIndex
				report(hit)
			}
		}
		return
	}
	b.walk(node.left, ray, tMin, tMax, report)
	b.walk(node.right, ray, tMin, tMax, report)
}

// hitTriangle implements the Möller-Trumbore ray/triangle test.
func hitTriangle(mesh *Mesh, face int, ray Ray, tMin, tMax float64) (Intersection, bool) {
	ia, ib, ic := mesh.Triangle(face)
	p0, p1, p2 := mesh.Positions[ia], mesh.Positions[ib], mesh.Positions[ic]

	e1 := p1.Subtract(p0)
	e2 := p2.Subtract(p0)
	pvec := ray.Direction.Cross(e2)
	det := e1.Dot(pvec)
	if det > -1e-12 && det < 1e-12 {
		return Intersection{}, false
	}
	invDet := 1.0 / det

	tvec := ray.Origin.Subtract(p0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return Intersection{}, false
	}

	qvec := tvec.Cross(e1)
	v := ray.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return Intersection{}, false
	}

	t := e2.Dot(qvec) * invDet
	if t < tMin || t > tMax {
		return Intersection{}, false
	}

	return Intersection{FaceIndex: face, U: u, V: v, T: t}, true
}
