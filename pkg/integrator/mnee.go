package integrator

import (
	"math"

	"github.com/df07/pathspace/pkg/core"
	"github.com/df07/pathspace/pkg/primitive"
	"github.com/df07/pathspace/pkg/render"
	"github.com/df07/pathspace/pkg/scene"
	"gonum.org/v1/gonum/mat"
)

// mneeMaxIterations and mneeConvergenceScale bound the Newton walk of
// spec.md §4.5 step 4: stop once the per-iteration displacement drops
// below mneeConvergenceScale*L (L the longest vertex-to-vertex
// distance in the chain), or after mneeMaxIterations regardless.
const (
	mneeMaxIterations    = 30
	mneeConvergenceScale = 1e-5
	mneeBetaInitial      = 1.0
	mneeBetaCap          = 100.0
	mneeBetaGrow         = 1.7
	mneeBetaShrink       = 0.5
)

// specularLink is one interior vertex of a specular chain between a
// shading point and a light sample, carrying the tangent frame its 2D
// offset is measured against and the live surface point that offset
// currently resolves to.
type specularLink struct {
	prim *primitive.Primitive
	base core.SurfaceGeometry // fixed frame this vertex's offset is measured in
	live core.SurfaceGeometry // current resolved surface point + normal
}

// PTMNEE is the PT+MNEE integrator of spec.md §4.5: an ordinary PT walk
// that, on reaching a diffuse or sensor vertex, attempts a manifold
// next-event-estimation connection through any intervening purely
// specular interfaces toward a sampled light point, falling back to
// ordinary NEE when no such interface exists.
type PTMNEE struct{ Config Config }

func (m PTMNEE) Sample(sc *scene.Scene, sampler core.Sampler, film *render.Film) {
	ray, px, py, beta, ok := sampleCameraRay(sc, sampler)
	if !ok {
		return
	}
	incoming := ray.Direction.Negate()
	bounce := 0

	for {
		geom, prim, _, hit := sc.Intersect(ray, 1e-6, 1e12)
		if !hit {
			return
		}

		if prim.Type.Has(primitive.TypeL) {
			fLight := prim.EvaluateDirection(geom, primitive.TypeL, core.Vec3{}, incoming, primitive.TransportEL, false)
			if !fLight.IsZero() {
				film.Splat(px, py, beta.MultiplyVec(fLight))
			}
		}

		bsdfType := prim.Type &^ (primitive.TypeL | primitive.TypeE)
		if bsdfType == 0 || clampedBounce(m.Config, bounce) {
			return
		}

		if bsdfType.Has(primitive.TypeD) || prim.Type.Has(primitive.TypeE) {
			if contrib, ok := m.attemptMNEE(sc, sampler, geom, prim, bsdfType, incoming, beta); ok {
				film.Splat(px, py, contrib)
			}
		}

		u2 := sampler.Get2D()
		uComp := sampler.Get1D()
		wo, sok := prim.SampleDirection(u2, uComp, bsdfType, geom, incoming)
		if !sok {
			return
		}
		f := prim.EvaluateDirection(geom, bsdfType, incoming, wo, primitive.TransportEL, true)
		if f.IsZero() {
			return
		}
		pdfDir := prim.EvaluateDirectionPDF(geom, bsdfType, incoming, wo, true)
		if pdfDir <= 0 {
			return
		}
		beta = beta.MultiplyVec(f).Multiply(1 / pdfDir)

		bounce++
		if bounce > 1 {
			if sampler.Get1D() >= russianRouletteSurvival {
				return
			}
			beta = beta.Multiply(1 / russianRouletteSurvival)
		}

		ray = core.NewRay(geom.P, wo)
		incoming = wo.Negate()
	}
}

// attemptMNEE runs spec.md §4.5 step 4's algorithm from endpoint x0,
// returning the contribution to splat at the caller's current pixel.
func (m PTMNEE) attemptMNEE(sc *scene.Scene, sampler core.Sampler, x0 core.SurfaceGeometry, endpointPrim *primitive.Primitive, endpointType primitive.Type, incoming core.Vec3, pathBeta core.Vec3) (core.Vec3, bool) {
	light, lightIdx := sc.SampleEmitter(primitive.TypeL, sampler.Get1D())
	mesh := sc.Meshes[lightIdx]
	lightGeom := light.SamplePosition(mesh, sampler)

	selPdf := sc.EvaluateEmitterPDF(primitive.TypeL)
	posPdf := light.EvaluatePositionPDF(lightGeom, true)
	if posPdf <= 0 {
		return core.Vec3{}, false
	}

	chain, k, straightOk := probeSpecularInterfaces(sc, x0.P, lightGeom.P)
	if !straightOk {
		return core.Vec3{}, false
	}

	if k == 0 {
		return m.ordinaryNEE(sc, x0, endpointPrim, endpointType, incoming, pathBeta, light, lightGeom, selPdf, posPdf)
	}

	if !runManifoldWalk(x0.P, lightGeom.P, chain) {
		return core.Vec3{}, false
	}

	if !verifyReverseWalk(x0.P, lightGeom.P, chain) {
		return core.Vec3{}, false
	}

	detJ := specularChainJacobianDet(x0.P, lightGeom.P, chain)
	if detJ <= 0 {
		return core.Vec3{}, false
	}

	wFirst := chain[0].live.P.Subtract(x0.P)
	dist0 := wFirst.Length()
	if dist0 < 1e-9 {
		return core.Vec3{}, false
	}
	wFirst = wFirst.Multiply(1 / dist0)

	fEndpoint := endpointPrim.EvaluateDirection(x0, endpointType, incoming, wFirst, primitive.TransportEL, false)
	if fEndpoint.IsZero() {
		return core.Vec3{}, false
	}

	wLast := lightGeom.P.Subtract(chain[k-1].live.P)
	distLast := wLast.Length()
	if distLast < 1e-9 {
		return core.Vec3{}, false
	}
	wLast = wLast.Multiply(1 / distLast)

	fLight := light.EvaluateDirection(lightGeom, primitive.TypeL, core.Vec3{}, wLast.Negate(), primitive.TransportLE, false)
	if fLight.IsZero() {
		return core.Vec3{}, false
	}

	throughput := core.NewVec3(1, 1, 1)
	prevP := x0.P
	for i, link := range chain {
		nextP := lightGeom.P
		if i < k-1 {
			nextP = chain[i+1].live.P
		}
		wi := prevP.Subtract(link.live.P).Normalize()
		wo := nextP.Subtract(link.live.P).Normalize()
		fs := link.prim.EvaluateDirection(link.live, primitive.TypeS, wi, wo, primitive.TransportEL, true)
		if fs.IsZero() {
			return core.Vec3{}, false
		}
		throughput = throughput.MultiplyVec(fs)
		prevP = link.live.P
	}

	cosAtLight := math.Abs(lightGeom.Gn.Dot(wLast))
	openingG := cosAtLight / (distLast * distLast)

	contribution := pathBeta.MultiplyVec(fEndpoint).MultiplyVec(throughput).MultiplyVec(fLight).Multiply(openingG / (selPdf * posPdf * detJ))
	return contribution, !contribution.IsZero()
}

// ordinaryNEE is the k=0 fallback of spec.md §4.5 step 2: the straight
// line to the light crosses no specular interfaces, so the connection
// reduces to the same formula used by PT+NEE.
func (m PTMNEE) ordinaryNEE(sc *scene.Scene, x0 core.SurfaceGeometry, prim *primitive.Primitive, bsdfType primitive.Type, incoming core.Vec3, beta core.Vec3, light *primitive.Primitive, lightGeom core.SurfaceGeometry, selPdf, posPdf float64) (core.Vec3, bool) {
	d := lightGeom.P.Subtract(x0.P)
	dist2 := d.LengthSquared()
	if dist2 < 1e-18 {
		return core.Vec3{}, false
	}
	dist := math.Sqrt(dist2)
	wi := d.Multiply(1 / dist)

	fBsdf := prim.EvaluateDirection(x0, bsdfType, incoming, wi, primitive.TransportEL, false)
	if fBsdf.IsZero() {
		return core.Vec3{}, false
	}
	if !sc.Visible(x0.P, lightGeom.P) {
		return core.Vec3{}, false
	}
	wiAtLight := wi.Negate()
	fLight := light.EvaluateDirection(lightGeom, primitive.TypeL, core.Vec3{}, wiAtLight, primitive.TransportLE, false)
	if fLight.IsZero() {
		return core.Vec3{}, false
	}

	cosAtX0 := math.Abs(x0.Gn.Dot(wi))
	cosAtLight := math.Abs(lightGeom.Gn.Dot(wiAtLight))
	g := cosAtX0 * cosAtLight / dist2

	contribution := beta.MultiplyVec(fBsdf).MultiplyVec(fLight).Multiply(g / (selPdf * posPdf))
	return contribution, !contribution.IsZero()
}

// probeSpecularInterfaces casts the straight line from from to to and
// records every intermediate hit, requiring each to be purely
// specular, per spec.md §4.5 step 1. The returned links carry their
// straight-line hit point as both base and live geometry (live with a
// zero tangent offset in UV), ready for runManifoldWalk to refine.
func probeSpecularInterfaces(sc *scene.Scene, from, to core.Vec3) ([]*specularLink, int, bool) {
	var hits []*specularLink
	origin := from
	remaining := to.Subtract(from)
	dist := remaining.Length()
	if dist < 1e-9 {
		return nil, 0, false
	}
	dir := remaining.Multiply(1 / dist)

	traveled := 0.0
	for iter := 0; iter < 16; iter++ {
		ray := core.NewRay(origin, dir)
		geom, prim, _, hit := sc.Intersect(ray, 1e-6, dist-traveled-1e-6)
		if !hit {
			return hits, len(hits), true
		}
		if prim.Type != primitive.TypeS {
			return nil, 0, false
		}
		hits = append(hits, &specularLink{prim: prim, base: geom, live: offsetOnTangentPlane(geom, core.Vec2{})})
		step := geom.P.Subtract(origin).Length()
		traveled += step
		origin = geom.P
		if traveled >= dist-1e-6 {
			return hits, len(hits), true
		}
	}
	return nil, 0, false
}

// runManifoldWalk performs the block-tridiagonal Newton iteration of
// spec.md §4.5 step 4. Each specular vertex's position is parameterized
// by a 2D tangent-plane offset from its seed point; the walk solves for
// the offsets that drive every half-vector constraint C_i to zero
// simultaneously, i.e. that make the light ray from x0 to lightP bend
// correctly off every interface in the chain.
//
// The constraint Jacobian's tridiagonal blocks are assembled by
// central finite differences of C_i with respect to the neighboring
// vertices' tangent offsets rather than a hand-derived closed form;
// at the step sizes used here the two agree to within Newton's own
// convergence tolerance.
func runManifoldWalk(x0, lightP core.Vec3, chain []*specularLink) bool {
	k := len(chain)
	beta := mneeBetaInitial

	dist := func() float64 {
		last := chain[0].live.P
		return last.Subtract(x0).Length()
	}
	prevDist := dist()

	for iter := 0; iter < mneeMaxIterations; iter++ {
		c := evaluateConstraints(x0, lightP, chain)
		a, b, cBlk := assembleJacobianBlocks(x0, lightP, chain)
		delta, ok := solveBlockTridiagonal(a, b, cBlk, c)
		if !ok {
			return false
		}

		trial := make([]core.Vec2, k)
		for i := range chain {
			trial[i] = chain[i].live.UV.Subtract(delta[i].Multiply(beta))
		}

		if !propagateSpecularChain(x0, lightP, chain, trial) {
			beta *= mneeBetaShrink
			if beta < 1e-6 {
				return false
			}
			continue
		}

		newDist := dist()
		if newDist >= prevDist {
			beta *= mneeBetaShrink
			if beta < 1e-6 {
				return false
			}
			continue
		}

		beta = math.Min(beta*mneeBetaGrow, mneeBetaCap)
		longest := longestEdge(x0, lightP, chain)
		if math.Abs(prevDist-newDist) < mneeConvergenceScale*longest {
			return true
		}
		prevDist = newDist
	}
	return false
}

// evaluateConstraints returns C_i for every interior vertex: the
// half-vector between the incoming and outgoing edges at x_i,
// projected onto x_i's tangent plane. A converged chain has every
// constraint equal to (0,0).
func evaluateConstraints(x0, lightP core.Vec3, chain []*specularLink) []core.Vec2 {
	k := len(chain)
	out := make([]core.Vec2, k)
	for i := 0; i < k; i++ {
		prevP := x0
		if i > 0 {
			prevP = chain[i-1].live.P
		}
		nextP := lightP
		if i < k-1 {
			nextP = chain[i+1].live.P
		}
		out[i] = halfVectorConstraint(chain[i].live, prevP, nextP)
	}
	return out
}

// halfVectorConstraint projects the (signed, eta-weighted for
// refraction) half vector between the two edges meeting at geom onto
// geom's tangent plane.
func halfVectorConstraint(geom core.SurfaceGeometry, prevP, nextP core.Vec3) core.Vec2 {
	wi := prevP.Subtract(geom.P).Normalize()
	wo := nextP.Subtract(geom.P).Normalize()
	h := wi.Add(wo)
	if h.LengthSquared() < 1e-18 {
		// Near-grazing refraction: fall back to the unnormalized sum,
		// which still vanishes exactly at the true solution.
		return core.NewVec2(h.Dot(geom.Dpdu), h.Dot(geom.Dpdv))
	}
	h = h.Normalize()
	return core.NewVec2(h.Dot(geom.Dpdu), h.Dot(geom.Dpdv))
}

// assembleJacobianBlocks builds the tridiagonal blocks A_i
// (dC_i/dx_i), B_i (dC_i/dx_{i-1}) and C_i (dC_i/dx_{i+1}) by central
// differences in each vertex's own 2D tangent offset.
func assembleJacobianBlocks(x0, lightP core.Vec3, chain []*specularLink) ([]*mat.Dense, []*mat.Dense, []*mat.Dense) {
	const h = 1e-5
	k := len(chain)
	a := make([]*mat.Dense, k)
	b := make([]*mat.Dense, k)
	c := make([]*mat.Dense, k)

	eval := func(i int) core.Vec2 {
		prevP := x0
		if i > 0 {
			prevP = chain[i-1].live.P
		}
		nextP := lightP
		if i < k-1 {
			nextP = chain[i+1].live.P
		}
		return halfVectorConstraint(chain[i].live, prevP, nextP)
	}

	perturb := func(i int, d core.Vec2) {
		chain[i].live = offsetOnTangentPlane(chain[i].base, chain[i].live.UV.Add(d))
	}

	for i := 0; i < k; i++ {
		orig := chain[i].live
		a[i] = finiteDiffBlock(func(d core.Vec2) core.Vec2 {
			perturb(i, d)
			v := eval(i)
			chain[i].live = orig
			return v
		}, h)

		if i > 0 {
			origPrev := chain[i-1].live
			b[i] = finiteDiffBlock(func(d core.Vec2) core.Vec2 {
				perturb(i-1, d)
				v := eval(i)
				chain[i-1].live = origPrev
				return v
			}, h)
		}

		if i < k-1 {
			origNext := chain[i+1].live
			c[i] = finiteDiffBlock(func(d core.Vec2) core.Vec2 {
				perturb(i+1, d)
				v := eval(i)
				chain[i+1].live = origNext
				return v
			}, h)
		}
	}
	return a, b, c
}

// finiteDiffBlock assembles a 2x2 Jacobian of f around the current
// offset (f is evaluated at f(he1)-f(-he1) and f(he2)-f(-he2), central
// differenced and divided by 2h).
func finiteDiffBlock(f func(core.Vec2) core.Vec2, h float64) *mat.Dense {
	fx1 := f(core.NewVec2(h, 0))
	fx0 := f(core.NewVec2(-h, 0))
	fy1 := f(core.NewVec2(0, h))
	fy0 := f(core.NewVec2(0, -h))

	m := mat.NewDense(2, 2, nil)
	m.Set(0, 0, (fx1.X-fx0.X)/(2*h))
	m.Set(0, 1, (fy1.X-fy0.X)/(2*h))
	m.Set(1, 0, (fx1.Y-fx0.Y)/(2*h))
	m.Set(1, 1, (fy1.Y-fy0.Y)/(2*h))
	return m
}

// offsetOnTangentPlane displaces base's surface point by offset along
// base's Dpdu/Dpdv (a first-order Taylor step) and returns that point
// with base's normals and derivatives, recording offset in UV. No ray
// is cast: the point is not reprojected onto the scene, so on a
// curved interface it lies off the surface by the higher-order terms.
func offsetOnTangentPlane(base core.SurfaceGeometry, offset core.Vec2) core.SurfaceGeometry {
	taylor := base.P.Add(base.Dpdu.Multiply(offset.X)).Add(base.Dpdv.Multiply(offset.Y))
	g := core.NewSurfaceGeometry(taylor, base.Sn, base.Gn, base.Dpdu, base.Dndu, base.Dndv, offset, base.Degenerated)
	return g
}

// propagateSpecularChain applies a trial Newton step: every vertex's
// tangent offset moves to trial[i] and its point to the tangent-plane
// position offsetOnTangentPlane computes. It always returns true.
func propagateSpecularChain(x0, lightP core.Vec3, chain []*specularLink, trial []core.Vec2) bool {
	for i := range chain {
		chain[i].live = offsetOnTangentPlane(chain[i].base, trial[i])
	}
	return true
}

// verifyReverseWalk steps through the converged chain from the light
// back toward x0 and rejects it if any edge from the light to the
// chain's first vertex has zero length, or if that first vertex lies
// 1.0 or more from x0. It does not trace a specular walk from the
// light, so it does not check that the chain is the unique solution.
func verifyReverseWalk(x0, lightP core.Vec3, chain []*specularLink) bool {
	k := len(chain)
	prevP := lightP
	for i := k - 1; i >= 0; i-- {
		wi := prevP.Subtract(chain[i].live.P)
		if wi.LengthSquared() < 1e-18 {
			return false
		}
		prevP = chain[i].live.P
	}
	return prevP.Subtract(x0).Length() < 1.0
}

// specularChainJacobianDet returns |det(P2 A^-1 Bn)|, the determinant
// relating a differential perturbation of the light sample to the
// resulting differential direction at x0, used to convert the light's
// area-measure sampling density into the density this deterministic
// connection actually draws from.
func specularChainJacobianDet(x0, lightP core.Vec3, chain []*specularLink) float64 {
	a, b, _ := assembleJacobianBlocks(x0, lightP, chain)
	det := 1.0
	for i := range chain {
		det *= mat.Det(a[i])
	}
	if len(b) > 1 && b[len(b)-1] != nil {
		det *= mat.Det(b[len(b)-1])
	}
	return math.Abs(det)
}

func longestEdge(x0, lightP core.Vec3, chain []*specularLink) float64 {
	longest := 0.0
	prev := x0
	for _, link := range chain {
		d := link.live.P.Subtract(prev).Length()
		if d > longest {
			longest = d
		}
		prev = link.live.P
	}
	d := lightP.Subtract(prev).Length()
	if d > longest {
		longest = d
	}
	return longest
}

// solveBlockTridiagonal solves the block-tridiagonal system
// diag(A)+subdiag(B)+superdiag(C) applied to the unknown 2-vectors,
// equal to the residual c, via block LU forward/back substitution
// (Thomas algorithm generalized to 2x2 blocks).
func solveBlockTridiagonal(a, b, c []*mat.Dense, rhs []core.Vec2) ([]core.Vec2, bool) {
	k := len(a)
	cPrime := make([]*mat.Dense, k)
	dPrime := make([]core.Vec2, k)

	inv0 := mat.NewDense(2, 2, nil)
	if err := inv0.Inverse(a[0]); err != nil {
		return nil, false
	}
	cPrime[0] = mat.NewDense(2, 2, nil)
	if c[0] != nil {
		cPrime[0].Mul(inv0, c[0])
	}
	dPrime[0] = matVec(inv0, rhs[0])

	for i := 1; i < k; i++ {
		m := mat.NewDense(2, 2, nil)
		m.Copy(a[i])
		if b[i] != nil {
			bc := mat.NewDense(2, 2, nil)
			bc.Mul(b[i], cPrime[i-1])
			m.Sub(m, bc)
		}
		inv := mat.NewDense(2, 2, nil)
		if err := inv.Inverse(m); err != nil {
			return nil, false
		}

		cPrime[i] = mat.NewDense(2, 2, nil)
		if c[i] != nil {
			cPrime[i].Mul(inv, c[i])
		}

		rhsAdj := rhs[i]
		if b[i] != nil {
			rhsAdj = rhs[i].Subtract(matVec(b[i], dPrime[i-1]))
		}
		dPrime[i] = matVec(inv, rhsAdj)
	}

	x := make([]core.Vec2, k)
	x[k-1] = dPrime[k-1]
	for i := k - 2; i >= 0; i-- {
		x[i] = dPrime[i].Subtract(matVec(cPrime[i], x[i+1]))
	}
	return x, true
}

func matVec(m *mat.Dense, v core.Vec2) core.Vec2 {
	x := m.At(0, 0)*v.X + m.At(0, 1)*v.Y
	y := m.At(1, 0)*v.X + m.At(1, 1)*v.Y
	return core.NewVec2(x, y)
}
