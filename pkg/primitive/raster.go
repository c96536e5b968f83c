package primitive

import "github.com/df07/pathspace/pkg/core"

// RasterPosition projects a direction wo leaving a sensor primitive back
// onto its raster window, returning normalized (x,y) in [0,1]x[0,1] and
// ok=false if wo falls outside the sensor's field of view. geom supplies
// the UV an area sensor returns directly.
func (p *Primitive) RasterPosition(wo core.Vec3, geom core.SurfaceGeometry) (x, y float64, ok bool) {
	switch {
	case p.E != nil:
		return p.pinholeRasterPosition(wo)
	case p.EArea != nil:
		return geom.UV.X, geom.UV.Y, true
	}
	return 0, 0, false
}

func (p *Primitive) pinholeRasterPosition(wo core.Vec3) (x, y float64, ok bool) {
	localZ := wo.Dot(p.E.Vz)
	if localZ <= 0 {
		return 0, 0, false
	}
	localX := wo.Dot(p.E.Vx)
	localY := wo.Dot(p.E.Vy)

	ndcX := localX / (localZ * p.E.TanFov * p.E.AspectRatio)
	ndcY := localY / (localZ * p.E.TanFov)
	if ndcX < -1 || ndcX > 1 || ndcY < -1 || ndcY > 1 {
		return 0, 0, false
	}

	x = 0.5 * (1 - ndcX)
	y = 0.5 * (1 - ndcY)
	return x, y, true
}
