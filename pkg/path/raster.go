package path

import "github.com/df07/pathspace/pkg/core"

// RasterPosition extracts the film coordinate a fullpath's (s,t)
// strategy should splat into, per spec.md §4.4.4: the vertex actually
// sitting on the sensor projects the direction toward its neighbor in
// the fullpath. t>=2 is the common case: the sensor is the eye
// subpath's root and its neighbor is the eye subpath's second vertex;
// t==1 means the sensor root itself is the
// connection point, so the neighbor comes from the light subpath;
// t==0 means the light subpath walked all the way to the sensor on
// its own.
func RasterPosition(lightPath, eyePath *Path, s, t int) (x, y float64, ok bool) {
	var sensor *Vertex
	var fromP core.Vec3

	switch {
	case t >= 2:
		sensor = &eyePath.Vertices[0]
		fromP = eyePath.Vertices[1].Geom.P
	case t == 1:
		sensor = &eyePath.Vertices[0]
		if s == 0 {
			return 0, 0, false
		}
		fromP = lightPath.Vertices[s-1].Geom.P
	case t == 0 && s > 1:
		sensor = &lightPath.Vertices[s-1]
		fromP = lightPath.Vertices[s-2].Geom.P
	default:
		return 0, 0, false
	}

	if !sensor.IsOnSensor() {
		return 0, 0, false
	}

	wo := fromP.Subtract(sensor.Geom.P)
	if wo.LengthSquared() < 1e-18 {
		return 0, 0, false
	}
	wo = wo.Normalize()
	return sensor.Prim.RasterPosition(wo, sensor.Geom)
}
