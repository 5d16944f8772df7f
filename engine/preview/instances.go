package preview

import (
	"math"

	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

// invalidPoint is the break sentinel fed to the synthesis for missing neighbours.
var invalidPoint = geometry.Vec4{math.NaN(), math.NaN(), 0, 0}

// instance is one evaluated point window with the params of its pass.
type instance struct {
	window geometry.Window
	params *geometry.Params
}

// lineInstances lays a polyline out the way a caller fills attribute buffers: a segment window per
// consecutive point pair with sentinels at both ends, and, unless caps are inserted, a start and an
// end cap window per unbroken run.
func lineInstances(line config.ResolvedLine, resolution [2]float64) []instance {
	toClip := func(p geometry.Vec2) geometry.Vec4 {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			return invalidPoint
		}
		return geometry.Vec4{p[0] / resolution[0], p[1] / resolution[1], 0, 1}
	}
	halfWidth := line.Width / 2

	padded := make([]geometry.Vec4, 0, len(line.Points)+2)
	padded = append(padded, invalidPoint)
	for _, p := range line.Points {
		padded = append(padded, toClip(p))
	}
	padded = append(padded, invalidPoint)

	segment := geometry.NewParams(line.Style, shader.PassSegment, line.InsertCaps, resolution)
	var out []instance
	for i := 0; i+3 < len(padded); i++ {
		out = append(out, instance{
			window: geometry.Window{
				A: padded[i], B: padded[i+1], C: padded[i+2], D: padded[i+3],
				WidthB: halfWidth, WidthC: halfWidth,
			},
			params: &segment,
		})
	}
	if line.InsertCaps {
		return out
	}

	endpoint := geometry.NewParams(line.Style, shader.PassEndpoint, false, resolution)
	at := func(run []geometry.Vec4, i int) geometry.Vec4 {
		if i < 0 || i >= len(run) {
			return invalidPoint
		}
		return run[i]
	}
	for _, run := range runs(padded[1 : len(padded)-1]) {
		last := len(run) - 1
		out = append(out,
			instance{
				window: geometry.Window{
					B: run[0], C: at(run, 1), D: at(run, 2),
					WidthB: halfWidth, WidthC: halfWidth,
					Orientation: geometry.CapStart, HasOrientation: true,
				},
				params: &endpoint,
			},
			instance{
				window: geometry.Window{
					B: run[last], C: at(run, last-1), D: at(run, last-2),
					WidthB: halfWidth, WidthC: halfWidth,
					Orientation: geometry.CapEnd, HasOrientation: true,
				},
				params: &endpoint,
			},
		)
	}
	return out
}

// runs splits points at invalid entries and keeps the runs of at least two points.
func runs(points []geometry.Vec4) [][]geometry.Vec4 {
	var out [][]geometry.Vec4
	start := 0
	for i := 0; i <= len(points); i++ {
		if i < len(points) && !points[i].Invalid() {
			continue
		}
		if i-start >= 2 {
			out = append(out, points[start:i])
		}
		start = i + 1
	}
	return out
}

// triangle is a strip triangle in pixel space.
type triangle [3]geometry.Vec2

// triangles evaluates every strip vertex of an instance and returns its non-degenerate triangles,
// all wound counter-clockwise.
func (in instance) triangles() []triangle {
	n := in.params.VertexCount()
	res := in.params.Resolution
	verts := make([]geometry.Vec2, n)
	for i := range n {
		v := geometry.Synthesize(i, in.window, *in.params)
		w := v.Position[3]
		if w == 0 || math.IsNaN(v.Position[0]) {
			verts[i] = geometry.Vec2{math.NaN(), math.NaN()}
			continue
		}
		verts[i] = geometry.Vec2{v.Position[0] / w * res[0], v.Position[1] / w * res[1]}
	}

	out := make([]triangle, 0, max(0, n-2))
	for i := 0; i+2 < n; i++ {
		t := triangle{verts[i], verts[i+1], verts[i+2]}
		area := signedArea(t)
		if area == 0 || math.IsNaN(area) {
			continue
		}
		if area < 0 {
			t[1], t[2] = t[2], t[1]
		}
		out = append(out, t)
	}
	return out
}

func signedArea(t triangle) float64 {
	return 0.5 * ((t[1][0]-t[0][0])*(t[2][1]-t[0][1]) - (t[2][0]-t[0][0])*(t[1][1]-t[0][1]))
}
