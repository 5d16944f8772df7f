package scene

import (
	_ "embed"
	"math"

	"github.com/Carmen-Shannon/oxy-lines/engine/camera"
	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/lines"
)

//go:embed assets/polyline.vert.wgsl
var polylineVertexSource string

//go:embed assets/polyline.frag.wgsl
var polylineFragmentSource string

// PolylineShaders returns the line program AddPolyline fills buffers for: an interleaved
// xy/width/color point transformed by the camera at group 1, with the color as a varying.
//
// Returns:
//   - vertex: the annotated vertex source
//   - fragment: the fragment source
func PolylineShaders() (vertex, fragment string) {
	return camera.GPUCameraUniformSource + "\n" + polylineVertexSource, polylineFragmentSource
}

// NewPolylineLines creates a line system for PolylineShaders. Options are applied after the shaders.
//
// Parameters:
//   - r: the renderer to draw through
//   - opts: additional line system options
//
// Returns:
//   - lines.Lines: the line system
//   - error: the construction error
func NewPolylineLines(r lines.LineRenderer, opts ...lines.LinesBuilderOption) (lines.Lines, error) {
	vertex, fragment := PolylineShaders()
	return lines.NewLines(r, append([]lines.LinesBuilderOption{
		lines.WithVertexShader(vertex),
		lines.WithFragmentShader(fragment),
	}, opts...)...)
}

// A polyline point is interleaved as xy, half width and color.
const (
	polylineFloats = 7
	polylineStride = polylineFloats * 4
)

// polylineAttributes describes the interleaved layout for buf.
func polylineAttributes(buf lines.AttributeBuffer) map[string]lines.AttributeBuffer {
	xy, width, color := buf, buf, buf
	xy.Stride, width.Stride, color.Stride = polylineStride, polylineStride, polylineStride
	width.Offset += 8
	color.Offset += 12
	return map[string]lines.AttributeBuffer{"xy": xy, "width": width, "color": color}
}

// packedPolyline holds the point data of one polyline.
type packedPolyline struct {
	segments      []float32
	vertexCount   int
	endpoints     []float32
	endpointCount int
}

// packPolyline lays a resolved line out in the buffers the line passes read. The segment buffer
// brackets the points with break points. Unless caps are inserted, the endpoint buffer holds a
// start and an end cap window of three points for every unbroken run.
func packPolyline(line config.ResolvedLine) packedPolyline {
	half := float32(line.Width / 2)
	color := [4]float32{float32(line.Color[0]), float32(line.Color[1]), float32(line.Color[2]), float32(line.Color[3])}
	nan := float32(math.NaN())

	put := func(dst []float32, p geometry.Vec2, valid bool) []float32 {
		if !valid {
			return append(dst, nan, nan, 0, 0, 0, 0, 0)
		}
		return append(dst, float32(p[0]), float32(p[1]), half, color[0], color[1], color[2], color[3])
	}
	valid := func(p geometry.Vec2) bool {
		return !math.IsNaN(p[0]) && !math.IsNaN(p[1])
	}

	var out packedPolyline
	out.vertexCount = len(line.Points) + 2
	out.segments = make([]float32, 0, out.vertexCount*polylineFloats)
	out.segments = put(out.segments, geometry.Vec2{}, false)
	for _, p := range line.Points {
		out.segments = put(out.segments, p, valid(p))
	}
	out.segments = put(out.segments, geometry.Vec2{}, false)
	if line.InsertCaps {
		return out
	}

	var run []geometry.Vec2
	flush := func() {
		if len(run) < 2 {
			run = run[:0]
			return
		}
		at := func(i int) (geometry.Vec2, bool) {
			if i < 0 || i >= len(run) {
				return geometry.Vec2{}, false
			}
			return run[i], true
		}
		last := len(run) - 1
		for _, i := range []int{0, 1, 2, last, last - 1, last - 2} {
			p, ok := at(i)
			out.endpoints = put(out.endpoints, p, ok)
		}
		out.endpointCount += 2
		run = run[:0]
	}
	for _, p := range line.Points {
		if !valid(p) {
			flush()
			continue
		}
		run = append(run, p)
	}
	flush()
	return out
}
