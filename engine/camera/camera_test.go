package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clip(c Camera, x, y float32) [4]float32 {
	vp := c.ViewProjectionMatrix()
	return common.Transform4(vp[:], [4]float32{x, y, 0, 1})
}

func TestPixelCamera(t *testing.T) {
	c := NewCamera(WithViewport(800, 600))

	center := clip(c, 400, 300)
	assert.InDelta(t, 0, center[0], 1e-6)
	assert.InDelta(t, 0, center[1], 1e-6)

	topLeft := clip(c, 0, 0)
	assert.InDelta(t, -1, topLeft[0], 1e-6)
	assert.InDelta(t, 1, topLeft[1], 1e-6)

	bottomRight := clip(c, 800, 600)
	assert.InDelta(t, 1, bottomRight[0], 1e-6)
	assert.InDelta(t, -1, bottomRight[1], 1e-6)
	assert.InDelta(t, 1, bottomRight[3], 1e-6)
}

func TestPixelCameraZoomAndPan(t *testing.T) {
	c := NewCamera(WithViewport(800, 600))
	c.SetZoom(2)
	edge := clip(c, 600, 300)
	assert.InDelta(t, 1, edge[0], 1e-6)

	c.SetZoom(-1)
	assert.Equal(t, float32(2), c.Zoom())

	c.Pan(100, 0)
	x, y, _ := c.Target()
	assert.Equal(t, float32(450), x)
	assert.Equal(t, float32(300), y)
}

func TestUnproject(t *testing.T) {
	c := NewCamera(WithViewport(800, 600), WithZoom(2))
	c.Pan(40, -20)

	x, y, ok := c.Unproject(400, 300)
	require.True(t, ok)
	assert.InDelta(t, 420, x, 1e-3)
	assert.InDelta(t, 290, y, 1e-3)

	x, y, ok = c.Unproject(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 220, x, 1e-3)
	assert.InDelta(t, 140, y, 1e-3)
}

func TestPerspectiveCamera(t *testing.T) {
	c := NewCamera(WithProjection(ProjectionPerspective), WithViewport(800, 600), WithTarget(0, 0, 0), WithOrbit(10, 0, 0))
	target := clip(c, 0, 0)
	require.NotZero(t, target[3])
	assert.InDelta(t, 0, target[0]/target[3], 1e-5)
	assert.InDelta(t, 0, target[1]/target[3], 1e-5)
	assert.InDelta(t, 10, target[3], 1e-4)

	c.Orbit(0, 10)
	vp := c.ViewProjectionMatrix()
	for _, v := range vp {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestResizeKeepsTarget(t *testing.T) {
	c := NewCamera(WithViewport(800, 600))
	c.SetViewport(1000, 500)
	w, h := c.Viewport()
	assert.Equal(t, 1000, w)
	assert.Equal(t, 500, h)
	right := clip(c, 900, 300)
	assert.InDelta(t, 1, right[0], 1e-6)

	c.SetViewport(0, 10)
	w, _ = c.Viewport()
	assert.Equal(t, 1000, w)
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithViewport(640, 480), WithZoom(1.5))
	u := c.Uniform()
	buf := u.Marshal()
	require.Len(t, buf, 80)
	vp := c.ViewProjectionMatrix()
	assert.Equal(t, math.Float32bits(vp[0]), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, float32(640), math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])))
	assert.Equal(t, float32(480), math.Float32frombits(binary.LittleEndian.Uint32(buf[68:])))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[72:])))
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
}

func TestBindGroupProviderAtGroupOne(t *testing.T) {
	a := NewCamera()
	b := NewCamera()
	assert.Equal(t, 1, a.BindGroupProvider().Group())
	assert.NotEqual(t, a.BindGroupProvider().Label(), b.BindGroupProvider().Label())
}
