package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-lines/common"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
)

// cameraCount numbers the bind group provider labels of cameras.
var cameraCount atomic.Uint64

// Projection selects how a Camera maps world space to clip space.
type Projection int

const (
	// ProjectionPixels is an orthographic projection where one world unit is one pixel at zoom 1,
	// y grows downwards and the target sits at the viewport center.
	ProjectionPixels Projection = iota

	// ProjectionPerspective orbits the target at a distance with a perspective projection.
	ProjectionPerspective
)

// Camera computes the view-projection matrix a line program's position function multiplies
// points with. Its uniform is bound through BindGroupProvider at group 1 unless configured
// otherwise; group 0 belongs to the line program.
type Camera interface {
	// Projection returns the projection mode.
	Projection() Projection

	// Viewport returns the viewport size in pixels.
	Viewport() (width, height int)

	// SetViewport sets the viewport size in pixels, typically from a window resize callback.
	//
	// Parameters:
	//   - width, height: the surface size
	SetViewport(width, height int)

	// Target returns the point the camera centers on.
	Target() (x, y, z float32)

	// SetTarget moves the point the camera centers on.
	SetTarget(x, y, z float32)

	// Pan moves the target by a screen-space offset in pixels.
	//
	// Parameters:
	//   - dx, dy: the offset in pixels
	Pan(dx, dy float32)

	// Zoom returns the scale of ProjectionPixels.
	Zoom() float32

	// SetZoom sets the scale of ProjectionPixels. Non-positive values are ignored.
	SetZoom(zoom float32)

	// Orbit rotates a perspective camera around its target.
	//
	// Parameters:
	//   - dAzimuth: the horizontal rotation in radians
	//   - dElevation: the vertical rotation in radians, clamped short of the poles
	Orbit(dAzimuth, dElevation float32)

	// ViewProjectionMatrix returns the combined matrix, column-major.
	ViewProjectionMatrix() [16]float32

	// Unproject maps a pixel position back to world space on the z = target plane of a
	// ProjectionPixels camera.
	//
	// Parameters:
	//   - px, py: the pixel position, origin at the top left
	//
	// Returns:
	//   - x, y: the world position
	//   - bool: false when the matrix cannot be inverted
	Unproject(px, py float32) (x, y float32, ok bool)

	// Uniform returns the GPU uniform of the current state.
	Uniform() GPUCameraUniform

	// BindGroupProvider returns the provider holding the uniform buffer.
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

type cameraImpl struct {
	mu sync.Mutex

	projection Projection
	width      int
	height     int

	target [3]float32
	zoom   float32

	fov       float32
	near      float32
	far       float32
	distance  float32
	azimuth   float32
	elevation float32

	viewProjection [16]float32

	bindGroupProvider bind_group_provider.BindGroupProvider
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera. Without options it is a pixel camera over a 1280x720 viewport
// centered on (640, 360), so world coordinates equal window pixel coordinates.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the configured camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		projection: ProjectionPixels,
		width:      1280,
		height:     720,
		target:     [3]float32{640, 360, 0},
		zoom:       1,
		fov:        45.0 * (math.Pi / 180.0),
		near:       0.1,
		far:        1000,
		distance:   10,
		elevation:  0.3,
	}
	for _, option := range options {
		option(c)
	}
	if c.bindGroupProvider == nil {
		c.bindGroupProvider = bind_group_provider.NewBindGroupProvider("camera_" + strconv.FormatUint(cameraCount.Add(1), 10))
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Projection() Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) Viewport() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) SetViewport(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.updateMatrices()
}

func (c *cameraImpl) Target() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target[0], c.target[1], c.target[2]
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) Pan(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.projection == ProjectionPixels {
		c.target[0] += dx / c.zoom
		c.target[1] += dy / c.zoom
	} else {
		// pixels to world units at the target distance
		scale := 2 * c.distance * float32(math.Tan(float64(c.fov)/2)) / float32(c.height)
		sin, cos := math.Sincos(float64(c.azimuth))
		c.target[0] += dx * scale * float32(cos)
		c.target[2] -= dx * scale * float32(sin)
		c.target[1] -= dy * scale
	}
	c.updateMatrices()
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if zoom <= 0 {
		return
	}
	c.zoom = zoom
	c.updateMatrices()
}

func (c *cameraImpl) Orbit(dAzimuth, dElevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	const limit = math.Pi/2 - 0.01
	c.azimuth += dAzimuth
	c.elevation = min(limit, max(-limit, c.elevation+dElevation))
	c.updateMatrices()
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) Unproject(px, py float32) (float32, float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var inv [16]float32
	if !common.Invert4(inv[:], c.viewProjection[:]) {
		return 0, 0, false
	}
	ndc := [4]float32{2*px/float32(c.width) - 1, 1 - 2*py/float32(c.height), 0, 1}
	if c.projection == ProjectionPixels {
		// depth of the target plane
		ndc[2] = common.Transform4(c.viewProjection[:], [4]float32{0, 0, c.target[2], 1})[2]
	}
	p := common.Transform4(inv[:], ndc)
	if p[3] == 0 {
		return 0, 0, false
	}
	return p[0] / p[3], p[1] / p[3], true
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		ViewProj: c.viewProjection,
		Viewport: [2]float32{float32(c.width), float32(c.height)},
		Zoom:     c.zoom,
	}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

// updateMatrices recomputes the view-projection. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	w, h := float32(c.width), float32(c.height)
	switch c.projection {
	case ProjectionPerspective:
		var view, proj [16]float32
		sinA, cosA := math.Sincos(float64(c.azimuth))
		sinE, cosE := math.Sincos(float64(c.elevation))
		eye := [3]float32{
			c.target[0] + c.distance*float32(cosE*sinA),
			c.target[1] + c.distance*float32(sinE),
			c.target[2] + c.distance*float32(cosE*cosA),
		}
		common.LookAt(view[:], eye[0], eye[1], eye[2], c.target[0], c.target[1], c.target[2], 0, 1, 0)
		common.Perspective(proj[:], c.fov, w/h, c.near, c.far)
		common.Mul4(c.viewProjection[:], proj[:], view[:])
	default:
		halfW, halfH := w/(2*c.zoom), h/(2*c.zoom)
		common.Orthographic(c.viewProjection[:],
			c.target[0]-halfW, c.target[0]+halfW,
			c.target[1]+halfH, c.target[1]-halfH,
			-c.far, c.far,
		)
	}
}
