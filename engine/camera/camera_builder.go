package camera

import (
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
)

type CameraBuilderOption func(*cameraImpl)

// WithProjection sets the projection mode.
//
// Parameters:
//   - p: the projection mode
//
// Returns:
//   - CameraBuilderOption: a function that sets the projection
func WithProjection(p Projection) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = p
	}
}

// WithViewport sets the viewport size in pixels and centers a pixel camera on it.
//
// Parameters:
//   - width, height: the surface size
//
// Returns:
//   - CameraBuilderOption: a function that sets the viewport
func WithViewport(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width <= 0 || height <= 0 {
			return
		}
		c.width, c.height = width, height
		c.target = [3]float32{float32(width) / 2, float32(height) / 2, c.target[2]}
	}
}

// WithTarget sets the point the camera centers on.
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = [3]float32{x, y, z}
	}
}

// WithZoom sets the scale of a pixel camera.
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if zoom > 0 {
			c.zoom = zoom
		}
	}
}

// WithFov sets the vertical field of view of a perspective camera in radians.
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithNearFar sets the clip plane distances. A pixel camera uses far as its depth half-range.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithNearFar(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithOrbit places a perspective camera on a sphere around the target.
//
// Parameters:
//   - distance: the distance from the target
//   - azimuth: the horizontal angle in radians
//   - elevation: the vertical angle in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the orbit
func WithOrbit(distance, azimuth, elevation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.distance = distance
		c.azimuth = azimuth
		c.elevation = elevation
	}
}

// WithBindGroupProvider replaces the provider holding the camera uniform, for example to bind it
// at a group other than 1.
//
// Parameters:
//   - provider: the bind group provider to use
//
// Returns:
//   - CameraBuilderOption: functional option to set the bind group provider
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.bindGroupProvider = provider
	}
}
