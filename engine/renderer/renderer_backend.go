package renderer

import "github.com/cogentcore/webgpu/wgpu"

// SurfaceSource is the presentation target a Renderer draws into. engine/window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync presents on vertical blank (FIFO).
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the main render pass. Wide lines rely on it for edge
// smoothing unless the caller's fragment stage antialiases from lineCoord. WebGPU guarantees
// 1 and 4; 8 and 16 are adapter-dependent.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1

	// MSAA4x is the default.
	MSAA4x  MSAASampleCount = 4
	MSAA8x  MSAASampleCount = 8
	MSAA16x MSAASampleCount = 16
)

// RendererBackend is the backend interface selected by RendererBackendType.
type RendererBackend interface {
	wgpuRendererBackend
}
