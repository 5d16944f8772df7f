package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.renderer")
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *wgpu.Color
}

// Renderer is the GPU side of the line system: it owns the device, the surface and the frame
// render pass, caches the render pipelines of line program variants by key and encodes
// instanced triangle-strip draws for them.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipeline of each Pipeline and caches it by PipelineKey.
	// Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface. Zero sizes (a minimized window) are ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SurfaceSize returns the configured surface size in pixels. Line uniforms use it as the
	// default viewport resolution.
	SurfaceSize() (int, int)

	// Limits returns the device limits relevant to line variants.
	Limits() Limits

	// InitBuffer creates a buffer holding data. CopyDst is always added to usage so the buffer can be
	// updated with UpdateBuffer. Point buffers need BufferUsageVertex for direct-mode variants and
	// BufferUsageStorage for indirect-mode variants.
	//
	// Parameters:
	//   - label: the debug label of the buffer
	//   - usage: the usage flags
	//   - data: the initial contents
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if buffer creation fails
	InitBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)

	// UpdateBuffer writes data into buf at offset through the queue.
	UpdateBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// ReleaseBuffer releases a buffer created with InitBuffer. A frame in progress keeps the
	// buffer alive until EndFrame.
	ReleaseBuffer(buf *wgpu.Buffer)

	// InitBindGroup creates the buffers and bind group of a caller group from its reflected layout.
	// Textures and samplers must be stored on the provider beforehand.
	//
	// Parameters:
	//   - provider: the provider to populate
	//   - descriptor: the layout descriptor of the provider's group
	//   - bufferSizeOverrides: buffer sizes replacing MinBindingSize, keyed by binding (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawLines encodes one instanced line draw within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered line pipeline
	//   - call: the draw
	//
	// Returns:
	//   - error: an error if the pipeline is not registered, no frame is in progress or the call
	//     exceeds the device limits
	DrawLines(pipelineKey string, call LineDrawCall) error

	// EndFrame ends the current render pass and submits the command buffer. Call Present afterwards.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()

	// SetPresentMode sets the surface present mode. Takes effect on the next Resize.
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the render pass clears to.
	SetClearColor(color wgpu.Color)
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer drawing into the surface of source.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - source: the surface to present to, typically an engine/window.Window
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured Renderer
func NewRenderer(backendType RendererBackendType, source SurfaceSource, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	// Options go first so the adapter request sees forceFallbackAdapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(source.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}

	r.backend.ConfigureSurface(source.Width(), source.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) Limits() Limits {
	return r.backend.Limits()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(color wgpu.Color) {
	r.backend.SetClearColor(color)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %s: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	return r.backend.InitBuffer(label, usage, data)
}

func (r *renderer) UpdateBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	r.backend.UpdateBuffer(buf, offset, data)
}

func (r *renderer) ReleaseBuffer(buf *wgpu.Buffer) {
	r.backend.ReleaseBuffer(buf)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferSizeOverrides)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawLines(pipelineKey string, call LineDrawCall) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("pipeline %s not registered", pipelineKey)
	}
	return r.backend.DrawLines(p, call)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}
