package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue
	limits wgpu.Limits

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	surfaceWidth         int
	surfaceHeight        int
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor
	clearColor           wgpu.Color

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	// Frame state shared by every DrawLines call between BeginFrame and EndFrame.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// lineLayouts holds the group 0 layout of every registered line pipeline, keyed by pipeline key.
	lineLayouts map[string]*wgpu.BindGroupLayout

	// uniformBuffer backs the per-frame uniform ring. Replaced buffers are retired until the frame ends.
	uniformBuffer     *wgpu.Buffer
	uniformRing       uniformRing
	uniformGeneration int
	retiredBuffers    []*wgpu.Buffer

	// lineGroups caches the group 0 bind group of direct-mode pipelines, which only bind the ring.
	lineGroups map[string]cachedLineGroup

	// frameGroups are the per-draw group 0 bind groups of indirect-mode draws, released at EndFrame.
	frameGroups []*wgpu.BindGroup
}

type cachedLineGroup struct {
	group      *wgpu.BindGroup
	generation int
	size       uint64
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Limits() Limits

	// ConfigureSurface reconfigures the swapchain and recreates the MSAA and depth targets.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SurfaceSize returns the size the surface was last configured with.
	SurfaceSize() (int, int)

	SetPresentMode(mode PresentMode)
	SetClearColor(color wgpu.Color)

	// RegisterRenderPipeline creates the shader modules, the pipeline layout and the triangle-strip
	// render pipeline of a line variant. The group 0 layout is kept for DrawLines.
	//
	// Parameters:
	//   - p: the pipeline holding both shaders, the vertex layouts and the render state
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitBuffer creates a buffer and uploads its initial contents.
	//
	// Parameters:
	//   - label: the debug label of the buffer
	//   - usage: the usage flags; CopyDst is always added
	//   - data: the initial contents, padded to a multiple of 4 bytes
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if buffer creation fails
	InitBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)

	// UpdateBuffer writes data into an existing buffer through the queue.
	UpdateBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// ReleaseBuffer releases buf now, or at EndFrame when a frame is being encoded.
	ReleaseBuffer(buf *wgpu.Buffer)

	// InitBindGroup creates the buffers and the bind group of a caller BindGroupProvider.
	//
	// Parameters:
	//   - provider: the provider to populate
	//   - descriptor: the reflected layout of the provider's group
	//   - bufferSizeOverrides: buffer sizes replacing MinBindingSize, keyed by binding (nil safe)
	//
	// Returns:
	//   - error: an error if a texture or sampler is missing or GPU object creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	BeginFrame() error

	// DrawLines writes the draw's uniforms into the frame ring, binds group 0 at the slot's dynamic
	// offset together with the caller groups and vertex buffers, and encodes one instanced draw.
	//
	// Parameters:
	//   - p: the registered line pipeline
	//   - call: the draw
	//
	// Returns:
	//   - error: ErrNoFrame outside of a frame, or a bind group creation error
	DrawLines(p pipeline.Pipeline, call LineDrawCall) error

	// EndFrame ends the render pass, submits the command buffer and releases per-frame objects.
	EndFrame()

	Present()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		lineLayouts: make(map[string]*wgpu.BindGroupLayout),
		lineGroups:  make(map[string]cachedLineGroup),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	// Line programs use group 0 plus caller groups; four groups cover the camera and a few
	// caller resources. Direct-mode variants are sized against MaxVertexBuffers.
	w.limits = wgpu.DefaultLimits()
	w.limits.MaxBindGroups = 4

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Line Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: w.limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()
	w.uniformRing = newUniformRing(defaultUniformRingSize, uint64(w.limits.MinUniformBufferOffsetAlignment))

	tracer().Infof("wgpu backend ready: msaa=%d maxVertexBuffers=%d", sampleCount, w.limits.MaxVertexBuffers)
	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Limits() Limits {
	return Limits{
		MaxVertexBuffers:                b.limits.MaxVertexBuffers,
		MaxVertexAttributes:             b.limits.MaxVertexAttributes,
		MaxStorageBuffersPerShaderStage: b.limits.MaxStorageBuffersPerShaderStage,
		MinUniformBufferOffsetAlignment: b.limits.MinUniformBufferOffsetAlignment,
	}
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceWidth, b.surfaceHeight
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A minimized window reports a zero-sized surface, which wgpu refuses to configure.
	if width <= 0 || height <= 0 {
		return
	}
	b.surfaceWidth, b.surfaceHeight = width, height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if msaaEnabled {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// With MSAA the pass renders into the MSAA view and resolves into the swapchain view set in
	// BeginFrame; without it the swapchain view is the color attachment itself.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	tracer().Debugf("surface configured: %dx%d", width, height)
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(color wgpu.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearColor = color
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = color
	}
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("vertex module %s: %w", vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("fragment module %s: %w", fragmentShader.Key(), err)
	}
	defer fs.Release()

	merged := MergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		// Unused groups below the highest declared one still need a layout slot.
		desc := merged[g]
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		colorTarget.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	if maxGroup >= shader.LineBindGroup {
		b.lineLayouts[p.PipelineKey()] = bindGroupLayouts[shader.LineBindGroup]
	}
	tracer().Debugf("registered pipeline %s: %d groups, %d vertex buffers", p.PipelineKey(), len(bindGroupLayouts), len(p.VertexLayouts()))
	return nil
}

func (b *wgpuRendererBackendImpl) InitBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	padded := data
	if rem := len(data) % 4; rem != 0 {
		padded = append(slices.Clone(data), make([]byte, 4-rem)...)
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(max(len(padded), 4)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	if len(padded) > 0 {
		b.queue.WriteBuffer(buf, 0, padded)
	}
	return buf, nil
}

func (b *wgpuRendererBackendImpl) UpdateBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(buf, offset, data)
}

func (b *wgpuRendererBackendImpl) ReleaseBuffer(buf *wgpu.Buffer) {
	if buf == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass != nil {
		b.retiredBuffers = append(b.retiredBuffers, buf)
		return
	}
	buf.Release()
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding}

		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view", provider.Label(), binding)
			}
			entries[i].TextureView = tv
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			s := provider.Sampler(binding)
			if s == nil {
				return fmt.Errorf("%s: sampler binding %d has no sampler", provider.Label(), binding)
			}
			entries[i].Sampler = s
		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
				if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
					usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
				}
				size := entry.Buffer.MinBindingSize
				if override, ok := bufferSizeOverrides[binding]; ok {
					size = override
				}
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
					Size:  size,
					Usage: usage,
				})
				if err != nil {
					return err
				}
				provider.SetBuffer(binding, buf)
			}
			entries[i].Buffer = buf
			entries[i].Size = wgpu.WholeSize
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if b.renderPassDescriptor == nil {
		return errors.New("surface is not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}

	b.uniformRing.reset()
	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(b.renderPassDescriptor)
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

// writeUniforms copies data into the next ring slot, replacing the ring buffer when it is full.
func (b *wgpuRendererBackendImpl) writeUniforms(data []byte) (uint64, error) {
	size := uint64(len(data))
	offset, ok := b.uniformRing.reserve(size)
	if !ok {
		b.uniformRing.grow(size)
		if offset, ok = b.uniformRing.reserve(size); !ok {
			return 0, fmt.Errorf("uniform block of %d bytes exceeds ring capacity", size)
		}
		if b.uniformBuffer != nil {
			b.retiredBuffers = append(b.retiredBuffers, b.uniformBuffer)
			b.uniformBuffer = nil
		}
	}
	if b.uniformBuffer == nil {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Line Uniform Ring",
			Size:  b.uniformRing.capacity,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, err
		}
		b.uniformBuffer = buf
		b.uniformGeneration++
		tracer().Debugf("uniform ring allocated with %d bytes", b.uniformRing.capacity)
	}
	b.queue.WriteBuffer(b.uniformBuffer, offset, data)
	return offset, nil
}

// lineBindGroup returns the group 0 bind group of a draw. Direct-mode groups only reference the
// ring and are cached per pipeline; indirect-mode groups reference the draw's storage buffers.
func (b *wgpuRendererBackendImpl) lineBindGroup(p pipeline.Pipeline, call LineDrawCall) (*wgpu.BindGroup, error) {
	layout, ok := b.lineLayouts[p.PipelineKey()]
	if !ok {
		return nil, fmt.Errorf("pipeline %s has no line bind group layout", p.PipelineKey())
	}
	size := uint64(len(call.Uniforms))

	if len(call.StorageBuffers) == 0 {
		if cached, hit := b.lineGroups[p.PipelineKey()]; hit {
			if cached.generation == b.uniformGeneration && cached.size == size {
				return cached.group, nil
			}
			b.frameGroups = append(b.frameGroups, cached.group)
		}
	}

	entries := make([]wgpu.BindGroupEntry, 0, 1+len(call.StorageBuffers))
	entries = append(entries, wgpu.BindGroupEntry{Binding: 0, Buffer: b.uniformBuffer, Size: size})
	for i, sb := range call.StorageBuffers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(i + 1),
			Buffer:  sb.Buffer,
			Offset:  sb.Offset,
			Size:    sb.size(),
		})
	}
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.PipelineKey() + " Line Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}

	if len(call.StorageBuffers) == 0 {
		b.lineGroups[p.PipelineKey()] = cachedLineGroup{group: group, generation: b.uniformGeneration, size: size}
	} else {
		b.frameGroups = append(b.frameGroups, group)
	}
	return group, nil
}

func (b *wgpuRendererBackendImpl) DrawLines(p pipeline.Pipeline, call LineDrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	if err := call.validate(b.Limits()); err != nil {
		return err
	}
	if call.empty() {
		return nil
	}

	offset, err := b.writeUniforms(call.Uniforms)
	if err != nil {
		return err
	}
	group, err := b.lineBindGroup(p, call)
	if err != nil {
		return err
	}

	b.framePass.SetPipeline(p.Pipeline())
	b.framePass.SetBindGroup(shader.LineBindGroup, group, []uint32{uint32(offset)})
	for _, bg := range call.BindGroups {
		b.framePass.SetBindGroup(uint32(bg.Group()), bg.BindGroup(), nil)
	}
	for slot, vb := range call.VertexBuffers {
		b.framePass.SetVertexBuffer(uint32(slot), vb.Buffer, vb.Offset, vb.size())
	}
	b.framePass.Draw(call.VertexCount, call.InstanceCount, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		tracer().Errorf("failed to finish frame: %v", err)
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameSurface = nil
		b.frameView = nil
	} else {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}

	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil

	for _, g := range b.frameGroups {
		g.Release()
	}
	b.frameGroups = b.frameGroups[:0]
	for _, buf := range b.retiredBuffers {
		buf.Release()
	}
	b.retiredBuffers = b.retiredBuffers[:0]
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()

	b.frameView.Release()
	b.frameView = nil
	b.frameSurface.Release()
	b.frameSurface = nil
}

// MergeBindGroupLayouts merges the reflected layouts of the vertex and fragment stages. Entries
// present in both stages have their visibility OR-ed; entries are sorted by binding.
//
// Parameters:
//   - vertexLayouts: the vertex stage layouts keyed by group
//   - fragmentLayouts: the fragment stage layouts keyed by group
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged layouts keyed by group
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts)+len(fragmentLayouts))
	for _, stage := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range stage {
			existing, ok := merged[g]
			if !ok {
				merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: slices.Clone(desc.Entries)}
				continue
			}
			for _, e := range desc.Entries {
				i := slices.IndexFunc(existing.Entries, func(x wgpu.BindGroupLayoutEntry) bool { return x.Binding == e.Binding })
				if i >= 0 {
					existing.Entries[i].Visibility |= e.Visibility
				} else {
					existing.Entries = append(existing.Entries, e)
				}
			}
			slices.SortFunc(existing.Entries, func(a, b wgpu.BindGroupLayoutEntry) int { return int(a.Binding) - int(b.Binding) })
			merged[g] = existing
		}
	}
	return merged
}
