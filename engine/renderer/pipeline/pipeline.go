package pipeline

import (
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It carries the render state of one line program variant together with the GPU object built from it.
type pipeline struct {
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// vertexLayouts are the instance-stepped buffer layouts of a direct-mode variant, empty in storage mode.
	vertexLayouts []wgpu.VertexBufferLayout

	renderPipeline *wgpu.RenderPipeline

	// Render state settable with the builder options. Line variants always draw triangle strips.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline is the render state of one line program variant: its two shader stages, the vertex
// buffer layouts the variant binds and the fixed-function state that callers may forward.
type Pipeline interface {
	// PipelineKey returns the unique key of the pipeline, used as the renderer cache key.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader retrieves the stage shader, or nil if it was not set.
	//
	// Parameters:
	//   - shaderType: ShaderTypeVertex or ShaderTypeFragment
	//
	// Returns:
	//   - shader.Shader: the stage shader
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexLayouts returns the vertex buffer layouts bound by the variant in slot order.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// Pipeline returns the GPU render pipeline, or nil before the renderer registered it.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the built render pipeline
	Pipeline() *wgpu.RenderPipeline

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	DepthBias() int32
	DepthBiasSlopeScale() float32
	BlendEnabled() bool
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology. Defaults to triangle strips.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology
	Topology() wgpu.PrimitiveTopology

	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// SetRenderPipeline stores the GPU pipeline built by the renderer.
	//
	// Parameters:
	//   - p: the built render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates the render state of a line program variant. Without options it draws
// triangle strips with depth testing and alpha blending disabled.
//
// Parameters:
//   - pipelineKey: the unique key of the pipeline
//   - opts: builder options applied in order
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleStrip,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string { return p.pipelineKey }
func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout { return p.vertexLayouts }
func (p *pipeline) Pipeline() *wgpu.RenderPipeline { return p.renderPipeline }
func (p *pipeline) DepthTestEnabled() bool { return p.depthTestEnabled }
func (p *pipeline) DepthWriteEnabled() bool { return p.depthWriteEnabled }
func (p *pipeline) DepthBias() int32 { return p.depthBias }
func (p *pipeline) DepthBiasSlopeScale() float32 { return p.depthBiasSlopeScale }
func (p *pipeline) BlendEnabled() bool { return p.blendEnabled }
func (p *pipeline) CullMode() wgpu.CullMode { return p.cullMode }
func (p *pipeline) Topology() wgpu.PrimitiveTopology { return p.topology }
func (p *pipeline) FrontFace() wgpu.FrontFace { return p.frontFace }
func (p *pipeline) WriteMask() wgpu.ColorWriteMask { return p.writeMask }
func (p *pipeline) BlendState() *wgpu.BlendState { return p.blendState }
func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) { p.renderPipeline = rp }

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	if shaderType == shader.ShaderTypeFragment {
		return p.fragmentShader
	}
	return p.vertexShader
}
