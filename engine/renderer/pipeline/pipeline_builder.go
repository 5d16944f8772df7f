package pipeline

import (
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
// Callers of the line system may forward any option except WithTopology, WithVertexShader,
// WithFragmentShader and WithVertexLayouts, which the line system owns.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage of the variant.
//
// Parameters:
//   - s: the generated vertex shader
//
// Returns:
//   - PipelineBuilderOption: the option
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) { p.vertexShader = s }
}

// WithFragmentShader sets the fragment stage of the variant.
//
// Parameters:
//   - s: the fragment shader with the LineVertexOutput prelude
//
// Returns:
//   - PipelineBuilderOption: the option
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) { p.fragmentShader = s }
}

// WithVertexLayouts sets the instance-stepped vertex buffer layouts of a direct-mode variant.
//
// Parameters:
//   - layouts: one layout per vertex buffer slot
//
// Returns:
//   - PipelineBuilderOption: the option
func WithVertexLayouts(layouts []wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) { p.vertexLayouts = layouts }
}

// WithDepthTestEnabled toggles the depth comparison against the frame depth buffer.
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) { p.depthTestEnabled = enabled }
}

// WithDepthWriteEnabled toggles depth writes.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) { p.depthWriteEnabled = enabled }
}

// WithDepthBias sets the constant and slope-scaled depth bias.
//
// Parameters:
//   - bias: the constant depth bias
//   - slopeScale: the slope-scaled depth bias
//
// Returns:
//   - PipelineBuilderOption: the option
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled toggles blending with the blend state.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) { p.blendEnabled = enabled }
}

// WithCullMode sets the face culling mode. Line strips flip winding between turn directions,
// so anything but wgpu.CullModeNone drops half of the joins.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) { p.cullMode = mode }
}

// WithTopology sets the primitive topology. Line variants only accept wgpu.PrimitiveTopologyTriangleStrip.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) { p.topology = topology }
}

// WithFrontFace sets the front face winding.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) { p.frontFace = frontFace }
}

// WithWriteMask sets the color channels written by the fragment stage.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) { p.writeMask = writeMask }
}

// WithBlendState replaces the default source-alpha-over blend state.
//
// Parameters:
//   - blendState: the blend state applied when blending is enabled
//
// Returns:
//   - PipelineBuilderOption: the option
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) { p.blendState = blendState }
}
