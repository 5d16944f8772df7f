package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("lines")
	assert.Equal(t, "lines", p.PipelineKey())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.Pipeline())
	assert.Empty(t, p.VertexLayouts())
}

func TestNewPipelineOptions(t *testing.T) {
	layouts := []wgpu.VertexBufferLayout{{ArrayStride: 8, StepMode: wgpu.VertexStepModeInstance}}
	p := NewPipeline("lines",
		WithBlendEnabled(true),
		WithDepthTestEnabled(false),
		WithDepthBias(2, 0.5),
		WithVertexLayouts(layouts),
	)
	assert.True(t, p.BlendEnabled())
	assert.False(t, p.DepthTestEnabled())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, float32(0.5), p.DepthBiasSlopeScale())
	assert.Equal(t, layouts, p.VertexLayouts())
}
