package lines

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingValue(t *testing.T) {
	c := Constant(uint32(7))
	assert.True(t, c.IsConstant())
	assert.Equal(t, uint32(7), c.Evaluate(nil))

	f := FromDraw(func(d *ResolvedDraw) int { return d.Instances * 2 })
	assert.False(t, f.IsConstant())
	assert.Equal(t, 10, f.Evaluate(&ResolvedDraw{Instances: 5}))
}

func TestVariantKeyString(t *testing.T) {
	assert.Equal(t, "segment", VariantKey(0).String())
	assert.Equal(t, "endpoint+caps+indirect", (VariantEndpoint | VariantInsertCaps | VariantIndirect).String())

	k := variantKeyOf(shader.PassEndpoint, false, shader.BindingIndirect)
	assert.Equal(t, shader.PassEndpoint, k.Pass())
	assert.Equal(t, shader.BindingIndirect, k.Mode())
	assert.False(t, k.InsertCaps())
}

func TestVertexFormat(t *testing.T) {
	cases := []struct {
		t          ElementType
		dim        int
		normalized bool
		want       wgpu.VertexFormat
		ok         bool
	}{
		{Float32, 3, false, wgpu.VertexFormatFloat32x3, true},
		{Float16, 4, false, wgpu.VertexFormatFloat16x4, true},
		{Float16, 3, false, wgpu.VertexFormatUndefined, false},
		{Uint8, 4, true, wgpu.VertexFormatUnorm8x4, true},
		{Int16, 2, true, wgpu.VertexFormatSnorm16x2, true},
		{Uint8, 4, false, wgpu.VertexFormatUndefined, false},
		{Int8, 1, true, wgpu.VertexFormatUndefined, false},
	}
	for _, tc := range cases {
		got, ok := vertexFormat(tc.t, tc.dim, tc.normalized)
		assert.Equal(t, tc.ok, ok, "%s x%d", tc.t, tc.dim)
		assert.Equal(t, tc.want, got, "%s x%d", tc.t, tc.dim)
	}
}

func TestGPULineUniformsMarshal(t *testing.T) {
	p := geometry.NewParams(geometry.Style{Join: JoinRound, Cap: CapRound, JoinResolution: 4, CapResolution: 6, MiterLimit: 3},
		shader.PassEndpoint, false, [2]float64{640, 480})
	p.Orientation = CapEnd

	g := newGPULineUniforms(p, [][4]uint32{{1, 2, 3, 0}})
	require.Equal(t, 64, g.Size())
	b := g.Marshal()
	require.Len(t, b, 64)

	assert.Equal(t, float32(12), f32At(b, 0))
	assert.Equal(t, float32(8), f32At(b, 4))
	assert.Equal(t, float32(12), f32At(b, 8))
	assert.Equal(t, float32(8), f32At(b, 12))
	assert.Equal(t, float32(640), f32At(b, 16))
	assert.Equal(t, float32(480), f32At(b, 20))
	assert.Equal(t, float32(1), f32At(b, 24))
	assert.Equal(t, float32(9), f32At(b, 32))
	assert.Equal(t, uint32(1), u32At(b, 36))
	assert.Equal(t, float32(1), f32At(b, 40))
	assert.Equal(t, uint32(2), u32At(b, 52))
	assert.Equal(t, uint32(3), u32At(b, 56))

	assert.Equal(t, 48, (&GPULineUniforms{}).Size())
	assert.EqualValues(t, shader.UniformSize(shader.BindingIndirect, 1), g.Size())
}

func TestLayoutFingerprint(t *testing.T) {
	a := []wgpu.VertexBufferLayout{{ArrayStride: 8, StepMode: wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x2}}}}
	b := []wgpu.VertexBufferLayout{{ArrayStride: 12, StepMode: wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x2}}}}

	assert.Equal(t, layoutFingerprint(a), layoutFingerprint(a))
	assert.NotEqual(t, layoutFingerprint(a), layoutFingerprint(b))
	assert.NotEqual(t, layoutFingerprint(nil), layoutFingerprint(a))
}
