package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformRingReserve(t *testing.T) {
	r := newUniformRing(1024, 256)

	off, ok := r.reserve(48)
	require.True(t, ok)
	assert.Equal(t, uint64(0), off)

	off, ok = r.reserve(208)
	require.True(t, ok)
	assert.Equal(t, uint64(256), off)

	off, ok = r.reserve(48)
	require.True(t, ok)
	assert.Equal(t, uint64(512), off)

	off, ok = r.reserve(48)
	require.True(t, ok)
	assert.Equal(t, uint64(768), off)

	_, ok = r.reserve(48)
	assert.False(t, ok, "a fifth slot does not fit in 1024 bytes")

	r.reset()
	off, ok = r.reserve(48)
	require.True(t, ok)
	assert.Equal(t, uint64(0), off)
}

func TestUniformRingGrow(t *testing.T) {
	r := newUniformRing(512, 256)
	_, _ = r.reserve(48)
	_, _ = r.reserve(48)

	assert.Equal(t, uint64(1024), r.grow(48))
	off, ok := r.reserve(48)
	require.True(t, ok)
	assert.Equal(t, uint64(0), off, "grow empties the ring")

	assert.Equal(t, uint64(8192), r.grow(5000))
	_, ok = r.reserve(5000)
	assert.True(t, ok)
}

func TestUniformRingDefaultAlignment(t *testing.T) {
	r := newUniformRing(100, 0)
	assert.Equal(t, uint64(256), r.alignment)
	assert.Equal(t, uint64(256), r.capacity)
}

func TestMergeBindGroupLayouts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.renderer")
	defer teardown()

	uniform := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex}
	uniform.Buffer.Type = wgpu.BufferBindingTypeUniform
	storage := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: wgpu.ShaderStageVertex}
	storage.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	camera := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex}
	camera.Buffer.Type = wgpu.BufferBindingTypeUniform
	fragUniform := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageFragment}
	fragUniform.Buffer.Type = wgpu.BufferBindingTypeUniform
	tint := wgpu.BindGroupLayoutEntry{Binding: 2, Visibility: wgpu.ShaderStageFragment}
	tint.Buffer.Type = wgpu.BufferBindingTypeUniform

	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{storage, uniform}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{camera}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		1: {Entries: []wgpu.BindGroupLayoutEntry{tint, fragUniform}},
	}

	merged := MergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 2)

	g0 := merged[0].Entries
	require.Len(t, g0, 2)
	assert.Equal(t, uint32(0), g0[0].Binding)
	assert.Equal(t, uint32(1), g0[1].Binding)

	g1 := merged[1].Entries
	require.Len(t, g1, 2)
	assert.Equal(t, uint32(0), g1[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, g1[0].Visibility)
	assert.Equal(t, uint32(2), g1[1].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, g1[1].Visibility)

	assert.Equal(t, wgpu.ShaderStageVertex, vertex[1].Entries[0].Visibility, "inputs are not modified")
}

func TestLineDrawCallValidate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.renderer")
	defer teardown()

	limits := Limits{MaxVertexBuffers: 2, MaxStorageBuffersPerShaderStage: 1}
	buf := &wgpu.Buffer{}

	t.Run("ok", func(t *testing.T) {
		call := LineDrawCall{
			Uniforms:      make([]byte, 48),
			VertexBuffers: []BufferBinding{{Buffer: buf}, {Buffer: buf, Offset: 8}},
			VertexCount:   22,
			InstanceCount: 3,
		}
		assert.NoError(t, call.validate(limits))
		assert.False(t, call.empty())
	})
	t.Run("no uniforms", func(t *testing.T) {
		call := LineDrawCall{VertexCount: 1, InstanceCount: 1}
		assert.Error(t, call.validate(limits))
	})
	t.Run("too many vertex buffers", func(t *testing.T) {
		call := LineDrawCall{
			Uniforms:      make([]byte, 48),
			VertexBuffers: []BufferBinding{{Buffer: buf}, {Buffer: buf}, {Buffer: buf}},
		}
		assert.ErrorContains(t, call.validate(limits), "3 vertex buffers")
	})
	t.Run("nil storage buffer", func(t *testing.T) {
		call := LineDrawCall{Uniforms: make([]byte, 64), StorageBuffers: []BufferBinding{{}}}
		assert.ErrorContains(t, call.validate(limits), "storage binding 1")
	})
	t.Run("uninitialized bind group", func(t *testing.T) {
		call := LineDrawCall{
			Uniforms:   make([]byte, 48),
			BindGroups: []bind_group_provider.BindGroupProvider{bind_group_provider.NewBindGroupProvider("camera")},
		}
		assert.ErrorContains(t, call.validate(limits), "camera")
	})
	t.Run("empty", func(t *testing.T) {
		call := LineDrawCall{Uniforms: make([]byte, 48), VertexCount: 22}
		assert.NoError(t, call.validate(limits))
		assert.True(t, call.empty())
	})
}

func TestBufferBindingSize(t *testing.T) {
	assert.Equal(t, uint64(wgpu.WholeSize), BufferBinding{}.size())
	assert.Equal(t, uint64(64), BufferBinding{Size: 64}.size())
}
