package shader

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyNames(b *BindingSet) []string {
	names := make([]string, len(b.Copies))
	for i, c := range b.Copies {
		names[i] = c.Name()
	}
	return names
}

func TestGenerateBindingsSegment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)

	b := GenerateBindings(meta, PassSegment)
	assert.Equal(t, []string{
		"xyA", "xyB", "xyC", "xyD",
		"widthB", "widthC", "widthD",
		"colorB", "colorC", "colorD",
	}, copyNames(b))
	for i, c := range b.Copies {
		assert.Equal(t, i, c.Slot)
	}

	xyC, ok := b.Copy("xy", RoleC)
	require.True(t, ok)
	assert.Equal(t, 2, xyC.WindowIndex)
	widthB, ok := b.Copy("width", RoleB)
	require.True(t, ok)
	assert.Equal(t, 1, widthB.WindowIndex)

	_, ok = b.Properties[PropertyOrientation]
	assert.False(t, ok, "orientation is only bound on the endpoint pass")
	assert.Equal(t, "getPosition(attrs.xyA)", b.Properties[PropertyPosition].Generate(RoleA, "attrs."))
	require.Len(t, b.Varyings, 1)
	assert.Equal(t,
		"out.vColor = getColor(mix(attrs.colorB, attrs.colorC, clamp(useC, 0.0, 1.0)));",
		b.Varyings[0].Generate("useC", RoleB, RoleC))
}

func TestGenerateBindingsEndpoint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)

	b := GenerateBindings(meta, PassEndpoint)
	assert.Equal(t, []string{
		"xyB", "xyC", "xyD",
		"widthB", "widthC", "widthD",
		"colorB", "colorC", "colorD",
		"cap",
	}, copyNames(b))

	xyB, _ := b.Copy("xy", RoleB)
	assert.Equal(t, 0, xyB.WindowIndex)
	capCopy, ok := b.Copy("cap", RoleNone)
	require.True(t, ok)
	assert.True(t, capCopy.PerInstance)
	assert.Equal(t, "getOrientation(attrs.cap)", b.Properties[PropertyOrientation].Generate(RoleNone, "attrs."))

	binding, ok := b.StorageBinding("cap")
	require.True(t, ok)
	assert.Equal(t, 4, binding)
	_, ok = b.StorageBinding("nope")
	assert.False(t, ok)
}

func TestExtrapolatedVaryingIsNotClamped(t *testing.T) {
	v := VaryingDirective{Name: "t", Type: TypeFloat, Extrapolate: true, Function: "f", Inputs: []string{"a", "b"}}
	got := varyingRenderer(v)("useC", RoleB, RoleC)
	assert.Equal(t, "out.t = f(mix(attrs.aB, attrs.aC, useC), mix(attrs.bB, attrs.bC, useC));", got)
}

func TestBindingDeclarations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)
	b := GenerateBindings(meta, PassSegment)

	direct := b.Declarations(BindingDirect)
	assert.Contains(t, direct, "struct LineAttributes {")
	assert.Contains(t, direct, "@location(0) xyA: vec2f,")
	assert.Contains(t, direct, "@location(9) colorD: vec4f,")
	assert.NotContains(t, direct, "var<storage")

	indirect := b.Declarations(BindingIndirect)
	assert.NotContains(t, indirect, "@location")
	assert.Contains(t, indirect, "@group(0) @binding(1) var<storage, read> lines_attr_xy: array<f32>;")
	assert.Contains(t, indirect, "@group(0) @binding(3) var<storage, read> lines_attr_color: array<f32>;")
	assert.Contains(t, indirect, "e = lines_fetch_index(4u, vertexIndex, instanceIndex);")
	assert.Contains(t, indirect, "a.widthB = lines_attr_width[e];")
	assert.Contains(t, indirect, "a.colorD = vec4f(lines_attr_color[e], lines_attr_color[e + 1u], lines_attr_color[e + 2u], lines_attr_color[e + 3u]);")
}
