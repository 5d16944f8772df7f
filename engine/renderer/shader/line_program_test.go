package shader

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFragment = `
@fragment
fn main(in: LineVertexOutput) -> @location(0) vec4f {
  return in.vColor;
}
`

func TestAssembleProgramSegmentDirect(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)

	p := AssembleProgram(meta, testFragment, ProgramOptions{Pass: PassSegment, InsertCaps: true})
	src := p.VertexSource

	assert.True(t, strings.HasPrefix(src, meta.Source))
	assert.Contains(t, src, "fn lines_vertex(@builtin(vertex_index) vertexIndex: u32, @builtin(instance_index) instanceIndex: u32, attrs: LineAttributes) -> LineVertexOutput {")
	assert.Contains(t, src, "var pA = getPosition(attrs.xyA);")
	assert.Contains(t, src, "let lineWidth = select(getWidth(attrs.widthB), getWidth(attrs.widthC), mirror);")
	assert.Contains(t, src, "pA = pC;\n    isCap = true;")
	assert.Contains(t, src, "out.vColor = getColor(")
	assert.NotContains(t, src, "lines.orientation")
	assert.NotContains(t, src, "attributes: array<vec4u")
	assert.Equal(t, uint64(UniformHeaderSize), p.UniformSize())

	assert.True(t, strings.HasPrefix(p.FragmentSource, "struct LineVertexOutput {"))
	assert.Contains(t, p.FragmentSource, "@location(1) vColor: vec4f,")
	assert.Contains(t, p.FragmentSource, testFragment)
}

func TestAssembleProgramEndpointIndirect(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)

	p := AssembleProgram(meta, testFragment, ProgramOptions{Pass: PassEndpoint, Mode: BindingIndirect, Debug: true})
	src := p.VertexSource

	assert.Contains(t, src, "let attrs = lines_fetch_attributes(vertexIndex, instanceIndex);")
	assert.Contains(t, src, "attributes: array<vec4u, 10>,")
	assert.Contains(t, src, "let orientation = getOrientation(attrs.cap);")
	assert.Contains(t, src, "if (dInvalid && mirror) {")
	assert.Contains(t, src, "pA = 2.0 * pB - pC;")
	assert.Contains(t, src, "out.instanceID = -1.0;")
	assert.Equal(t, uint64(UniformHeaderSize+10*UniformAttributeEntrySize), p.UniformSize())
	assert.Contains(t, p.FragmentSource, "@location(2) instanceID: f32,")
	assert.Contains(t, p.FragmentSource, "@location(3) triStripCoord: vec2f,")
}

func TestAssembleProgramWithoutOrientation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	src := `
#pragma lines: attribute vec4 p
#pragma lines: position = id(p)
#pragma lines: width = w(p)
#pragma lines: postproject = toClip
`
	meta, err := Analyze(src)
	require.NoError(t, err)
	p := AssembleProgram(meta, testFragment, ProgramOptions{Pass: PassEndpoint})
	assert.Contains(t, p.VertexSource, "let orientation = lines.orientation % 2.0;")
	assert.Contains(t, p.VertexSource, "out.position = toClip(pos);")
}

func TestReflectAssembledProgram(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram + "\n@group(1) @binding(0) var<uniform> view: mat4x4f;\n")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, DeclaredGroups(meta.Source))

	direct := AssembleProgram(meta, testFragment, ProgramOptions{Pass: PassSegment})
	vs := NewShader("lines-segment", ShaderTypeVertex, direct.VertexSource)
	assert.Equal(t, VertexEntryPoint, vs.EntryPoint())
	assert.Equal(t, []int{0, 1}, vs.Groups())

	uniform := vs.BindGroupLayoutDescriptors()[0].Entries[0]
	assert.Equal(t, wgpu.BufferBindingTypeUniform, uniform.Buffer.Type)
	assert.True(t, uniform.Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(UniformHeaderSize), uniform.Buffer.MinBindingSize)
	assert.Equal(t, uint64(64), vs.BindGroupLayoutDescriptors()[1].Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, "view", vs.BindGroupVarName(1, 0))

	indirect := AssembleProgram(meta, testFragment, ProgramOptions{Pass: PassSegment, Mode: BindingIndirect})
	vs = NewShader("lines-segment-indirect", ShaderTypeVertex, indirect.VertexSource)
	entries := vs.BindGroupLayoutDescriptors()[0].Entries
	require.Len(t, entries, 4)
	assert.Equal(t, indirect.UniformSize(), entries[0].Buffer.MinBindingSize)
	for _, e := range entries[1:] {
		assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)
		assert.Equal(t, uint64(4), e.Buffer.MinBindingSize)
	}

	fs := NewShader("lines-fragment", ShaderTypeFragment, direct.FragmentSource)
	assert.Equal(t, "main", fs.EntryPoint())
	assert.Empty(t, fs.Groups())
}

func TestAssembledProgramsCompile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)

	for _, pass := range []Pass{PassSegment, PassEndpoint} {
		for _, insertCaps := range []bool{false, true} {
			for _, mode := range []BindingMode{BindingDirect, BindingIndirect} {
				for _, debug := range []bool{false, true} {
					opts := ProgramOptions{Pass: pass, InsertCaps: insertCaps, Mode: mode, Debug: debug}
					name := fmt.Sprintf("%s/%s/caps=%v/debug=%v", pass, mode, insertCaps, debug)
					t.Run(name, func(t *testing.T) {
						p := AssembleProgram(meta, testFragment, opts)
						assert.Contains(t, p.VertexSource, "lines_join_index(index, lines.vertCnt2, res, mirror, dirB < 0.0)")
						assert.NoError(t, Validate(name+"/vertex", p.VertexSource))
						assert.NoError(t, Validate(name+"/fragment", p.FragmentSource))
					})
				}
			}
		}
	}
}

func TestNewShaderPanicsOnEmptySource(t *testing.T) {
	assert.Panics(t, func() { NewShader("empty", ShaderTypeVertex, "") })
}
