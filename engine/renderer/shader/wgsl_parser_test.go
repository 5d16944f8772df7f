package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTypeLayout(t *testing.T) {
	structs := structLayouts(parseStructBlocks(`
struct Inner { a: vec3f, b: f32 }
struct Outer { x: f32, inner: Inner, tail: array<vec2<f32>, 3> }
`))
	tests := []struct {
		typ  string
		want typeLayout
	}{
		{"f32", typeLayout{4, 4}},
		{"vec3f", typeLayout{12, 16}},
		{"vec3<f32>", typeLayout{12, 16}},
		{"vec2h", typeLayout{4, 4}},
		{"mat4x4f", typeLayout{64, 16}},
		{"mat3x3<f32>", typeLayout{48, 16}},
		{"mat2x2f", typeLayout{16, 8}},
		{"array<vec4u,3>", typeLayout{48, 16}},
		{"array<f32>", typeLayout{4, 4}},
		{"Inner", typeLayout{16, 16}},
		{"Outer", typeLayout{64, 16}},
	}
	for _, tt := range tests {
		got, ok := resolveTypeLayout(tt.typ, structs)
		assert.True(t, ok, tt.typ)
		assert.Equal(t, tt.want, got, tt.typ)
	}
	_, ok := resolveTypeLayout("texture_2d<f32>", structs)
	assert.False(t, ok)
}

func TestStripComments(t *testing.T) {
	src := "a /* x /* nested */ y */ b // tail\nc"
	assert.Equal(t, "a  b \nc", stripComments(src))
}

func TestParseResourceDecls(t *testing.T) {
	decls := parseResourceDecls(`
// @group(9) @binding(9) var<uniform> commented: f32;
@group(1) @binding(2) var<storage, read_write> data: array<f32>;
@group(1) @binding(0) var tex: texture_2d<f32>;
`)
	assert.Equal(t, []resourceDecl{
		{group: 1, binding: 2, space: "storage,read_write", name: "data", typeName: "array<f32>"},
		{group: 1, binding: 0, name: "tex", typeName: "texture_2d<f32>"},
	}, decls)
}
