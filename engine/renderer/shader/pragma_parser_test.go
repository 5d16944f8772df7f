package shader

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	tests := []struct {
		name string
		body string
		want Directive
	}{
		{
			name: "attribute",
			body: " attribute vec3 xyz",
			want: AttributeDirective{Line: 7, Name: "xyz", Type: TypeVec3},
		},
		{
			name: "attribute wgsl spelling with semicolon",
			body: "attribute f32 lineWidth;",
			want: AttributeDirective{Line: 7, Name: "lineWidth", Type: TypeFloat},
		},
		{
			name: "property",
			body: "position = getPosition(xyz, offset)",
			want: PropertyDirective{Line: 7, Kind: PropertyPosition, Function: "getPosition", Inputs: []string{"xyz", "offset"}},
		},
		{
			name: "property keyword case",
			body: "Width = getWidth(w)",
			want: PropertyDirective{Line: 7, Kind: PropertyWidth, Function: "getWidth", Inputs: []string{"w"}},
		},
		{
			name: "varying",
			body: "varying vec4 color = getColor(rgba)",
			want: VaryingDirective{Line: 7, Name: "color", Type: TypeVec4, Function: "getColor", Inputs: []string{"rgba"}},
		},
		{
			name: "extrapolated varying",
			body: "extrapolate varying float t = getT(d)",
			want: VaryingDirective{Line: 7, Name: "t", Type: TypeFloat, Extrapolate: true, Function: "getT", Inputs: []string{"d"}},
		},
		{
			name: "postproject",
			body: "postproject = toClip",
			want: PostprojectDirective{Line: 7, Function: "toClip"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDirective(7, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, 7, d.SourceLine())
		})
	}
}

func TestParseDirectiveErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	for _, body := range []string{
		"",
		"attribute vec5 xyz",
		"attribute vec3",
		"position getPosition(xyz)",
		"position = getPosition()",
		"position = getPosition(xyz",
		"color = getColor(rgba)",
		"varying vec4 color",
		"extrapolate attribute vec4 color",
		"attribute vec2 a b",
		"postproject = f(x)",
		"attribute vec2 a; extra",
	} {
		t.Run(body, func(t *testing.T) {
			_, err := parseDirective(3, body)
			var syntaxErr *DirectiveSyntaxError
			require.True(t, errors.As(err, &syntaxErr), "expected syntax error for %q, got %v", body, err)
			assert.Equal(t, 3, syntaxErr.Line)
			assert.Contains(t, err.Error(), "line 3:")
		})
	}
}

func TestPreProcessorBlanksDirectives(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	src := "#pragma lines: attribute vec2 xy\n" +
		"fn getPosition(p: vec2f) -> vec4f { return vec4f(p, 0.0, 1.0); }\n" +
		"  #PRAGMA lines: width = getWidth(xy)\n" +
		"#pragma other: untouched\n"

	pp := NewPreProcessor()
	out, err := pp.Process(src)
	require.NoError(t, err)
	assert.Equal(t, "\nfn getPosition(p: vec2f) -> vec4f { return vec4f(p, 0.0, 1.0); }\n\n#pragma other: untouched\n", out)

	decls := pp.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, 1, decls[0].SourceLine())
	assert.Equal(t, 3, decls[1].SourceLine())

	_, err = pp.Process("#pragma lines: nonsense")
	require.Error(t, err)
	assert.Empty(t, pp.Declarations())
}
