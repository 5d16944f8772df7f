package shader

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicProgram = `
#pragma lines: attribute vec2 xy
#pragma lines: attribute float width
#pragma lines: attribute vec4 color
#pragma lines: attribute float cap
#pragma lines: position = getPosition(xy)
#pragma lines: width = getWidth(width)
#pragma lines: orientation = getOrientation(cap)
#pragma lines: varying vec4 vColor = getColor(color)
fn getPosition(p: vec2f) -> vec4f { return vec4f(p, 0.0, 1.0); }
fn getWidth(w: f32) -> f32 { return w; }
fn getOrientation(o: f32) -> f32 { return o; }
fn getColor(c: vec4f) -> vec4f { return c; }
`

func TestAnalyzeUsage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := Analyze(basicProgram)
	require.NoError(t, err)
	require.Len(t, meta.Attributes, 4)

	usage := func(name string) (Usage, Usage) {
		a, ok := meta.Attribute(name)
		require.True(t, ok, name)
		return a.SegmentUsage, a.EndpointUsage
	}

	seg, end := usage("xy")
	assert.Equal(t, UsageExtended, seg)
	assert.Equal(t, UsageExtended, end)

	seg, end = usage("width")
	assert.Equal(t, UsageRegular, seg)
	assert.Equal(t, UsageRegular, end)

	seg, end = usage("color")
	assert.Equal(t, UsageRegular, seg)
	assert.Equal(t, UsageRegular, end)

	seg, end = usage("cap")
	assert.Equal(t, UsageNone, seg)
	assert.Equal(t, UsagePerInstance, end)

	assert.Len(t, meta.UsedAttributes(PassSegment), 3)
	assert.Len(t, meta.UsedAttributes(PassEndpoint), 4)
	require.NotNil(t, meta.Orientation)
	assert.Equal(t, "getOrientation", meta.Orientation.Function)
	assert.NotContains(t, meta.Source, "#pragma")
}

func TestAnalyzeUnusedAttribute(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	meta, err := AnalyzeDirectives([]Directive{
		PropertyDirective{Line: 1, Kind: PropertyWidth, Function: "w", Inputs: []string{"p"}},
		AttributeDirective{Line: 2, Name: "p", Type: TypeVec2},
		AttributeDirective{Line: 3, Name: "unused", Type: TypeFloat},
		PropertyDirective{Line: 4, Kind: PropertyPosition, Function: "pos", Inputs: []string{"p"}},
	})
	require.NoError(t, err)
	a, _ := meta.Attribute("p")
	assert.Equal(t, UsageRegular|UsageExtended, a.SegmentUsage)
	assert.Equal(t, "regular|extended", a.SegmentUsage.String())
	u, _ := meta.Attribute("unused")
	assert.Equal(t, UsageNone, u.SegmentUsage)
	assert.Len(t, meta.UsedAttributes(PassSegment), 1)
}

func TestAnalyzeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.shader")
	defer teardown()

	attr := AttributeDirective{Line: 1, Name: "p", Type: TypeVec2}
	pos := PropertyDirective{Line: 2, Kind: PropertyPosition, Function: "pos", Inputs: []string{"p"}}
	width := PropertyDirective{Line: 3, Kind: PropertyWidth, Function: "w", Inputs: []string{"p"}}

	t.Run("duplicate property", func(t *testing.T) {
		dup := width
		dup.Line = 9
		_, err := AnalyzeDirectives([]Directive{attr, pos, width, dup})
		var target *DuplicatePropertyError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, PropertyWidth, target.Property)
		assert.Equal(t, 9, target.Line)
		assert.Equal(t, 3, target.FirstLine)
	})
	t.Run("undeclared attribute", func(t *testing.T) {
		v := VaryingDirective{Line: 4, Name: "c", Type: TypeVec4, Function: "f", Inputs: []string{"rgba"}}
		_, err := AnalyzeDirectives([]Directive{attr, pos, width, v})
		var target *UndeclaredAttributeError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "rgba", target.Attribute)
		assert.Equal(t, `line 4: missing attribute "rgba" of varying "c"`, err.Error())
	})
	t.Run("missing width", func(t *testing.T) {
		_, err := AnalyzeDirectives([]Directive{attr, pos})
		var target *MissingPropertyError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, PropertyWidth, target.Property)
	})
	t.Run("missing position", func(t *testing.T) {
		_, err := AnalyzeDirectives([]Directive{attr, width})
		var target *MissingPropertyError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, PropertyPosition, target.Property)
	})
	t.Run("duplicate attribute", func(t *testing.T) {
		_, err := AnalyzeDirectives([]Directive{attr, attr, pos, width})
		var target *DuplicateDeclarationError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "attribute", target.Kind)
	})
	t.Run("reserved varying", func(t *testing.T) {
		v := VaryingDirective{Line: 5, Name: "lineCoord", Type: TypeVec3, Function: "f", Inputs: []string{"p"}}
		_, err := AnalyzeDirectives([]Directive{attr, pos, width, v})
		var target *ReservedNameError
		require.True(t, errors.As(err, &target))
	})
	t.Run("copy name taken by attribute", func(t *testing.T) {
		pA := AttributeDirective{Line: 6, Name: "pA", Type: TypeFloat}
		v := VaryingDirective{Line: 7, Name: "shade", Type: TypeFloat, Function: "f", Inputs: []string{"pA"}}
		_, err := AnalyzeDirectives([]Directive{attr, pA, pos, width, v})
		var target *CopyNameConflictError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "p", target.Attribute)
		assert.Equal(t, RoleA, target.Role)
		assert.Equal(t, "pA", target.CopyName())
		assert.Equal(t, 6, target.Line)
		assert.Equal(t, 1, target.AttributeLine)
		assert.Contains(t, err.Error(), `attribute "pA" collides with the A copy of attribute "p"`)
	})
	t.Run("copy name taken by unused attribute", func(t *testing.T) {
		pC := AttributeDirective{Line: 6, Name: "pC", Type: TypeFloat}
		_, err := AnalyzeDirectives([]Directive{pC, attr, pos, width})
		var target *CopyNameConflictError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, RoleC, target.Role)
	})
	t.Run("regular copies skip role A", func(t *testing.T) {
		wA := AttributeDirective{Line: 6, Name: "wA", Type: TypeFloat}
		w := AttributeDirective{Line: 7, Name: "w", Type: TypeFloat}
		width := PropertyDirective{Line: 8, Kind: PropertyWidth, Function: "w", Inputs: []string{"w"}}
		pos := PropertyDirective{Line: 9, Kind: PropertyPosition, Function: "pos", Inputs: []string{"p"}}
		_, err := AnalyzeDirectives([]Directive{attr, w, wA, pos, width})
		assert.NoError(t, err)
	})
}
