package shader

import (
	"fmt"
	"strings"
)

// ValueType is the value type of a declared line attribute or varying.
// Directive text accepts both the short names (float, vec2, vec3, vec4) and the WGSL
// spellings (f32, vec2f, vec3f, vec4f).
type ValueType int

const (
	// TypeFloat is a single f32 component.
	TypeFloat ValueType = iota + 1

	// TypeVec2 is a vec2f.
	TypeVec2

	// TypeVec3 is a vec3f.
	TypeVec3

	// TypeVec4 is a vec4f.
	TypeVec4
)

var valueTypeNames = map[string]ValueType{
	"float": TypeFloat,
	"f32":   TypeFloat,
	"vec2":  TypeVec2,
	"vec2f": TypeVec2,
	"vec3":  TypeVec3,
	"vec3f": TypeVec3,
	"vec4":  TypeVec4,
	"vec4f": TypeVec4,
}

// ParseValueType resolves a directive type name to a ValueType.
//
// Parameters:
//   - name: the type name as written in the directive
//
// Returns:
//   - ValueType: the resolved type
//   - bool: false when the name is not a supported line value type
func ParseValueType(name string) (ValueType, bool) {
	t, ok := valueTypeNames[strings.ToLower(name)]
	return t, ok
}

// Dimension returns the component count of the type (1..4).
func (t ValueType) Dimension() int {
	return int(t)
}

// WGSL returns the WGSL spelling of the type.
func (t ValueType) WGSL() string {
	switch t {
	case TypeFloat:
		return "f32"
	case TypeVec2:
		return "vec2f"
	case TypeVec3:
		return "vec3f"
	case TypeVec4:
		return "vec4f"
	default:
		return fmt.Sprintf("<invalid type %d>", int(t))
	}
}

func (t ValueType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeVec2, TypeVec3, TypeVec4:
		return fmt.Sprintf("vec%d", int(t))
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// PropertyKind names one of the geometric properties a line program must derive from its attributes.
type PropertyKind string

const (
	// PropertyPosition is the clip-space position of a polyline point. Required.
	PropertyPosition PropertyKind = "position"

	// PropertyWidth is the full line width in pixels at a polyline point. Required.
	PropertyWidth PropertyKind = "width"

	// PropertyOrientation selects which end of the polyline a cap instance terminates. Optional.
	PropertyOrientation PropertyKind = "orientation"
)

// validPropertyKinds lists the property kinds accepted by the directive parser, in the order
// the generated program evaluates them.
var validPropertyKinds = []PropertyKind{PropertyPosition, PropertyWidth, PropertyOrientation}

// ReturnType returns the WGSL type the user function bound to this property must return.
func (k PropertyKind) ReturnType() ValueType {
	switch k {
	case PropertyPosition:
		return TypeVec4
	default:
		return TypeFloat
	}
}

// Directive is one parsed `#pragma lines:` statement. The concrete types are
// AttributeDirective, PropertyDirective, VaryingDirective and PostprojectDirective.
type Directive interface {
	// SourceLine returns the 1-based line of the vertex source the directive was read from.
	SourceLine() int

	directive()
}

// AttributeDirective declares a per-point input attribute.
type AttributeDirective struct {
	Line int
	Name string
	Type ValueType
}

// PropertyDirective binds position, width or orientation to a user function of attributes.
type PropertyDirective struct {
	Line     int
	Kind     PropertyKind
	Function string
	Inputs   []string
}

// VaryingDirective declares a value interpolated along the segment and handed to the fragment stage.
type VaryingDirective struct {
	Line        int
	Name        string
	Type        ValueType
	Extrapolate bool
	Function    string
	Inputs      []string
}

// PostprojectDirective names a function applied to the final clip-space position.
type PostprojectDirective struct {
	Line     int
	Function string
}

func (d AttributeDirective) SourceLine() int   { return d.Line }
func (d PropertyDirective) SourceLine() int    { return d.Line }
func (d VaryingDirective) SourceLine() int     { return d.Line }
func (d PostprojectDirective) SourceLine() int { return d.Line }

func (AttributeDirective) directive()   {}
func (PropertyDirective) directive()    {}
func (VaryingDirective) directive()     {}
func (PostprojectDirective) directive() {}
