package shader

import (
	"fmt"
	"slices"
)

// Usage is a bitmask describing how many copies of an attribute a pass must fetch.
type Usage uint8

const (
	// UsageNone marks an attribute the pass never reads.
	UsageNone Usage = 0

	// UsageRegular needs the three-point window B, C, D (width and varyings).
	UsageRegular Usage = 1 << (iota - 1)

	// UsageExtended needs the full four-point window A, B, C, D (position).
	UsageExtended

	// UsagePerInstance is fetched once per instance without a window role (cap orientation).
	UsagePerInstance
)

func (u Usage) String() string {
	if u == UsageNone {
		return "none"
	}
	s := ""
	for _, f := range []struct {
		bit  Usage
		name string
	}{{UsageRegular, "regular"}, {UsageExtended, "extended"}, {UsagePerInstance, "per-instance"}} {
		if u&f.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += f.name
		}
	}
	return s
}

// Pass distinguishes the two draw passes of a line program.
type Pass int

const (
	// PassSegment draws segment bodies and interior joins over a sliding four-point window.
	PassSegment Pass = iota

	// PassEndpoint draws dedicated cap instances over a three-point window.
	PassEndpoint
)

func (p Pass) String() string {
	if p == PassEndpoint {
		return "endpoint"
	}
	return "vertex"
}

// AttributeMeta is one declared attribute with its per-pass usage.
type AttributeMeta struct {
	Name  string
	Type  ValueType
	Line  int
	Index int

	SegmentUsage  Usage
	EndpointUsage Usage
}

// Dimension returns the component count declared for the attribute.
func (a *AttributeMeta) Dimension() int {
	return a.Type.Dimension()
}

// Usage returns the usage mask of the attribute for the given pass.
func (a *AttributeMeta) Usage(pass Pass) Usage {
	if pass == PassEndpoint {
		return a.EndpointUsage
	}
	return a.SegmentUsage
}

// ProgramMeta is the analyzed form of a caller line program: the stripped WGSL source,
// the attribute table and the bound properties and varyings. It is read-only after Analyze.
type ProgramMeta struct {
	// Source is the caller vertex source with directive lines blanked.
	Source string

	// Attributes lists the declared attributes in declaration order.
	Attributes []*AttributeMeta

	Position    PropertyDirective
	Width       PropertyDirective
	Orientation *PropertyDirective
	Postproject *PostprojectDirective
	Varyings    []VaryingDirective

	attributeIndex map[string]*AttributeMeta
}

// Attribute looks up a declared attribute by name.
func (m *ProgramMeta) Attribute(name string) (*AttributeMeta, bool) {
	a, ok := m.attributeIndex[name]
	return a, ok
}

// UsedAttributes returns the attributes with a non-empty usage mask for the pass, in declaration order.
func (m *ProgramMeta) UsedAttributes(pass Pass) []*AttributeMeta {
	var used []*AttributeMeta
	for _, a := range m.Attributes {
		if a.Usage(pass) != UsageNone {
			used = append(used, a)
		}
	}
	return used
}

// Analyze pre-processes caller vertex source and analyzes its directives.
//
// Parameters:
//   - source: caller WGSL vertex source containing `#pragma lines:` directives
//
// Returns:
//   - *ProgramMeta: the analyzed program
//   - error: a directive syntax error or one of the semantic errors of AnalyzeDirectives
func Analyze(source string) (*ProgramMeta, error) {
	pp := NewPreProcessor()
	stripped, err := pp.Process(source)
	if err != nil {
		return nil, err
	}
	meta, err := AnalyzeDirectives(pp.Declarations())
	if err != nil {
		return nil, err
	}
	meta.Source = stripped
	return meta, nil
}

// AnalyzeDirectives builds the attribute table from parsed directives, validates that every
// property and varying input names a declared attribute, and computes the usage masks.
// Directive order does not matter.
//
// Parameters:
//   - directives: the parsed directives
//
// Returns:
//   - *ProgramMeta: the analyzed program without source text
//   - error: *DuplicatePropertyError, *UndeclaredAttributeError, *DuplicateDeclarationError, *ReservedNameError,
//     *MissingPropertyError or *CopyNameConflictError
func AnalyzeDirectives(directives []Directive) (*ProgramMeta, error) {
	meta := &ProgramMeta{attributeIndex: make(map[string]*AttributeMeta)}

	for _, d := range directives {
		attr, ok := d.(AttributeDirective)
		if !ok {
			continue
		}
		if prev, exists := meta.attributeIndex[attr.Name]; exists {
			return nil, &DuplicateDeclarationError{Kind: "attribute", Name: attr.Name, Line: attr.Line, FirstLine: prev.Line}
		}
		a := &AttributeMeta{Name: attr.Name, Type: attr.Type, Line: attr.Line, Index: len(meta.Attributes)}
		meta.Attributes = append(meta.Attributes, a)
		meta.attributeIndex[attr.Name] = a
	}

	properties := make(map[PropertyKind]PropertyDirective)
	varyingLines := make(map[string]int)
	for _, d := range directives {
		switch d := d.(type) {
		case PropertyDirective:
			if prev, exists := properties[d.Kind]; exists {
				return nil, &DuplicatePropertyError{Property: d.Kind, Line: d.Line, FirstLine: prev.Line}
			}
			properties[d.Kind] = d
			if err := meta.markInputs(d.Inputs, fmt.Sprintf("property %q", d.Kind), d.Line, propertyUsage(d.Kind)); err != nil {
				return nil, err
			}
		case VaryingDirective:
			if first, exists := varyingLines[d.Name]; exists {
				return nil, &DuplicateDeclarationError{Kind: "varying", Name: d.Name, Line: d.Line, FirstLine: first}
			}
			if slices.Contains(reservedVaryingNames, d.Name) {
				return nil, &ReservedNameError{Name: d.Name, Line: d.Line}
			}
			varyingLines[d.Name] = d.Line
			if err := meta.markInputs(d.Inputs, fmt.Sprintf("varying %q", d.Name), d.Line, [2]Usage{UsageRegular, UsageRegular}); err != nil {
				return nil, err
			}
			meta.Varyings = append(meta.Varyings, d)
		case PostprojectDirective:
			if meta.Postproject != nil {
				return nil, &DuplicateDeclarationError{Kind: "postproject", Name: d.Function, Line: d.Line, FirstLine: meta.Postproject.Line}
			}
			pp := d
			meta.Postproject = &pp
		}
	}

	var ok bool
	if meta.Position, ok = properties[PropertyPosition]; !ok {
		return nil, &MissingPropertyError{Property: PropertyPosition}
	}
	if meta.Width, ok = properties[PropertyWidth]; !ok {
		return nil, &MissingPropertyError{Property: PropertyWidth}
	}
	if o, exists := properties[PropertyOrientation]; exists {
		meta.Orientation = &o
	}
	if err := meta.checkCopyNames(); err != nil {
		return nil, err
	}
	return meta, nil
}

// checkCopyNames rejects attributes whose role-suffixed copies would take the name of another
// declared attribute. Copy names are unique otherwise, since a suffixed name always ends in its role.
func (m *ProgramMeta) checkCopyNames() error {
	for _, pass := range []Pass{PassSegment, PassEndpoint} {
		for _, a := range m.UsedAttributes(pass) {
			for _, role := range copyRoles(pass, a.Usage(pass)) {
				name := a.Name + string(role)
				if other, exists := m.attributeIndex[name]; exists {
					return &CopyNameConflictError{
						Attribute: a.Name, Role: role, Pass: pass, Line: other.Line, AttributeLine: a.Line,
					}
				}
			}
		}
	}
	return nil
}

// propertyUsage returns the {segment, endpoint} usage bits contributed by an input of a property.
func propertyUsage(kind PropertyKind) [2]Usage {
	switch kind {
	case PropertyPosition:
		return [2]Usage{UsageExtended, UsageExtended}
	case PropertyOrientation:
		return [2]Usage{UsageNone, UsagePerInstance}
	default:
		return [2]Usage{UsageRegular, UsageRegular}
	}
}

func (m *ProgramMeta) markInputs(inputs []string, consumer string, line int, usage [2]Usage) error {
	for _, name := range inputs {
		a, ok := m.attributeIndex[name]
		if !ok {
			return &UndeclaredAttributeError{Attribute: name, Consumer: consumer, Line: line}
		}
		a.SegmentUsage |= usage[0]
		a.EndpointUsage |= usage[1]
	}
	return nil
}
