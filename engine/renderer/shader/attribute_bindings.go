package shader

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the position of a fetched attribute copy inside the point window of an instance.
// Segment instances see A, B, C, D; endpoint instances see B, C, D. Per-instance copies have no role.
type Role string

const (
	RoleNone Role = ""
	RoleA    Role = "A"
	RoleB    Role = "B"
	RoleC    Role = "C"
	RoleD    Role = "D"
)

// windowRoles lists the window roles of each pass in point order.
var windowRoles = map[Pass][]Role{
	PassSegment:  {RoleA, RoleB, RoleC, RoleD},
	PassEndpoint: {RoleB, RoleC, RoleD},
}

// BindingMode selects how attribute copies reach the vertex stage.
type BindingMode int

const (
	// BindingDirect binds every copy as its own instance-stepped vertex buffer slot.
	BindingDirect BindingMode = iota

	// BindingIndirect pulls copies from read-only storage buffers indexed by instance_index.
	BindingIndirect
)

func (m BindingMode) String() string {
	if m == BindingIndirect {
		return "indirect"
	}
	return "direct"
}

// copyRoles returns the window roles fetched for an attribute with the given usage on a pass.
// A is only fetched for EXTENDED usage on the segment pass.
func copyRoles(pass Pass, usage Usage) []Role {
	if usage&(UsageRegular|UsageExtended) == 0 {
		return nil
	}
	roles := windowRoles[pass]
	if roles[0] == RoleA && usage&UsageExtended == 0 {
		roles = roles[1:]
	}
	return roles
}

// attributesStructName is the WGSL struct holding every fetched copy of a pass.
const attributesStructName = "LineAttributes"

// attributesVar is the name under which the generated entry point exposes the LineAttributes value.
const attributesVar = "attrs"

// AttributeCopy is one physically fetched copy of an attribute.
type AttributeCopy struct {
	Attribute *AttributeMeta
	Role      Role

	// WindowIndex is the point offset of this copy from the first point of the instance window.
	WindowIndex int

	// PerInstance is set for the unsuffixed copy fetched once per instance.
	PerInstance bool

	// Slot is the copy's position among all copies of the pass. It is the vertex buffer slot
	// and shader location in direct mode and the attribute table index in indirect mode.
	Slot int
}

// Name returns the WGSL field name of the copy: the attribute name followed by its role.
func (c AttributeCopy) Name() string {
	return c.Attribute.Name + string(c.Role)
}

// PropertyBinding is a bound property together with the renderer of its user-function call.
type PropertyBinding struct {
	PropertyDirective

	// Generate renders the call for the given window role, prefixing every input name.
	Generate func(role Role, prefix string) string
}

// VaryingBinding is a declared varying together with the renderer of its interpolation statement.
type VaryingBinding struct {
	VaryingDirective

	// Generate renders `out.<name> = fn(mix(from, to, fraction), ...);`. The fraction is clamped
	// to [0, 1] unless the varying extrapolates.
	Generate func(fraction string, from, to Role) string
}

// BindingSet is the generated attribute binding of one pass of a line program.
type BindingSet struct {
	Pass       Pass
	Copies     []AttributeCopy
	Properties map[PropertyKind]PropertyBinding
	Varyings   []VaryingBinding

	// storageAttributes lists the attributes bound as storage buffers in indirect mode, in binding order.
	storageAttributes []*AttributeMeta
}

// GenerateBindings derives the attribute copies and call renderers of a pass from the analyzed program.
// Copies are emitted per attribute in declaration order: the per-instance copy first, then one copy per
// window role (A and D are only emitted for EXTENDED usage on the segment pass; REGULAR usage takes B, C, D).
//
// Parameters:
//   - meta: the analyzed program
//   - pass: the pass to generate for
//
// Returns:
//   - *BindingSet: the copies, property and varying renderers for the pass
func GenerateBindings(meta *ProgramMeta, pass Pass) *BindingSet {
	set := &BindingSet{
		Pass:       pass,
		Properties: make(map[PropertyKind]PropertyBinding),
	}

	for _, a := range meta.UsedAttributes(pass) {
		usage := a.Usage(pass)
		set.storageAttributes = append(set.storageAttributes, a)
		if usage&UsagePerInstance != 0 {
			set.Copies = append(set.Copies, AttributeCopy{Attribute: a, PerInstance: true, Slot: len(set.Copies)})
		}
		for _, role := range copyRoles(pass, usage) {
			set.Copies = append(set.Copies, AttributeCopy{
				Attribute: a, Role: role, WindowIndex: slices.Index(windowRoles[pass], role), Slot: len(set.Copies),
			})
		}
	}

	bind := func(d PropertyDirective) {
		set.Properties[d.Kind] = PropertyBinding{PropertyDirective: d, Generate: callRenderer(d.Function, d.Inputs)}
	}
	bind(meta.Position)
	bind(meta.Width)
	if meta.Orientation != nil && pass == PassEndpoint {
		bind(*meta.Orientation)
	}

	for _, v := range meta.Varyings {
		set.Varyings = append(set.Varyings, VaryingBinding{VaryingDirective: v, Generate: varyingRenderer(v)})
	}
	return set
}

// callRenderer returns a closure rendering `fn(prefix+in+role, ...)`.
func callRenderer(fn string, inputs []string) func(role Role, prefix string) string {
	return func(role Role, prefix string) string {
		args := make([]string, len(inputs))
		for i, in := range inputs {
			args[i] = prefix + in + string(role)
		}
		return fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", "))
	}
}

func varyingRenderer(v VaryingDirective) func(fraction string, from, to Role) string {
	return func(fraction string, from, to Role) string {
		t := fraction
		if !v.Extrapolate {
			t = fmt.Sprintf("clamp(%s, 0.0, 1.0)", fraction)
		}
		args := make([]string, len(v.Inputs))
		for i, in := range v.Inputs {
			args[i] = fmt.Sprintf("mix(%s.%s%s, %s.%s%s, %s)", attributesVar, in, from, attributesVar, in, to, t)
		}
		return fmt.Sprintf("out.%s = %s(%s);", v.Name, v.Function, strings.Join(args, ", "))
	}
}

// Copy returns the copy of the named attribute at the given role.
func (b *BindingSet) Copy(name string, role Role) (AttributeCopy, bool) {
	for _, c := range b.Copies {
		if c.Attribute.Name == name && c.Role == role {
			return c, true
		}
	}
	return AttributeCopy{}, false
}

// StorageAttributes returns the attributes bound as storage buffers in indirect mode. The k-th
// attribute is declared at @group(0) @binding(k+1).
func (b *BindingSet) StorageAttributes() []*AttributeMeta {
	return b.storageAttributes
}

// StorageBinding returns the group 0 binding index of an attribute's storage buffer in indirect mode.
func (b *BindingSet) StorageBinding(name string) (int, bool) {
	for k, a := range b.storageAttributes {
		if a.Name == name {
			return k + 1, true
		}
	}
	return -1, false
}

// Declarations renders the WGSL that brings every copy into the LineAttributes struct. Direct mode
// declares an entry-point input struct with one @location per copy. Indirect mode declares a plain
// struct, one storage buffer per attribute and a fetch function that fills the struct from the
// attribute table in the line uniforms.
//
// Parameters:
//   - mode: the binding mode of the variant
//
// Returns:
//   - string: WGSL declarations
func (b *BindingSet) Declarations(mode BindingMode) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "struct %s {\n", attributesStructName)
	for _, c := range b.Copies {
		if mode == BindingDirect {
			fmt.Fprintf(&sb, "  @location(%d) %s: %s,\n", c.Slot, c.Name(), c.Attribute.Type.WGSL())
		} else {
			fmt.Fprintf(&sb, "  %s: %s,\n", c.Name(), c.Attribute.Type.WGSL())
		}
	}
	sb.WriteString("}\n")

	if mode == BindingDirect {
		return sb.String()
	}

	sb.WriteByte('\n')
	for k, a := range b.storageAttributes {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var<storage, read> %s: array<f32>;\n", k+1, storageVarName(a))
	}

	sb.WriteString(`
fn lines_fetch_index(slot: u32, vertexIndex: u32, instanceIndex: u32) -> u32 {
  let entry = lines.attributes[slot];
  let stepIndex = select(instanceIndex / max(entry.z, 1u), vertexIndex, entry.z == 0u);
  return entry.x + entry.y * stepIndex;
}

`)
	fmt.Fprintf(&sb, "fn lines_fetch_attributes(vertexIndex: u32, instanceIndex: u32) -> %s {\n", attributesStructName)
	fmt.Fprintf(&sb, "  var a: %s;\n", attributesStructName)
	sb.WriteString("  var e: u32;\n")
	for _, c := range b.Copies {
		fmt.Fprintf(&sb, "  e = lines_fetch_index(%du, vertexIndex, instanceIndex);\n", c.Slot)
		fmt.Fprintf(&sb, "  a.%s = %s;\n", c.Name(), storageLoad(storageVarName(c.Attribute), c.Attribute.Type))
	}
	sb.WriteString("  return a;\n}\n")
	return sb.String()
}

func storageVarName(a *AttributeMeta) string {
	return "lines_attr_" + a.Name
}

// storageLoad renders the read of one value of type t starting at element e of a f32 array.
func storageLoad(buffer string, t ValueType) string {
	if t == TypeFloat {
		return fmt.Sprintf("%s[e]", buffer)
	}
	parts := make([]string, t.Dimension())
	for i := range parts {
		if i == 0 {
			parts[i] = fmt.Sprintf("%s[e]", buffer)
		} else {
			parts[i] = fmt.Sprintf("%s[e + %du]", buffer, i)
		}
	}
	return fmt.Sprintf("%s(%s)", t.WGSL(), strings.Join(parts, ", "))
}
