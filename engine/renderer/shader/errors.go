package shader

import "fmt"

// DirectiveSyntaxError reports a `#pragma lines:` line whose body does not match the directive grammar.
type DirectiveSyntaxError struct {
	// Line is the 1-based source line of the directive.
	Line int

	// Text is the directive body after `lines:`.
	Text string

	// Reason describes what the parser expected.
	Reason string
}

func (e *DirectiveSyntaxError) Error() string {
	return fmt.Sprintf("line %d: unrecognized lines pragma %q: %s", e.Line, e.Text, e.Reason)
}

// DuplicatePropertyError reports a second binding for position, width or orientation.
type DuplicatePropertyError struct {
	Property  PropertyKind
	Line      int
	FirstLine int
}

func (e *DuplicatePropertyError) Error() string {
	return fmt.Sprintf("line %d: unexpected duplicate pragma for property %q (first bound on line %d)", e.Line, e.Property, e.FirstLine)
}

// UndeclaredAttributeError reports a property or varying input that names no declared attribute.
type UndeclaredAttributeError struct {
	Attribute string

	// Consumer is the property kind or varying name that referenced the attribute.
	Consumer string
	Line     int
}

func (e *UndeclaredAttributeError) Error() string {
	return fmt.Sprintf("line %d: missing attribute %q of %s", e.Line, e.Attribute, e.Consumer)
}

// DuplicateDeclarationError reports an attribute or varying declared twice under the same name.
type DuplicateDeclarationError struct {
	// Kind is "attribute" or "varying".
	Kind      string
	Name      string
	Line      int
	FirstLine int
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("line %d: duplicate %s %q (first declared on line %d)", e.Line, e.Kind, e.Name, e.FirstLine)
}

// MissingPropertyError reports a required property (position or width) that was never bound.
type MissingPropertyError struct {
	Property PropertyKind
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("missing required pragma for property %q", e.Property)
}

// ReservedNameError reports a varying whose name collides with a LineVertexOutput field owned by the line program.
type ReservedNameError struct {
	Name string
	Line int
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("line %d: varying name %q is reserved", e.Line, e.Name)
}

// CopyNameConflictError reports a declared attribute whose name equals a window copy of another
// attribute, such as `pA` next to an extended `p`.
type CopyNameConflictError struct {
	Attribute string
	Role      Role
	Pass      Pass

	// Line is the declaration of the attribute that owns the copy name.
	Line int

	// AttributeLine is the declaration of Attribute.
	AttributeLine int
}

// CopyName is the generated name both attributes would use.
func (e *CopyNameConflictError) CopyName() string {
	return e.Attribute + string(e.Role)
}

func (e *CopyNameConflictError) Error() string {
	return fmt.Sprintf("line %d: attribute %q collides with the %s copy of attribute %q (declared on line %d) in the %s pass; rename one of them",
		e.Line, e.CopyName(), e.Role, e.Attribute, e.AttributeLine, e.Pass)
}
