package lines

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

// MissingShaderError reports a Lines constructed without vertex or fragment source.
type MissingShaderError struct {
	Stage shader.ShaderType
}

func (e *MissingShaderError) Error() string {
	return fmt.Sprintf("lines: missing %s shader source", e.Stage)
}

// ReservedGroupError reports caller WGSL that declares a resource in the line system's bind group.
type ReservedGroupError struct {
	Stage shader.ShaderType
}

func (e *ReservedGroupError) Error() string {
	return fmt.Sprintf("lines: %s shader declares resources in @group(%d), which is reserved for line uniforms", e.Stage, shader.LineBindGroup)
}

// ConfigurationError reports a forwarded pipeline option that sets state the line system owns.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("lines: pipeline option %s may not be forwarded: %s", e.Field, e.Reason)
}

// BindingErrorKind classifies a draw-time attribute binding failure.
type BindingErrorKind int

const (
	// MissingBuffer means a used attribute has no buffer in the record.
	MissingBuffer BindingErrorKind = iota

	// DimensionMismatch means the buffer asserts a dimension other than the declared one.
	DimensionMismatch

	// InvalidLayout means the offset, stride or divisor cannot be expressed by the binding mode.
	InvalidLayout

	// UnsupportedType means the element type cannot feed the declared attribute in the binding mode.
	UnsupportedType
)

func (k BindingErrorKind) String() string {
	switch k {
	case MissingBuffer:
		return "missing buffer"
	case DimensionMismatch:
		return "dimension mismatch"
	case InvalidLayout:
		return "invalid layout"
	case UnsupportedType:
		return "unsupported type"
	default:
		return fmt.Sprintf("BindingErrorKind(%d)", int(k))
	}
}

// BindingError reports an attribute buffer of a draw record that cannot be bound.
type BindingError struct {
	// Record is the index of the record in the Draw call.
	Record    int
	Pass      shader.Pass
	Attribute string
	Kind      BindingErrorKind
	Detail    string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("lines: record %d: %s attribute %q: %s: %s", e.Record, e.Pass, e.Attribute, e.Kind, e.Detail)
}

// RecordError reports an invalid style or count in a draw record.
type RecordError struct {
	Record int
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("lines: record %d: invalid %s: %s", e.Record, e.Field, e.Reason)
}
