package lines

import (
	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

type (
	JoinStyle = geometry.JoinStyle
	CapStyle  = geometry.CapStyle
)

const (
	JoinMiter = geometry.JoinMiter
	JoinBevel = geometry.JoinBevel
	JoinRound = geometry.JoinRound

	CapSquare = geometry.CapSquare
	CapRound  = geometry.CapRound
	CapNone   = geometry.CapNone
)

// Endpoint orientation values returned by an orientation property or written to the uniforms
// of split cap draws.
const (
	CapStart = geometry.CapStart
	CapEnd   = geometry.CapEnd
	CapShort = geometry.CapShort
)

// ElementType is the component type of an attribute buffer.
type ElementType int

const (
	Float32 ElementType = iota
	Float16

	// Uint8, Int8, Uint16 and Int16 must be Normalized: line attributes are floating point in WGSL.
	Uint8
	Int8
	Uint16
	Int16
)

// Size returns the byte size of one component.
func (t ElementType) Size() uint64 {
	switch t {
	case Float16, Uint16, Int16:
		return 2
	case Uint8, Int8:
		return 1
	default:
		return 4
	}
}

func (t ElementType) String() string {
	switch t {
	case Float16:
		return "float16"
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	default:
		return "float32"
	}
}

// AttributeBuffer binds a declared attribute to a range of a GPU buffer. Zero fields take their
// defaults: the declared dimension, offset 0, a tightly packed stride, one element per instance
// and Float32 components.
type AttributeBuffer struct {
	Buffer *wgpu.Buffer

	// Dimension asserts the component count of the buffer. It must match the declaration.
	Dimension int

	// Offset is the byte offset of the first point.
	Offset uint64

	// Stride is the byte distance between consecutive points. Interleaved buffers set it to
	// the size of a whole vertex.
	Stride uint64

	// Divisor is the number of instances sharing one element. Values above 1 need indirect binding.
	Divisor int

	Type       ElementType
	Normalized bool
}

// Raw binds a tightly packed Float32 buffer holding one point per element.
func Raw(buf *wgpu.Buffer) AttributeBuffer {
	return AttributeBuffer{Buffer: buf}
}

// LineDrawRecord is one polyline draw request.
type LineDrawRecord struct {
	Join JoinStyle
	Cap  CapStyle

	// JoinResolution is the number of triangles of a round join. Zero means 8.
	JoinResolution int

	// CapResolution is the number of triangles of a round cap. Zero means 12. Square caps always
	// use 3 and no caps use 1.
	CapResolution int

	// MiterLimit is the longest miter, in line widths, drawn before falling back to a bevel.
	// Zero means 4. Bevel joins always use 1.
	MiterLimit float64

	// VertexCount is the number of points in VertexAttributes, including the invalid sentinel
	// points at both ends. The segment pass draws VertexCount-3 instances.
	VertexCount      int
	VertexAttributes map[string]AttributeBuffer

	// EndpointCount is the number of cap windows in EndpointAttributes. Without an orientation
	// property the windows alternate between start and end caps.
	EndpointCount      int
	EndpointAttributes map[string]AttributeBuffer

	// InsertCaps draws caps at invalid points inside the segment pass instead of breaking the line.
	InsertCaps bool

	// Indirect pulls attributes from storage buffers instead of vertex buffers. Draws whose attribute
	// copies exceed the device's vertex buffer slots switch to it automatically.
	Indirect bool

	// ViewportSize overrides the surface size used to convert clip space to pixels.
	ViewportSize [2]int

	// BindGroups are caller bind groups at group 1 and above, bound for both passes.
	BindGroups []bind_group_provider.BindGroupProvider
}

func (r *LineDrawRecord) style() geometry.Style {
	return geometry.Style{
		Join:           r.Join,
		Cap:            r.Cap,
		JoinResolution: r.JoinResolution,
		CapResolution:  r.CapResolution,
		MiterLimit:     r.MiterLimit,
	}
}
