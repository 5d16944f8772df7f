package lines

import (
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ResolvedDraw is one planned instanced draw: a pass of a record with its sanitized buffers.
type ResolvedDraw struct {
	Record     int
	Pass       shader.Pass
	Mode       shader.BindingMode
	InsertCaps bool

	// Attributes holds the sanitized buffer of every attribute the pass uses.
	Attributes map[string]AttributeBuffer

	// Split is set for endpoint draws of a program without an orientation property. Cap windows
	// then alternate between start and end caps and each half is drawn separately.
	Split bool

	// Orientation is CapStart or CapEnd for split endpoint draws.
	Orientation int

	Instances int
}

// BindingValue is either a constant or a function of the draw it is evaluated for.
type BindingValue[T any] struct {
	value T
	fn    func(*ResolvedDraw) T
}

// Constant returns a BindingValue that evaluates to v for every draw.
func Constant[T any](v T) BindingValue[T] {
	return BindingValue[T]{value: v}
}

// FromDraw returns a BindingValue computed from the draw.
func FromDraw[T any](fn func(*ResolvedDraw) T) BindingValue[T] {
	return BindingValue[T]{fn: fn}
}

// IsConstant reports whether the value is independent of the draw.
func (v BindingValue[T]) IsConstant() bool {
	return v.fn == nil
}

// Evaluate returns the value for a draw.
func (v BindingValue[T]) Evaluate(d *ResolvedDraw) T {
	if v.fn == nil {
		return v.value
	}
	return v.fn(d)
}

// BindingDescriptor describes how one attribute copy of a variant is fed. It is built once per
// variant and evaluated against every draw of that variant.
type BindingDescriptor struct {
	Copy shader.AttributeCopy

	Buffer BindingValue[*wgpu.Buffer]

	// Offset is the byte offset of the copy's first element for instance 0.
	Offset BindingValue[uint64]

	// Stride is the byte distance between the elements read by consecutive instances.
	Stride BindingValue[uint64]

	Divisor     BindingValue[uint32]
	ElementType BindingValue[ElementType]
	Normalized  BindingValue[bool]
}

// EvaluatedBinding is a BindingDescriptor evaluated for one draw.
type EvaluatedBinding struct {
	Copy        shader.AttributeCopy
	Buffer      *wgpu.Buffer
	Offset      uint64
	Stride      uint64
	Divisor     uint32
	ElementType ElementType
	Normalized  bool
}

// Evaluate resolves every field of the descriptor for a draw.
func (b BindingDescriptor) Evaluate(d *ResolvedDraw) EvaluatedBinding {
	return EvaluatedBinding{
		Copy:        b.Copy,
		Buffer:      b.Buffer.Evaluate(d),
		Offset:      b.Offset.Evaluate(d),
		Stride:      b.Stride.Evaluate(d),
		Divisor:     b.Divisor.Evaluate(d),
		ElementType: b.ElementType.Evaluate(d),
		Normalized:  b.Normalized.Evaluate(d),
	}
}

// describeBindings builds the descriptor of every copy of a variant.
//
// Segment instance i reads point i+WindowIndex, so each window copy starts WindowIndex elements
// into the buffer and advances one element per instance. Endpoint instances own three points
// (B, C, D) each; without an orientation property start and end windows interleave, so the end
// half starts three elements in and both halves advance six elements per instance.
//
// Parameters:
//   - set: the variant's binding set
//   - mode: the variant's binding mode
//
// Returns:
//   - []BindingDescriptor: one descriptor per copy, in slot order
func describeBindings(set *shader.BindingSet, mode shader.BindingMode) []BindingDescriptor {
	out := make([]BindingDescriptor, 0, len(set.Copies))
	for _, c := range set.Copies {
		name := c.Attribute.Name
		window := uint64(c.WindowIndex)
		instanceStride := uint64(1)
		if set.Pass == shader.PassEndpoint && !c.PerInstance {
			instanceStride = 3
		}

		desc := BindingDescriptor{
			Copy: c,
			Buffer: FromDraw(func(d *ResolvedDraw) *wgpu.Buffer {
				return d.Attributes[name].Buffer
			}),
			Offset: FromDraw(func(d *ResolvedDraw) uint64 {
				a := d.Attributes[name]
				shift := window
				if d.Split && d.Orientation == CapEnd {
					shift += 3
				}
				return a.Offset + a.Stride*shift
			}),
			Stride: FromDraw(func(d *ResolvedDraw) uint64 {
				s := d.Attributes[name].Stride * instanceStride
				if d.Split {
					s *= 2
				}
				return s
			}),
		}

		if mode == shader.BindingIndirect {
			desc.Divisor = FromDraw(func(d *ResolvedDraw) uint32 {
				return uint32(d.Attributes[name].Divisor)
			})
			desc.ElementType = Constant(Float32)
			desc.Normalized = Constant(false)
		} else {
			desc.Divisor = Constant(uint32(1))
			desc.ElementType = FromDraw(func(d *ResolvedDraw) ElementType {
				return d.Attributes[name].Type
			})
			desc.Normalized = FromDraw(func(d *ResolvedDraw) bool {
				return d.Attributes[name].Normalized
			})
		}
		out = append(out, desc)
	}
	return out
}

// vertexFormat maps a buffer's component type and count to a vertex format. Formats may carry
// more components than the declaration; the vertex stage drops the extras.
func vertexFormat(t ElementType, dim int, normalized bool) (wgpu.VertexFormat, bool) {
	switch t {
	case Float32:
		switch dim {
		case 1:
			return wgpu.VertexFormatFloat32, true
		case 2:
			return wgpu.VertexFormatFloat32x2, true
		case 3:
			return wgpu.VertexFormatFloat32x3, true
		case 4:
			return wgpu.VertexFormatFloat32x4, true
		}
	case Float16:
		switch dim {
		case 2:
			return wgpu.VertexFormatFloat16x2, true
		case 4:
			return wgpu.VertexFormatFloat16x4, true
		}
	}
	if !normalized {
		return wgpu.VertexFormatUndefined, false
	}

	pair := map[ElementType][2]wgpu.VertexFormat{
		Uint8:  {wgpu.VertexFormatUnorm8x2, wgpu.VertexFormatUnorm8x4},
		Int8:   {wgpu.VertexFormatSnorm8x2, wgpu.VertexFormatSnorm8x4},
		Uint16: {wgpu.VertexFormatUnorm16x2, wgpu.VertexFormatUnorm16x4},
		Int16:  {wgpu.VertexFormatSnorm16x2, wgpu.VertexFormatSnorm16x4},
	}
	formats, ok := pair[t]
	if !ok {
		return wgpu.VertexFormatUndefined, false
	}
	switch dim {
	case 2:
		return formats[0], true
	case 4:
		return formats[1], true
	}
	return wgpu.VertexFormatUndefined, false
}

// directBindings turns the evaluated copies of a direct-mode draw into vertex buffer layouts and
// buffer ranges. Every copy gets its own instance-stepped slot whose single attribute sits at
// offset 0; the copy's byte offset is applied when the buffer is bound.
func directBindings(evaluated []EvaluatedBinding) ([]wgpu.VertexBufferLayout, []renderer.BufferBinding) {
	layouts := make([]wgpu.VertexBufferLayout, len(evaluated))
	buffers := make([]renderer.BufferBinding, len(evaluated))
	for i, e := range evaluated {
		format, _ := vertexFormat(e.ElementType, e.Copy.Attribute.Dimension(), e.Normalized)
		layouts[i] = wgpu.VertexBufferLayout{
			ArrayStride: e.Stride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{{
				Format:         format,
				Offset:         0,
				ShaderLocation: uint32(e.Copy.Slot),
			}},
		}
		buffers[i] = renderer.BufferBinding{Buffer: e.Buffer, Offset: e.Offset}
	}
	return layouts, buffers
}

// indirectBindings builds the attribute table of an indirect-mode draw and its storage buffers.
// Table entries are (offset, stride, divisor, 0) in f32 elements; storage buffers are bound whole,
// one per attribute in binding order.
func indirectBindings(set *shader.BindingSet, evaluated []EvaluatedBinding) ([][4]uint32, []renderer.BufferBinding) {
	table := make([][4]uint32, len(evaluated))
	for i, e := range evaluated {
		table[i] = [4]uint32{uint32(e.Offset / 4), uint32(e.Stride / 4), e.Divisor, 0}
	}

	storage := make([]renderer.BufferBinding, 0, len(set.StorageAttributes()))
	for _, a := range set.StorageAttributes() {
		var buf *wgpu.Buffer
		for _, e := range evaluated {
			if e.Copy.Attribute.Name == a.Name {
				buf = e.Buffer
				break
			}
		}
		storage = append(storage, renderer.BufferBinding{Buffer: buf})
	}
	return table, storage
}
