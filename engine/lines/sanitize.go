package lines

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

// sanitizeRecord checks the style and counts of a record and returns its resolved style.
func sanitizeRecord(index int, r *LineDrawRecord) (geometry.Style, error) {
	switch r.Join {
	case JoinMiter, JoinBevel, JoinRound:
	default:
		return geometry.Style{}, &RecordError{Record: index, Field: "join", Reason: fmt.Sprintf("unknown join style %d", int(r.Join))}
	}
	switch r.Cap {
	case CapSquare, CapRound, CapNone:
	default:
		return geometry.Style{}, &RecordError{Record: index, Field: "cap", Reason: fmt.Sprintf("unknown cap style %d", int(r.Cap))}
	}
	if r.JoinResolution < 0 {
		return geometry.Style{}, &RecordError{Record: index, Field: "joinResolution", Reason: fmt.Sprintf("%d is negative", r.JoinResolution)}
	}
	if r.CapResolution < 0 {
		return geometry.Style{}, &RecordError{Record: index, Field: "capResolution", Reason: fmt.Sprintf("%d is negative", r.CapResolution)}
	}
	if math.IsNaN(r.MiterLimit) || math.IsInf(r.MiterLimit, 0) || (r.MiterLimit != 0 && r.MiterLimit < 1) {
		return geometry.Style{}, &RecordError{Record: index, Field: "miterLimit", Reason: fmt.Sprintf("%g is below 1", r.MiterLimit)}
	}
	if r.VertexCount < 0 {
		return geometry.Style{}, &RecordError{Record: index, Field: "vertexCount", Reason: fmt.Sprintf("%d is negative", r.VertexCount)}
	}
	if r.EndpointCount < 0 {
		return geometry.Style{}, &RecordError{Record: index, Field: "endpointCount", Reason: fmt.Sprintf("%d is negative", r.EndpointCount)}
	}
	if r.ViewportSize[0] < 0 || r.ViewportSize[1] < 0 {
		return geometry.Style{}, &RecordError{Record: index, Field: "viewportSize", Reason: fmt.Sprintf("%v is negative", r.ViewportSize)}
	}
	return r.style().Resolved(), nil
}

// sanitizeAttributes checks the buffers of every attribute a pass uses and fills in their defaults.
// The returned map holds one entry per used attribute with a non-zero dimension, stride and divisor.
//
// Parameters:
//   - index: the record index reported in errors
//   - meta: the analyzed program
//   - pass: the pass the buffers feed
//   - input: the record's buffers for the pass
//   - mode: the binding mode of the draw
//
// Returns:
//   - map[string]AttributeBuffer: the sanitized buffers
//   - error: a *BindingError for the first attribute that cannot be bound
func sanitizeAttributes(index int, meta *shader.ProgramMeta, pass shader.Pass, input map[string]AttributeBuffer, mode shader.BindingMode) (map[string]AttributeBuffer, error) {
	out := make(map[string]AttributeBuffer)
	for _, a := range meta.UsedAttributes(pass) {
		fail := func(kind BindingErrorKind, format string, args ...any) error {
			return &BindingError{Record: index, Pass: pass, Attribute: a.Name, Kind: kind, Detail: fmt.Sprintf(format, args...)}
		}

		buf, ok := input[a.Name]
		if !ok || buf.Buffer == nil {
			return nil, fail(MissingBuffer, "no buffer bound for %s %s", a.Type.WGSL(), a.Name)
		}

		dim := a.Dimension()
		if buf.Dimension != 0 && buf.Dimension != dim {
			return nil, fail(DimensionMismatch, "buffer has dimension %d, %s is declared %s", buf.Dimension, a.Name, a.Type.WGSL())
		}
		buf.Dimension = dim

		if buf.Type.Size() < 4 && buf.Type != Float16 && !buf.Normalized {
			return nil, fail(UnsupportedType, "%s components must be normalized", buf.Type)
		}
		if mode == shader.BindingIndirect {
			if buf.Type != Float32 || buf.Normalized {
				return nil, fail(UnsupportedType, "indirect binding reads float32 components, buffer holds %s", buf.Type)
			}
		} else if _, ok := vertexFormat(buf.Type, dim, buf.Normalized); !ok {
			return nil, fail(UnsupportedType, "no vertex format holds %d %s components", dim, buf.Type)
		}

		elem := buf.Type.Size() * uint64(dim)
		if buf.Stride == 0 {
			buf.Stride = elem
		}
		if buf.Stride < elem {
			return nil, fail(InvalidLayout, "stride %d is smaller than one element (%d bytes)", buf.Stride, elem)
		}
		if buf.Offset%4 != 0 || buf.Stride%4 != 0 {
			return nil, fail(InvalidLayout, "offset %d and stride %d must be multiples of 4", buf.Offset, buf.Stride)
		}

		switch {
		case buf.Divisor < 0:
			return nil, fail(InvalidLayout, "divisor %d is negative", buf.Divisor)
		case buf.Divisor == 0:
			buf.Divisor = 1
		case buf.Divisor > 1 && mode == shader.BindingDirect:
			return nil, fail(InvalidLayout, "divisor %d needs indirect binding", buf.Divisor)
		}

		out[a.Name] = buf
	}
	return out, nil
}
