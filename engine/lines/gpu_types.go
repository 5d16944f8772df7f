package lines

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-lines/engine/geometry"
)

// GPULineUniforms is the GPU-aligned representation of the LineUniforms block bound at
// group 0 binding 0. The fixed header is 48 bytes; indirect variants append one 16-byte
// attribute table entry per copy.
type GPULineUniforms struct {
	VertCnt2    [2]float32 // offset  0
	CapJoinRes2 [2]float32 // offset  8
	Resolution  [2]float32 // offset 16
	CapScale    [2]float32 // offset 24
	MiterLimit  float32    // offset 32: squared miter limit
	IsRound     uint32     // offset 36
	Orientation float32    // offset 40
	_pad        float32    // offset 44

	// Attributes is the indirect attribute table: (offset, stride, divisor, 0) in f32 elements.
	Attributes [][4]uint32
}

// gpuLineUniformsHeader is the header of GPULineUniforms without the attribute table.
type gpuLineUniformsHeader struct {
	VertCnt2    [2]float32
	CapJoinRes2 [2]float32
	Resolution  [2]float32
	CapScale    [2]float32
	MiterLimit  float32
	IsRound     uint32
	Orientation float32
	_pad        float32
}

// newGPULineUniforms packs draw params and an optional attribute table.
func newGPULineUniforms(p geometry.Params, table [][4]uint32) *GPULineUniforms {
	g := &GPULineUniforms{
		VertCnt2:    [2]float32{float32(p.VertCnt2[0]), float32(p.VertCnt2[1])},
		CapJoinRes2: [2]float32{float32(p.CapJoinRes2[0]), float32(p.CapJoinRes2[1])},
		Resolution:  [2]float32{float32(p.Resolution[0]), float32(p.Resolution[1])},
		CapScale:    [2]float32{float32(p.CapScale[0]), float32(p.CapScale[1])},
		MiterLimit:  float32(p.MiterLimit),
		Orientation: float32(p.Orientation),
		Attributes:  table,
	}
	if p.IsRound {
		g.IsRound = 1
	}
	return g
}

// Size returns the byte size of the block including the attribute table.
//
// Returns:
//   - int: 48 plus 16 per table entry
func (g *GPULineUniforms) Size() int {
	return int(unsafe.Sizeof(gpuLineUniformsHeader{})) + 16*len(g.Attributes)
}

// Marshal serializes the block into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULineUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	pairs := [4][2]float32{g.VertCnt2, g.CapJoinRes2, g.Resolution, g.CapScale}
	for i, pair := range pairs {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(pair[0]))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(pair[1]))
	}
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(g.MiterLimit))
	binary.LittleEndian.PutUint32(buf[36:], g.IsRound)
	binary.LittleEndian.PutUint32(buf[40:], math.Float32bits(g.Orientation))
	binary.LittleEndian.PutUint32(buf[44:], 0) // _pad
	for i, entry := range g.Attributes {
		off := 48 + i*16
		for j, v := range entry {
			binary.LittleEndian.PutUint32(buf[off+j*4:], v)
		}
	}
	return buf
}
