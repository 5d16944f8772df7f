package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the WGSL declaration of the CameraUniform struct. Shaders that bind
// the camera prepend it to their source.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform mirrors the WGSL CameraUniform struct (80 bytes).
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset  0: mat4x4f
	Viewport [2]float32  // offset 64: vec2f, pixels
	Zoom     float32     // offset 72
	_pad     float32     // offset 76
}

// Size returns the size of the uniform in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform for upload.
//
// Returns:
//   - []byte: the little-endian bytes
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(g.Viewport[0]))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(g.Viewport[1]))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(g.Zoom))
	return buf
}
