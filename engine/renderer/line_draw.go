package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferBinding is a byte range of a GPU buffer bound to a vertex slot or a storage binding.
// A zero Size binds the buffer from Offset to its end.
type BufferBinding struct {
	Buffer *wgpu.Buffer
	Offset uint64
	Size   uint64
}

func (b BufferBinding) size() uint64 {
	if b.Size == 0 {
		return wgpu.WholeSize
	}
	return b.Size
}

// LineDrawCall is one instanced triangle-strip draw of a line program variant.
type LineDrawCall struct {
	// Uniforms is the packed LineUniforms block of the draw, written to a dynamic-offset slot
	// of the frame uniform ring and bound at group 0 binding 0.
	Uniforms []byte

	// VertexBuffers binds one buffer range per vertex buffer slot, in slot order. Direct mode only.
	VertexBuffers []BufferBinding

	// StorageBuffers binds the attribute storage buffers at group 0 bindings 1.. in order. Indirect mode only.
	StorageBuffers []BufferBinding

	// BindGroups are caller bind groups, each set at its own group index.
	BindGroups []bind_group_provider.BindGroupProvider

	VertexCount   uint32
	InstanceCount uint32
}

// Limits are the device limits the line system sizes its variants against.
type Limits struct {
	MaxVertexBuffers                uint32
	MaxVertexAttributes             uint32
	MaxStorageBuffersPerShaderStage uint32
	MinUniformBufferOffsetAlignment uint32
}

// ErrNoFrame is returned by DrawLines outside of a BeginFrame/EndFrame pair.
var ErrNoFrame = errors.New("renderer: no frame in progress")

// validate checks the call against the device limits. A call that draws nothing is valid and skipped.
func (c *LineDrawCall) validate(limits Limits) error {
	if len(c.Uniforms) == 0 {
		return errors.New("renderer: line draw without uniforms")
	}
	if limits.MaxVertexBuffers > 0 && len(c.VertexBuffers) > int(limits.MaxVertexBuffers) {
		return fmt.Errorf("renderer: line draw binds %d vertex buffers, device allows %d", len(c.VertexBuffers), limits.MaxVertexBuffers)
	}
	if limits.MaxStorageBuffersPerShaderStage > 0 && len(c.StorageBuffers) > int(limits.MaxStorageBuffersPerShaderStage) {
		return fmt.Errorf("renderer: line draw binds %d storage buffers, device allows %d", len(c.StorageBuffers), limits.MaxStorageBuffersPerShaderStage)
	}
	for i, vb := range c.VertexBuffers {
		if vb.Buffer == nil {
			return fmt.Errorf("renderer: vertex buffer slot %d is nil", i)
		}
	}
	for i, sb := range c.StorageBuffers {
		if sb.Buffer == nil {
			return fmt.Errorf("renderer: storage binding %d is nil", i+1)
		}
	}
	for _, bg := range c.BindGroups {
		if bg.BindGroup() == nil {
			return fmt.Errorf("renderer: bind group %q (group %d) is not initialized", bg.Label(), bg.Group())
		}
	}
	return nil
}

// empty reports whether the call would draw no primitives.
func (c *LineDrawCall) empty() bool {
	return c.VertexCount == 0 || c.InstanceCount == 0
}
