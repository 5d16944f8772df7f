package lines

import (
	"encoding/binary"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// VariantCache builds each ProgramVariant at most once and hands out the same instance afterwards.
type VariantCache struct {
	mu       sync.Mutex
	variants map[VariantKey]*ProgramVariant
	build    func(VariantKey) (*ProgramVariant, error)
}

// NewVariantCache creates an empty cache that builds missing variants with build.
func NewVariantCache(build func(VariantKey) (*ProgramVariant, error)) *VariantCache {
	return &VariantCache{
		variants: make(map[VariantKey]*ProgramVariant),
		build:    build,
	}
}

// Get returns the variant for key, building it if absent. A failed build is not cached.
//
// Parameters:
//   - key: the variant to look up
//
// Returns:
//   - *ProgramVariant: the cached or newly built variant
//   - error: the build error, if any
func (c *VariantCache) Get(key VariantKey) (*ProgramVariant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.variants[key]; ok {
		return v, nil
	}
	v, err := c.build(key)
	if err != nil {
		return nil, err
	}
	c.variants[key] = v
	return v, nil
}

// Len returns the number of built variants.
func (c *VariantCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.variants)
}

// layoutFingerprint hashes the strides, formats and locations of vertex buffer layouts. Draws of one
// variant whose buffers differ only in offsets share a fingerprint and thus a pipeline.
func layoutFingerprint(layouts []wgpu.VertexBufferLayout) uint64 {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		panic(err)
	}
	var word [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(word[:], v)
		h.Write(word[:])
	}
	put(uint64(len(layouts)))
	for _, l := range layouts {
		put(l.ArrayStride)
		put(uint64(l.StepMode))
		for _, a := range l.Attributes {
			put(uint64(a.Format))
			put(a.Offset)
			put(uint64(a.ShaderLocation))
		}
	}
	return h.Sum64()
}
