package lines

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/shader"
)

// VariantKey identifies a generated line program. The zero key is the direct-mode segment pass
// without cap insertion.
type VariantKey uint8

const (
	VariantEndpoint VariantKey = 1 << iota
	VariantInsertCaps
	VariantIndirect
)

// variantKeyOf composes the key of a pass, cap insertion and binding mode.
func variantKeyOf(pass shader.Pass, insertCaps bool, mode shader.BindingMode) VariantKey {
	var k VariantKey
	if pass == shader.PassEndpoint {
		k |= VariantEndpoint
	}
	if insertCaps {
		k |= VariantInsertCaps
	}
	if mode == shader.BindingIndirect {
		k |= VariantIndirect
	}
	return k
}

// Pass returns the pass the variant draws.
func (k VariantKey) Pass() shader.Pass {
	if k&VariantEndpoint != 0 {
		return shader.PassEndpoint
	}
	return shader.PassSegment
}

// InsertCaps reports whether the variant draws caps at invalid points.
func (k VariantKey) InsertCaps() bool {
	return k&VariantInsertCaps != 0
}

// Mode returns the binding mode of the variant.
func (k VariantKey) Mode() shader.BindingMode {
	if k&VariantIndirect != 0 {
		return shader.BindingIndirect
	}
	return shader.BindingDirect
}

// String renders the key as "segment", "endpoint+caps+indirect" and so on.
func (k VariantKey) String() string {
	parts := []string{"segment"}
	if k&VariantEndpoint != 0 {
		parts[0] = "endpoint"
	}
	if k.InsertCaps() {
		parts = append(parts, "caps")
	}
	if k&VariantIndirect != 0 {
		parts = append(parts, "indirect")
	}
	return strings.Join(parts, "+")
}

// ProgramVariant is a generated vertex and fragment program for one VariantKey together with
// the binding descriptors of its copies. Its program and descriptors never change after creation.
// Render pipelines are created lazily, one per distinct vertex layout fingerprint.
type ProgramVariant struct {
	Key         VariantKey
	Program     *shader.LineProgram
	Vertex      shader.Shader
	Fragment    shader.Shader
	Descriptors []BindingDescriptor

	mu        sync.Mutex
	pipelines map[uint64]pipeline.Pipeline
}

// pipelineKey is the renderer cache key of the variant's pipeline for a layout fingerprint.
func (v *ProgramVariant) pipelineKey(fingerprint uint64) string {
	return fmt.Sprintf("lines/%s/%016x", v.Key, fingerprint)
}

// pipeline returns the variant's pipeline for a fingerprint, registering it with r on first use.
//
// Parameters:
//   - r: the renderer that owns the GPU pipelines
//   - fingerprint: the hash of layouts
//   - layouts: option setting the vertex layouts (nil in indirect mode)
//   - forwarded: caller pipeline options applied before the line-owned state
//
// Returns:
//   - pipeline.Pipeline: the registered pipeline
//   - error: the registration error, if any
func (v *ProgramVariant) pipeline(r LineRenderer, fingerprint uint64, layouts pipeline.PipelineBuilderOption, forwarded []pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.pipelines[fingerprint]; ok {
		return p, nil
	}

	opts := make([]pipeline.PipelineBuilderOption, 0, len(forwarded)+4)
	opts = append(opts, forwarded...)
	opts = append(opts,
		pipeline.WithVertexShader(v.Vertex),
		pipeline.WithFragmentShader(v.Fragment),
		pipeline.WithTopology(lineTopology),
	)
	if layouts != nil {
		opts = append(opts, layouts)
	}

	p := pipeline.NewPipeline(v.pipelineKey(fingerprint), opts...)
	if err := r.RegisterPipelines(p); err != nil {
		return nil, fmt.Errorf("lines: variant %s: %w", v.Key, err)
	}
	if v.pipelines == nil {
		v.pipelines = make(map[uint64]pipeline.Pipeline)
	}
	v.pipelines[fingerprint] = p
	tracer().Debugf("registered pipeline %s", p.PipelineKey())
	return p, nil
}
